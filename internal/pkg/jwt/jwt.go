package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Staff roles as the hotel backend spells them in the role claim.
const (
	RoleReceptionist = "RECEPTIONIST"
	RoleManager      = "MANAGER"
	RoleAdmin        = "ADMIN"
	RoleHousekeeper  = "HOUSEKEEPER"
)

// FrontDeskRoles may run check-outs and assign housekeeping.
var FrontDeskRoles = []string{RoleReceptionist, RoleManager, RoleAdmin}

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
)

// Claims is the staff session token minted by the hotel backend on login.
// The raw token is forwarded upstream unchanged; only these fields are read.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwtlib.RegisteredClaims
}

// FrontDesk reports whether the staff member may use the check-out desk.
func (c *Claims) FrontDesk() bool {
	for _, r := range FrontDeskRoles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// Service verifies backend-issued tokens against the shared HS256 secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	leeway time.Duration
}

type Option func(*Service)

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) Option {
	return func(s *Service) { s.issuer = issuer }
}

// WithLeeway tolerates clock skew between this service and the backend.
func WithLeeway(d time.Duration) Option {
	return func(s *Service) { s.leeway = d }
}

func New(secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{secret: []byte(secret), ttl: ttl}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateToken mints a token shaped like the backend's. Tests and local
// tooling only; production tokens come from the backend.
func (s *Service) GenerateToken(userID int64, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    s.issuer,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	parserOpts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(s.leeway),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwtlib.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	}, parserOpts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return nil, ErrInvalidClaims
	}
	claims.Role = strings.ToUpper(strings.TrimSpace(claims.Role))
	return claims, nil
}
