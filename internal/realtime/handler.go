package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"frontdesk/internal/pkg/jwt"
	"frontdesk/internal/pkg/response"
)

const EventSession = "checkout.session"

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// SnapshotFunc returns the state sent to a client right after it connects.
type SnapshotFunc func(userID int64) interface{}

type Handler struct {
	hub      *Hub
	tokens   TokenValidator
	upgrader websocket.Upgrader
	snapshot SnapshotFunc
}

// NewHandler accepts browser origins from allowedOrigins; requests without
// an Origin header (non-browser clients) are always accepted.
func NewHandler(hub *Hub, tokens TokenValidator, allowedOrigins []string, snapshot SnapshotFunc) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		snapshot: snapshot,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/ws/checkout", h.HandleWebSocket)
}

// HandleWebSocket authenticates with ?token= since browsers cannot set
// headers on the upgrade request.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if !claims.FrontDesk() {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.loggerf("level=warn msg=websocket upgrade failed user_id=%d err=%v", claims.UserID, err)
		return
	}
	h.hub.loggerf("level=info msg=realtime client connected user_id=%d", claims.UserID)

	var greet func()
	if h.snapshot != nil {
		greet = func() { h.hub.SendToUser(claims.UserID, EventSession, h.snapshot(claims.UserID)) }
	}
	h.hub.Serve(conn, claims.UserID, greet)
	h.hub.loggerf("level=info msg=realtime client disconnected user_id=%d", claims.UserID)
}
