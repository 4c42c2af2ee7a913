package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"frontdesk/internal/pkg/validator"
)

const (
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultBackendBaseURL = "http://localhost:8080"
	defaultQRTemplate     = "https://img.vietqr.io/image/%s-%s-compact2.png"
)

type Config struct {
	AppEnv    string `mapstructure:"app_env"`
	HotelName string `mapstructure:"hotel_name"`

	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	} `mapstructure:"server"`

	Backend struct {
		BaseURL string        `mapstructure:"base_url" validate:"required,url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"backend"`

	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`

	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`

	JWT struct {
		Secret string        `mapstructure:"secret"`
		Issuer string        `mapstructure:"issuer"`
		Leeway time.Duration `mapstructure:"leeway"`
	} `mapstructure:"jwt"`

	Checkout struct {
		PollInterval          time.Duration `mapstructure:"poll_interval"`
		AssignmentRepollDelay time.Duration `mapstructure:"assignment_repoll_delay"`
		AttemptRetention      time.Duration `mapstructure:"attempt_retention"`
		PendingStaleAfter     time.Duration `mapstructure:"pending_stale_after"`
	} `mapstructure:"checkout"`

	Bank struct {
		Bin         string `mapstructure:"bin" validate:"required,numeric"`
		Account     string `mapstructure:"account" validate:"required,alphanum"`
		AccountName string `mapstructure:"account_name"`
		QRTemplate  string `mapstructure:"qr_template"`
	} `mapstructure:"bank"`
}

// Load reads configs/config.yaml when present and lets environment variables
// override every key (server.port -> SERVER_PORT).
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	// DATABASE_URL and JWT_SECRET keep their conventional names.
	if dsn := v.GetString("database_url"); dsn != "" {
		cfg.Database.URL = dsn
	}
	if secret := v.GetString("jwt_secret"); secret != "" {
		cfg.JWT.Secret = secret
	}
	cfg.AppEnv = strings.ToLower(strings.TrimSpace(cfg.AppEnv))

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	log.Printf("[Config] env=%s backend=%s poll_interval=%s", cfg.AppEnv, cfg.Backend.BaseURL, cfg.Checkout.PollInterval)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("hotel_name", "Hotel")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.cors_allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("backend.base_url", defaultBackendBaseURL)
	v.SetDefault("backend.timeout", 15*time.Second)
	v.SetDefault("database.url", "frontdesk.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 5*time.Minute)
	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.leeway", 30*time.Second)
	v.SetDefault("checkout.poll_interval", 2*time.Second)
	v.SetDefault("checkout.assignment_repoll_delay", time.Second)
	v.SetDefault("checkout.attempt_retention", 90*24*time.Hour)
	v.SetDefault("checkout.pending_stale_after", 2*time.Minute)
	v.SetDefault("bank.bin", "970422")
	v.SetDefault("bank.account", "0000000000")
	v.SetDefault("bank.account_name", "HOTEL")
	v.SetDefault("bank.qr_template", defaultQRTemplate)
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be > 0")
	}
	if err := validator.Check(cfg); err != nil {
		return err
	}
	if cfg.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be > 0")
	}
	if cfg.Checkout.PollInterval <= 0 {
		return fmt.Errorf("CHECKOUT_POLL_INTERVAL must be > 0")
	}
	if cfg.Checkout.AssignmentRepollDelay < 0 {
		return fmt.Errorf("CHECKOUT_ASSIGNMENT_REPOLL_DELAY must be >= 0")
	}
	if cfg.Checkout.AttemptRetention <= 0 {
		return fmt.Errorf("CHECKOUT_ATTEMPT_RETENTION must be > 0")
	}
	if cfg.Checkout.PendingStaleAfter <= cfg.Backend.Timeout {
		return fmt.Errorf("CHECKOUT_PENDING_STALE_AFTER must exceed BACKEND_TIMEOUT")
	}
	if cfg.JWT.Leeway < 0 {
		return fmt.Errorf("JWT_LEEWAY must be >= 0")
	}
	if cfg.Redis.TTL <= 0 {
		return fmt.Errorf("REDIS_TTL must be > 0")
	}
	if strings.Count(cfg.Bank.QRTemplate, "%s") != 2 {
		return fmt.Errorf("BANK_QR_TEMPLATE must contain exactly two %%s verbs")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWT.Secret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}
