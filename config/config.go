package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Port string

	MongoURI      string
	MongoDatabase string
	WatchOrders   bool

	JWTSecret   string
	AdminEmails []string

	GuestStoreDriver string
	GuestStoreDSN    string
	GuestSessionTTL  time.Duration

	MailProvider     string
	PostmarkAPIToken string
	SendGridAPIKey   string
	EmailSender      string
	AppBaseURL       string

	AssistantWebhookURL string
	InvoiceWebhookURL   string
	WebhookTimeout      time.Duration

	AllowedOrigins []string

	LogLevel  string
	LogFormat string

	MenuSeedFile string

	// EnvFileLoaded is false when no .env file was found.
	EnvFileLoaded bool
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil

	cfg := &Config{
		Port:                GetEnv("PORT", "8000"),
		MongoURI:            GetEnv("MONGO_URI", ""),
		MongoDatabase:       GetEnv("MONGO_DATABASE", "cloud_kitchen"),
		JWTSecret:           GetEnv("JWT_SECRET", ""),
		AdminEmails:         splitList(GetEnv("ADMIN_EMAILS", "")),
		GuestStoreDriver:    GetEnv("GUEST_STORE_DRIVER", "sqlite3"),
		GuestStoreDSN:       GetEnv("GUEST_STORE_DSN", "guest.db"),
		MailProvider:        strings.ToLower(GetEnv("MAIL_PROVIDER", "")),
		PostmarkAPIToken:    GetEnv("POSTMARK_API_TOKEN", ""),
		SendGridAPIKey:      GetEnv("SENDGRID_API_KEY", ""),
		EmailSender:         GetEnv("EMAIL_SENDER", "orders@cloudkitchen.local"),
		AssistantWebhookURL: GetEnv("ASSISTANT_WEBHOOK_URL", ""),
		InvoiceWebhookURL:   GetEnv("INVOICE_WEBHOOK_URL", ""),
		AllowedOrigins:      splitList(GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		LogLevel:            GetEnv("LOG_LEVEL", "info"),
		LogFormat:           GetEnv("LOG_FORMAT", "text"),
		MenuSeedFile:        GetEnv("MENU_SEED_FILE", ""),
		EnvFileLoaded:       loaded,
	}
	cfg.AppBaseURL = GetEnv("APP_BASE_URL", "http://localhost:"+cfg.Port)

	var err error
	if cfg.WatchOrders, err = getBool("WATCH_ORDERS", false); err != nil {
		return nil, err
	}
	if cfg.GuestSessionTTL, err = getDuration("GUEST_SESSION_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.WebhookTimeout, err = getDuration("WEBHOOK_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that have a closed set of values.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q: must be between 1 and 65535", c.Port)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	switch c.GuestStoreDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("invalid GUEST_STORE_DRIVER %q: must be sqlite3 or postgres", c.GuestStoreDriver)
	}
	switch c.MailProvider {
	case "", "postmark", "sendgrid":
	default:
		return fmt.Errorf("invalid MAIL_PROVIDER %q", c.MailProvider)
	}
	if c.GuestSessionTTL <= 0 {
		return fmt.Errorf("GUEST_SESSION_TTL must be positive")
	}
	return nil
}

// IsAdminEmail reports whether accounts registered with email get the admin role.
func (c *Config) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}

// GetEnv returns the environment variable or the fallback when unset or empty.
func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := GetEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := GetEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
