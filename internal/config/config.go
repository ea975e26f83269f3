package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName  string
	HTTPAddr string

	DatabaseURL string

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	// Secret signs session JWTs.
	Secret string

	// One-time login codes.
	CodeLength int
	CodeExpiry time.Duration

	// Sliding-window throttle on code requests per email.
	RateLimitRequests int
	RateLimitWindow   time.Duration

	SessionExpiry time.Duration

	// Whitelist mode: only emails already present in the users table
	// may request a code.
	EmailWhitelist bool

	MailgunAPIKey    string
	MailgunDomain    string
	MailgunFromEmail string
	MailgunFromName  string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:              getenv("APP_NAME", "Guardian"),
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",

		Secret: mustGetenv("SECRET_KEY"),

		CodeLength: getenvInt("CODE_LENGTH", 6),
		CodeExpiry: time.Duration(getenvInt("CODE_EXPIRY_MINUTES", 2)) * time.Minute,

		RateLimitRequests: getenvInt("RATE_LIMIT_REQUESTS", 3),
		RateLimitWindow:   time.Duration(getenvInt("RATE_LIMIT_WINDOW_MINUTES", 15)) * time.Minute,

		SessionExpiry: time.Duration(getenvInt("SESSION_EXPIRY_DAYS", 7)) * 24 * time.Hour,

		EmailWhitelist: getenv("EMAIL_WHITELIST", "true") == "true",

		MailgunAPIKey:    getenv("MAILGUN_API_KEY", ""),
		MailgunDomain:    getenv("MAILGUN_DOMAIN", ""),
		MailgunFromEmail: getenv("MAILGUN_FROM_EMAIL", "noreply@example.com"),
		MailgunFromName:  getenv("MAILGUN_FROM_NAME", "Guardian"),
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
