package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. Empty PostgresURL/RedisURL/KafkaBrokers select the in-process
// fallbacks.
type Config struct {
	Addr string

	PostgresURL string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string

	BCryptCost int

	RateLimitMax      int
	RateLimitWindow   time.Duration
	RateLimitFailOpen bool

	TokenTTL time.Duration

	JWTSigningKey string
	JWTTTL        time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string
	AdminEmail   string

	// VerifyBaseURL is the frontend URL embedded in verification emails.
	VerifyBaseURL string

	QueueBuffer int
}

// FromEnv builds a Config from environment variables with defaults suitable
// for local development.
func FromEnv() Config {
	return Config{
		Addr:              getenv("HEALTHFIRST_ADDR", ":8080"),
		PostgresURL:       os.Getenv("HEALTHFIRST_POSTGRES_URL"),
		RedisURL:          os.Getenv("HEALTHFIRST_REDIS_URL"),
		KafkaBrokers:      getlist("HEALTHFIRST_KAFKA_BROKERS"),
		KafkaTopic:        getenv("HEALTHFIRST_KAFKA_TOPIC", "healthfirst.notifications"),
		BCryptCost:        getint("BCRYPT_SALT_ROUNDS", 12),
		RateLimitMax:      getint("RATE_LIMIT_MAX_REQUESTS", 5),
		RateLimitWindow:   time.Duration(getint("RATE_LIMIT_WINDOW_MINUTES", 60)) * time.Minute,
		RateLimitFailOpen: os.Getenv("RATE_LIMIT_FAIL_OPEN") == "true",
		TokenTTL:          time.Duration(getint("VERIFICATION_TOKEN_TTL_HOURS", 24)) * time.Hour,
		JWTSigningKey:     getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTTTL:            time.Duration(getint("JWT_TTL_MINUTES", 60)) * time.Minute,
		SMTPHost:          os.Getenv("SMTP_HOST"),
		SMTPPort:          getint("SMTP_PORT", 587),
		SMTPUsername:      os.Getenv("SMTP_USERNAME"),
		SMTPPassword:      os.Getenv("SMTP_PASSWORD"),
		EmailFrom:         getenv("EMAIL_FROM", "noreply@healthfirst.local"),
		AdminEmail:        getenv("ADMIN_EMAIL", "admin@healthfirst.local"),
		VerifyBaseURL:     getenv("VERIFY_BASE_URL", "http://localhost:3000"),
		QueueBuffer:       getint("NOTIFY_QUEUE_BUFFER", 256),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getlist(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
