package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	MySQLDSN       string
	RedisURL       string
	JWTSecret      string
	Port           string
	Storage        string // mysql or memory
	AdminSetupCode string
	FrontendURL    string
	RateLimit      int
	EnableSSL      bool
	SSLCert        string
	SSLKey         string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	rl, _ := strconv.Atoi(getenv("RATE_LIMIT", "30"))
	ssl, _ := strconv.ParseBool(getenv("ENABLE_SSL", "false"))
	return Config{
		MySQLDSN:       getenv("MYSQL_DSN", "ballotcast:ballotcast@tcp(localhost:3306)/ballotcast?parseTime=true"),
		RedisURL:       getenv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret-change-me"),
		Port:           getenv("PORT", "8080"),
		Storage:        getenv("STORAGE", "mysql"),
		AdminSetupCode: os.Getenv("ADMIN_SETUP_CODE"),
		FrontendURL:    getenv("FRONTEND_URL", "http://localhost:3000"),
		RateLimit:      rl,
		EnableSSL:      ssl,
		SSLCert:        os.Getenv("SSL_CERT"),
		SSLKey:         os.Getenv("SSL_KEY"),
	}
}
