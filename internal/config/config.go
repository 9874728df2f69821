package config // package config loads application configuration from the environment

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration. Database coordinates and the JWT
// secret are required; everything else has a sensible default so a bare
// deployment only needs a .env with five lines.
type Config struct {
	Env           string // application environment ("dev", "prod")
	Port          string // HTTP port to listen on
	DBUser        string
	DBPass        string // optional, empty allowed
	DBHost        string
	DBPort        string
	DBName        string
	JWTSecret     string // secret used to sign bearer tokens
	TokenTTLHours int    // absolute token lifetime
	BcryptCost    int    // bcrypt cost for password hashing
	CheckHour     int    // wall-clock hour of the daily expiry sweep
	CheckMinute   int    // wall-clock minute of the daily expiry sweep
}

// Load reads a .env file if present, then resolves every variable. Missing
// required variables halt the process with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // best effort; real env wins over the file

	return Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          getenv("APP_PORT", "8080"),
		DBUser:        must("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        must("DB_HOST"),
		DBPort:        must("DB_PORT"),
		DBName:        must("DB_NAME"),
		JWTSecret:     must("JWT_SECRET"),
		TokenTTLHours: getint("TOKEN_TTL_HOURS", 24),
		BcryptCost:    getint("BCRYPT_COST", 12),
		CheckHour:     getint("EXPIRY_CHECK_HOUR", 9),
		CheckMinute:   getint("EXPIRY_CHECK_MINUTE", 0),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
