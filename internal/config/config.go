package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/audiobook-library/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env         string        // application environment (dev, test, prod)
	Port        string        // HTTP port to listen on
	DBUser      string        // database username
	DBPass      string        // database password (optional)
	DBHost      string        // database host address
	DBPort      string        // database port number
	DBName      string        // database name
	DBMaxConns  int           // connection pool size
	JWTSecret   string        // secret used to sign session tokens
	TokenTTL    time.Duration // lifetime of a session token
	BcryptCost  int           // bcrypt cost for password hashing
	CORSOrigins []string      // allowed CORS origins; empty means "*"
	RabbitMQURL string        // broker for subscription events; empty disables publishing
	AuditLog    string        // file the audit consumer appends to
}

// IsDev reports whether internal error details may be returned to clients.
func (c Config) IsDev() bool { return strings.EqualFold(c.Env, "dev") }

// Database returns the connection settings for database.Open.
func (c Config) Database() database.Options {
	return database.Options{
		User:         c.DBUser,
		Pass:         c.DBPass,
		Host:         c.DBHost,
		Port:         c.DBPort,
		Name:         c.DBName,
		MaxOpenConns: c.DBMaxConns,
	}
}

// LoadDotEnv loads a .env file from the working directory when one exists.
// Values already present in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:         envStr("APP_ENV", "dev"),
		Port:        envStr("APP_PORT", "8080"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"),
		DBHost:      must("DB_HOST"),
		DBPort:      envStr("DB_PORT", "3306"),
		DBName:      must("DB_NAME"),
		DBMaxConns:  envInt("DB_MAX_OPEN_CONNS", 25),
		JWTSecret:   must("JWT_SECRET"),
		TokenTTL:    envDur("TOKEN_TTL", 24*time.Hour),
		BcryptCost:  mustInt("BCRYPT_COST"),
		CORSOrigins: splitList(os.Getenv("CORS_ALLOW_ORIGINS")),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		AuditLog:    envStr("AUDIT_LOG_PATH", "logs/subscription.log"),
	}
	if cfg.TokenTTL <= 0 {
		log.Fatalf("invalid TOKEN_TTL: %s", cfg.TokenTTL)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SeedConfig holds the bootstrap administrator credentials used by the seed
// command.  Registration never creates administrators.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
	SampleBooks   bool
}

// LoadSeed reads the seed command settings.
func LoadSeed() SeedConfig {
	return SeedConfig{
		AdminEmail:    must("ADMIN_EMAIL"),
		AdminPassword: must("ADMIN_PASSWORD"),
		AdminName:     envStr("ADMIN_NAME", "Administrator"),
		SampleBooks:   envBool("SEED_SAMPLE_BOOKS", true),
	}
}
