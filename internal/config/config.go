package config

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	JWT      JWTConfig      `env:",prefix=JWT_"`
	SMTP     SMTPConfig     `env:",prefix=SMTP_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host          string `env:"HOST,default=localhost"`
	Port          string `env:"PORT,default=5432"`
	User          string `env:"USER,default=telehealth"`
	Password      string `env:"PASSWORD,default=telehealth_password"`
	DBName        string `env:"DB,default=telehealth_db"`
	SSLMode       string `env:"SSLMODE,default=disable"`
	MigrationsDir string `env:"MIGRATIONS_DIR,default=migrations"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret             string   `env:"SECRET,required"`
	AccessTokenExpiry  Duration `env:"ACCESS_TOKEN_EXPIRY,default=15m"`
	RefreshTokenExpiry Duration `env:"REFRESH_TOKEN_EXPIRY,default=7d"`
}

type SMTPConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=587"`
	Username string `env:"USERNAME,default="`
	Password string `env:"PASSWORD,default="`
	From     string `env:"FROM,default=no-reply@carebridge.health"`
}

type SecurityConfig struct {
	BCryptCost    int      `env:"BCRYPT_COST,default=12"`
	EncryptionKey string   `env:"ENCRYPTION_KEY,required"`
	OTPExpiry     Duration `env:"OTP_EXPIRY,default=10m"`
	TokenSweep    Duration `env:"TOKEN_SWEEP_INTERVAL,default=1h"`

	GlobalRateLimit  int      `env:"GLOBAL_RATE_LIMIT,default=100"`
	GlobalRateWindow Duration `env:"GLOBAL_RATE_WINDOW,default=15m"`
	AuthRateLimit    int      `env:"AUTH_RATE_LIMIT,default=10"`
	AuthRateWindow   Duration `env:"AUTH_RATE_WINDOW,default=10m"`
	OTPRateLimit     int      `env:"OTP_RATE_LIMIT,default=3"`
	OTPRateWindow    Duration `env:"OTP_RATE_WINDOW,default=10m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:5173"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns the PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns the Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	// AES-256 requires exactly 32 key bytes, supplied hex-encoded
	key, err := hex.DecodeString(config.Security.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be hex-encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}

	return &config, nil
}

// EncryptionKeyBytes returns the decoded AES key. Load guarantees it decodes.
func (s SecurityConfig) EncryptionKeyBytes() []byte {
	key, _ := hex.DecodeString(s.EncryptionKey)
	return key
}
