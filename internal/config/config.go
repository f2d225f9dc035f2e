package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	DB       DBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	HTTP     HTTPConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	// Timeout bounds a single storage round-trip.
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type AuthConfig struct {
	SessionSecret    string
	SessionTTL       time.Duration
	CookieSecure     bool
	BcryptCost       int
	LoginMaxAttempts int
	LoginLockWindow  time.Duration
}

type HTTPConfig struct {
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASS", ""),
			Name:     getEnv("DB_NAME", "cashier-db"),
			Timeout:  getEnvAsDuration("DB_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "order-topic"),
		},
		Auth: AuthConfig{
			SessionSecret:    os.Getenv("SESSION_SECRET"),
			SessionTTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			CookieSecure:     getEnvAsBool("COOKIE_SECURE", false),
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			LoginMaxAttempts: getEnvAsInt("LOGIN_MAX_ATTEMPTS", 5),
			LoginLockWindow:  getEnvAsDuration("LOGIN_LOCK_WINDOW", 15*time.Minute),
		},
		HTTP: HTTPConfig{
			RateLimit:   getEnvAsFloat("RATE_LIMIT", 10),
			RateBurst:   getEnvAsInt("RATE_BURST", 20),
			CORSOrigins: getEnvAsList("CORS_ORIGINS"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
