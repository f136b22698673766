package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DatabaseURL string

	// Kafka
	KafkaBrokers string

	// API Configuration
	APIPort string
	APIHost string

	// Encryption key for shop credentials, base64 or raw 32 bytes
	EncryptionKey []byte

	// Object storage (S3-compatible)
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	// Photo service
	PhotoServiceURL string
	PhotoServiceKey string

	// Sync tuning
	SyncPageSize          int
	RelocationConcurrency int

	// Environment
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// Load .env file
	godotenv.Load()

	key, err := decodeEncryptionKey(os.Getenv("ENCRYPTION_KEY"))
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL:           getEnv("DATABASE_URL", "sqlite://wpm.db"),
		KafkaBrokers:          getEnv("KAFKA_BROKERS", ""),
		APIPort:               getEnv("API_PORT", "8080"),
		APIHost:               getEnv("API_HOST", "0.0.0.0"),
		EncryptionKey:         key,
		S3Endpoint:            getEnv("S3_ENDPOINT", ""),
		S3Region:              getEnv("S3_REGION", "us-east-1"),
		S3Bucket:              getEnv("S3_BUCKET", "wpm-media"),
		S3AccessKey:           getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:           getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:           getEnv("S3_PUBLIC_URL", ""),
		PhotoServiceURL:       getEnv("PHOTO_SERVICE_URL", ""),
		PhotoServiceKey:       getEnv("PHOTO_SERVICE_KEY", ""),
		SyncPageSize:          getEnvAsInt("SYNC_PAGE_SIZE", 50),
		RelocationConcurrency: getEnvAsInt("RELOCATION_CONCURRENCY", 4),
		Env:                   getEnv("ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
	}, nil
}

// decodeEncryptionKey accepts either a base64-encoded key or a raw 32-byte
// string. Anything that does not decode to exactly 32 bytes aborts startup.
func decodeEncryptionKey(value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is not set")
	}

	if decoded, err := base64.StdEncoding.DecodeString(value); err == nil && len(decoded) == 32 {
		return decoded, nil
	}

	if len(value) == 32 {
		return []byte(value), nil
	}

	return nil, fmt.Errorf("ENCRYPTION_KEY must decode to exactly 32 bytes")
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
