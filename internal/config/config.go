package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreDynamo = "dynamo"
	StoreMongo  = "mongo"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort     string
	AppEnv      string
	LogLevel    string
	StoreDriver string // "dynamo" or "mongo"

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	MongoURI      string
	MongoDatabase string

	S3BucketName   string
	S3PresignTTL   time.Duration
	MaxUploadBytes int64
	MaxImageBytes  int64

	JWTPrivateKeyPath string // optional; only needed to mint tokens
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
	// TrustProxyHeaders makes the rate limiter key on X-Forwarded-For.
	// Enable only behind a proxy that sets the header itself.
	TrustProxyHeaders bool

	RedisURL     string // empty disables cross-instance relay
	RelayChannel string
	WSSendBuffer int
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users         string
	Posts         string
	Resources     string
	Notifications string
	Messages      string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort:     getEnv("APP_PORT", "3000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDynamo)),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:         getEnv("DYNAMO_TABLE_USERS", "users"),
			Posts:         getEnv("DYNAMO_TABLE_POSTS", "posts"),
			Resources:     getEnv("DYNAMO_TABLE_RESOURCES", "resources"),
			Notifications: getEnv("DYNAMO_TABLE_NOTIFICATIONS", "notifications"),
			Messages:      getEnv("DYNAMO_TABLE_MESSAGES", "messages"),
		},

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "devconnect"),

		S3BucketName:   getEnv("S3_BUCKET_NAME", "devconnect-files"),
		S3PresignTTL:   getEnvDuration("S3_PRESIGN_TTL", 15*time.Minute),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 100<<20)),
		MaxImageBytes:  int64(getEnvInt("MAX_IMAGE_BYTES", 10<<20)),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", ""),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),

		AllowedOrigins:    strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),

		RedisURL:     getEnv("REDIS_URL", ""),
		RelayChannel: getEnv("RELAY_CHANNEL", "devconnect:relay"),
		WSSendBuffer: getEnvInt("WS_SEND_BUFFER", 64),
	}
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("90s", "168h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
