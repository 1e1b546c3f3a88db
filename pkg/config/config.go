package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/notifier/pkg/validators"
)

// Store backends
const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
)

// Notification sinks
const (
	SinkStore    = "store"
	SinkPostgres = "postgres"
)

// Trigger auth modes
const (
	AuthNone = "none"
	AuthOIDC = "oidc"
	AuthJWT  = "jwt"
)

// Config holds all runtime configuration loaded from environment variables
type Config struct {
	Port      string `validate:"required,numeric"`
	Env       string
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`

	StoreBackend     string `validate:"oneof=firestore mongo"`
	NotificationSink string `validate:"oneof=store postgres"`

	FirebaseCredentialsPath string
	FirebaseProjectID       string
	MongoURI                string `validate:"required_if=StoreBackend mongo"`
	MongoDatabase           string `validate:"required_if=StoreBackend mongo"`
	PostgresConnStr         string `validate:"required_if=NotificationSink postgres"`

	DeltaPolicy string `validate:"oneof=all first"`
	Dedupe      bool

	PushEnabled          bool
	PushRatePerSec       float64 `validate:"gte=0"`
	PushBurst            int     `validate:"gte=0"`
	PushPruneStaleTokens bool

	HandlerTimeout time.Duration `validate:"gt=0"`

	TriggerAuth      string `validate:"oneof=none oidc jwt"`
	TriggerAudience  string `validate:"required_if=TriggerAuth oidc"`
	TriggerJWTSecret string `validate:"required_if=TriggerAuth jwt"`

	WatchChangeStreams bool
	WatchPoolSize      int `validate:"gte=1"`
}

// Load reads all configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		StoreBackend:     getEnv("STORE_BACKEND", BackendFirestore),
		NotificationSink: getEnv("NOTIFICATION_SINK", SinkStore),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "socialmedia"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),

		DeltaPolicy: getEnv("NOTIFY_DELTA_POLICY", "all"),
		Dedupe:      getEnvBool("NOTIFY_DEDUPE", false),

		PushEnabled:          getEnvBool("PUSH_ENABLED", true),
		PushRatePerSec:       getEnvFloat("PUSH_RATE_PER_SEC", 0),
		PushBurst:            getEnvInt("PUSH_BURST", 10),
		PushPruneStaleTokens: getEnvBool("PUSH_PRUNE_STALE_TOKENS", true),

		HandlerTimeout: getEnvDuration("HANDLER_TIMEOUT", 30*time.Second),

		TriggerAuth:      strings.ToLower(getEnv("TRIGGER_AUTH", AuthNone)),
		TriggerAudience:  getEnv("TRIGGER_AUDIENCE", ""),
		TriggerJWTSecret: getEnv("TRIGGER_JWT_SECRET", ""),

		WatchChangeStreams: getEnvBool("WATCH_CHANGE_STREAMS", false),
		WatchPoolSize:      getEnvInt("WATCH_POOL_SIZE", 32),
	}
}

// Validate checks field constraints and cross-field rules
func (c *Config) Validate() error {
	if err := validators.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.WatchChangeStreams && c.StoreBackend != BackendMongo {
		return fmt.Errorf("invalid config: WATCH_CHANGE_STREAMS requires STORE_BACKEND=%s", BackendMongo)
	}
	return nil
}

// NeedsFirebase reports whether any Firebase client has to be initialized
func (c *Config) NeedsFirebase() bool {
	return c.StoreBackend == BackendFirestore || c.PushEnabled
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
