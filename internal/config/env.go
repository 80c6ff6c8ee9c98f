package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// RuntimeConfig points at the model runtime sidecar.
type RuntimeConfig struct {
    URL     string
    Timeout time.Duration
}

// StorageConfig defines the S3 (or S3-compatible) artifact store.
type StorageConfig struct {
    Bucket     string
    Region     string
    Endpoint   string
    AccessKey  string
    SecretKey  string
    PublicURL  string
    PresignTTL time.Duration
}

// InferenceConfig defines capacity and visualization behavior.
type InferenceConfig struct {
    MaxInflight int
    FillMask    bool
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
    Port            string
    ShutdownTimeout time.Duration
}

// Config is the top-level configuration.
type Config struct {
    Logging   LoggingConfig
    Axiom     AxiomConfig
    Runtime   RuntimeConfig
    Storage   StorageConfig
    Inference InferenceConfig
    Server    ServerConfig
    RedisURL  string
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/florenceapi.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_florenceapi",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    // Runtime defaults
    cfg.Runtime = RuntimeConfig{
        URL:     getEnv("MODEL_RUNTIME_URL", "http://localhost:9000"),
        Timeout: parseDuration(getEnv("MODEL_RUNTIME_TIMEOUT", "120s"), 120*time.Second),
    }

    // Storage defaults
    cfg.Storage = StorageConfig{
        Bucket:     getEnv("S3_BUCKET", "florence-artifacts"),
        Region:     getEnv("AWS_REGION", "us-east-1"),
        Endpoint:   getEnv("S3_ENDPOINT", ""),
        AccessKey:  getEnv("S3_ACCESS_KEY", os.Getenv("AWS_ACCESS_KEY_ID")),
        SecretKey:  getEnv("S3_SECRET_KEY", os.Getenv("AWS_SECRET_ACCESS_KEY")),
        PublicURL:  getEnv("S3_PUBLIC_URL", ""),
        PresignTTL: parseDuration(getEnv("PRESIGN_TTL", "168h"), 168*time.Hour),
    }

    // Inference defaults
    cfg.Inference = InferenceConfig{
        MaxInflight: parseInt(getEnv("RATE_LIMIT", "5"), 5),
        FillMask:    parseBool(getEnv("FILL_MASK", "true")),
    }

    // Server defaults
    cfg.Server = ServerConfig{
        Port:            getEnv("PORT", "8080"),
        ShutdownTimeout: parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
    }

    cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379")

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}
