package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level      string
    Pretty     bool
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
    Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// ProviderModels defines the text/vision model pair for a provider.
type ProviderModels struct {
    APIKey string
    Text   string
    Vision string
}

// ProvidersConfig defines engines and models per provider.
type ProvidersConfig struct {
    PrimaryEngine   string // "openai"|"anthropic"
    SecondaryEngine string // "anthropic"|"openai"
    OpenAI          ProviderModels
    Anthropic       ProviderModels
}

// AIConfig holds generation parameters shared by matching and analysis calls.
type AIConfig struct {
    MaxTokens      int
    Temperature    float64
    RequestTimeout time.Duration
    BatchSize      int           // concurrent vision calls per batch
    BatchDelay     time.Duration // pause between batches
}

// EngineConfig bounds the allocation engine.
type EngineConfig struct {
    MaxScriptBytes int
}

// WorkerConfig defines match-worker behavior and limits.
type WorkerConfig struct {
    Concurrency         int
    JobMaxAttempts      int
    RetryBaseDelay      time.Duration
    RetryBackoffFactor  float64
    MaxInflightPerModel int
    BreakerBaseBackoff  time.Duration
    BreakerMaxBackoff   time.Duration
}

// QueueConfig defines queue connectivity and names.
type QueueConfig struct {
    RedisURL     string
    Stream       string
    Group        string
    PollInterval time.Duration
}

// DeckConfig controls slide rendering for vision analysis.
type DeckConfig struct {
    RenderDPI      int
    JPEGQuality    int
    Grayscale      bool
    ConvertTimeout time.Duration
}

// Config is the top-level configuration.
type Config struct {
    Logging   LoggingConfig
    Axiom     AxiomConfig
    Providers ProvidersConfig
    AI        AIConfig
    Engine    EngineConfig
    Worker    WorkerConfig
    Queue     QueueConfig
    Deck      DeckConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/slidescript.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_KEY", ""),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_slidescript",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    cfg.Providers = ProvidersConfig{
        PrimaryEngine:   getEnv("PRIMARY_ENGINE", "openai"),
        SecondaryEngine: getEnv("SECONDARY_ENGINE", "anthropic"),
        OpenAI: ProviderModels{
            APIKey: getEnv("OPENAI_API_KEY", ""),
            Text:   getEnv("OPENAI_TEXT_MODEL", "gpt-4.1"),
            Vision: getEnv("OPENAI_VISION_MODEL", "gpt-4o"),
        },
        Anthropic: ProviderModels{
            APIKey: getEnv("ANTHROPIC_API_KEY", ""),
            Text:   getEnv("ANTHROPIC_TEXT_MODEL", "claude-3-5-sonnet"),
            Vision: getEnv("ANTHROPIC_VISION_MODEL", "claude-3-5-sonnet"),
        },
    }

    cfg.AI = AIConfig{
        MaxTokens:      parseInt(getEnv("AI_MAX_TOKENS", "4096"), 4096),
        Temperature:    parseFloat(getEnv("AI_TEMPERATURE", "0.1"), 0.1),
        RequestTimeout: parseDuration(getEnv("AI_REQUEST_TIMEOUT", "30s"), 30*time.Second),
        BatchSize:      parseInt(getEnv("AI_BATCH_SIZE", "3"), 3),
        BatchDelay:     parseDuration(getEnv("AI_BATCH_DELAY", "1s"), time.Second),
    }

    cfg.Engine = EngineConfig{
        MaxScriptBytes: parseInt(getEnv("MAX_SCRIPT_BYTES", "1048576"), 1048576),
    }

    cfg.Worker = WorkerConfig{
        Concurrency:         parseInt(getEnv("WORKER_CONCURRENCY", "2"), 2),
        JobMaxAttempts:      parseInt(getEnv("JOB_MAX_ATTEMPTS", "3"), 3),
        RetryBaseDelay:      parseDuration(getEnv("RETRY_BASE_DELAY", "2s"), 2*time.Second),
        RetryBackoffFactor:  parseFloat(getEnv("RETRY_BACKOFF_FACTOR", "2.0"), 2.0),
        MaxInflightPerModel: parseInt(getEnv("MAX_INFLIGHT_PER_MODEL", "3"), 3),
        BreakerBaseBackoff:  parseDuration(getEnv("BREAKER_BASE_BACKOFF", "30s"), 30*time.Second),
        BreakerMaxBackoff:   parseDuration(getEnv("BREAKER_MAX_BACKOFF", "5m"), 5*time.Minute),
    }

    cfg.Queue = QueueConfig{
        RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
        Stream:       getEnv("QUEUE_STREAM", "jobs:match"),
        Group:        getEnv("QUEUE_GROUP", "workers:match"),
        PollInterval: parseDuration(getEnv("QUEUE_POLL_INTERVAL", "200ms"), 200*time.Millisecond),
    }

    cfg.Deck = DeckConfig{
        RenderDPI:      parseInt(getEnv("DECK_RENDER_DPI", "110"), 110),
        JPEGQuality:    parseInt(getEnv("DECK_JPEG_QUALITY", "80"), 80),
        Grayscale:      parseBool(getEnv("DECK_GRAYSCALE", "0")),
        ConvertTimeout: parseDuration(getEnv("DECK_CONVERT_TIMEOUT", "180s"), 180*time.Second),
    }

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

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
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
