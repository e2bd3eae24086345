package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"notesum-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	PublicBaseURL   string
	BlobSigningKey  string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	S3PublicBaseURL string
	SSEKMSKeyID     string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	LLMModel           string
	TranscribeModel    string
	SummaryMaxTokens   int
	SummaryTemperature float64
	LLMRatePerSecond   float64

	YouTubeRatePerSecond float64

	RedisURL           string
	TranscriptCacheTTL time.Duration

	FetchTimeout           time.Duration
	LLMTimeout             time.Duration
	TranscribeTimeout      time.Duration
	YouTubeFallbackTimeout time.Duration
	SignedURLTTL           time.Duration
	DownloadRetryAttempts  int
	DownloadRetryBaseDelay time.Duration

	QueueURL          string
	WorkerConcurrency int

	ArticleDomains []string
	ChromePhrases  []string
}

// Load reads configuration from environment variables with sensible defaults.
// Values from the optional NOTESUM_CONFIG YAML file sit between the defaults and the environment.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	for _, path := range []string{".env", "cmd/.env"} {
		_ = godotenv.Load(path)
	}

	file, err := loadFile(os.Getenv("NOTESUM_CONFIG"))
	if err != nil {
		telemetry.Error("config.file_failed", map[string]any{"path": os.Getenv("NOTESUM_CONFIG"), "error": err.Error()})
	}

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	if env == "production" && dbURL == "" {
		telemetry.Error("config.database_url_missing", map[string]any{"env": env})
	}

	port := getEnv("PORT", "8080")
	return Config{
		Port:            port,
		Env:             env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:     dbURL,

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		PublicBaseURL:   strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+strings.TrimPrefix(port, ":")), "/"),
		BlobSigningKey:  getEnv("BLOB_SIGNING_KEY", ""),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		S3PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMModel:           getEnv("LLM_MODEL", file.Summary.Model, "gpt-4o-mini"),
		TranscribeModel:    getEnv("TRANSCRIBE_MODEL", "whisper-1"),
		SummaryMaxTokens:   getEnvInt("SUMMARY_MAX_TOKENS", file.Summary.MaxTokens, 1000),
		SummaryTemperature: getEnvFloat("SUMMARY_TEMPERATURE", file.Summary.Temperature, 0.5),
		LLMRatePerSecond:   getEnvFloat("LLM_RATE_PER_SECOND", nil, 5),

		YouTubeRatePerSecond: getEnvFloat("YOUTUBE_RATE_PER_SECOND", nil, 2),

		RedisURL:           getEnv("REDIS_URL", ""),
		TranscriptCacheTTL: getEnvDuration("TRANSCRIPT_CACHE_TTL", file.Cache.TranscriptTTL, 24*time.Hour),

		FetchTimeout:           getEnvDuration("FETCH_TIMEOUT", file.Timeouts.Fetch, 20*time.Second),
		LLMTimeout:             getEnvDuration("LLM_TIMEOUT", file.Timeouts.LLM, 120*time.Second),
		TranscribeTimeout:      getEnvDuration("TRANSCRIBE_TIMEOUT", file.Timeouts.Transcribe, 300*time.Second),
		YouTubeFallbackTimeout: getEnvDuration("YOUTUBE_FALLBACK_TIMEOUT", file.Timeouts.YouTubeFallback, 6*time.Minute),
		SignedURLTTL:           getEnvDuration("SIGNED_URL_TTL", file.Storage.SignedURLTTL, 120*time.Second),
		DownloadRetryAttempts:  getEnvInt("DOWNLOAD_RETRY_ATTEMPTS", file.Storage.RetryAttempts, 3),
		DownloadRetryBaseDelay: getEnvDuration("DOWNLOAD_RETRY_BASE_DELAY", file.Storage.RetryBaseDelay, 1500*time.Millisecond),

		QueueURL:          getEnv("NS_SQS_QUEUE_URL", ""),
		WorkerConcurrency: getEnvInt("NS_WORKER_CONCURRENCY", 0, 4),

		ArticleDomains: file.Extract.ArticleDomains,
		ChromePhrases:  file.Extract.ChromePhrases,
	}
}

// getEnv returns the first non-empty value among the environment and the fallbacks.
func getEnv(key string, defs ...string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	for _, def := range defs {
		if def != "" {
			return def
		}
	}
	return ""
}

func getEnvInt(key string, fileVal, def int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if val, err := strconv.Atoi(raw); err == nil && val > 0 {
			return val
		}
		telemetry.Warn("config.invalid_int", map[string]any{"key": key, "value": raw})
	}
	if fileVal > 0 {
		return fileVal
	}
	return def
}

// getEnvFloat accepts zero from either layer; a nil fileVal means unset.
func getEnvFloat(key string, fileVal *float64, def float64) float64 {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if val, err := strconv.ParseFloat(raw, 64); err == nil && val >= 0 {
			return val
		}
		telemetry.Warn("config.invalid_float", map[string]any{"key": key, "value": raw})
	}
	if fileVal != nil && *fileVal >= 0 {
		return *fileVal
	}
	return def
}

func getEnvDuration(key, fileVal string, def time.Duration) time.Duration {
	if d, ok := parseDuration(os.Getenv(key)); ok {
		return d
	}
	if d, ok := parseDuration(fileVal); ok {
		return d
	}
	return def
}

// parseDuration accepts Go durations ("90s") and bare seconds ("90").
func parseDuration(raw string) (time.Duration, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		telemetry.Warn("config.invalid_duration", map[string]any{"value": raw})
		return 0, false
	}
	return d, true
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
