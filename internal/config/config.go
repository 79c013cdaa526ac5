// Package config loads service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Service       ServiceConfig
	Backend       BackendConfig
	Caption       CaptionConfig
	STT           STTConfig
	SessionLimits SessionLimitsConfig
	Kafka         KafkaConfig
	Archive       ArchiveConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds identity and listener settings.
type ServiceConfig struct {
	Principal   string
	HTTPPort    string
	MetricsPort string
}

// BackendConfig points at the AI backend that generates interview Q&A.
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// CaptionConfig tunes live caption stabilization.
type CaptionConfig struct {
	Window         time.Duration
	AssistantLabel string
	UserLabel      string
}

// STTConfig selects and configures the speech-to-text provider used for
// candidate audio.
type STTConfig struct {
	Provider       string // mock, google
	LanguageCode   string
	SampleRateHz   int
	InterimResults bool
	AudioEncoding  string
}

// SessionLimitsConfig bounds the resources a single caption session may use.
type SessionLimitsConfig struct {
	MaxFragments  int
	MaxAudioBytes int64
	MaxDuration   time.Duration
	IdleTimeout   time.Duration
}

// KafkaConfig configures the event bus.
type KafkaConfig struct {
	Enabled        bool
	Brokers        []string
	TopicCaptions  string
	TopicQA        string
	TopicFragments string
	GroupID        string
	ConsumeEnabled bool
	Principal      string
}

// ArchiveConfig configures the S3-compatible store for exported Q&A documents.
type ArchiveConfig struct {
	Enabled   bool
	AccountID string // Cloudflare R2 account; used to derive Endpoint when unset
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	URLExpiry time.Duration
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment, falling back to defaults
// for unset or unparsable values.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-smart-job-kit")

	return &Config{
		Service: ServiceConfig{
			Principal:   principal,
			HTTPPort:    envOrDefault("HTTP_PORT", "8080"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
		Backend: BackendConfig{
			BaseURL:    withTrailingSlash(envOrDefault("API_BASE_URL", "http://127.0.0.1:8000/api/")),
			Timeout:    envOrDefaultDuration("API_TIMEOUT", 60*time.Second),
			MaxRetries: envOrDefaultInt("API_MAX_RETRIES", 3),
		},
		Caption: CaptionConfig{
			Window:         envOrDefaultDuration("CAPTION_WINDOW", 2500*time.Millisecond),
			AssistantLabel: envOrDefault("CAPTION_ASSISTANT_LABEL", "Sophie"),
			UserLabel:      envOrDefault("CAPTION_USER_LABEL", "Alex"),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "mock"),
			LanguageCode:   envOrDefault("STT_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envOrDefaultInt("STT_SAMPLE_RATE_HZ", 16000),
			InterimResults: envOrDefaultBool("STT_INTERIM_RESULTS", true),
			AudioEncoding:  envOrDefault("STT_AUDIO_ENCODING", "LINEAR16"),
		},
		SessionLimits: SessionLimitsConfig{
			MaxFragments:  envOrDefaultInt("SESSION_MAX_FRAGMENTS", 10000),
			MaxAudioBytes: envOrDefaultInt64("SESSION_MAX_AUDIO_BYTES", 64*1024*1024),
			MaxDuration:   envOrDefaultDuration("SESSION_MAX_DURATION", 90*time.Minute),
			IdleTimeout:   envOrDefaultDuration("SESSION_IDLE_TIMEOUT", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Enabled:        envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:        envOrDefaultList("KAFKA_BROKERS", nil),
			TopicCaptions:  envOrDefault("KAFKA_TOPIC_CAPTIONS", "interview.caption.mutation"),
			TopicQA:        envOrDefault("KAFKA_TOPIC_QA", "interview.qa.generated"),
			TopicFragments: envOrDefault("KAFKA_TOPIC_FRAGMENTS", "interview.caption.fragment"),
			GroupID:        envOrDefault("KAFKA_GROUP_ID", principal),
			ConsumeEnabled: envOrDefaultBool("KAFKA_CONSUME_FRAGMENTS", false),
			Principal:      envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Archive: ArchiveConfig{
			Enabled:   envOrDefaultBool("ARCHIVE_ENABLED", false),
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			Endpoint:  os.Getenv("ARCHIVE_ENDPOINT"),
			Region:    envOrDefault("ARCHIVE_REGION", "auto"),
			Bucket:    os.Getenv("ARCHIVE_BUCKET"),
			AccessKey: os.Getenv("ARCHIVE_ACCESS_KEY"),
			SecretKey: os.Getenv("ARCHIVE_SECRET_KEY"),
			URLExpiry: envOrDefaultDuration("ARCHIVE_URL_EXPIRY", 15*time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func withTrailingSlash(u string) string {
	if strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
