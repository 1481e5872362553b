package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Postgres DSN for the menu catalog. Empty falls back to the built-in
	// in-memory catalog.
	DatabaseURL string

	// External service credentials. An empty Cartesia key disables the
	// matching speech feature regardless of the feature flags.
	GeminiAPIKey   string
	CartesiaAPIKey string

	// Fulfillment webhook for completed orders; empty disables submission.
	OrderWebhookURL string

	FeatureSTT bool
	FeatureTTS bool

	// Recognition input format.
	AudioSampleRate int
	AudioEncoding   string
	Language        string

	// How long to wait for a final transcript after end-of-input.
	SttFinalizeTimeout time.Duration

	// Outbound audio pacing.
	TTSChunkSize  int
	TTSChunkDelay time.Duration
	TTSWorkers    int

	// Per-session outbound frame queue.
	OutboundQueueSize int
	WriteTimeout      time.Duration

	// Websocket origin allowlist; empty allows any origin.
	AllowedOrigins map[string]struct{}

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("ORDERGATE_ADDR", ":8080"),
		DatabaseURL:         strings.TrimSpace(os.Getenv("ORDERGATE_DATABASE_URL")),
		GeminiAPIKey:        strings.TrimSpace(os.Getenv("ORDERGATE_GEMINI_API_KEY")),
		CartesiaAPIKey:      strings.TrimSpace(os.Getenv("ORDERGATE_CARTESIA_API_KEY")),
		OrderWebhookURL:     strings.TrimSpace(os.Getenv("ORDERGATE_ORDER_WEBHOOK_URL")),
		FeatureSTT:          envBoolOr("ORDERGATE_FEATURE_STT", true),
		FeatureTTS:          envBoolOr("ORDERGATE_FEATURE_TTS", true),
		AudioSampleRate:     envIntOr("ORDERGATE_AUDIO_SAMPLE_RATE", 16000),
		AudioEncoding:       envOr("ORDERGATE_AUDIO_ENCODING", "pcm_s16le"),
		Language:            envOr("ORDERGATE_LANGUAGE", "ko"),
		SttFinalizeTimeout:  envDurationOr("ORDERGATE_STT_FINALIZE_TIMEOUT", 10*time.Second),
		TTSChunkSize:        envIntOr("ORDERGATE_TTS_CHUNK_SIZE", 1024),
		TTSChunkDelay:       envDurationOr("ORDERGATE_TTS_CHUNK_DELAY", 20*time.Millisecond),
		TTSWorkers:          envIntOr("ORDERGATE_TTS_WORKERS", 4),
		OutboundQueueSize:   envIntOr("ORDERGATE_OUTBOUND_QUEUE_SIZE", 128),
		WriteTimeout:        envDurationOr("ORDERGATE_WRITE_TIMEOUT", 5*time.Second),
		AllowedOrigins:      make(map[string]struct{}),
		ReadHeaderTimeout:   envDurationOr("ORDERGATE_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("ORDERGATE_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("ORDERGATE_ALLOWED_ORIGINS")) {
		cfg.AllowedOrigins[origin] = struct{}{}
	}

	if cfg.AudioSampleRate <= 0 {
		return Config{}, fmt.Errorf("ORDERGATE_AUDIO_SAMPLE_RATE must be > 0")
	}
	if cfg.SttFinalizeTimeout <= 0 {
		return Config{}, fmt.Errorf("ORDERGATE_STT_FINALIZE_TIMEOUT must be > 0")
	}
	if cfg.TTSChunkSize <= 0 {
		return Config{}, fmt.Errorf("ORDERGATE_TTS_CHUNK_SIZE must be > 0")
	}
	if cfg.TTSChunkDelay < 0 {
		return Config{}, fmt.Errorf("ORDERGATE_TTS_CHUNK_DELAY must be >= 0")
	}
	if cfg.TTSWorkers <= 0 {
		return Config{}, fmt.Errorf("ORDERGATE_TTS_WORKERS must be > 0")
	}
	if cfg.OutboundQueueSize <= 0 {
		return Config{}, fmt.Errorf("ORDERGATE_OUTBOUND_QUEUE_SIZE must be > 0")
	}
	if cfg.WriteTimeout <= 0 {
		return Config{}, fmt.Errorf("ORDERGATE_WRITE_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("ORDERGATE_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("ORDERGATE_SHUTDOWN_GRACE_PERIOD must be > 0")
	}
	if cfg.FeatureSTT && cfg.CartesiaAPIKey == "" {
		cfg.FeatureSTT = false
	}
	if cfg.FeatureTTS && cfg.CartesiaAPIKey == "" {
		cfg.FeatureTTS = false
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envBoolOr(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
