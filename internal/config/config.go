package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileEnv names the optional YAML file applied beneath environment variables.
const FileEnv = "TUTORKB_CONFIG"

type Config struct {
	Port string `yaml:"port"`

	// Storage
	DataDir      string `yaml:"data_dir"`
	StoreBackend string `yaml:"store_backend"`

	// Completion API
	LLMAPIKey      string  `yaml:"llm_api_key"`
	LLMAPIBase     string  `yaml:"llm_api_base"`
	LLMModel       string  `yaml:"llm_model"`
	LLMTemperature float64 `yaml:"llm_temperature"`

	SummarizeTimeout time.Duration `yaml:"summarize_timeout"`
	AnswerTimeout    time.Duration `yaml:"answer_timeout"`

	// Ingestion
	SegmentMaxLength     int     `yaml:"segment_max_length"`
	DigestFallbackLength int     `yaml:"digest_fallback_length"`
	SummarizeInputLimit  int     `yaml:"summarize_input_limit"`
	SummarizeConcurrency int     `yaml:"summarize_concurrency"`
	SummarizeRatePerSec  float64 `yaml:"summarize_rate_per_sec"`
	SummarizeMaxRetries  int     `yaml:"summarize_max_retries"`

	// Retrieval. A zero fallback count disables the fallback.
	RetrieveLimit         int `yaml:"retrieve_limit"`
	RetrieveFallbackCount int `yaml:"retrieve_fallback_count"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`

	CORSAllowedOrigin string `yaml:"cors_allowed_origin"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Port:                  "3001",
		DataDir:               "data",
		StoreBackend:          "json",
		LLMAPIBase:            "https://api.deepseek.com",
		LLMModel:              "deepseek-chat",
		LLMTemperature:        0.1,
		SummarizeTimeout:      60 * time.Second,
		AnswerTimeout:         120 * time.Second,
		SegmentMaxLength:      300,
		DigestFallbackLength:  200,
		SummarizeInputLimit:   2000,
		SummarizeConcurrency:  1,
		SummarizeMaxRetries:   3,
		RetrieveLimit:         5,
		RetrieveFallbackCount: 3,
		MaxUploadBytes:        100 << 20, // 100MB
		PDFFallbackPdftotext:  true,
		CORSAllowedOrigin:     "*",
	}
}

// Load reads .env into the environment, applies the YAML file named by
// TUTORKB_CONFIG over the defaults, then applies environment variables.
func Load() (Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg = Config{
		Port: envOr("PORT", cfg.Port),

		DataDir:      envOr("DATA_DIR", cfg.DataDir),
		StoreBackend: envOr("STORE_BACKEND", cfg.StoreBackend),

		LLMAPIKey:      envOr("LLM_API_KEY", envOr("DEEPSEEK_API_KEY", cfg.LLMAPIKey)),
		LLMAPIBase:     envOr("LLM_API_BASE", envOr("DEEPSEEK_API_BASE", cfg.LLMAPIBase)),
		LLMModel:       envOr("LLM_MODEL", envOr("DEEPSEEK_MODEL", cfg.LLMModel)),
		LLMTemperature: envFloat("LLM_TEMPERATURE", cfg.LLMTemperature),

		SummarizeTimeout: envDuration("SUMMARIZE_TIMEOUT", cfg.SummarizeTimeout),
		AnswerTimeout:    envDuration("ANSWER_TIMEOUT", cfg.AnswerTimeout),

		SegmentMaxLength:     envInt("SEGMENT_MAX_LENGTH", cfg.SegmentMaxLength),
		DigestFallbackLength: envInt("DIGEST_FALLBACK_LENGTH", cfg.DigestFallbackLength),
		SummarizeInputLimit:  envInt("SUMMARIZE_INPUT_LIMIT", cfg.SummarizeInputLimit),
		SummarizeConcurrency: envInt("SUMMARIZE_CONCURRENCY", cfg.SummarizeConcurrency),
		SummarizeRatePerSec:  envFloat("SUMMARIZE_RATE_PER_SEC", cfg.SummarizeRatePerSec),
		SummarizeMaxRetries:  envInt("SUMMARIZE_MAX_RETRIES", cfg.SummarizeMaxRetries),

		RetrieveLimit:         envInt("RETRIEVE_LIMIT", cfg.RetrieveLimit),
		RetrieveFallbackCount: envInt("RETRIEVE_FALLBACK_COUNT", cfg.RetrieveFallbackCount),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext),

		CORSAllowedOrigin: envOr("CORS_ALLOWED_ORIGIN", cfg.CORSAllowedOrigin),
	}

	def := Defaults()
	if cfg.LLMTemperature < 0 {
		cfg.LLMTemperature = def.LLMTemperature
	}
	if cfg.SummarizeTimeout <= 0 {
		cfg.SummarizeTimeout = def.SummarizeTimeout
	}
	if cfg.AnswerTimeout <= 0 {
		cfg.AnswerTimeout = def.AnswerTimeout
	}
	if cfg.SegmentMaxLength <= 0 {
		cfg.SegmentMaxLength = def.SegmentMaxLength
	}
	if cfg.DigestFallbackLength <= 0 {
		cfg.DigestFallbackLength = def.DigestFallbackLength
	}
	if cfg.SummarizeInputLimit <= 0 {
		cfg.SummarizeInputLimit = def.SummarizeInputLimit
	}
	if cfg.SummarizeConcurrency <= 0 {
		cfg.SummarizeConcurrency = def.SummarizeConcurrency
	}
	if cfg.SummarizeRatePerSec < 0 {
		cfg.SummarizeRatePerSec = 0
	}
	if cfg.SummarizeMaxRetries <= 0 {
		cfg.SummarizeMaxRetries = def.SummarizeMaxRetries
	}
	if cfg.RetrieveLimit <= 0 {
		cfg.RetrieveLimit = def.RetrieveLimit
	}
	if cfg.RetrieveFallbackCount < 0 {
		cfg.RetrieveFallbackCount = 0
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.LLMAPIKey == "" {
		return errors.New("LLM_API_KEY is required")
	}
	switch c.StoreBackend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("STORE_BACKEND must be json or sqlite, got %q", c.StoreBackend)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
