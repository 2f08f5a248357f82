package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		FileEnv, "PORT", "DATA_DIR", "STORE_BACKEND",
		"LLM_API_KEY", "LLM_API_BASE", "LLM_MODEL", "LLM_TEMPERATURE",
		"DEEPSEEK_API_KEY", "DEEPSEEK_API_BASE", "DEEPSEEK_MODEL",
		"SUMMARIZE_TIMEOUT", "ANSWER_TIMEOUT", "SEGMENT_MAX_LENGTH",
		"DIGEST_FALLBACK_LENGTH", "SUMMARIZE_INPUT_LIMIT", "SUMMARIZE_CONCURRENCY",
		"SUMMARIZE_RATE_PER_SEC", "SUMMARIZE_MAX_RETRIES", "RETRIEVE_LIMIT",
		"RETRIEVE_FALLBACK_COUNT", "MAX_UPLOAD_BYTES", "PDF_FALLBACK_PDFTOTEXT",
		"CORS_ALLOWED_ORIGIN",
	} {
		t.Setenv(key, "")
	}
	// Keep godotenv away from any .env in the package directory.
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 300, cfg.SegmentMaxLength)
	assert.Equal(t, 3, cfg.RetrieveFallbackCount)
	assert.Equal(t, int64(100<<20), cfg.MaxUploadBytes)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_TEMPERATURE", "0.3")
	t.Setenv("ANSWER_TIMEOUT", "30s")
	t.Setenv("SUMMARIZE_CONCURRENCY", "4")
	t.Setenv("RETRIEVE_FALLBACK_COUNT", "0")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.InDelta(t, 0.3, cfg.LLMTemperature, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.AnswerTimeout)
	assert.Equal(t, 4, cfg.SummarizeConcurrency)
	assert.Equal(t, 0, cfg.RetrieveFallbackCount)
	assert.False(t, cfg.PDFFallbackPdftotext)
}

func TestLoad_LegacyKeyNames(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEEPSEEK_API_KEY", "sk-legacy")
	t.Setenv("DEEPSEEK_MODEL", "deepseek-reasoner")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-legacy", cfg.LLMAPIKey)
	assert.Equal(t, "deepseek-reasoner", cfg.LLMModel)

	t.Setenv("LLM_API_KEY", "sk-new")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-new", cfg.LLMAPIKey)
}

func TestLoad_InvalidValuesClamp(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEGMENT_MAX_LENGTH", "-5")
	t.Setenv("RETRIEVE_LIMIT", "abc")
	t.Setenv("SUMMARIZE_TIMEOUT", "0s")
	t.Setenv("RETRIEVE_FALLBACK_COUNT", "-2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.SegmentMaxLength)
	assert.Equal(t, 5, cfg.RetrieveLimit)
	assert.Equal(t, 60*time.Second, cfg.SummarizeTimeout)
	assert.Equal(t, 0, cfg.RetrieveFallbackCount)
}

func TestLoad_YAMLFileBeneathEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tutorkb.yaml")
	yml := "port: \"4000\"\nllm_model: local-model\nsegment_max_length: 120\nanswer_timeout: 45s\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv(FileEnv, path)
	t.Setenv("PORT", "5000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Port, "env wins over file")
	assert.Equal(t, "local-model", cfg.LLMModel)
	assert.Equal(t, 120, cfg.SegmentMaxLength)
	assert.Equal(t, 45*time.Second, cfg.AnswerTimeout)
	assert.Equal(t, "data", cfg.DataDir, "unset file keys keep defaults")
}

func TestLoad_BadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unterminated"), 0o644))
	t.Setenv(FileEnv, path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingYAMLFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even
	// when empty, so unset the one under test.
	os.Unsetenv("LLM_MODEL")
	t.Cleanup(func() { os.Unsetenv("LLM_MODEL") })
	require.NoError(t, os.WriteFile(".env", []byte("LLM_MODEL=from-dotenv\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.LLMModel)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	assert.EqualError(t, cfg.Validate(), "LLM_API_KEY is required")

	cfg.LLMAPIKey = "sk"
	assert.NoError(t, cfg.Validate())

	cfg.StoreBackend = "postgres"
	assert.Error(t, cfg.Validate())
}

func TestLoad_ZeroTemperatureKept(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_TEMPERATURE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.LLMTemperature)
}
