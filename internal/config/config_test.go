package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFromYAML_AllSections(t *testing.T) {
	path := writeConfig(t, `ollama:
  model: mistral:7b
  model_preferences: [qwen3:4b, qwen, llama3]
  timeout: 90s
  list_timeout: 3s
search:
  enabled: false
  max_results: 5
transcription:
  provider: openai
  fallback_enabled: true
  fallback_provider: groq
  max_concurrent: 4`)

	cfg := &Config{}
	require.NoError(t, cfg.LoadFromYAML(path))

	assert.Equal(t, "mistral:7b", cfg.Ollama.Model)
	assert.Equal(t, []string{"qwen3:4b", "qwen", "llama3"}, cfg.Ollama.ModelPreferences)
	assert.Equal(t, 90*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, 3*time.Second, cfg.Ollama.ListTimeout)
	assert.False(t, cfg.Search.SearchEnabled())
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, "openai", cfg.Transcription.Provider)
	assert.True(t, cfg.Transcription.FallbackEnabled)
	assert.Equal(t, "groq", cfg.Transcription.FallbackProvider)
	assert.Equal(t, 4, cfg.Transcription.MaxConcurrent)
}

func TestLoadFromYAML_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `transcription:
  provider: groq`)

	cfg := &Config{}
	require.NoError(t, cfg.LoadFromYAML(path))
	cfg.SetDefaults()

	assert.Equal(t, "groq", cfg.Transcription.Provider)
	assert.False(t, cfg.Transcription.FallbackEnabled)
	assert.Equal(t, 2, cfg.Transcription.MaxConcurrent)
	assert.Equal(t, DefaultModelPreferences, cfg.Ollama.ModelPreferences)
	assert.Equal(t, DefaultModel, cfg.Ollama.DefaultModel)
	assert.True(t, cfg.Search.SearchEnabled())
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DefaultOllamaBaseURL, cfg.Ollama.BaseURL)
	assert.Equal(t, 120*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Ollama.ListTimeout)
	assert.Equal(t, 15*time.Second, cfg.Search.Timeout)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, "local", cfg.Transcription.Provider)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestSetDefaults_PreferencesNotAliased(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	cfg.Ollama.ModelPreferences[0] = "changed"
	assert.Equal(t, "llama3.2", DefaultModelPreferences[0])
}

func TestLoad_EnvOverridesOllama(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434/")
	t.Setenv("OLLAMA_MODEL", "llama3:8b")
	t.Setenv("OLLAMA_TIMEOUT", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:5173, https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://ollama:11434", cfg.Ollama.BaseURL)
	assert.Equal(t, "llama3:8b", cfg.Ollama.Model)
	assert.Equal(t, 45*time.Second, cfg.Ollama.Timeout)
	assert.Equal(t, []string{"http://localhost:5173", "https://app.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OLLAMA_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_ProviderNeedsKey(t *testing.T) {
	cfg := &Config{Transcription: TranscriptionConfig{Provider: "groq"}}
	cfg.SetDefaults()
	assert.Error(t, cfg.validate())

	cfg.GroqKey = "gsk_test"
	assert.NoError(t, cfg.validate())
}

func TestValidate_UnknownProvider(t *testing.T) {
	cfg := &Config{Transcription: TranscriptionConfig{Provider: "carrier-pigeon"}}
	cfg.SetDefaults()
	assert.Error(t, cfg.validate())
}

func TestLoadFromYAML_FileNotFound(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, cfg.LoadFromYAML("non_existent_file.yaml"))
}

func TestLoadFromYAML_InvalidYAML(t *testing.T) {
	path := writeConfig(t, `transcription:
  provider: openai
  invalid_yaml: [unclosed`)

	cfg := &Config{}
	assert.Error(t, cfg.LoadFromYAML(path))
}
