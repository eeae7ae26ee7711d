package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultModelPreferences is ordered from most to least specific.
var DefaultModelPreferences = []string{"llama3.2", "llama3", "mistral", "qwen", "gemma"}

const (
	DefaultModel          = "llama3"
	DefaultOllamaBaseURL  = "http://localhost:11434"
	DefaultWhisperBaseURL = "http://localhost:8000/v1"
	DefaultSearchBaseURL  = "https://html.duckduckgo.com/html/"
)

type Config struct {
	Env            string
	ServiceName    string
	ServiceVersion string
	LogLevel       string

	DatabaseURL string
	RedisURL    string

	JWTSecret string
	JWTIssuer string

	OpenAIKey      string
	GroqKey        string
	WhisperBaseURL string

	OtelExporterOTLPEndpoint string
	OtelExporterOTLPHeaders  string
	SentryDSN                string

	Port               string
	CORSAllowedOrigins []string

	Ollama        OllamaConfig
	Search        SearchConfig
	Transcription TranscriptionConfig
}

type OllamaConfig struct {
	BaseURL          string        `yaml:"base_url"`
	Model            string        `yaml:"model"`
	DefaultModel     string        `yaml:"default_model"`
	ModelPreferences []string      `yaml:"model_preferences"`
	Timeout          time.Duration `yaml:"timeout"`
	ListTimeout      time.Duration `yaml:"list_timeout"`
}

type SearchConfig struct {
	Enabled    *bool         `yaml:"enabled"`
	BaseURL    string        `yaml:"base_url"`
	MaxResults int           `yaml:"max_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SearchEnabled defaults to true when the yaml does not say otherwise.
func (s SearchConfig) SearchEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

type TranscriptionConfig struct {
	Provider         string        `yaml:"provider"`
	Model            string        `yaml:"model"`
	FallbackEnabled  bool          `yaml:"fallback_enabled"`
	FallbackProvider string        `yaml:"fallback_provider"`
	MaxConcurrent    int           `yaml:"max_concurrent"`
	NormalizeAudio   bool          `yaml:"normalize_audio"`
	Timeout          time.Duration `yaml:"timeout"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:                      os.Getenv("ENV"),
		ServiceName:              os.Getenv("SERVICE_NAME"),
		ServiceVersion:           os.Getenv("SERVICE_VERSION"),
		LogLevel:                 os.Getenv("LOG_LEVEL"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		RedisURL:                 os.Getenv("REDIS_URL"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		JWTIssuer:                os.Getenv("JWT_ISSUER"),
		OpenAIKey:                os.Getenv("OPENAI_API_KEY"),
		GroqKey:                  os.Getenv("GROQ_API_KEY"),
		WhisperBaseURL:           os.Getenv("WHISPER_BASE_URL"),
		OtelExporterOTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OtelExporterOTLPHeaders:  os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
		SentryDSN:                os.Getenv("SENTRY_DSN"),
		Port:                     os.Getenv("PORT"),
		CORSAllowedOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}

	if err := cfg.LoadFromYAML("config.yaml"); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	// Environment wins over config.yaml for the Ollama connection.
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		cfg.Ollama.Model = v
	}
	if v := os.Getenv("OLLAMA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid OLLAMA_TIMEOUT %q: %w", v, err)
		}
		cfg.Ollama.Timeout = d
	}

	cfg.SetDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromYAML overlays the sections found in path. A missing file is not an error.
func (c *Config) LoadFromYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var yamlConfig struct {
		Ollama        OllamaConfig        `yaml:"ollama"`
		Search        SearchConfig        `yaml:"search"`
		Transcription TranscriptionConfig `yaml:"transcription"`
	}

	if err := yaml.Unmarshal(data, &yamlConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	o := yamlConfig.Ollama
	if o.BaseURL != "" {
		c.Ollama.BaseURL = o.BaseURL
	}
	if o.Model != "" {
		c.Ollama.Model = o.Model
	}
	if o.DefaultModel != "" {
		c.Ollama.DefaultModel = o.DefaultModel
	}
	if len(o.ModelPreferences) > 0 {
		c.Ollama.ModelPreferences = o.ModelPreferences
	}
	if o.Timeout > 0 {
		c.Ollama.Timeout = o.Timeout
	}
	if o.ListTimeout > 0 {
		c.Ollama.ListTimeout = o.ListTimeout
	}

	s := yamlConfig.Search
	if s.Enabled != nil {
		c.Search.Enabled = s.Enabled
	}
	if s.BaseURL != "" {
		c.Search.BaseURL = s.BaseURL
	}
	if s.MaxResults > 0 {
		c.Search.MaxResults = s.MaxResults
	}
	if s.Timeout > 0 {
		c.Search.Timeout = s.Timeout
	}

	t := yamlConfig.Transcription
	if t.Provider != "" {
		c.Transcription.Provider = t.Provider
	}
	if t.Model != "" {
		c.Transcription.Model = t.Model
	}
	if t.FallbackEnabled {
		c.Transcription.FallbackEnabled = true
	}
	if t.FallbackProvider != "" {
		c.Transcription.FallbackProvider = t.FallbackProvider
	}
	if t.MaxConcurrent > 0 {
		c.Transcription.MaxConcurrent = t.MaxConcurrent
	}
	if t.NormalizeAudio {
		c.Transcription.NormalizeAudio = true
	}
	if t.Timeout > 0 {
		c.Transcription.Timeout = t.Timeout
	}

	return nil
}

// SetDefaults fills every zero value that has a sensible default.
func (c *Config) SetDefaults() {
	if c.Env == "" {
		c.Env = "development"
	}
	if c.ServiceName == "" {
		c.ServiceName = "dictameal-backend"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "1.0.0"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if len(c.CORSAllowedOrigins) == 0 {
		c.CORSAllowedOrigins = []string{"*"}
	}
	if c.WhisperBaseURL == "" {
		c.WhisperBaseURL = DefaultWhisperBaseURL
	}

	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = DefaultOllamaBaseURL
	}
	c.Ollama.BaseURL = strings.TrimRight(c.Ollama.BaseURL, "/")
	if c.Ollama.DefaultModel == "" {
		c.Ollama.DefaultModel = DefaultModel
	}
	if len(c.Ollama.ModelPreferences) == 0 {
		c.Ollama.ModelPreferences = append([]string(nil), DefaultModelPreferences...)
	}
	if c.Ollama.Timeout == 0 {
		c.Ollama.Timeout = 120 * time.Second
	}
	if c.Ollama.ListTimeout == 0 {
		c.Ollama.ListTimeout = 10 * time.Second
	}

	if c.Search.BaseURL == "" {
		c.Search.BaseURL = DefaultSearchBaseURL
	}
	if c.Search.MaxResults == 0 {
		c.Search.MaxResults = 3
	}
	if c.Search.Timeout == 0 {
		c.Search.Timeout = 15 * time.Second
	}

	c.SetTranscriptionDefaults()
}

func (c *Config) SetTranscriptionDefaults() {
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = "local"
	}
	if c.Transcription.FallbackEnabled && c.Transcription.FallbackProvider == "" {
		c.Transcription.FallbackProvider = "openai"
	}
	if c.Transcription.MaxConcurrent == 0 {
		c.Transcription.MaxConcurrent = 2
	}
	if c.Transcription.Timeout == 0 {
		c.Transcription.Timeout = 3 * time.Minute
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	if c.Ollama.Timeout < 0 || c.Ollama.ListTimeout < 0 || c.Search.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must not be negative")
	}
	switch c.Transcription.Provider {
	case "local", "openai", "groq":
	default:
		return fmt.Errorf("unknown transcription provider %q", c.Transcription.Provider)
	}
	if c.Transcription.Provider == "openai" && c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required for the openai transcription provider")
	}
	if c.Transcription.Provider == "groq" && c.GroqKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required for the groq transcription provider")
	}
	if c.JWTIssuer != "" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_ISSUER is set but JWT_SECRET is empty")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
