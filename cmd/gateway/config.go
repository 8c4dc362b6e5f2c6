package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/dileep-u-k/weather-assistant/internal/agent"
	"github.com/dileep-u-k/weather-assistant/internal/llm"
	"github.com/dileep-u-k/weather-assistant/internal/tools"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultPort       = "8000"
	defaultConfigFile = "config.yaml"
)

// AppConfig is built once in main and only read afterwards.
type AppConfig struct {
	Port      string
	GinMode   string
	LogLevel  string
	RedisAddr string

	LLM     LLMConfig
	Weather WeatherConfig
	Agent   AgentConfig
}

type LLMConfig struct {
	Provider     string
	APIKey       string
	GeminiAPIKey string
	Model        string
	BaseURL      string
	Temperature  float32
	Timeout      time.Duration
}

type WeatherConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AgentConfig struct {
	MaxIterations int
	SystemPrompt  string
}

// fileConfig is the optional config.yaml. Every field may be left out.
type fileConfig struct {
	LLM struct {
		Provider    string   `yaml:"provider"`
		Model       string   `yaml:"model"`
		BaseURL     string   `yaml:"base_url"`
		Temperature *float32 `yaml:"temperature"`
		Timeout     string   `yaml:"timeout"`
	} `yaml:"llm"`
	Weather struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather"`
	Agent struct {
		MaxIterations int    `yaml:"max_iterations"`
		SystemPrompt  string `yaml:"system_prompt"`
	} `yaml:"agent"`
}

// LoadConfig reads .env (outside release mode), then config.yaml if present,
// then environment variables, which win over the file.
func LoadConfig() (*AppConfig, error) {
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("no .env file found, using process environment")
		}
	}

	cfg := defaultConfig()

	path := getEnv("CONFIG_FILE", defaultConfigFile)
	if err := applyFile(cfg, path); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.applyProviderDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Port:     defaultPort,
		LogLevel: "info",
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			BaseURL:     llm.DefaultBaseURL,
			Temperature: llm.DefaultTemperature,
			Timeout:     120 * time.Second,
		},
		Weather: WeatherConfig{
			BaseURL: tools.DefaultWeatherBaseURL,
			Timeout: tools.DefaultWeatherTimeout,
		},
		Agent: AgentConfig{
			MaxIterations: agent.DefaultMaxIterations,
			SystemPrompt:  agent.DefaultSystemPrompt,
		},
	}
}

// applyFile merges the YAML file at path into cfg. A missing file is not an error.
func applyFile(cfg *AppConfig, path string) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	setString(&cfg.LLM.Provider, fc.LLM.Provider)
	setString(&cfg.LLM.Model, fc.LLM.Model)
	setString(&cfg.LLM.BaseURL, fc.LLM.BaseURL)
	if fc.LLM.Temperature != nil {
		cfg.LLM.Temperature = *fc.LLM.Temperature
	}
	if err := setDuration(&cfg.LLM.Timeout, "llm.timeout", fc.LLM.Timeout); err != nil {
		return err
	}
	setString(&cfg.Weather.BaseURL, fc.Weather.BaseURL)
	if err := setDuration(&cfg.Weather.Timeout, "weather.timeout", fc.Weather.Timeout); err != nil {
		return err
	}
	if fc.Agent.MaxIterations != 0 {
		cfg.Agent.MaxIterations = fc.Agent.MaxIterations
	}
	setString(&cfg.Agent.SystemPrompt, strings.TrimSpace(fc.Agent.SystemPrompt))
	return nil
}

func applyEnv(cfg *AppConfig) error {
	setString(&cfg.Port, os.Getenv("PORT"))
	setString(&cfg.LogLevel, os.Getenv("LOG_LEVEL"))
	cfg.GinMode = os.Getenv("GIN_MODE")
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")

	cfg.LLM.APIKey = os.Getenv("OPENROUTER_API_KEY")
	cfg.LLM.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	setString(&cfg.LLM.Provider, strings.ToLower(os.Getenv("LLM_PROVIDER")))
	setString(&cfg.LLM.Model, os.Getenv("LLM_MODEL"))
	setString(&cfg.LLM.BaseURL, os.Getenv("LLM_BASE_URL"))
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid LLM_TEMPERATURE %q: %w", v, err)
		}
		cfg.LLM.Temperature = float32(t)
	}
	if err := setDuration(&cfg.LLM.Timeout, "LLM_TIMEOUT", os.Getenv("LLM_TIMEOUT")); err != nil {
		return err
	}

	setString(&cfg.Weather.BaseURL, os.Getenv("WEATHER_BASE_URL"))
	if err := setDuration(&cfg.Weather.Timeout, "WEATHER_TIMEOUT", os.Getenv("WEATHER_TIMEOUT")); err != nil {
		return err
	}

	if v := os.Getenv("AGENT_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid AGENT_MAX_ITERATIONS %q: %w", v, err)
		}
		cfg.Agent.MaxIterations = n
	}
	return nil
}

// applyProviderDefaults fills the model when neither the file nor the
// environment named one. Each provider has its own default id.
func (c *AppConfig) applyProviderDefaults() {
	if c.LLM.Model != "" {
		return
	}
	switch c.LLM.Provider {
	case ProviderGemini:
		c.LLM.Model = llm.DefaultGeminiModel
	default:
		c.LLM.Model = llm.DefaultModel
	}
}

func (c *AppConfig) validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI:
		if c.LLM.APIKey == "" {
			log.Warn().Msg("OPENROUTER_API_KEY is not set; chat requests will fail upstream")
		}
	case ProviderGemini:
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY must be set when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q (want %s or %s)", c.LLM.Provider, ProviderOpenAI, ProviderGemini)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent max iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM temperature %.2f out of range [0, 2]", c.LLM.Temperature)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	*dst = d
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
