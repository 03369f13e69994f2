package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config stores all configuration of the application.
type Config struct {
	Provider string `yaml:"provider"`

	GoogleAPIKey string `yaml:"google_api_key"`
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// One hosted model per pipeline role. The planner gets the reasoning
	// tier, codegen the strongest tier, the validator a cheap tier.
	PlannerModel   string `yaml:"planner_model"`
	CodegenModel   string `yaml:"codegen_model"`
	ValidatorModel string `yaml:"validator_model"`

	BlenderPath       string `yaml:"blender_path"`
	OutputDir         string `yaml:"output_dir"`
	RenderTimeoutSecs int    `yaml:"render_timeout_seconds"`
	OpenRender        bool   `yaml:"open_render"`
	ArchiveSession    bool   `yaml:"archive_session"`

	// MaxScriptRetries bounds the validate/regenerate loop.
	MaxScriptRetries int `yaml:"max_script_retries"`

	LangfuseEnabled   bool   `yaml:"langfuse_enabled"`
	LangfusePublicKey string `yaml:"langfuse_public_key"`
	LangfuseSecretKey string `yaml:"langfuse_secret_key"`
	LangfuseHost      string `yaml:"langfuse_host"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderGemini,
		PlannerModel:      "gemini-2.5-flash",
		CodegenModel:      "gemini-2.5-pro",
		ValidatorModel:    "gemini-2.5-flash",
		OutputDir:         "outputs",
		RenderTimeoutSecs: 180,
		MaxScriptRetries:  3,
		LangfuseHost:      "https://cloud.langfuse.com",
	}
}

// LoadConfig reads configuration from an optional YAML file, a .env file, and
// environment variables, in increasing order of precedence.
func LoadConfig(configPath string) (*Config, error) {
	// Missing .env is fine; environment may already be populated.
	_ = godotenv.Load()

	config := DefaultConfig()

	path := configPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			candidate := filepath.Join(homeDir, ".blendpipe", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("unable to decode config file: %w", err)
		}
	}

	applyEnv(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func applyEnv(config *Config) {
	setFromEnv(&config.Provider, "BLENDPIPE_PROVIDER")
	setFromEnv(&config.GoogleAPIKey, "GOOGLE_API_KEY")
	setFromEnv(&config.OpenAIAPIKey, "OPENAI_API_KEY")
	setFromEnv(&config.PlannerModel, "BLENDPIPE_PLANNER_MODEL")
	setFromEnv(&config.CodegenModel, "BLENDPIPE_CODEGEN_MODEL")
	setFromEnv(&config.ValidatorModel, "BLENDPIPE_VALIDATOR_MODEL")
	setFromEnv(&config.BlenderPath, "BLENDER_PATH")
	setFromEnv(&config.OutputDir, "BLENDPIPE_OUTPUT_DIR")
	setFromEnv(&config.LangfusePublicKey, "LANGFUSE_PUBLIC_KEY")
	setFromEnv(&config.LangfuseSecretKey, "LANGFUSE_SECRET_KEY")
	setFromEnv(&config.LangfuseHost, "LANGFUSE_HOST")

	if v := os.Getenv("LANGFUSE_ENABLED"); v != "" {
		config.LangfuseEnabled = v == "true"
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func validateConfig(config *Config) error {
	switch config.Provider {
	case ProviderGemini:
		if config.GoogleAPIKey == "" {
			return fmt.Errorf("Google API key is required (set GOOGLE_API_KEY)")
		}
	case ProviderOpenAI:
		if config.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY)")
		}
	default:
		return fmt.Errorf("unknown provider %q", config.Provider)
	}

	if config.MaxScriptRetries < 1 {
		return fmt.Errorf("max_script_retries must be at least 1")
	}
	if config.RenderTimeoutSecs <= 0 {
		return fmt.Errorf("render_timeout_seconds must be positive")
	}
	return nil
}

// RenderTimeout returns the Blender execution timeout as a duration.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.RenderTimeoutSecs) * time.Second
}
