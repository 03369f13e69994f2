package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{
		"BLENDPIPE_PROVIDER", "GOOGLE_API_KEY", "OPENAI_API_KEY",
		"BLENDPIPE_PLANNER_MODEL", "BLENDPIPE_CODEGEN_MODEL", "BLENDPIPE_VALIDATOR_MODEL",
		"BLENDER_PATH", "BLENDPIPE_OUTPUT_DIR",
		"LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY", "LANGFUSE_HOST", "LANGFUSE_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.PlannerModel)
	assert.Equal(t, "gemini-2.5-pro", cfg.CodegenModel)
	assert.Equal(t, "gemini-2.5-flash", cfg.ValidatorModel)
	assert.Equal(t, 3, cfg.MaxScriptRetries)
	assert.Equal(t, 180*time.Second, cfg.RenderTimeout())
}

func TestLoadConfigFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("BLENDPIPE_PLANNER_MODEL", "gemini-exp")
	t.Setenv("BLENDER_PATH", "/opt/blender/blender")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.GoogleAPIKey)
	assert.Equal(t, "gemini-exp", cfg.PlannerModel)
	assert.Equal(t, "/opt/blender/blender", cfg.BlenderPath)
	// untouched fields keep their defaults
	assert.Equal(t, "gemini-2.5-pro", cfg.CodegenModel)
}

func TestLoadConfigFromYaml(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "provider: gemini\ncodegen_model: gemini-custom\nmax_script_retries: 5\nrender_timeout_seconds: 60\narchive_session: true\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-custom", cfg.CodegenModel)
	assert.Equal(t, 5, cfg.MaxScriptRetries)
	assert.Equal(t, 60*time.Second, cfg.RenderTimeout())
	assert.True(t, cfg.ArchiveSession)
}

func TestEnvOverridesYaml(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Setenv("BLENDPIPE_CODEGEN_MODEL", "gemini-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("codegen_model: gemini-from-file\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-from-env", cfg.CodegenModel)
}

func TestLoadConfigMissingKey(t *testing.T) {
	isolateEnv(t)

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Google API key")
}

func TestLoadConfigOpenAIRequiresKey(t *testing.T) {
	isolateEnv(t)
	t.Setenv("BLENDPIPE_PROVIDER", ProviderOpenAI)

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API key")
}

func TestLoadConfigUnknownProvider(t *testing.T) {
	isolateEnv(t)
	t.Setenv("BLENDPIPE_PROVIDER", "anthropic")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestLoadConfigRejectsBadBounds(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_script_retries: 0\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_script_retries")
}
