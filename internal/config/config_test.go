package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{DataPath: "/tmp/bookworm"},
		LLM:     LLMConfig{Provider: "openai"},
	}
	assert.NoError(t, valid.Validate())

	badEnv := valid
	badEnv.App.Environment = "prod"
	assert.Error(t, badEnv.Validate())

	badLevel := valid
	badLevel.Logger.Level = "verbose"
	assert.Error(t, badLevel.Validate())

	badProvider := valid
	badProvider.LLM.Provider = "bard"
	assert.Error(t, badProvider.Validate())

	noPath := valid
	noPath.Storage.DataPath = ""
	assert.Error(t, noPath.Validate())
}

func TestLLMConfig_APIKeyFollowsProvider(t *testing.T) {
	cfg := LLMConfig{
		Provider:     "gemini",
		OpenAIKey:    "sk-oa",
		AnthropicKey: "sk-ant",
		GeminiKey:    "g-key",
	}
	assert.Equal(t, "g-key", cfg.APIKey())

	cfg.Provider = "anthropic"
	assert.Equal(t, "sk-ant", cfg.APIKey())

	cfg.Provider = "openai"
	assert.Equal(t, "sk-oa", cfg.APIKey())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := expandPath("~/books", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "books"), expanded)

	expanded, err = expandPath("", "/default/path")
	require.NoError(t, err)
	assert.Equal(t, "/default/path", expanded)

	expanded, err = expandPath("/abs/path", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", expanded)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(
		"# comment\n\nBOOKWORM_TEST_KEY=\"from-file\"\nBOOKWORM_TEST_SET=file-value\n",
	), 0o600))

	t.Setenv("BOOKWORM_TEST_SET", "from-env")
	t.Setenv("BOOKWORM_TEST_KEY", "")
	os.Unsetenv("BOOKWORM_TEST_KEY")

	require.NoError(t, loadEnvFile(envPath))

	assert.Equal(t, "from-file", os.Getenv("BOOKWORM_TEST_KEY"), "quotes are stripped")
	assert.Equal(t, "from-env", os.Getenv("BOOKWORM_TEST_SET"), "real env vars win over the file")
}

func TestLoadEnvFile_BadLine(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("NOT A PAIR\n"), 0o600))

	assert.Error(t, loadEnvFile(envPath))
}
