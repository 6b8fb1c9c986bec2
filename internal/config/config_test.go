package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSecrets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SECRETS_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"vi", "en"}, cfg.Transcript.Languages)
	assert.Equal(t, "cookies.txt", cfg.Downloader.CookieFile)
	assert.Equal(t, "bestaudio/best", cfg.Downloader.Format)
	assert.Equal(t, 3*time.Second, cfg.STT.PollInterval)
	assert.Equal(t, "vi", cfg.STT.LanguageCode)
	assert.Equal(t, "Vietnamese", cfg.Article.Language)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Len(t, cfg.Warnings(), 4)
}

func TestLoadSecretsFromStore(t *testing.T) {
	path := writeSecrets(t, `
BLOGGER_API_KEY = "blogger-key"
BLOG_ID = "12345"
GROQ_API_KEY = "groq-key"
ASSEMBLYAI_API_KEY = "aai-key"
`)
	t.Setenv("SECRETS_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "blogger-key", cfg.Blogger.APIKey)
	assert.Equal(t, "12345", cfg.Blogger.BlogID)
	assert.Equal(t, "groq-key", cfg.LLM.APIKey)
	assert.Equal(t, "aai-key", cfg.STT.APIKey)
	assert.Empty(t, cfg.Warnings())
	assert.ElementsMatch(t, []string{"blogger-key", "groq-key", "aai-key"}, cfg.SecretValues())
}

func TestEnvironmentOverridesSecrets(t *testing.T) {
	path := writeSecrets(t, `BLOG_ID = "from-file"`)
	t.Setenv("SECRETS_FILE", path)
	t.Setenv("BLOG_ID", "from-env")
	t.Setenv("LLM_API_KEY", "llm-key")
	t.Setenv("TRANSCRIPT_LANGUAGES", "en, ,de")
	t.Setenv("STT_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Blogger.BlogID)
	assert.Equal(t, "llm-key", cfg.LLM.APIKey)
	assert.Equal(t, []string{"en", "de"}, cfg.Transcript.Languages)
	assert.Equal(t, 250*time.Millisecond, cfg.STT.PollInterval)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SECRETS_FILE", "")

	t.Setenv("STT_POLL_INTERVAL", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STT_POLL_INTERVAL", "")
	t.Setenv("STORE_BACKEND", "postgres")
	_, err = Load()
	assert.ErrorContains(t, err, "STORE_BACKEND")
}

func TestLoadSecretsInvalidTOML(t *testing.T) {
	path := writeSecrets(t, `BLOG_ID = `)
	_, err := LoadSecrets(path)
	assert.Error(t, err)
}
