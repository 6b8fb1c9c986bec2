// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultSecretsFile is where the secret store is looked up when SECRETS_FILE is unset.
const DefaultSecretsFile = ".streamlit/secrets.toml"

// Config holds every setting of the application. It is built once at startup
// and passed to the components that need it.
type Config struct {
	Port      string
	DebugMode bool
	LogDir    string
	LogLevel  string

	// WorkDir receives downloaded audio files.
	WorkDir string

	Transcript TranscriptConfig
	Downloader DownloaderConfig
	STT        STTConfig
	LLM        LLMConfig
	Article    ArticleConfig
	Blogger    BloggerConfig
	Store      StoreConfig

	// RateLimitPerMinute bounds pipeline requests per client IP. Zero disables the limit.
	RateLimitPerMinute int
}

// TranscriptConfig configures direct caption retrieval.
type TranscriptConfig struct {
	Languages []string
}

// DownloaderConfig configures the yt-dlp audio download.
type DownloaderConfig struct {
	CookieFile string
	Format     string
	KeepAudio  bool
}

// STTConfig configures the speech-to-text provider.
type STTConfig struct {
	APIKey          string
	BaseURL         string
	LanguageCode    string
	PollInterval    time.Duration
	PollMaxInterval time.Duration
	PollMultiplier  float64
	PollMaxAttempts int
	Timeout         time.Duration
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// ArticleConfig configures article generation.
type ArticleConfig struct {
	Language string
}

// BloggerConfig configures the publishing API.
type BloggerConfig struct {
	APIKey  string
	BlogID  string
	BaseURL string
}

// StoreConfig selects where generated articles wait to be published.
type StoreConfig struct {
	Backend   string
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
	MaxSize   int
}

// Secrets mirrors the secret store file.
type Secrets struct {
	BloggerAPIKey    string `toml:"BLOGGER_API_KEY"`
	BlogID           string `toml:"BLOG_ID"`
	GroqAPIKey       string `toml:"GROQ_API_KEY"`
	AssemblyAIAPIKey string `toml:"ASSEMBLYAI_API_KEY"`
}

// Load builds the configuration from .env, the environment and the secret store.
// Missing secrets are reported by Warnings, not as an error.
func Load() (*Config, error) {
	// .env is optional
	godotenv.Load()

	secretsFile := getEnv("SECRETS_FILE", DefaultSecretsFile)
	secrets, err := LoadSecrets(secretsFile)
	if err != nil {
		return nil, err
	}

	pollInterval, err := getEnvDuration("STT_POLL_INTERVAL", 3*time.Second)
	if err != nil {
		return nil, err
	}
	pollMaxInterval, err := getEnvDuration("STT_POLL_MAX_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}
	sttTimeout, err := getEnvDuration("STT_TIMEOUT", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	articleTTL, err := getEnvDuration("ARTICLE_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		DebugMode: getEnvBool("DEBUG_MODE", false),
		LogDir:    getEnv("LOG_DIR", "logs"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		WorkDir:   getEnv("WORK_DIR", "."),
		Transcript: TranscriptConfig{
			Languages: getEnvList("TRANSCRIPT_LANGUAGES", []string{"vi", "en"}),
		},
		Downloader: DownloaderConfig{
			CookieFile: getEnv("COOKIE_FILE", "cookies.txt"),
			Format:     getEnv("AUDIO_FORMAT", "bestaudio/best"),
			KeepAudio:  getEnvBool("KEEP_AUDIO", false),
		},
		STT: STTConfig{
			APIKey:          getEnv("ASSEMBLYAI_API_KEY", secrets.AssemblyAIAPIKey),
			BaseURL:         getEnv("STT_BASE_URL", "https://api.assemblyai.com/v2"),
			LanguageCode:    getEnv("STT_LANGUAGE_CODE", "vi"),
			PollInterval:    pollInterval,
			PollMaxInterval: pollMaxInterval,
			PollMultiplier:  getEnvFloat("STT_POLL_MULTIPLIER", 1.0),
			PollMaxAttempts: getEnvInt("STT_POLL_MAX_ATTEMPTS", 400),
			Timeout:         sttTimeout,
		},
		LLM: LLMConfig{
			Provider: getEnv("LLM_PROVIDER", "openai"),
			APIKey:   getEnv("LLM_API_KEY", getEnv("GROQ_API_KEY", secrets.GroqAPIKey)),
			Model:    getEnv("LLM_MODEL", ""),
			BaseURL:  getEnv("LLM_BASE_URL", ""),
		},
		Article: ArticleConfig{
			Language: getEnv("ARTICLE_LANGUAGE", "Vietnamese"),
		},
		Blogger: BloggerConfig{
			APIKey:  getEnv("BLOGGER_API_KEY", secrets.BloggerAPIKey),
			BlogID:  getEnv("BLOG_ID", secrets.BlogID),
			BaseURL: getEnv("BLOGGER_BASE_URL", "https://www.googleapis.com/blogger/v3"),
		},
		Store: StoreConfig{
			Backend:   strings.ToLower(getEnv("STORE_BACKEND", "memory")),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:   getEnvInt("REDIS_DB", 0),
			TTL:       articleTTL,
			MaxSize:   getEnvInt("ARTICLE_CACHE_SIZE", 100),
		},
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadSecrets reads the TOML secret store. A missing file yields empty secrets.
func LoadSecrets(path string) (*Secrets, error) {
	secrets := &Secrets{}
	if path == "" {
		return secrets, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return secrets, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, secrets); err != nil {
		return nil, fmt.Errorf("parse secrets file %s: %w", filepath.Base(path), err)
	}
	return secrets, nil
}

// Validate rejects settings the application cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if len(c.Transcript.Languages) == 0 {
		return fmt.Errorf("TRANSCRIPT_LANGUAGES must list at least one language")
	}
	if c.STT.PollInterval <= 0 {
		return fmt.Errorf("STT_POLL_INTERVAL must be positive")
	}
	if c.STT.PollMultiplier < 1 {
		return fmt.Errorf("STT_POLL_MULTIPLIER must be >= 1")
	}
	if c.STT.PollMaxAttempts <= 0 {
		return fmt.Errorf("STT_POLL_MAX_ATTEMPTS must be positive")
	}
	switch c.Store.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	return nil
}

// Warnings lists secrets that are not configured. The features depending on
// them fail when used.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.Blogger.APIKey == "" {
		warnings = append(warnings, "BLOGGER_API_KEY is not set, publishing is disabled")
	}
	if c.Blogger.BlogID == "" {
		warnings = append(warnings, "BLOG_ID is not set, publishing is disabled")
	}
	if c.LLM.APIKey == "" {
		warnings = append(warnings, "GROQ_API_KEY / LLM_API_KEY is not set, article generation is disabled")
	}
	if c.STT.APIKey == "" {
		warnings = append(warnings, "ASSEMBLYAI_API_KEY is not set, the speech-to-text fallback is disabled")
	}
	return warnings
}

// SecretValues returns the configured secrets, used to scrub error messages.
func (c *Config) SecretValues() []string {
	var values []string
	for _, v := range []string{c.Blogger.APIKey, c.LLM.APIKey, c.STT.APIKey} {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
