package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"kisanrakshak/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database  DatabaseConfig
	LLM       LLMConfig
	Server    ServerConfig
	Mandi     MandiConfig
	Weather   WeatherConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// LLMConfig holds generative model settings
type LLMConfig struct {
	Provider       string // "gemini" or "openai"
	GeminiKey      string
	OpenAIKey      string
	OpenAIBaseURL  string
	Model          string
	TTSModel       string
	TTSVoice       string
	SystemContext  string
	MaxTokens      int
	Temperature    float64
	MaxConcurrency int
	Timeout        time.Duration
	PromptsDir     string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
	Development    bool
}

// MandiConfig holds settings for the data.gov.in price API
type MandiConfig struct {
	APIKey     string
	BaseURL    string
	ResourceID string
	CacheTTL   time.Duration
	Timeout    time.Duration
}

// WeatherConfig holds settings for the forecast API
type WeatherConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// StorageConfig holds upload storage settings
type StorageConfig struct {
	UploadDir string
	MaxBytes  int64
	// GeneratedMaxBytes caps server-produced files such as synthesized audio
	GeneratedMaxBytes int64
}

// SchedulerConfig holds background job settings
type SchedulerConfig struct {
	Enabled          bool
	PriceRefreshSpec string
	CropScanSpec     string
	PriceWatchlist   []WatchItem
	CropLogStaleDays int
}

// WatchItem is a commodity/state pair prefetched by the scheduler
type WatchItem struct {
	Commodity string
	State     string
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config, err := LoadUnchecked()
	if err != nil {
		return nil, err
	}
	if err := Validate(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadUnchecked reads configuration without requiring a database or LLM key.
// CLI commands that only call the public price and weather APIs use it.
func LoadUnchecked() (*Config, error) {
	config := &Config{
		Database:  *loadDatabaseConfig(),
		Server:    *loadServerConfig(),
		Mandi:     *loadMandiConfig(),
		Weather:   *loadWeatherConfig(),
		Storage:   *loadStorageConfig(),
		Scheduler: *loadSchedulerConfig(),
		Logging:   *loadLoggingConfig(),
	}

	llmConfig, err := loadLLMConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load LLM configuration")
	}
	config.LLM = *llmConfig
	return config, nil
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL:          os.Getenv("DATABASE_URL"),
		MaxOpenConns: getEnvIntOrDefault("DB_MAX_OPEN_CONNS", 20),
		MaxIdleConns: getEnvIntOrDefault("DB_MAX_IDLE_CONNS", 5),
	}
}

func loadLLMConfig() (*LLMConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "gemini"))
	if provider != "gemini" && provider != "openai" {
		return nil, errors.ConfigInvalid("LLM_PROVIDER must be gemini or openai")
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = os.Getenv("GOOGLE_API_KEY")
	}

	defaultModel := "gemini-2.0-flash"
	if provider == "openai" {
		defaultModel = "gpt-4o-mini"
	}

	return &LLMConfig{
		Provider:       provider,
		GeminiKey:      geminiKey,
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		Model:          getEnvOrDefault("LLM_MODEL", defaultModel),
		TTSModel:       getEnvOrDefault("TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		TTSVoice:       getEnvOrDefault("TTS_VOICE", "Kore"),
		SystemContext:  "You are Kisan Rakshak, an agricultural advisor for small-scale Indian farmers.",
		MaxTokens:      getEnvIntOrDefault("MAX_TOKENS", 2048),
		Temperature:    getEnvFloatOrDefault("TEMPERATURE", 0.4),
		MaxConcurrency: getEnvIntOrDefault("LLM_MAX_CONCURRENCY", 4),
		Timeout:        getEnvDurationOrDefault("LLM_TIMEOUT", 60*time.Second),
		PromptsDir:     os.Getenv("PROMPTS_DIR"), // empty means embedded prompts
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           getEnvOrDefault("PORT", "8080"),
		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 90*time.Second),
		Development:    getEnvBoolOrDefault("DEVELOPMENT", false),
	}
}

func loadMandiConfig() *MandiConfig {
	return &MandiConfig{
		APIKey:     os.Getenv("DATA_GOV_API_KEY"),
		BaseURL:    getEnvOrDefault("DATA_GOV_BASE_URL", "https://api.data.gov.in"),
		ResourceID: getEnvOrDefault("MANDI_RESOURCE_ID", "9ef84268-d588-465a-a308-a864a43d0070"),
		CacheTTL:   getEnvDurationOrDefault("MANDI_CACHE_TTL", 30*time.Minute),
		Timeout:    getEnvDurationOrDefault("MANDI_TIMEOUT", 20*time.Second),
	}
}

func loadWeatherConfig() *WeatherConfig {
	return &WeatherConfig{
		APIKey:   os.Getenv("WEATHER_API_KEY"),
		BaseURL:  getEnvOrDefault("WEATHER_BASE_URL", "https://api.openweathermap.org"),
		CacheTTL: getEnvDurationOrDefault("WEATHER_CACHE_TTL", 15*time.Minute),
		Timeout:  getEnvDurationOrDefault("WEATHER_TIMEOUT", 15*time.Second),
	}
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		UploadDir:         getEnvOrDefault("UPLOAD_DIR", "./uploads"),
		MaxBytes:          int64(getEnvIntOrDefault("UPLOAD_MAX_BYTES", 10<<20)),
		GeneratedMaxBytes: int64(getEnvIntOrDefault("GENERATED_AUDIO_MAX_BYTES", 32<<20)),
	}
}

func loadSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Enabled:          getEnvBoolOrDefault("SCHEDULER_ENABLED", true),
		PriceRefreshSpec: getEnvOrDefault("PRICE_REFRESH_CRON", "0 */2 * * *"),
		CropScanSpec:     getEnvOrDefault("CROP_SCAN_CRON", "30 6 * * *"),
		PriceWatchlist:   ParseWatchlist(os.Getenv("PRICE_WATCHLIST")),
		CropLogStaleDays: getEnvIntOrDefault("CROP_LOG_STALE_DAYS", 7),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:      getEnvOrDefault("LOG_LEVEL", "info"),
		File:       os.Getenv("LOG_FILE"),
		MaxSizeMB:  getEnvIntOrDefault("LOG_MAX_SIZE_MB", 50),
		MaxBackups: getEnvIntOrDefault("LOG_MAX_BACKUPS", 3),
	}
}

// ParseWatchlist parses "Onion:Maharashtra,Tomato:Karnataka". Entries without a
// state are watched across all states.
func ParseWatchlist(raw string) []WatchItem {
	var items []WatchItem
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		commodity, state, _ := strings.Cut(entry, ":")
		items = append(items, WatchItem{
			Commodity: strings.TrimSpace(commodity),
			State:     strings.TrimSpace(state),
		})
	}
	return items
}

// Validate checks the settings the server needs to start
func Validate(config *Config) error {
	if err := validateConfig(config); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	return nil
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	switch config.LLM.Provider {
	case "gemini":
		if config.LLM.GeminiKey == "" {
			return errors.ConfigInvalid("GEMINI_API_KEY (or GOOGLE_API_KEY) is required for the gemini provider")
		}
	case "openai":
		if config.LLM.OpenAIKey == "" {
			return errors.ConfigInvalid("OPENAI_API_KEY is required for the openai provider")
		}
	}
	if config.LLM.MaxConcurrency < 1 {
		return errors.ConfigInvalid("LLM_MAX_CONCURRENCY must be at least 1")
	}
	if config.Storage.MaxBytes <= 0 {
		return errors.ConfigInvalid("UPLOAD_MAX_BYTES must be positive")
	}
	if config.Storage.GeneratedMaxBytes < config.Storage.MaxBytes {
		return errors.ConfigInvalid("GENERATED_AUDIO_MAX_BYTES must be at least UPLOAD_MAX_BYTES")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
