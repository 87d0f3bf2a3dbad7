package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	TelegramToken string

	GeminiAPIKey     string
	GeminiAPIKeyFile string
	GeminiBaseURL    string
	GeminiAPIVersion string
	GeminiTextModel  string
	GeminiImageModel string

	WebAddr string

	LogLevel     string
	LogFile      string
	LogMaxSizeMB int

	PreferIPv4 bool

	MediaGroupDebounce time.Duration
	MaxConcurrent      int
	MaxHistory         int
	NoticeDuration     time.Duration
	RequestTimeout     time.Duration
	HTTPTimeout        time.Duration

	CatalogFile string
	PrefsFile   string

	FontRegular string
	FontMedium  string
	FontBold    string

	ImageAllowHosts []string
}

// file mirrors the environment keys for BANNER_CONFIG_FILE. Zero values
// leave the defaults in place.
type file struct {
	TelegramToken    string `toml:"telegram_bot_token"`
	GeminiAPIKey     string `toml:"gemini_api_key"`
	GeminiAPIKeyFile string `toml:"gemini_api_key_file"`
	GeminiBaseURL    string `toml:"gemini_base_url"`
	GeminiAPIVersion string `toml:"gemini_api_version"`
	GeminiTextModel  string `toml:"gemini_text_model"`
	GeminiImageModel string `toml:"gemini_image_model"`

	WebAddr      string `toml:"web_addr"`
	LogLevel     string `toml:"log_level"`
	LogFile      string `toml:"log_file"`
	LogMaxSizeMB int    `toml:"log_max_size_mb"`
	PreferIPv4   *bool  `toml:"prefer_ipv4"`

	MediaGroupDebounceMS  int `toml:"media_group_debounce_ms"`
	MaxConcurrent         int `toml:"max_concurrent"`
	MaxHistory            int `toml:"max_history"`
	NoticeSeconds         int `toml:"notice_seconds"`
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`
	HTTPTimeoutSeconds    int `toml:"http_timeout_seconds"`

	CatalogFile string `toml:"catalog_file"`
	PrefsFile   string `toml:"prefs_file"`

	Fonts struct {
		Regular string `toml:"regular"`
		Medium  string `toml:"medium"`
		Bold    string `toml:"bold"`
	} `toml:"fonts"`

	ImageAllowHosts []string `toml:"image_allow_hosts"`
}

func defaults() Config {
	return Config{
		GeminiBaseURL:      "https://generativelanguage.googleapis.com",
		GeminiAPIVersion:   "v1beta",
		WebAddr:            ":8080",
		LogLevel:           "info",
		LogMaxSizeMB:       10,
		PreferIPv4:         true,
		MediaGroupDebounce: 1200 * time.Millisecond,
		MaxConcurrent:      4,
		MaxHistory:         20,
		NoticeDuration:     3 * time.Second,
		RequestTimeout:     180 * time.Second,
		HTTPTimeout:        120 * time.Second,
		ImageAllowHosts:    []string{"*.supabase.co"},
	}
}

// Load builds the configuration from defaults, the optional TOML file named
// by BANNER_CONFIG_FILE, and then environment variables, in that order.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("BANNER_CONFIG_FILE")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.mergeEnv()

	if cfg.GeminiAPIKey == "" && cfg.GeminiAPIKeyFile != "" {
		raw, err := os.ReadFile(cfg.GeminiAPIKeyFile)
		if err != nil {
			return Config{}, fmt.Errorf("read GEMINI_API_KEY_FILE: %w", err)
		}
		cfg.GeminiAPIKey = strings.TrimSpace(string(raw))
	}

	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.MaxHistory < 1 {
		cfg.MaxHistory = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 180 * time.Second
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 120 * time.Second
	}
	if cfg.NoticeDuration <= 0 {
		cfg.NoticeDuration = 3 * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	setString(&c.TelegramToken, f.TelegramToken)
	setString(&c.GeminiAPIKey, f.GeminiAPIKey)
	setString(&c.GeminiAPIKeyFile, f.GeminiAPIKeyFile)
	setString(&c.GeminiBaseURL, f.GeminiBaseURL)
	setString(&c.GeminiAPIVersion, f.GeminiAPIVersion)
	setString(&c.GeminiTextModel, f.GeminiTextModel)
	setString(&c.GeminiImageModel, f.GeminiImageModel)
	setString(&c.WebAddr, f.WebAddr)
	setString(&c.LogLevel, f.LogLevel)
	setString(&c.LogFile, f.LogFile)
	setInt(&c.LogMaxSizeMB, f.LogMaxSizeMB)
	if f.PreferIPv4 != nil {
		c.PreferIPv4 = *f.PreferIPv4
	}
	if f.MediaGroupDebounceMS > 0 {
		c.MediaGroupDebounce = time.Duration(f.MediaGroupDebounceMS) * time.Millisecond
	}
	setInt(&c.MaxConcurrent, f.MaxConcurrent)
	setInt(&c.MaxHistory, f.MaxHistory)
	if f.NoticeSeconds > 0 {
		c.NoticeDuration = time.Duration(f.NoticeSeconds) * time.Second
	}
	if f.RequestTimeoutSeconds > 0 {
		c.RequestTimeout = time.Duration(f.RequestTimeoutSeconds) * time.Second
	}
	if f.HTTPTimeoutSeconds > 0 {
		c.HTTPTimeout = time.Duration(f.HTTPTimeoutSeconds) * time.Second
	}
	setString(&c.CatalogFile, f.CatalogFile)
	setString(&c.PrefsFile, f.PrefsFile)
	setString(&c.FontRegular, f.Fonts.Regular)
	setString(&c.FontMedium, f.Fonts.Medium)
	setString(&c.FontBold, f.Fonts.Bold)
	if len(f.ImageAllowHosts) > 0 {
		c.ImageAllowHosts = f.ImageAllowHosts
	}
	return nil
}

func (c *Config) mergeEnv() {
	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)
	c.GeminiAPIKey = getEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiAPIKeyFile = getEnv("GEMINI_API_KEY_FILE", c.GeminiAPIKeyFile)
	c.GeminiBaseURL = getEnv("GEMINI_BASE_URL", c.GeminiBaseURL)
	c.GeminiAPIVersion = getEnv("GEMINI_API_VERSION", c.GeminiAPIVersion)
	c.GeminiTextModel = getEnv("GEMINI_TEXT_MODEL", c.GeminiTextModel)
	c.GeminiImageModel = getEnv("GEMINI_IMAGE_MODEL", c.GeminiImageModel)
	c.WebAddr = getEnv("WEB_ADDR", c.WebAddr)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogMaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", c.LogMaxSizeMB)
	c.PreferIPv4 = getEnvBool("PREFER_IPV4", c.PreferIPv4)
	c.MediaGroupDebounce = time.Duration(getEnvInt("MEDIA_GROUP_DEBOUNCE_MS", int(c.MediaGroupDebounce/time.Millisecond))) * time.Millisecond
	c.MaxConcurrent = getEnvInt("MAX_CONCURRENT", c.MaxConcurrent)
	c.MaxHistory = getEnvInt("MAX_HISTORY", c.MaxHistory)
	c.NoticeDuration = time.Duration(getEnvInt("NOTICE_SECONDS", int(c.NoticeDuration/time.Second))) * time.Second
	c.RequestTimeout = time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", int(c.RequestTimeout/time.Second))) * time.Second
	c.HTTPTimeout = time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", int(c.HTTPTimeout/time.Second))) * time.Second
	c.CatalogFile = getEnv("CATALOG_FILE", c.CatalogFile)
	c.PrefsFile = getEnv("PREFS_FILE", c.PrefsFile)
	c.FontRegular = getEnv("FONT_REGULAR", c.FontRegular)
	c.FontMedium = getEnv("FONT_MEDIUM", c.FontMedium)
	c.FontBold = getEnv("FONT_BOLD", c.FontBold)
	if hosts := getEnv("IMAGE_ALLOW_HOSTS", ""); hosts != "" {
		c.ImageAllowHosts = splitList(hosts)
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.GeminiBaseURL, "http://") && !strings.HasPrefix(c.GeminiBaseURL, "https://") {
		return fmt.Errorf("GEMINI_BASE_URL must be an http(s) URL, got %q", c.GeminiBaseURL)
	}
	if c.WebAddr != "" {
		if _, _, err := net.SplitHostPort(c.WebAddr); err != nil {
			return fmt.Errorf("WEB_ADDR %q: %w", c.WebAddr, err)
		}
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error; got %q", c.LogLevel)
	}
	if c.LogMaxSizeMB < 1 {
		return errors.New("LOG_MAX_SIZE_MB must be positive")
	}
	if c.MediaGroupDebounce < 0 {
		return errors.New("MEDIA_GROUP_DEBOUNCE_MS must not be negative")
	}
	return nil
}

// RequireTelegram reports whether the bot token is present.
func (c Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}

// HasGemini reports whether AI routes can be served.
func (c Config) HasGemini() bool {
	return c.GeminiAPIKey != "" || c.GeminiAPIKeyFile != ""
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
