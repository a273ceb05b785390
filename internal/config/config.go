package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server" json:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" json:"log" yaml:"log"`
	Translate TranslateConfig `mapstructure:"translate" json:"translate" yaml:"translate"`
	Vision    VisionConfig    `mapstructure:"vision" json:"vision" yaml:"vision"`
	Settings  SettingsConfig  `mapstructure:"settings" json:"settings" yaml:"settings"`
	Poster    PosterConfig    `mapstructure:"poster" json:"poster" yaml:"poster"`
	Export    ExportConfig    `mapstructure:"export" json:"export" yaml:"export"`
}

// ServerConfig holds configuration for the HTTP server
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" json:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" json:"allowed_origins" yaml:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" json:"max_upload_mb" yaml:"max_upload_mb"`
}

// LogConfig holds configuration for logging
type LogConfig struct {
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	Development bool   `mapstructure:"development" json:"development" yaml:"development"`
}

// TranslateConfig holds configuration for translation providers
type TranslateConfig struct {
	DefaultService   string   `mapstructure:"default_service" json:"default_service" yaml:"default_service"`
	DefaultSource    string   `mapstructure:"default_source" json:"default_source" yaml:"default_source"`
	DefaultTarget    string   `mapstructure:"default_target" json:"default_target" yaml:"default_target"`
	GoogleEndpoint   string   `mapstructure:"google_endpoint" json:"google_endpoint" yaml:"google_endpoint"`
	DeepLKey         string   `mapstructure:"deepl_key" json:"deepl_key" yaml:"deepl_key"`
	DeepLEndpoint    string   `mapstructure:"deepl_endpoint" json:"deepl_endpoint" yaml:"deepl_endpoint"`
	UpstreamURL      string   `mapstructure:"upstream_url" json:"upstream_url" yaml:"upstream_url"`
	UpstreamServices []string `mapstructure:"upstream_services" json:"upstream_services" yaml:"upstream_services"`
}

// VisionConfig holds configuration for the pair labeler backend
type VisionConfig struct {
	Backend string `mapstructure:"backend" json:"backend" yaml:"backend"`
	SendMax int    `mapstructure:"send_max" json:"send_max" yaml:"send_max"`
	SendQ   int    `mapstructure:"send_quality" json:"send_quality" yaml:"send_quality"`
}

// SettingsConfig selects where labeler settings are persisted
type SettingsConfig struct {
	Backend   string `mapstructure:"backend" json:"backend" yaml:"backend"`
	Path      string `mapstructure:"path" json:"path" yaml:"path"`
	RedisAddr string `mapstructure:"redis_addr" json:"redis_addr" yaml:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db" json:"redis_db" yaml:"redis_db"`
	RedisKey  string `mapstructure:"redis_key" json:"redis_key" yaml:"redis_key"`
}

// PosterConfig holds configuration for the poster rasterizer
type PosterConfig struct {
	JPEGQuality int    `mapstructure:"jpeg_quality" json:"jpeg_quality" yaml:"jpeg_quality"`
	FontPath    string `mapstructure:"font_path" json:"font_path" yaml:"font_path"`
}

// ExportConfig holds defaults for batch image export
type ExportConfig struct {
	DefaultFormat string  `mapstructure:"default_format" json:"default_format" yaml:"default_format"`
	Quality       float64 `mapstructure:"quality" json:"quality" yaml:"quality"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":5005",
			AllowedOrigins: []string{"*"},
			MaxUploadMB:    64,
		},
		Log: LogConfig{
			Level: "info",
		},
		Translate: TranslateConfig{
			DefaultService: "google",
			DefaultSource:  "en",
			DefaultTarget:  "zh-CN",
			GoogleEndpoint: "https://translate.googleapis.com/translate_a/single",
			DeepLEndpoint:  "https://api-free.deepl.com/v2/translate",
			UpstreamServices: []string{
				"bing", "baidu", "youdao", "tencent", "alibaba",
			},
		},
		Vision: VisionConfig{
			Backend: "openai",
			SendMax: 1536,
			SendQ:   85,
		},
		Settings: SettingsConfig{
			Backend:  "file",
			Path:     defaultSettingsPath(),
			RedisKey: "labelkit:kontext_labeler_settings",
		},
		Poster: PosterConfig{
			JPEGQuality: 95,
		},
		Export: ExportConfig{
			DefaultFormat: "jpeg",
			Quality:       0.8,
		},
	}
}

// Load reads configuration from a YAML or JSON file and LABELKIT_* environment variables.
// An empty filename loads defaults plus environment only.
func Load(filename string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("LABELKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("translate.default_service", d.Translate.DefaultService)
	v.SetDefault("translate.default_source", d.Translate.DefaultSource)
	v.SetDefault("translate.default_target", d.Translate.DefaultTarget)
	v.SetDefault("translate.google_endpoint", d.Translate.GoogleEndpoint)
	v.SetDefault("translate.deepl_key", d.Translate.DeepLKey)
	v.SetDefault("translate.deepl_endpoint", d.Translate.DeepLEndpoint)
	v.SetDefault("translate.upstream_url", d.Translate.UpstreamURL)
	v.SetDefault("translate.upstream_services", d.Translate.UpstreamServices)
	v.SetDefault("vision.backend", d.Vision.Backend)
	v.SetDefault("vision.send_max", d.Vision.SendMax)
	v.SetDefault("vision.send_quality", d.Vision.SendQ)
	v.SetDefault("settings.backend", d.Settings.Backend)
	v.SetDefault("settings.path", d.Settings.Path)
	v.SetDefault("settings.redis_addr", d.Settings.RedisAddr)
	v.SetDefault("settings.redis_db", d.Settings.RedisDB)
	v.SetDefault("settings.redis_key", d.Settings.RedisKey)
	v.SetDefault("poster.jpeg_quality", d.Poster.JPEGQuality)
	v.SetDefault("poster.font_path", d.Poster.FontPath)
	v.SetDefault("export.default_format", d.Export.DefaultFormat)
	v.SetDefault("export.quality", d.Export.Quality)
}

// SaveToFile saves configuration to a file; the extension picks YAML or JSON
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setDefaults(v, c)
	if err := v.WriteConfigAs(filename); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}

	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}

	if c.Translate.DefaultService == "" {
		return fmt.Errorf("translate.default_service cannot be empty")
	}

	if c.Translate.DefaultSource != "auto" && c.Translate.DefaultSource == c.Translate.DefaultTarget {
		return fmt.Errorf("translate.default_source and translate.default_target must differ")
	}

	switch c.Vision.Backend {
	case "openai", "ollama":
	default:
		return fmt.Errorf("vision.backend must be openai or ollama, got %q", c.Vision.Backend)
	}

	switch c.Settings.Backend {
	case "memory", "file", "sqlite":
	case "redis":
		if c.Settings.RedisAddr == "" {
			return fmt.Errorf("settings.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("settings.backend must be one of memory, file, sqlite, redis")
	}

	if c.Poster.JPEGQuality < 1 || c.Poster.JPEGQuality > 100 {
		return fmt.Errorf("poster.jpeg_quality must be between 1 and 100")
	}

	if c.Export.Quality < 0.1 || c.Export.Quality > 1 {
		return fmt.Errorf("export.quality must be between 0.1 and 1")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "labelkit", "config.yaml")
}

func defaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./labeler_settings.json"
	}
	return filepath.Join(home, ".config", "labelkit", "labeler_settings.json")
}
