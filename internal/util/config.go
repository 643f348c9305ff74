package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime settings and flags.
type Config struct {
	Store      string `mapstructure:"store"` // file|memory|postgres
	DataDir    string `mapstructure:"data_dir"`
	DSN        string `mapstructure:"dsn"`
	StorageKey string `mapstructure:"storage_key"`

	Goal     int    `mapstructure:"goal"`
	Language string `mapstructure:"language"`
	Theme    string `mapstructure:"theme"`
	Seed     string `mapstructure:"seed"`

	BurstWindow    time.Duration `mapstructure:"burst_window"`
	BurstThreshold int           `mapstructure:"burst_threshold"`

	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
	ReloadInterval   time.Duration `mapstructure:"reload_interval"` // 0 disables
	SaveInfoInterval time.Duration `mapstructure:"save_info_interval"`
	PopupInterval    time.Duration `mapstructure:"popup_interval"` // 0 disables
	PopupDuration    time.Duration `mapstructure:"popup_duration"`
	BannerDuration   time.Duration `mapstructure:"banner_duration"`

	EmbedURL      string        `mapstructure:"embed_url"` // empty disables the swap
	EmbedInterval time.Duration `mapstructure:"embed_interval"`
	EmbedDuration time.Duration `mapstructure:"embed_duration"`

	BounceSpeed float64 `mapstructure:"bounce_speed"` // cells per second, 0 hides the sprite

	Messages MessagesConfig `mapstructure:"messages"`
	Log      LogConfig      `mapstructure:"log"`
}

// MessagesConfig holds optional text/template overrides for the banner.
type MessagesConfig struct {
	Overtake  string `mapstructure:"overtake"`
	RapidGain string `mapstructure:"rapid_gain"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SetDefaults registers every key so env and flag bindings resolve.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store", "file")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("dsn", "")
	v.SetDefault("storage_key", "hst-data-v3")
	v.SetDefault("goal", 600)
	v.SetDefault("language", "en")
	v.SetDefault("theme", "catppuccin")
	v.SetDefault("seed", "")
	v.SetDefault("burst_window", "10s")
	v.SetDefault("burst_threshold", 10)
	v.SetDefault("autosave_interval", "3s")
	v.SetDefault("reload_interval", "60s")
	v.SetDefault("save_info_interval", "5s")
	v.SetDefault("popup_interval", "5m")
	v.SetDefault("popup_duration", "10s")
	v.SetDefault("banner_duration", "6s")
	v.SetDefault("embed_url", "")
	v.SetDefault("embed_interval", "10m")
	v.SetDefault("embed_duration", "10s")
	v.SetDefault("bounce_speed", 12.0)
	v.SetDefault("messages.overtake", "")
	v.SetDefault("messages.rapid_gain", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// Load reads config file (if any), POINTBOARD_* environment and bound flags.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("POINTBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("dsn", "POINTBOARD_DSN", "DATABASE_URL")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("pointboard")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "pointboard"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "pointboard.log")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case "file", "memory":
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("store=postgres requires dsn")
		}
	default:
		return fmt.Errorf("unknown store %q (file|memory|postgres)", c.Store)
	}
	if c.Goal <= 0 {
		return fmt.Errorf("goal must be positive")
	}
	if c.BurstWindow <= 0 || c.BurstThreshold <= 0 {
		return fmt.Errorf("burst_window and burst_threshold must be positive")
	}
	if c.AutosaveInterval <= 0 || c.SaveInfoInterval <= 0 {
		return fmt.Errorf("autosave_interval and save_info_interval must be positive")
	}
	if c.PopupDuration <= 0 || c.BannerDuration <= 0 {
		return fmt.Errorf("popup_duration and banner_duration must be positive")
	}
	if c.EmbedURL != "" && (c.EmbedInterval <= 0 || c.EmbedDuration <= 0) {
		return fmt.Errorf("embed_interval and embed_duration must be positive when embed_url is set")
	}
	if c.ReloadInterval < 0 || c.PopupInterval < 0 || c.BounceSpeed < 0 {
		return fmt.Errorf("intervals and bounce_speed must not be negative")
	}
	return nil
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pointboard")
	}
	return ".pointboard"
}
