package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type APIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Token          string `mapstructure:"token"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Config struct {
	API                 APIConfig `mapstructure:"api"`
	PollIntervalSeconds int       `mapstructure:"poll_interval_seconds"`
	AlertDisplaySeconds int       `mapstructure:"alert_display_seconds"`
	SoundEnabled        bool      `mapstructure:"sound_enabled"`
	JournalPath         string    `mapstructure:"journal_path"`
	MetricsAddr         string    `mapstructure:"metrics_addr"` // empty disables the listener
	Timezone            string    `mapstructure:"timezone"`     // IANA name; empty means local
}

func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/remindme")
		viper.AddConfigPath("/etc/remindme/")
	}

	viper.SetEnvPrefix("REMINDME")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("api.base_url", "")
	viper.SetDefault("api.token", "")
	viper.SetDefault("api.timeout_seconds", 10)
	viper.SetDefault("poll_interval_seconds", 5)
	viper.SetDefault("alert_display_seconds", 8)
	viper.SetDefault("sound_enabled", true)
	viper.SetDefault("journal_path", "remindme.db")
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("timezone", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.API.BaseURL == "" {
		return nil, errors.New("api.base_url is required (set REMINDME_API_BASE_URL or the config file)")
	}
	if cfg.API.TimeoutSeconds < 1 {
		log.Println("Warning: api.timeout_seconds too low, setting to 1")
		cfg.API.TimeoutSeconds = 1
	}
	if cfg.PollIntervalSeconds < 1 {
		log.Println("Warning: poll_interval_seconds too low, setting to 1")
		cfg.PollIntervalSeconds = 1
	}
	if cfg.AlertDisplaySeconds < 1 {
		log.Println("Warning: alert_display_seconds too low, setting to 1")
		cfg.AlertDisplaySeconds = 1
	}

	log.Printf("Configuration loaded: poll=%ds display=%ds journal=%s", cfg.PollIntervalSeconds, cfg.AlertDisplaySeconds, cfg.JournalPath)
	return &cfg, nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) AlertDisplay() time.Duration {
	return time.Duration(c.AlertDisplaySeconds) * time.Second
}

func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// Location resolves the configured timezone, falling back to the host's
// local zone when unset or unknown. Reminder dates are always interpreted in
// this zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, using local zone", c.Timezone)
		return time.Local
	}
	return loc
}
