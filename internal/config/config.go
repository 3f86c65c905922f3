package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type AIConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
}

type RateConfig struct {
	Limit    int           `mapstructure:"limit"`
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	StaticPath   string        `mapstructure:"static_path"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	Secret       string        `mapstructure:"secret"`
	SendBuffer   int           `mapstructure:"send_buffer"`
	Backpressure string        `mapstructure:"backpressure"`
	EventRate    RateConfig    `mapstructure:"event_rate"`
	AI           AIConfig      `mapstructure:"ai"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("backpressure", "disconnect")
	v.SetDefault("event_rate.limit", 120)
	v.SetDefault("event_rate.interval", "1s")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Static: %s\n", cfg.Mode, cfg.Port, cfg.StaticPath)
	return &cfg, nil
}
