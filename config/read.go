package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ReadConfig reads the configuration from the specified JSON file.
// Environment variables override file values (PORT, LOG_LEVEL, NATS_URL,
// REDIS_URL), and a .env file is honored if present.
func ReadConfig(configPath string) (Config, error) {
	var cfg Config

	// A missing .env is fine; real env vars still apply.
	_ = godotenv.Load()

	viper.SetConfigFile(configPath)
	viper.SetConfigType("json")

	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("log_level", "info")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// MustReadConfig reads the configuration or panics if there's an error.
func MustReadConfig(configPath string) Config {
	cfg, err := ReadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	return cfg
}
