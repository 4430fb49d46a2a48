package config

// DefaultPort is the listen port used when neither the config file nor the
// PORT environment variable sets one.
const DefaultPort = 3001

type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	NATSURL  string `mapstructure:"nats_url"`
	RedisURL string `mapstructure:"redis_url"`
}
