package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type RateLimit struct {
	Count    int           `mapstructure:"count"`
	Interval time.Duration `mapstructure:"interval"`
}

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	Secret         string        `mapstructure:"secret"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	HistoryLimit   int           `mapstructure:"history_limit"`
	Backpressure   string        `mapstructure:"backpressure"`
	RateLimit      RateLimit     `mapstructure:"rate_limit"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, then MEET_* environment
// variables, then any flags that were set explicitly. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
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
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("send_buffer", 1024)
	v.SetDefault("history_limit", 500)
	v.SetDefault("backpressure", "drop")
	v.SetDefault("rate_limit.count", 30)
	v.SetDefault("rate_limit.interval", "1s")
	v.SetDefault("shutdown_grace", "5s")

	v.SetEnvPrefix("MEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("static", cfg.StaticPath).Int("history_limit", cfg.HistoryLimit).
		Str("backpressure", cfg.Backpressure).Msg("config ready")
	return &cfg, nil
}

// replayReserve counts the frames a newcomer may hold before its replay:
// welcome and member-joined.
const replayReserve = 2

// ReplayBudget is how many history entries fit in a newcomer's send buffer
// on join. With an unbounded history only the newest ReplayBudget entries
// are replayed.
func (c *Config) ReplayBudget() int {
	return c.SendBuffer - replayReserve
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be >= 0, got %d", c.HistoryLimit)
	}
	if c.SendBuffer <= replayReserve {
		return fmt.Errorf("send_buffer must be > %d, got %d", replayReserve, c.SendBuffer)
	}
	// A bounded history must replay in full into the newcomer's buffer.
	if c.HistoryLimit > 0 && c.ReplayBudget() < c.HistoryLimit {
		return fmt.Errorf("send_buffer (%d) must be at least history_limit + %d (%d)",
			c.SendBuffer, replayReserve, c.HistoryLimit+replayReserve)
	}
	switch c.Backpressure {
	case "drop", "kick":
	default:
		return fmt.Errorf("backpressure must be drop or kick, got %q", c.Backpressure)
	}
	return nil
}
