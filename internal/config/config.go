package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "POKER"

const (
	MinSessionTimeout = time.Second
	MinWriteWait      = 100 * time.Millisecond
)

// Backpressure modes for a subscriber whose send buffer is full.
const (
	BackpressureKick = "kick"
	BackpressureDrop = "drop"
)

type Config struct {
	Mode           string        `mapstructure:"mode"`
	Bind           string        `mapstructure:"bind"`
	Port           int           `mapstructure:"port"`
	StaticPath     string        `mapstructure:"static_path"`
	PublicURL      string        `mapstructure:"public_url"`
	ReadLimit      int64         `mapstructure:"read_limit"`
	PingPeriod     time.Duration `mapstructure:"ping_period"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	SendBuffer     int           `mapstructure:"send_buffer"`
	Backpressure   string        `mapstructure:"backpressure"`
	Secret         string        `mapstructure:"secret"`
	LogLevel       string        `mapstructure:"log_level"`
	SessionTimeout time.Duration `mapstructure:"session_timeout"`
	StrictCreator  bool          `mapstructure:"strict_creator"`
	VoteOptions    []int         `mapstructure:"vote_options"`
	CreateLimit    int           `mapstructure:"create_limit"`
	CreateInterval time.Duration `mapstructure:"create_interval"`
}

// New returns a viper instance with defaults and env lookup set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("bind", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("public_url", "")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("backpressure", BackpressureKick)
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("session_timeout", "60m")
	v.SetDefault("strict_creator", false)
	v.SetDefault("vote_options", []int{1, 2, 3, 5, 8, 13, 21})
	v.SetDefault("create_limit", 5)
	v.SetDefault("create_interval", "1m")
	return v
}

// BindFlags registers command line flags and lets them override file and env.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
	})

	fs.String("config", "", "path to a yaml config file (default config/config.$CONFIG_ENV.yaml)")
	fs.StringP("bind", "b", v.GetString("bind"), "address to bind to (env: POKER_BIND)")
	fs.IntP("port", "p", v.GetInt("port"), "port to listen on (env: POKER_PORT)")
	fs.String("mode", v.GetString("mode"), "gin mode: debug or release (env: POKER_MODE)")
	fs.String("static_path", v.GetString("static_path"), "directory with the web client (env: POKER_STATIC_PATH)")
	fs.String("log_level", v.GetString("log_level"), "zerolog level (env: POKER_LOG_LEVEL)")
	fs.Duration("session_timeout", v.GetDuration("session_timeout"), "idle time before a session is removed, 0 disables (env: POKER_SESSION_TIMEOUT)")
	fs.Bool("strict_creator", v.GetBool("strict_creator"), "only the creator may retitle or delete a session (env: POKER_STRICT_CREATOR)")
	fs.String("backpressure", v.GetString("backpressure"), "slow subscriber handling: kick or drop (env: POKER_BACKPRESSURE)")
	fs.IntSlice("vote_options", v.GetIntSlice("vote_options"), "allowed vote values (env: POKER_VOTE_OPTIONS)")

	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		errs = append(errs, v.BindPFlag(f.Name, f))
	})
	return errors.Join(errs...)
}

// Load reads the optional config file, then unmarshals everything into Config.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file == "" {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		file = fmt.Sprintf("config/config.%s.yaml", env)
	}
	v.SetConfigFile(file)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", file).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", file).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).
		Str("static", cfg.StaticPath).Ints("vote_options", cfg.VoteOptions).Msg("config ready")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("send_buffer must be positive: %d", c.SendBuffer)
	}
	if c.Backpressure != BackpressureKick && c.Backpressure != BackpressureDrop {
		return fmt.Errorf("backpressure must be %q or %q: %q", BackpressureKick, BackpressureDrop, c.Backpressure)
	}
	if c.WriteWait < MinWriteWait {
		return fmt.Errorf("write_wait must be at least %s: %s", MinWriteWait, c.WriteWait)
	}
	if c.PingPeriod <= 0 {
		return fmt.Errorf("ping_period must be positive: %s", c.PingPeriod)
	}
	if c.CreateLimit < 1 || c.CreateInterval <= 0 {
		return errors.New("create_limit and create_interval must be positive")
	}
	if c.SessionTimeout != 0 && c.SessionTimeout < MinSessionTimeout {
		return fmt.Errorf("session_timeout must be 0 or at least %s: %s", MinSessionTimeout, c.SessionTimeout)
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
