package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the application configuration. Values come from an optional
// YAML file, overridden by MAJORDOME_* environment variables. The LLM
// subsystem loads its own per-task table separately.
type Config struct {
	DBPath   string         `mapstructure:"db_path"`
	UserName string         `mapstructure:"user_name"`
	Timezone string         `mapstructure:"timezone"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Ops      OpsConfig      `mapstructure:"ops"`
}

type TelegramConfig struct {
	Token string `mapstructure:"token"`
	// ChatID is the single authorized chat; messages from any other chat
	// are ignored.
	ChatID int64 `mapstructure:"chat_id"`
}

type CacheConfig struct {
	// Backend selects the cache store implementation: "sqlite" or "redis".
	Backend   string `mapstructure:"backend"`
	RedisAddr string `mapstructure:"redis_addr"`
}

type OpsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	return Config{
		DBPath:   "majordome.db",
		UserName: "Alexandre",
		Timezone: "Europe/Paris",
		Cache: CacheConfig{
			Backend:   "sqlite",
			RedisAddr: "localhost:6379",
		},
		Ops: OpsConfig{
			ListenAddr: ":8090",
		},
	}
}

// Load reads configuration from the given file path (optional), the
// default search paths, and MAJORDOME_* environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MAJORDOME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("majordome")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/majordome")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the wiring cannot honor.
func (c *Config) Validate() error {
	if c.Cache.Backend != "sqlite" && c.Cache.Backend != "redis" {
		return fmt.Errorf("invalid cache backend %q (must be sqlite or redis)", c.Cache.Backend)
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("redis cache backend requires a redis address")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()
	v.SetDefault("db_path", defaults.DBPath)
	v.SetDefault("user_name", defaults.UserName)
	v.SetDefault("timezone", defaults.Timezone)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("cache.backend", defaults.Cache.Backend)
	v.SetDefault("cache.redis_addr", defaults.Cache.RedisAddr)
	v.SetDefault("ops.listen_addr", defaults.Ops.ListenAddr)
}
