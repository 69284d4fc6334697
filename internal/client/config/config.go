package config

import (
	"time"

	"github.com/dmitrijs2005/remindsync/internal/confx"
	"github.com/dmitrijs2005/remindsync/internal/flagx"
)

// Config holds runtime settings for the remindsync client.
type Config struct {
	ServerEndpointAddr   string
	OnlineCheckInterval  time.Duration
	DatabasePath         string
	NotificationsEnabled bool
	LogLevel             string
	LogFormat            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "remindsync.db"
	c.NotificationsEnabled = true
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config from defaults, environment, an optional config
// file and finally the flags in args (os.Args[1:] in production). Later
// sources take precedence over earlier ones.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := confx.LoadDotEnv(flagx.EnvFileFlag(args)); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFile(cfg, flagx.ConfigFileFlag(args)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
