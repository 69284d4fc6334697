package config

import "github.com/dmitrijs2005/remindsync/internal/confx"

func parseEnv(cfg *Config) error {
	confx.String("SERVER_ADDR", &cfg.ServerEndpointAddr)
	confx.String("DB_PATH", &cfg.DatabasePath)
	confx.String("LOG_LEVEL", &cfg.LogLevel)
	confx.String("LOG_FORMAT", &cfg.LogFormat)
	if err := confx.Duration("ONLINE_CHECK_INTERVAL", &cfg.OnlineCheckInterval); err != nil {
		return err
	}
	return confx.Bool("NOTIFICATIONS", &cfg.NotificationsEnabled)
}
