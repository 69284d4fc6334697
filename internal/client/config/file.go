package config

import (
	"github.com/dmitrijs2005/remindsync/internal/confx"
	"github.com/dmitrijs2005/remindsync/internal/timex"
)

// fileConfig is a DTO used only for decoding config files. Absent fields
// stay nil and leave the current value alone.
type fileConfig struct {
	ServerEndpointAddr   *string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	OnlineCheckInterval  *timex.Duration `json:"online_check_interval" yaml:"online_check_interval"`
	DatabasePath         *string         `json:"database_path" yaml:"database_path"`
	NotificationsEnabled *bool           `json:"notifications_enabled" yaml:"notifications_enabled"`
	LogLevel             *string         `json:"log_level" yaml:"log_level"`
	LogFormat            *string         `json:"log_format" yaml:"log_format"`
}

func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	var fc fileConfig
	if err := confx.ReadFile(path, &fc); err != nil {
		return err
	}

	if fc.ServerEndpointAddr != nil {
		cfg.ServerEndpointAddr = *fc.ServerEndpointAddr
	}
	if fc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = fc.OnlineCheckInterval.Duration
	}
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.NotificationsEnabled != nil {
		cfg.NotificationsEnabled = *fc.NotificationsEnabled
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.LogFormat != nil {
		cfg.LogFormat = *fc.LogFormat
	}
	return nil
}
