// Package config loads runtime configuration for the remindsync client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file (-env path, or ./.env when present) and REMINDSYNC_*
//     environment variables.
//  3. Optional config file selected via -c or -config. Files ending in
//     .yaml/.yml are YAML, everything else is JSON.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the backend gRPC endpoint
//	-i int      online status check interval (seconds)
//	-d string   path of the local SQLite database
//	-n string   notifications on|off
//	-l string   log level (debug, info, warn, error)
//
// Environment
//
//	REMINDSYNC_SERVER_ADDR, REMINDSYNC_ONLINE_CHECK_INTERVAL ("3s"),
//	REMINDSYNC_DB_PATH, REMINDSYNC_NOTIFICATIONS, REMINDSYNC_LOG_LEVEL,
//	REMINDSYNC_LOG_FORMAT
//
// # File schema
//
// Intervals use timex.Duration, so values can be either strings like "3s"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "remindsync.db",
//	  "notifications_enabled": true,
//	  "log_level": "info"
//	}
package config
