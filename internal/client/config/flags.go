package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/confx"
	"github.com/dmitrijs2005/remindsync/internal/flagx"
)

// parseFlags overlays cfg with the flags it knows about; everything else in
// args is ignored (see flagx.FilterArgs).
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-n", "-l"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local database path")
	notifications := fs.String("n", "", "notifications on|off")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
	if *notifications != "" {
		v, err := confx.ParseSwitch(*notifications)
		if err != nil {
			return err
		}
		cfg.NotificationsEnabled = v
	}
	return nil
}
