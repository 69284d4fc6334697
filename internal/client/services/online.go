package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineMonitor probes the server periodically. OnChange is called on every
// transition (and once for the first probe); OnTick after every probe.
type OnlineMonitor struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	logger   logging.Logger

	OnChange func(online bool)
	OnTick   func()
}

func NewOnlineMonitor(p Pinger, interval time.Duration, logger logging.Logger) *OnlineMonitor {
	return &OnlineMonitor{
		pinger:   p,
		interval: interval,
		timeout:  3 * time.Second,
		logger:   logger.With("module", "online_monitor"),
		OnChange: func(bool) {},
		OnTick:   func() {},
	}
}

func (m *OnlineMonitor) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.pinger.Ping(ctx) == nil
}

func (m *OnlineMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	online := m.probe(ctx)
	m.OnChange(online)
	m.OnTick()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := m.probe(ctx)
			if ctx.Err() != nil {
				return nil
			}
			if now != online {
				online = now
				m.logger.Info(ctx, "connectivity changed", "online", online)
				m.OnChange(online)
			}
			m.OnTick()
		}
	}
}
