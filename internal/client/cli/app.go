package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/remindsync/internal/client/client"
	"github.com/dmitrijs2005/remindsync/internal/client/config"
	"github.com/dmitrijs2005/remindsync/internal/client/models"
	"github.com/dmitrijs2005/remindsync/internal/client/notify"
	"github.com/dmitrijs2005/remindsync/internal/client/services"
	"github.com/dmitrijs2005/remindsync/internal/client/store"
	"github.com/dmitrijs2005/remindsync/internal/client/syncer"
	"github.com/dmitrijs2005/remindsync/internal/client/syncqueue"
	"github.com/dmitrijs2005/remindsync/internal/logging"
)

// syncEngine is the part of syncer.Engine the commands need.
type syncEngine interface {
	Status() syncer.Status
	PendingConflict() *syncer.ConflictRequest
	Pending() []models.Mutation
	Refresh()
}

// notificationSwitch turns notifications on and off.
type notificationSwitch interface {
	Allowed() bool
	SetAllowed(bool)
}

type App struct {
	config *config.Config
	logger logging.Logger

	auth          services.AuthService
	reminders     *services.ReminderService
	engine        syncEngine
	notifications notificationSwitch

	reader *bufio.Reader
	out    io.Writer

	// background components, started by Run
	runners  []func(ctx context.Context) error
	watch    func(ctx context.Context) error
	load     func(ctx context.Context) error
	shutdown func(ctx context.Context)
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr)
	if err != nil {
		_ = repos.DB.Close()
		return nil, err
	}

	st := store.New(repos.Metadata, logger)
	queue := syncqueue.New(repos.Metadata, logger)
	engine := syncer.NewEngine(st, queue, apiClient, logger)

	auth := services.NewAuthService(apiClient, repos.Metadata, engine.SetSession)
	apiClient.OnTokens(func(t client.Tokens) {
		if err := auth.SaveTokens(context.Background(), t); err != nil {
			logger.Warn(context.Background(), "failed to cache refreshed tokens", "error", err)
		}
	})

	monitor := services.NewOnlineMonitor(apiClient, c.OnlineCheckInterval, logger)
	monitor.OnChange = engine.SetOnline
	monitor.OnTick = engine.Kick

	scheduler := notify.New(notify.NewWriterNotifier(os.Stdout), logger)
	bridge := services.NewNotificationBridge(engine, st.Changes(), scheduler, c.NotificationsEnabled, logger)

	a := &App{
		config:        c,
		logger:        logger.With("module", "cli"),
		auth:          auth,
		reminders:     services.NewReminderService(engine),
		engine:        engine,
		notifications: bridge,
		reader:        bufio.NewReader(os.Stdin),
		out:           os.Stdout,
		runners:       []func(context.Context) error{engine.Run, monitor.Run, scheduler.Run, bridge.Run},
	}

	a.load = func(ctx context.Context) error {
		if err := engine.Load(ctx); err != nil {
			return err
		}
		if err := auth.Restore(ctx); err != nil {
			a.logger.Warn(ctx, "cached session unusable, please log in", "error", err)
		}
		return nil
	}
	a.watch = func(ctx context.Context) error {
		return watchEngine(ctx, engine, a.out, a.logger)
	}
	a.shutdown = func(ctx context.Context) {
		if err := engine.Save(ctx); err != nil {
			a.logger.Error(ctx, "failed to save local state", "error", err)
		}
		_ = apiClient.Close()
		_ = repos.DB.Close()
	}

	return a, nil
}

// Run loads local state, starts the background components and blocks in
// the REPL until the user exits.
func (a *App) Run(ctx context.Context) error {
	if err := a.load(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	for _, run := range a.runners {
		g.Go(func() error { return run(gctx) })
	}
	g.Go(func() error { return a.watch(gctx) })

	fmt.Fprintln(a.out, "Welcome to remindsync (type 'help' for commands)")
	runREPL(gctx, a, a.statusLine, a.reader, a.out)

	cancel()
	err := g.Wait()

	saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer saveCancel()
	a.shutdown(saveCtx)

	return err
}

func (a *App) statusLine() string {
	s := string(a.engine.Status())
	if u := a.auth.Username(); u != "" {
		s = u + " " + s
	}
	return s
}

func (a *App) isLoggedIn() bool {
	return a.auth.Session().Authenticated()
}

// engineEvents is what watchEngine listens to.
type engineEvents interface {
	Conflicts() <-chan *syncer.ConflictRequest
	Errors() <-chan error
	Changes() <-chan struct{}
	Status() syncer.Status
}

// watchEngine prints conflicts and sync errors as they arrive and logs
// status transitions.
func watchEngine(ctx context.Context, e engineEvents, out io.Writer, logger logging.Logger) error {
	last := e.Status()
	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-e.Conflicts():
			fmt.Fprintf(out, "\nConflict with the server: %s\nType 'resolve local' to keep this device's reminders or 'resolve server' to take the server's.\n", req)
		case err := <-e.Errors():
			fmt.Fprintf(out, "\nSync error: %v\n", err)
		case <-e.Changes():
			if s := e.Status(); s != last {
				logger.Debug(ctx, "status changed", "from", last, "to", s)
				last = s
			}
		}
	}
}
