package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/client/syncer"
	"github.com/dmitrijs2005/remindsync/internal/confx"
)

var errUsage = errors.New("wrong arguments")

func usage(s string) error {
	return fmt.Errorf("%w, usage: %s", errUsage, s)
}

func (a *App) List(ctx context.Context) error {
	items := a.reminders.List()
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No reminders")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tDATE\tSTATE")
	for _, r := range items {
		state := "on"
		if !r.Enabled {
			state = "off"
		}
		ts := r.Timestamp.Local()
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID[:min(8, len(r.ID))], ts.Format("15:04"), ts.Format(time.DateOnly), state)
	}
	return w.Flush()
}

func (a *App) Add(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("add HH:MM")
	}
	r, err := a.reminders.Add(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s\n", r)
	return nil
}

func (a *App) Set(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("set <id> HH:MM")
	}
	if err := a.reminders.SetTime(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Updated")
	return nil
}

func (a *App) Toggle(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("toggle <id>")
	}
	r, err := a.reminders.Toggle(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s\n", r)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <id>")
	}
	if err := a.reminders.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	fmt.Fprintf(a.out, "Status: %s\n", a.engine.Status())
	if u := a.auth.Username(); u != "" {
		fmt.Fprintf(a.out, "User: %s\n", u)
	}
	fmt.Fprintf(a.out, "Unsent changes: %d\n", len(a.engine.Pending()))
	fmt.Fprintf(a.out, "Notifications: %s\n", onOff(a.notifications.Allowed()))
	if req := a.engine.PendingConflict(); req != nil {
		fmt.Fprintf(a.out, "Conflict: %s\n", req)
	}
	return nil
}

// Resolve answers the pending conflict.
func (a *App) Resolve(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("resolve local|server")
	}
	choice, err := syncer.ParseResolution(strings.ToLower(args[0]))
	if err != nil {
		return err
	}

	req := a.engine.PendingConflict()
	if req == nil {
		fmt.Fprintln(a.out, "Nothing to resolve")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := req.Resolve(ctx, choice); err != nil {
		return fmt.Errorf("resolve %s: %w", choice, err)
	}

	fmt.Fprintf(a.out, "Resolved, kept the %s version\n", choice)
	return nil
}

func (a *App) Notifications(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "Notifications: %s\n", onOff(a.notifications.Allowed()))
		return nil
	}
	v, err := confx.ParseSwitch(args[0])
	if err != nil {
		return usage("notifications on|off")
	}
	a.notifications.SetAllowed(v)
	fmt.Fprintf(a.out, "Notifications: %s\n", onOff(v))
	return nil
}

// Sync forces a fresh comparison with the server.
func (a *App) Sync(ctx context.Context) error {
	a.engine.Refresh()
	fmt.Fprintln(a.out, "Sync requested")
	return nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
