package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Add(ctx context.Context, args []string) error
	Set(ctx context.Context, args []string) error
	Toggle(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Status(ctx context.Context) error
	Resolve(ctx context.Context, args []string) error
	Notifications(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, (l)ist, add, set, toggle, delete, status, notifications, exit"
	helpLoggedIn  = "Available commands: (l)ist, add HH:MM, set <id> HH:MM, toggle <id>, delete <id>, status, resolve local|server, notifications on|off, sync, logout, exit"
)

// runREPL reads commands line by line and dispatches them to a. Reminder
// commands work signed out as well: they are kept locally and synced after
// login. A failed command prints its error and the loop continues. The loop
// exits on EOF, on "exit"/"quit" or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(out, "rs (%s)> ", statusFn())
		line, err := readLineContext(ctx, reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(out, helpLoggedIn)
			} else {
				fmt.Fprintln(out, helpLoggedOut)
			}
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)
	case "l", "list":
		return a.List(ctx)
	case "add":
		return a.Add(ctx, args)
	case "set":
		return a.Set(ctx, args)
	case "toggle":
		return a.Toggle(ctx, args)
	case "delete", "rm":
		return a.Delete(ctx, args)
	case "status":
		return a.Status(ctx)
	case "resolve":
		return a.Resolve(ctx, args)
	case "notifications":
		return a.Notifications(ctx, args)
	case "sync":
		return a.Sync(ctx)
	}
	return fmt.Errorf("unknown command: %s", cmd)
}
