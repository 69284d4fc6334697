package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  map[string][]string
	fail  map[string]error
}

func (f *fakeExec) rec(name string, args []string) error {
	f.calls = append(f.calls, name)
	if f.args == nil {
		f.args = map[string][]string{}
	}
	f.args[name] = args
	return f.fail[name]
}

func (f *fakeExec) isLoggedIn() bool                           { return f.loggedIn }
func (f *fakeExec) Register(context.Context) error             { return f.rec("register", nil) }
func (f *fakeExec) List(context.Context) error                 { return f.rec("list", nil) }
func (f *fakeExec) Status(context.Context) error               { return f.rec("status", nil) }
func (f *fakeExec) Sync(context.Context) error                 { return f.rec("sync", nil) }
func (f *fakeExec) Add(_ context.Context, a []string) error    { return f.rec("add", a) }
func (f *fakeExec) Set(_ context.Context, a []string) error    { return f.rec("set", a) }
func (f *fakeExec) Toggle(_ context.Context, a []string) error { return f.rec("toggle", a) }
func (f *fakeExec) Delete(_ context.Context, a []string) error { return f.rec("delete", a) }
func (f *fakeExec) Resolve(_ context.Context, a []string) error {
	return f.rec("resolve", a)
}
func (f *fakeExec) Notifications(_ context.Context, a []string) error {
	return f.rec("notifications", a)
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.rec("login", nil)
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.rec("logout", nil)
}

func TestRunREPL_Commands(t *testing.T) {
	input := strings.Join([]string{
		"help",
		"login",
		"help",
		"",
		"add 09:00",
		"l",
		"set abc 10:30",
		"toggle abc",
		"rm abc",
		"status",
		"resolve local",
		"notifications off",
		"sync",
		"logout",
		"foobar",
		"exit",
		"list",
	}, "\n")

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(context.Background(), exec, func() string { return "status" }, rdr(input), &out)

	assert.Equal(t, []string{
		"login", "add", "list", "set", "toggle", "delete", "status",
		"resolve", "notifications", "sync", "logout",
	}, exec.calls)
	assert.Equal(t, []string{"09:00"}, exec.args["add"])
	assert.Equal(t, []string{"abc", "10:30"}, exec.args["set"])
	assert.Equal(t, []string{"local"}, exec.args["resolve"])

	s := out.String()
	assert.Contains(t, s, helpLoggedOut)
	assert.Contains(t, s, helpLoggedIn)
	assert.Contains(t, s, "Error: unknown command: foobar")
	assert.Contains(t, s, "rs (status)> ")
	assert.True(t, strings.HasSuffix(s, "Bye!\n"))
}

func TestRunREPL_ErrorsDoNotStopTheLoop(t *testing.T) {
	exec := &fakeExec{fail: map[string]error{"add": errors.New("bad time")}}
	var out bytes.Buffer

	runREPL(context.Background(), exec, func() string { return "" }, rdr("add x\nlist\n"), &out)

	assert.Equal(t, []string{"add", "list"}, exec.calls)
	assert.Contains(t, out.String(), "Error: bad time")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{}
	var out bytes.Buffer
	runREPL(ctx, exec, func() string { return "" }, rdr("list\n"), &out)

	assert.Empty(t, exec.calls)
	assert.Empty(t, out.String())
}

func TestRunREPL_CancelUnblocksPendingRead(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var out bytes.Buffer
	go func() {
		defer close(done)
		runREPL(ctx, &fakeExec{}, func() string { return "" }, bufio.NewReader(pr), &out)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("REPL still waiting for input after cancel")
	}
}
