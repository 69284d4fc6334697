package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/remindsync/internal/client/services"
	"github.com/dmitrijs2005/remindsync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

func (a *App) credentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register prompts for a username and password and creates the account.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Register(ctx, userName, password); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success! You can log in now.")
	return nil
}

// Login tries the server first and falls back to the cached session when
// the server cannot be reached.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.auth.Login(ctx, userName, password)
	switch {
	case err == nil:
		fmt.Fprintln(a.out, "Login successful")
		return nil
	case !errors.Is(err, common.ErrTransport):
		return err
	}

	a.logger.Info(ctx, "server unavailable, trying offline login")
	if err := a.auth.OfflineLogin(ctx, userName, password); err != nil {
		if errors.Is(err, services.ErrNoCachedSession) {
			return fmt.Errorf("server unavailable and no cached session: %w", err)
		}
		return err
	}

	fmt.Fprintln(a.out, "Offline login successful, changes will sync when the server is back")
	return nil
}

// Logout forgets the session. Reminders stay on this device.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
