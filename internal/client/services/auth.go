// Package services holds the client's application services: identity,
// reminder editing, connectivity monitoring and the bridge between the sync
// engine and the notification scheduler.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/remindsync/internal/client/client"
	"github.com/dmitrijs2005/remindsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/remindsync/internal/client/syncer"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/cryptox"
)

var (
	ErrNoCachedSession = errors.New("no cached session")
	ErrBadCredentials  = errors.New("invalid username or password")
)

// cachedSession is what survives a restart. Salt and verifier allow an
// offline login with the same password.
type cachedSession struct {
	Tokens   client.Tokens `json:"tokens"`
	Salt     []byte        `json:"salt"`
	Verifier []byte        `json:"verifier"`
}

// AuthService manages the user session.
//
// Every change of the session is reported to the listener given to
// NewAuthService, which is how the sync engine learns about it.
type AuthService interface {
	Register(ctx context.Context, username string, password []byte) error
	Login(ctx context.Context, username string, password []byte) error
	OfflineLogin(ctx context.Context, username string, password []byte) error
	Restore(ctx context.Context) error
	Logout(ctx context.Context) error
	SaveTokens(ctx context.Context, t client.Tokens) error
	Session() syncer.Session
	Username() string
}

type authService struct {
	client   client.Identity
	repo     metadata.Repository
	onChange func(syncer.Session)

	mu       sync.Mutex
	session  syncer.Session
	username string
}

func NewAuthService(c client.Identity, repo metadata.Repository, onChange func(syncer.Session)) AuthService {
	if onChange == nil {
		onChange = func(syncer.Session) {}
	}
	return &authService{client: c, repo: repo, onChange: onChange}
}

func (a *authService) set(s syncer.Session, username string) {
	a.mu.Lock()
	a.session = s
	a.username = username
	a.mu.Unlock()
	a.onChange(s)
}

func (a *authService) Session() syncer.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

func (a *authService) Username() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.username
}

// Register creates an account. A random salt is generated here and only
// the verifier of the derived key leaves the machine.
func (a *authService) Register(ctx context.Context, username string, password []byte) error {
	salt, err := common.GenerateRandByteArray(32)
	if err != nil {
		return err
	}
	key := cryptox.DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	return a.client.Register(ctx, username, salt, cryptox.MakeVerifier(key))
}

// Login authenticates against the server and caches the session.
func (a *authService) Login(ctx context.Context, username string, password []byte) error {
	salt, err := a.client.GetSalt(ctx, username)
	if err != nil {
		return fmt.Errorf("get salt: %w", err)
	}

	key := cryptox.DeriveKey(password, salt)
	defer common.WipeByteArray(key)
	verifier := cryptox.MakeVerifier(key)

	tokens, err := a.client.Login(ctx, username, verifier)
	if err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			return ErrBadCredentials
		}
		return fmt.Errorf("login: %w", err)
	}

	if err := a.save(ctx, cachedSession{Tokens: tokens, Salt: salt, Verifier: verifier}); err != nil {
		return err
	}

	a.set(syncer.Session{Finished: true, UserID: tokens.UserID}, username)
	return nil
}

// OfflineLogin checks the password against the cached verifier and resumes
// the cached session without contacting the server.
func (a *authService) OfflineLogin(ctx context.Context, username string, password []byte) error {
	cached, err := a.load(ctx)
	if err != nil {
		return err
	}
	if cached.Tokens.Username != username {
		return ErrBadCredentials
	}

	key := cryptox.DeriveKey(password, cached.Salt)
	defer common.WipeByteArray(key)
	if !cryptox.VerifierMatches(key, cached.Verifier) {
		return ErrBadCredentials
	}

	a.client.SetTokens(cached.Tokens)
	a.set(syncer.Session{Finished: true, UserID: cached.Tokens.UserID}, username)
	return nil
}

// Restore resumes the cached session at startup. Without a cache the
// session is finished and signed out.
func (a *authService) Restore(ctx context.Context) error {
	cached, err := a.load(ctx)
	if errors.Is(err, ErrNoCachedSession) {
		a.set(syncer.Session{Finished: true}, "")
		return nil
	}
	if err != nil {
		a.set(syncer.Session{Finished: true}, "")
		return err
	}

	a.client.SetTokens(cached.Tokens)
	a.set(syncer.Session{Finished: true, UserID: cached.Tokens.UserID}, cached.Tokens.Username)
	return nil
}

// SaveTokens updates the cached session after a token refresh.
func (a *authService) SaveTokens(ctx context.Context, t client.Tokens) error {
	cached, err := a.load(ctx)
	if err != nil {
		return err
	}
	cached.Tokens = t
	return a.save(ctx, cached)
}

// Logout forgets the session. Local reminders and unsent edits stay.
func (a *authService) Logout(ctx context.Context) error {
	a.client.SetTokens(client.Tokens{})
	if err := a.repo.Delete(ctx, common.KeySession); err != nil {
		return err
	}
	a.set(syncer.Session{Finished: true}, "")
	return nil
}

func (a *authService) load(ctx context.Context) (cachedSession, error) {
	var s cachedSession
	raw, err := a.repo.Get(ctx, common.KeySession)
	if err != nil {
		return s, fmt.Errorf("load session: %w", err)
	}
	if raw == nil {
		return s, ErrNoCachedSession
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%w: session: %v", common.ErrStorageCorrupt, err)
	}
	return s, nil
}

func (a *authService) save(ctx context.Context, s cachedSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := a.repo.Set(ctx, common.KeySession, raw); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
