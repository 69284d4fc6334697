package services

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/dbx"
	"github.com/dmitrijs2005/remindsync/internal/server/models"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/reminders"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

type fakeUsers struct {
	byName    map[string]*models.User
	lastSync  time.Time
	createErr error
	getErr    error
	touchErr  error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byName: map[string]*models.User{}, lastSync: now}
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byName[u.UserName]; ok {
		return nil, common.ErrAlreadyExists
	}
	c := *u
	c.ID = "id-" + u.UserName
	f.byName[u.UserName] = &c
	return &c, nil
}

func (f *fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byName[login]
	if !ok {
		return nil, common.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range f.byName {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeUsers) TouchLastSync(context.Context, string) (time.Time, error) {
	if f.touchErr != nil {
		return time.Time{}, f.touchErr
	}
	f.lastSync = f.lastSync.Add(time.Second)
	return f.lastSync, nil
}

func (f *fakeUsers) GetLastSync(context.Context, string) (time.Time, error) {
	return f.lastSync, nil
}

type fakeRefresh struct {
	mu        sync.Mutex
	tokens    map[string]models.RefreshToken
	purged    []string
	findErr   error
	createErr error
	purgeErr  error
}

func newFakeRefresh() *fakeRefresh {
	return &fakeRefresh{tokens: map[string]models.RefreshToken{}}
}

func (f *fakeRefresh) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = models.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (f *fakeRefresh) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (f *fakeRefresh) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok {
		return common.ErrNotFound
	}
	delete(f.tokens, token)
	return nil
}

func (f *fakeRefresh) DeleteExpired(_ context.Context, userID string, _ time.Time) (int64, error) {
	f.purged = append(f.purged, userID)
	return 0, f.purgeErr
}

// fakeReminders keeps rows in slice order, which stands in for position.
type fakeReminders struct {
	rows    []models.Reminder
	listErr error
}

func (f *fakeReminders) find(userID, id string) int {
	return slices.IndexFunc(f.rows, func(r models.Reminder) bool { return r.UserID == userID && r.ID == id })
}

func (f *fakeReminders) List(_ context.Context, userID string) ([]models.Reminder, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Reminder
	for _, r := range f.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminders) Insert(_ context.Context, r *models.Reminder) (*models.Reminder, error) {
	if f.find(r.UserID, r.ID) >= 0 {
		return nil, common.ErrAlreadyExists
	}
	c := *r
	c.Position = int64(len(f.rows))
	f.rows = append(f.rows, c)
	return &c, nil
}

func (f *fakeReminders) Update(_ context.Context, r *models.Reminder) (*models.Reminder, error) {
	i := f.find(r.UserID, r.ID)
	if i < 0 {
		return nil, common.ErrNotFound
	}
	f.rows[i].Timestamp = r.Timestamp
	f.rows[i].Enabled = r.Enabled
	c := f.rows[i]
	return &c, nil
}

func (f *fakeReminders) Delete(_ context.Context, userID, id string) (*models.Reminder, error) {
	i := f.find(userID, id)
	if i < 0 {
		return nil, common.ErrNotFound
	}
	old := f.rows[i]
	f.rows = slices.Delete(f.rows, i, i+1)
	return &old, nil
}

func (f *fakeReminders) DeleteAll(_ context.Context, userID string) (int64, error) {
	n := len(f.rows)
	f.rows = slices.DeleteFunc(f.rows, func(r models.Reminder) bool { return r.UserID == userID })
	return int64(n - len(f.rows)), nil
}

type fakeManager struct {
	users     *fakeUsers
	refresh   *fakeRefresh
	reminders *fakeReminders
}

func newFakeManager() *fakeManager {
	return &fakeManager{users: newFakeUsers(), refresh: newFakeRefresh(), reminders: &fakeReminders{}}
}

func (m *fakeManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeManager) Users(dbx.DBTX) users.Repository                 { return m.users }
func (m *fakeManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.refresh }
func (m *fakeManager) Reminders(dbx.DBTX) reminders.Repository         { return m.reminders }

type fakeArchiver struct {
	got []models.Reminder
	err error
}

func (a *fakeArchiver) Archive(_ context.Context, userID string, replaced []models.Reminder) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.got = replaced
	return "users/" + userID + "/resets/1.json", nil
}
