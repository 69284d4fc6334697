package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/remindsync/internal/common"
	"github.com/dmitrijs2005/remindsync/internal/dbx"
	"github.com/dmitrijs2005/remindsync/internal/logging"
	"github.com/dmitrijs2005/remindsync/internal/server/auth"
	"github.com/dmitrijs2005/remindsync/internal/server/config"
	"github.com/dmitrijs2005/remindsync/internal/server/models"
	"github.com/dmitrijs2005/remindsync/internal/server/repositories/repomanager"
)

const saltSize = 32

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

type UserService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	logger          logging.Logger
	jwtSecret       []byte
	accessValidity  time.Duration
	refreshValidity time.Duration
	now             func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		logger:          logger.With("module", "users"),
		jwtSecret:       []byte(cfg.SecretKey),
		accessValidity:  cfg.AccessTokenValidityDuration,
		refreshValidity: cfg.RefreshTokenValidityDuration,
		now:             time.Now,
	}
}

// Register creates a new user. A taken username yields common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, username string, salt, verifier []byte) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).Create(ctx, &models.User{UserName: username, Salt: salt, Verifier: verifier})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// GetSalt returns the user's stored salt, or a random one for an unknown
// user so that the response does not reveal whether the account exists.
func (s *UserService) GetSalt(ctx context.Context, username string) ([]byte, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.GenerateRandByteArray(saltSize)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return user.Salt, nil
}

func (s *UserService) Login(ctx context.Context, username string, verifierCandidate []byte) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	if subtle.ConstantTimeCompare(user.Verifier, verifierCandidate) != 1 {
		return nil, common.ErrUnauthorized
	}

	if n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, user.ID, s.now()); err != nil {
		s.logger.Warn(ctx, "failed to purge expired refresh tokens", "user_id", user.ID, "error", err)
	} else if n > 0 {
		s.logger.Debug(ctx, "purged expired refresh tokens", "user_id", user.ID, "count", n)
	}

	return s.generateTokenPair(ctx, user.ID, s.db)
}

// RefreshToken consumes refreshToken and issues a new pair. The old token
// is deleted and the new one stored in the same transaction, so a token can
// be used once.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	if token.Expired(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*TokenPair, error) {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return nil, common.ErrUnauthorized
			}
			return nil, fmt.Errorf("error deleting refresh token: %w", err)
		}
		return s.generateTokenPair(ctx, token.UserID, tx)
	})
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, db dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(userID, s.jwtSecret, s.accessValidity)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", common.ErrInternal, err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", common.ErrInternal, err)
	}
	if err := s.repomanager.RefreshTokens(db).Create(ctx, userID, refresh, s.now().Add(s.refreshValidity)); err != nil {
		return nil, fmt.Errorf("%w: store refresh token: %v", common.ErrInternal, err)
	}
	return &TokenPair{UserID: userID, AccessToken: access, RefreshToken: refresh}, nil
}
