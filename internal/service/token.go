package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/santinisystems/catalog/internal/auth"
	"github.com/santinisystems/catalog/internal/metrics"
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/repository"
)

// TokenService issues API tokens to users who prove their password.
type TokenService struct {
	store   TokenStore
	ttl     time.Duration
	metrics metrics.Recorder
	now     func() time.Time
}

// NewTokenService creates a new TokenService. A zero ttl issues tokens that
// never expire.
func NewTokenService(store TokenStore, ttl time.Duration, recorder metrics.Recorder) *TokenService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TokenService{
		store:   store,
		ttl:     ttl,
		metrics: recorder,
		now:     time.Now,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming burns one argon2 verification so unknown emails cost the
// same as wrong passwords.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("not-a-real-password")
	})
	_, _ = auth.VerifyPassword(password, dummyHash)
}

// IssueToken verifies the credentials and creates a new token for the user.
// The plaintext token is only ever returned here.
func (s *TokenService) IssueToken(ctx context.Context, req model.TokenCreateRequest) (*model.TokenCreateResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			equalizeTiming(req.Password)
			s.metrics.IncAuthFailure("unknown_user")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		s.metrics.IncAuthFailure("bad_password")
		return nil, ErrInvalidCredentials
	}

	generated, err := auth.GenerateAPIToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now().UTC()
	token := &model.APIToken{
		ID:        ulid.Make().String(),
		UserID:    user.ID,
		TokenHash: generated.Hash,
		Name:      req.Name,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		expires := now.Add(s.ttl)
		token.ExpiresAt = &expires
	}

	if err := s.store.CreateAPIToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.metrics.IncTokenIssued()

	return &model.TokenCreateResponse{
		ID:        token.ID,
		Token:     generated.Plaintext,
		ExpiresAt: token.ExpiresAt,
	}, nil
}
