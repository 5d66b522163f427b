package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santinisystems/catalog/internal/auth"
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/repository"
	"github.com/santinisystems/catalog/internal/service"
)

type stubTokenStore struct {
	user   *model.User
	issued []*model.APIToken
}

func (s *stubTokenStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, repository.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubTokenStore) CreateAPIToken(_ context.Context, token *model.APIToken) error {
	s.issued = append(s.issued, token)
	return nil
}

func newTokenHandler(t *testing.T) (*TokenHandler, *stubTokenStore) {
	t.Helper()
	hash, err := auth.HashPassword("Welcome01")
	require.NoError(t, err)

	store := &stubTokenStore{user: &model.User{ID: 1, Email: "info@santinisystems.com", PasswordHash: hash}}
	svc := service.NewTokenService(store, time.Hour, nil)
	return NewTokenHandler(svc, discardLogger()), store
}

func TestTokenHandler_Create(t *testing.T) {
	h, store := newTokenHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tokens", strings.NewReader(`{"email":"info@santinisystems.com","password":"Welcome01"}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp model.TokenCreateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Len(t, resp.Token, 2*auth.TokenBytes)
	assert.NotNil(t, resp.ExpiresAt)
	require.Len(t, store.issued, 1)
	assert.Equal(t, auth.HashToken(resp.Token), store.issued[0].TokenHash)
}

func TestTokenHandler_InvalidCredentials(t *testing.T) {
	h, store := newTokenHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tokens", strings.NewReader(`{"email":"info@santinisystems.com","password":"wrong"}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Invalid credentials."}`, rec.Body.String())
	assert.Empty(t, store.issued)
}

func TestTokenHandler_MalformedBody(t *testing.T) {
	h, _ := newTokenHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/tokens", strings.NewReader(`{"email":`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
