package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santinisystems/catalog/internal/auth"
	"github.com/santinisystems/catalog/internal/model"
	"github.com/santinisystems/catalog/internal/repository"
)

type fakeUsers struct {
	users   map[string]*model.User
	updated int
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) GetOrCreateUser(_ context.Context, user *model.User) (*model.User, error) {
	user.ID = int64(len(f.users) + 1)
	f.users[user.Email] = user
	return user, nil
}

func (f *fakeUsers) UpdateUserCredentials(_ context.Context, user *model.User) error {
	f.updated++
	f.users[user.Email] = user
	return nil
}

type fakeEvictor struct {
	evicted []int64
	err     error
}

func (f *fakeEvictor) DeleteUserAuthContexts(_ context.Context, userID int64) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.evicted = append(f.evicted, userID)
	return 1, nil
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*model.User{
		"info@santinisystems.com": {ID: 7, Email: "info@santinisystems.com", Roles: []string{model.RoleAdmin}},
	}}
}

func TestEnsureUser_ResetEvictsCachedLogins(t *testing.T) {
	users := newFakeUsers()
	evictor := &fakeEvictor{}

	user, err := ensureUser(context.Background(), users, evictor, "info@santinisystems.com", "Welcome01", []string{model.RoleUser}, true)
	require.NoError(t, err)

	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, []string{model.RoleUser}, user.Roles)
	assert.Equal(t, 1, users.updated)
	assert.Equal(t, []int64{7}, evictor.evicted)

	ok, err := auth.VerifyPassword("Welcome01", users.users["info@santinisystems.com"].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEnsureUser_WithoutResetKeepsUser(t *testing.T) {
	users := newFakeUsers()
	evictor := &fakeEvictor{}

	user, err := ensureUser(context.Background(), users, evictor, "info@santinisystems.com", "Other", []string{model.RoleUser}, false)
	require.NoError(t, err)

	assert.Equal(t, []string{model.RoleAdmin}, user.Roles)
	assert.Zero(t, users.updated)
	assert.Empty(t, evictor.evicted)
}

func TestEnsureUser_CreatesMissingUser(t *testing.T) {
	users := newFakeUsers()
	evictor := &fakeEvictor{}

	user, err := ensureUser(context.Background(), users, evictor, "new@santinisystems.com", "Welcome02", []string{model.RoleAdmin}, true)
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Empty(t, evictor.evicted, "a new user has nothing cached")
}

func TestEnsureUser_EvictionFailure(t *testing.T) {
	users := newFakeUsers()
	evictor := &fakeEvictor{err: errors.New("connection refused")}

	_, err := ensureUser(context.Background(), users, evictor, "info@santinisystems.com", "Welcome01", []string{model.RoleUser}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evict cached logins")
}

func TestEnsureUser_NoCacheConfigured(t *testing.T) {
	users := newFakeUsers()

	_, err := ensureUser(context.Background(), users, nil, "info@santinisystems.com", "Welcome01", []string{model.RoleUser}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, users.updated)
}

func TestParseRoles(t *testing.T) {
	roles, err := parseRoles(" role_admin , ROLE_USER,")
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleAdmin, model.RoleUser}, roles)

	_, err = parseRoles("ROLE_ROOT")
	assert.Error(t, err)
}
