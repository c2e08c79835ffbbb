package auth

import (
	"context"
	"testing"
	"time"

	"github.com/notes-bin/imagehoster/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	byID map[string]*model.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*model.User{}}
}

func (m *memUsers) CreateUser(_ context.Context, user *model.User) (bool, error) {
	for _, u := range m.byID {
		if u.Username == user.Username {
			return false, nil
		}
	}
	cp := *user
	m.byID[user.ID] = &cp
	return true, nil
}

func (m *memUsers) SaveUser(_ context.Context, user *model.User) error {
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUsers) GetUser(_ context.Context, id string) (*model.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUserByName(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	a := NewAuth("secret", newMemUsers())
	ctx := context.Background()

	user, err := a.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.NotEqual(t, "pw", user.Password)

	_, err = a.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	token, err := a.Login(ctx, "alice", "pw", time.Hour)
	require.NoError(t, err)

	claims, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, err = a.Login(ctx, "alice", "wrong", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = a.Login(ctx, "nobody", "pw", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuth_ParseToken_Rejects(t *testing.T) {
	a := NewAuth("secret", newMemUsers())

	expired, err := a.GenerateToken("u1", "alice", -time.Minute)
	require.NoError(t, err)
	_, err = a.ParseToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewAuth("other", newMemUsers()).GenerateToken("u1", "alice", time.Hour)
	require.NoError(t, err)
	_, err = a.ParseToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuth_ChangePassword(t *testing.T) {
	a := NewAuth("secret", newMemUsers())
	ctx := context.Background()

	user, err := a.Register(ctx, "alice", "old")
	require.NoError(t, err)
	require.NoError(t, a.ChangePassword(ctx, user.ID, "new"))

	_, err = a.Login(ctx, "alice", "new", time.Hour)
	assert.NoError(t, err)
	_, err = a.Login(ctx, "alice", "old", time.Hour)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, a.ChangePassword(ctx, "missing", "x"), ErrUserNotFound)
}
