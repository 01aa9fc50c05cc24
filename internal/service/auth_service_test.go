package service

import (
	"testing"

	"github.com/Netlighter/messenger/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestRegisterIssuesWorkingToken(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	token, err := f.auth.Register("alice", "secret1", nil)
	req.NoError(err)
	req.NotEmpty(token)

	user, err := f.sessions.Authenticate(token)
	req.NoError(err)
	req.Equal("alice", user.Nickname)
	req.Nil(user.Avatar)
}

func TestRegisterConflict(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.auth.Register("alice", "secret1", nil)
	req.NoError(err)

	_, err = f.auth.Register("alice", "other-password", nil)
	req.ErrorIs(err, repository.ErrNicknameTaken)

	_, err = f.auth.Register("ALICE", "other-password", nil)
	req.ErrorIs(err, repository.ErrNicknameTaken, "case-insensitive collision")
}

func TestRegisterDropsMalformedAvatar(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	bad := "data:image/gif;base64,???"
	token, err := f.auth.Register("alice", "secret1", &bad)
	req.NoError(err, "a malformed avatar must not fail registration")

	user, err := f.sessions.Authenticate(token)
	req.NoError(err)
	req.Nil(user.Avatar)
}

func TestRegisterKeepsValidAvatar(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	avatar := gifDataURL
	token, err := f.auth.Register("alice", "secret1", &avatar)
	req.NoError(err)

	user, err := f.sessions.Authenticate(token)
	req.NoError(err)
	req.NotNil(user.Avatar)
	req.Equal(gifDataURL, *user.Avatar)
}

func TestLoginIssuesSecondIndependentToken(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	tokenA, err := f.auth.Register("alice", "secret1", nil)
	req.NoError(err)

	tokenB, err := f.auth.Login("alice", "secret1")
	req.NoError(err)
	req.NotEqual(tokenA, tokenB)

	// both sessions are valid at once
	_, err = f.sessions.Authenticate(tokenA)
	req.NoError(err)
	_, err = f.sessions.Authenticate(tokenB)
	req.NoError(err)
}

func TestLoginFailureIsUniform(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	_, err := f.auth.Register("alice", "secret1", nil)
	req.NoError(err)

	_, unknownErr := f.auth.Login("nobody", "secret1")
	_, wrongErr := f.auth.Login("alice", "wrong-password")

	req.ErrorIs(unknownErr, ErrInvalidCredentials)
	req.ErrorIs(wrongErr, ErrInvalidCredentials)
	req.Equal(unknownErr.Error(), wrongErr.Error(), "unknown nickname and wrong password must be indistinguishable")
}

func TestSetAvatar(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	token, err := f.auth.Register("alice", "secret1", nil)
	req.NoError(err)
	user, err := f.sessions.Authenticate(token)
	req.NoError(err)

	req.Error(f.auth.SetAvatar(user.ID, "not an image"))

	req.NoError(f.auth.SetAvatar(user.ID, gifDataURL))
	req.NoError(f.auth.SetAvatar(user.ID, gifDataURL), "overwrite is idempotent")

	refreshed, err := f.sessions.Authenticate(token)
	req.NoError(err)
	req.NotNil(refreshed.Avatar)
	req.Equal(gifDataURL, *refreshed.Avatar)
}
