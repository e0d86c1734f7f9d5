package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/groovoo/service-desk/pkg/util/errorutil"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Login(ctx, " alice ", "pw-alice")
	require.NoError(t, err)
	assert.Equal(t, f.alice.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	user, err := f.auth.ResolveCaller(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "  ", "")
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Equal(t, []string{"username", "password"}, domainErr.Details["missing"])

	_, err = f.auth.Register(ctx, "alice", "another")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestLoginFailuresAreUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Login(ctx, "alice", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = f.auth.Login(ctx, "nobody", "pw")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.auth.Login(ctx, "bob", "pw-bob")
	require.NoError(t, err)
	claims, err := f.auth.TokenManager().ParseToken(res.Token)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, claims))
	_, err = f.auth.ResolveCaller(ctx, res.Token)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	other, err := f.auth.Login(ctx, "bob", "pw-bob")
	require.NoError(t, err)
	_, err = f.auth.ResolveCaller(ctx, other.Token)
	assert.NoError(t, err)
}

func TestResolveCallerRejectsGarbage(t *testing.T) {
	f := newFixture(t)
	_, err := f.auth.ResolveCaller(context.Background(), "nope")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
