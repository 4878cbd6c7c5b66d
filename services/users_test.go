package services_test

import (
	"context"
	"testing"

	"cloud-kitchen/models"
	"cloud-kitchen/services"
	"cloud-kitchen/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterWithoutMailerAutoVerifies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.users.Register(ctx, services.RegisterRequest{Name: "Rahim", Email: "Rahim@Kitchen.test", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, user.IsVerified)
	assert.Equal(t, "rahim@kitchen.test", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "Rahim", user.Profile.FullName)
	assert.NotEqual(t, "secret1", user.Password)

	token, err := f.users.Login(ctx, "rahim@kitchen.test", "secret1")
	require.NoError(t, err)
	claims, err := utils.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)

	_, err = f.users.Login(ctx, "rahim@kitchen.test", "wrong")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = f.users.Login(ctx, "nobody@kitchen.test", "secret1")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.users.Register(ctx, services.RegisterRequest{Email: "not an email", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = f.users.Register(ctx, services.RegisterRequest{Email: "a@b.test", Password: "123"})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = f.users.Register(ctx, services.RegisterRequest{Email: "dup@kitchen.test", Password: "secret1"})
	require.NoError(t, err)
	_, err = f.users.Register(ctx, services.RegisterRequest{Email: "DUP@kitchen.test", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrUserExists)
}

func TestRegisterAdminEmail(t *testing.T) {
	f := newFixture(t)
	user, err := f.users.Register(context.Background(), services.RegisterRequest{Email: "chef@kitchen.test", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestVerificationFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mailer.enabled = true

	user, err := f.users.Register(ctx, services.RegisterRequest{Email: "verify@kitchen.test", Password: "secret1"})
	require.NoError(t, err)
	assert.False(t, user.IsVerified)

	_, err = f.users.Login(ctx, "verify@kitchen.test", "secret1")
	assert.ErrorIs(t, err, services.ErrNotVerified)

	token := f.mailer.tokens["verify@kitchen.test"]
	require.NotEmpty(t, token)
	assert.ErrorIs(t, f.users.Verify(ctx, "garbage"), services.ErrValidation)
	require.NoError(t, f.users.Verify(ctx, token))
	assert.ErrorIs(t, f.users.Verify(ctx, token), models.ErrNotFound, "token is single use")

	_, err = f.users.Login(ctx, "verify@kitchen.test", "secret1")
	assert.NoError(t, err)
}

func TestRegisterRollsBackWhenVerificationMailFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.mailer.enabled = true
	f.mailer.failVerify = true
	req := services.RegisterRequest{Name: "Rumana", Email: "bounce@kitchen.test", Password: "secret1"}

	_, err := f.users.Register(ctx, req)
	require.Error(t, err)
	_, err = f.store.UserByEmail(ctx, "bounce@kitchen.test")
	assert.ErrorIs(t, err, models.ErrNotFound)

	f.mailer.failVerify = false
	user, err := f.users.Register(ctx, req)
	require.NoError(t, err, "the address can register again")
	assert.False(t, user.IsVerified)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.addUser(t, "prof@kitchen.test", models.Profile{})

	updated, err := f.users.UpdateProfile(ctx, user.ID, models.Profile{FullName: " Karim ", Address: "Road 7", Phone: "018"})
	require.NoError(t, err)
	assert.Equal(t, "Karim", updated.Profile.FullName)
	assert.Equal(t, "Karim", updated.DisplayName())

	got, err := f.users.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Road 7", got.Profile.Address)
}
