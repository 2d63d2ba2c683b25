package store

import (
	"context"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cube/internal/model"
)

// newTestUserStore uses cheap argon2id parameters to keep tests fast.
func newTestUserStore(t *testing.T) *UserStore {
	t.Helper()
	return NewUserStore(createTestStore(t), WithHashParams(&argon2id.Params{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}))
}

func TestAddUser_Authenticate(t *testing.T) {
	us := newTestUserStore(t)
	ctx := context.Background()

	added, err := us.AddUser(ctx, model.User{
		Username: "adminuser",
		Roles:    []string{model.RoleWritingTeam, model.RoleAdmin},
	}, "adminpassword")
	require.NoError(t, err)
	assert.True(t, added)

	user, ok, err := us.Authenticate(ctx, "adminuser", "adminpassword")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{model.RoleAdmin, model.RoleWritingTeam}, user.Roles)

	_, ok, err = us.Authenticate(ctx, "adminuser", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = us.Authenticate(ctx, "nobody", "adminpassword")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthenticate_UnknownUserComparesHash(t *testing.T) {
	us := newTestUserStore(t)
	ctx := context.Background()

	_, err := us.AddUser(ctx, model.User{Username: "adminuser"}, "adminpassword")
	require.NoError(t, err)

	var compared []string
	compare := us.compare
	us.compare = func(password, hash string) (bool, error) {
		compared = append(compared, password)
		return compare(password, hash)
	}

	_, ok, err := us.Authenticate(ctx, "nobody", "guess")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = us.Authenticate(ctx, "nobody", decoyPassword)
	require.NoError(t, err)
	assert.False(t, ok, "the decoy password never logs anyone in")

	_, ok, err = us.Authenticate(ctx, "adminuser", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"guess", decoyPassword, "wrong"}, compared)
}

func TestAddUser_Duplicate(t *testing.T) {
	us := newTestUserStore(t)
	ctx := context.Background()

	added, err := us.AddUser(ctx, model.User{Username: "u"}, "p1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = us.AddUser(ctx, model.User{Username: "u"}, "p2")
	require.NoError(t, err)
	assert.False(t, added)

	_, ok, err := us.Authenticate(ctx, "u", "p1")
	require.NoError(t, err)
	assert.True(t, ok, "original password kept")
}

func TestAddUser_RejectsEmpty(t *testing.T) {
	us := newTestUserStore(t)

	added, err := us.AddUser(context.Background(), model.User{Username: ""}, "p")
	require.NoError(t, err)
	assert.False(t, added)
}

func TestGetUser(t *testing.T) {
	us := newTestUserStore(t)
	ctx := context.Background()

	_, err := us.AddUser(ctx, model.User{Username: "writer", Roles: []string{model.RoleWritingTeam}}, "pw")
	require.NoError(t, err)

	user, err := us.GetUser(ctx, "writer")
	require.NoError(t, err)
	assert.Equal(t, model.User{Username: "writer", Roles: []string{model.RoleWritingTeam}}, user)

	_, err = us.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}
