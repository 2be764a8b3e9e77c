package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-chat/auth"
	"github.com/goliatone/go-chat/repository"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, "file::memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUsers(t *testing.T) auth.Users {
	t.Helper()
	users := auth.NewUsersRepository(newTestDB(t))
	require.NoError(t, users.CreateSchema(context.Background()))
	return users
}

func newTestManager(t *testing.T) repository.Manager {
	t.Helper()
	manager := repository.NewRepositoryManager(newTestDB(t))
	manager.MustValidate()
	require.NoError(t, manager.CreateSchema(context.Background()))
	return manager
}

func TestUsersRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers(t)

	created, err := users.Create(ctx, &auth.User{
		Username:     "  alice ",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "alice", created.Username)
	assert.False(t, created.CreatedAt.IsZero())

	found, err := users.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	byID, err := users.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUsersRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers(t)

	_, err := users.FindUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)

	_, err = users.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestUsersRepository_UsernameTaken(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers(t)

	_, err := users.Create(ctx, &auth.User{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = users.Create(ctx, &auth.User{Username: "alice", PasswordHash: "other"})
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestUsersRepository_TrackSuccessfulLogin(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers(t)

	user, err := users.Create(ctx, &auth.User{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Nil(t, user.LoggedInAt)

	require.NoError(t, users.TrackSuccessfulLogin(ctx, user))
	assert.NotNil(t, user.LoggedInAt)

	found, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, found.LoggedInAt)
}

func TestUsersRepository_TrackSuccessfulLoginUnknownUser(t *testing.T) {
	users := newTestUsers(t)

	ghost := &auth.User{ID: uuid.New(), Username: "ghost"}
	err := users.TrackSuccessfulLogin(context.Background(), ghost)
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
	assert.Nil(t, ghost.LoggedInAt)
}

func TestUsersRepository_UsernameTakenIgnoresPadding(t *testing.T) {
	ctx := context.Background()
	users := newTestUsers(t)

	_, err := users.Create(ctx, &auth.User{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = users.Create(ctx, &auth.User{Username: "  alice\t", PasswordHash: "other"})
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestRegisterUserHandler(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)
	users := manager.Users()
	handler := auth.NewRegisterUserHandler(manager)

	err := handler.Execute(ctx, auth.RegisterUserMessage{Username: "bob", Password: "password123"})
	require.NoError(t, err)

	user, err := users.FindUserByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.NoError(t, auth.ComparePasswordAndHash("password123", user.PasswordHash))

	err = handler.Execute(ctx, auth.RegisterUserMessage{Username: "bob", Password: "password456"})
	assert.ErrorIs(t, err, auth.ErrUsernameTaken)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err = handler.Execute(cancelled, auth.RegisterUserMessage{Username: "carol", Password: "password123"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegisterUserHandler_EmptyPassword(t *testing.T) {
	ctx := context.Background()
	manager := newTestManager(t)
	handler := auth.NewRegisterUserHandler(manager)

	err := handler.Execute(ctx, auth.RegisterUserMessage{Username: "erin", Password: ""})
	assert.ErrorIs(t, err, auth.ErrNoEmptyString)

	_, err = manager.Users().FindUserByUsername(ctx, "erin")
	assert.ErrorIs(t, err, auth.ErrIdentityNotFound)
}
