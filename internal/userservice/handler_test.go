package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sushihentaime/inkpost/internal/common"
)

func testRequest() *CreateUserRequest {
	return &CreateUserRequest{
		Username: "testuser",
		Email:    "testuser@example.com",
		Password: "testpassword",
	}
}

func setupTestEnvironment(t *testing.T) (*UserService, *sql.DB, *common.MockProducer) {
	db := common.TestDB(t)
	mb := &common.MockProducer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewUserService(db, mb, logger), db, mb
}

func cleanup(t *testing.T, db *sql.DB) {
	_, err := db.Exec("DELETE FROM tokens")
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM users")
	require.NoError(t, err)
}

func TestUserService(t *testing.T) {
	s, db, mb := setupTestEnvironment(t)
	ctx := context.Background()

	t.Run("create user", func(t *testing.T) {
		t.Cleanup(func() { cleanup(t, db) })

		u, err := s.CreateUser(ctx, testRequest())
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.Equal(t, RoleEditor, u.Role)
		assert.NotEqual(t, []byte("testpassword"), u.Password.hash)

		msgs := mb.Published()
		require.NotEmpty(t, msgs)
		last := msgs[len(msgs)-1]
		assert.Equal(t, common.UserCreatedKey, last.Key)
		assert.Equal(t, common.UserExchange, last.Exchange)

		var event common.UserCreatedEvent
		require.NoError(t, json.Unmarshal(last.Body, &event))
		assert.Equal(t, "testuser", event.Username)
		assert.Equal(t, "testuser@example.com", event.Email)

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Username, got.Username)
		assert.Equal(t, u.Email, got.Email)
	})

	t.Run("create admin", func(t *testing.T) {
		t.Cleanup(func() { cleanup(t, db) })

		req := testRequest()
		req.Role = RoleAdmin
		u, err := s.CreateUser(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, u.Role)
	})

	t.Run("invalid input", func(t *testing.T) {
		req := testRequest()
		req.Username = "ab"
		req.Role = "viewer"

		_, err := s.CreateUser(ctx, req)
		var verr common.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Errors, "username")
		assert.Contains(t, verr.Errors, "role")
	})

	t.Run("duplicate username and email", func(t *testing.T) {
		t.Cleanup(func() { cleanup(t, db) })

		_, err := s.CreateUser(ctx, testRequest())
		require.NoError(t, err)

		req := testRequest()
		req.Email = "other@example.com"
		_, err = s.CreateUser(ctx, req)
		assert.ErrorIs(t, err, ErrDuplicateUsername)

		req = testRequest()
		req.Username = "otheruser"
		_, err = s.CreateUser(ctx, req)
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("publish failure does not fail registration", func(t *testing.T) {
		t.Cleanup(func() { cleanup(t, db) })

		failing := NewUserService(db, &common.MockProducer{Err: errors.New("broker down")}, s.logger)
		_, err := failing.CreateUser(ctx, testRequest())
		assert.NoError(t, err)
	})

	t.Run("login and resolve token", func(t *testing.T) {
		t.Cleanup(func() { cleanup(t, db) })

		u, err := s.CreateUser(ctx, testRequest())
		require.NoError(t, err)

		token, err := s.LoginUser(ctx, "testuser", "testpassword")
		require.NoError(t, err)
		assert.Len(t, token.Plain, 26)
		assert.WithinDuration(t, time.Now().Add(AccessTokenTime), token.Expiry, time.Minute)

		got, err := s.GetUserByAccessToken(ctx, token.Plain)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = s.LoginUser(ctx, "testuser", "wrongpassword")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)

		_, err = s.LoginUser(ctx, "nobody", "testpassword")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)

		byEmail, err := s.LoginUser(ctx, u.Email, "testpassword")
		require.NoError(t, err)
		got, err = s.GetUserByAccessToken(ctx, byEmail.Plain)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("logout revokes cached tokens", func(t *testing.T) {
		t.Cleanup(func() { cleanup(t, db) })

		u, err := s.CreateUser(ctx, testRequest())
		require.NoError(t, err)

		first, err := s.LoginUser(ctx, "testuser", "testpassword")
		require.NoError(t, err)
		second, err := s.LoginUser(ctx, "testuser", "testpassword")
		require.NoError(t, err)

		_, err = s.GetUserByAccessToken(ctx, first.Plain)
		require.NoError(t, err)
		_, err = s.GetUserByAccessToken(ctx, second.Plain)
		require.NoError(t, err)

		require.NoError(t, s.LogoutUser(ctx, u.ID))

		_, err = s.GetUserByAccessToken(ctx, first.Plain)
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
		_, err = s.GetUserByAccessToken(ctx, second.Plain)
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := s.GetUserByAccessToken(ctx, "short")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
	})

	t.Run("lookups", func(t *testing.T) {
		t.Cleanup(func() { cleanup(t, db) })

		u, err := s.GetUserByUsername(ctx, "testuser")
		assert.NoError(t, err)
		assert.Nil(t, u)

		u, err = s.GetUserByEmail(ctx, "testuser@example.com")
		assert.NoError(t, err)
		assert.Nil(t, u)

		_, err = s.GetUserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)

		created, err := s.CreateUser(ctx, testRequest())
		require.NoError(t, err)

		u, err = s.GetUserByUsername(ctx, "testuser")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)

		u, err = s.GetUserByEmail(ctx, "testuser@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, u.ID)
	})

	t.Run("login upgrades outdated hashes", func(t *testing.T) {
		t.Cleanup(func() { cleanup(t, db) })

		u, err := s.CreateUser(ctx, testRequest())
		require.NoError(t, err)

		weak, err := bcrypt.GenerateFromPassword([]byte("testpassword"), bcrypt.MinCost)
		require.NoError(t, err)
		_, err = db.Exec("UPDATE users SET password = $1 WHERE id = $2", weak, u.ID)
		require.NoError(t, err)

		_, err = s.LoginUser(ctx, "testuser", "testpassword")
		require.NoError(t, err)

		var stored []byte
		require.NoError(t, db.QueryRow("SELECT password FROM users WHERE id = $1", u.ID).Scan(&stored))
		cost, err := bcrypt.Cost(stored)
		require.NoError(t, err)
		assert.Equal(t, passwordCost, cost)

		_, err = s.LoginUser(ctx, "testuser", "testpassword")
		assert.NoError(t, err)
	})
}
