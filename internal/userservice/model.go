package userservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrNotFound          = errors.New("user not found")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

// uniqueViolation reports whether err is a unique constraint violation on the named constraint.
func uniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" && pqErr.Constraint == constraint
	}

	return false
}

func (m *DBModel) insertUser(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, username, email, password, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	u.ID = uuid.New()

	args := []any{
		u.ID,
		u.Username,
		u.Email,
		u.Password.hash,
		u.Role,
	}

	err := m.db.QueryRowContext(ctx, query, args...).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_username_key"):
			return ErrDuplicateUsername
		case uniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

const userColumns = `id, username, email, password, role, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return &u, nil
}

func (m *DBModel) getUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUser(m.db.QueryRowContext(ctx, query, id))
}

func (m *DBModel) getUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	return scanUser(m.db.QueryRowContext(ctx, query, username))
}

func (m *DBModel) getUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return scanUser(m.db.QueryRowContext(ctx, query, email))
}

// getUserByUsernameOrEmail checks both unique fields in one lookup, preferring a username match.
func (m *DBModel) getUserByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = $1 OR email = $2
		ORDER BY (username = $1) DESC
		LIMIT 1`

	return scanUser(m.db.QueryRowContext(ctx, query, username, email))
}

func (m *DBModel) updatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	query := `
		UPDATE users
		SET password = $1, updated_at = now()
		WHERE id = $2`

	result, err := m.db.ExecContext(ctx, query, hash, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
