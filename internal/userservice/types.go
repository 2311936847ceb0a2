package userservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sushihentaime/inkpost/internal/common"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"

	AccessTokenTime time.Duration = 24 * time.Hour

	// tokenCacheTime bounds how long a revoked token may still be accepted by another process.
	tokenCacheTime time.Duration = time.Minute
	tokenCacheSize int           = 1024
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m      *DBModel
	mb     common.MessageProducer
	tokens *expirable.LRU[string, *User]
	logger *slog.Logger
}

type DBModel struct {
	db *sql.DB
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  Password  `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte
}

type Token struct {
	Plain  string    `json:"token"`
	Hash   []byte    `json:"-"`
	UserID uuid.UUID `json:"-"`
	Expiry time.Time `json:"expiry"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}
