package userservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/sushihentaime/inkpost/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, logger *slog.Logger) *UserService {
	return &UserService{
		m:      newUserModel(db),
		mb:     mb,
		tokens: expirable.NewLRU[string, *User](tokenCacheSize, nil, tokenCacheTime),
		logger: logger,
	}
}

// CreateUser registers a new account and publishes a user.created event.
// An empty role defaults to editor.
func (s *UserService) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if req.Role == "" {
		req.Role = RoleEditor
	}

	v := common.NewValidator()
	validateUsername(v, req.Username)
	validateEmail(v, req.Email)
	validatePassword(v, req.Password)
	validateRole(v, req.Role)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	existing, err := s.m.getUserByUsernameOrEmail(ctx, req.Username, req.Email)
	switch {
	case err == nil:
		if existing.Username == req.Username {
			return nil, ErrDuplicateUsername
		}
		return nil, ErrDuplicateEmail
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	u := User{
		Username: req.Username,
		Email:    req.Email,
		Role:     req.Role,
	}

	err = u.Password.set(req.Password)
	if err != nil {
		return nil, err
	}

	// the unique constraints still catch a concurrent registration
	err = s.m.insertUser(ctx, &u)
	if err != nil {
		return nil, err
	}

	event := common.UserCreatedEvent{Username: u.Username, Email: u.Email}
	err = common.PublishJSON(ctx, s.mb, event, common.UserCreatedKey, common.UserExchange)
	if err != nil {
		s.logger.Error("failed to publish user created event", "user_id", u.ID, "error", err)
	}

	return &u, nil
}

// LoginUser checks the credentials and issues a new access token.
// The login may be either the username or the email address.
func (s *UserService) LoginUser(ctx context.Context, login, password string) (*Token, error) {
	v := common.NewValidator()
	v.Check(login != "", "username", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	var (
		user *User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.GetUserByEmail(ctx, login)
	} else {
		user, err = s.GetUserByUsername(ctx, login)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, rejectUnknownUser(password)
	}

	ok, err := user.Password.matches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	if user.Password.outdated() {
		s.rehashPassword(ctx, user, password)
	}

	return s.m.createToken(ctx, user.ID, AccessTokenTime)
}

// rehashPassword stores the password again with the current cost. Failures only cost
// another attempt on the next login.
func (s *UserService) rehashPassword(ctx context.Context, user *User, plain string) {
	err := user.Password.set(plain)
	if err == nil {
		err = s.m.updatePasswordHash(ctx, user.ID, user.Password.hash)
	}
	if err != nil {
		s.logger.Warn("failed to rehash password", "user_id", user.ID, "error", err)
	}
}

// GetUserByAccessToken resolves a bearer token to its user.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, ErrAuthenticationFailure
	}

	hash := hashToken(token)
	key := tokenCacheKey(hash)

	if user, ok := s.tokens.Get(key); ok {
		return user, nil
	}

	user, err := s.m.getUserForToken(ctx, hash)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	s.tokens.Add(key, user)

	return user, nil
}

// LogoutUser revokes every token the user holds.
func (s *UserService) LogoutUser(ctx context.Context, userID uuid.UUID) error {
	err := s.m.deleteTokensForUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, key := range s.tokens.Keys() {
		if u, ok := s.tokens.Peek(key); ok && u.ID == userID {
			s.tokens.Remove(key)
		}
	}

	return nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.m.getUserByID(ctx, id)
}

// GetUserByUsername returns nil when no user has that username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return nullable(s.m.getUserByUsername(ctx, username))
}

// GetUserByEmail returns nil when no user has that email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return nullable(s.m.getUserByEmail(ctx, email))
}

func nullable(u *User, err error) (*User, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return u, err
}
