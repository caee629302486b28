package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = core.Fail(core.KindAuthFailure, "invalid email or password", nil)
	ErrWeakPassword       = core.Fail(core.KindValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLength), nil)
	ErrInvalidEmail       = core.Fail(core.KindValidation, "invalid email address", nil)
	ErrMissingName        = core.Fail(core.KindValidation, "name is required", nil)
)

// UserStore is the persistence the authenticator needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	GetUser(ctx context.Context, id string) (*core.User, error)
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
}

// PasswordAuthenticator registers and authenticates users with bcrypt hashes.
type PasswordAuthenticator struct {
	store UserStore
	cost  int
}

func NewPasswordAuthenticator(store UserStore) *PasswordAuthenticator {
	return &PasswordAuthenticator{store: store, cost: bcrypt.DefaultCost}
}

// Register validates the input, hashes the password and stores the user.
func (a *PasswordAuthenticator) Register(ctx context.Context, name, email, password string) (*core.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &core.User{Name: name, Email: addr.Address, PasswordHash: string(hash)}
	if err := a.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate returns the user when the password matches.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	user, err := a.store.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
