package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// Resolver maps bearer tokens to users. Lookups are cached per token for a
// short time, never past the token's own expiry.
type Resolver struct {
	jwt   *JWTManager
	users UserStore
	cache *cache.LRUCache[resolvedUser]
}

type resolvedUser struct {
	user      *core.User
	expiresAt time.Time
}

func NewResolver(jwt *JWTManager, users UserStore, cacheSize int, ttl time.Duration) *Resolver {
	return &Resolver{
		jwt:   jwt,
		users: users,
		cache: cache.NewLRUCache[resolvedUser](cacheSize, ttl),
	}
}

// Cache exposes the user cache so it can be swept periodically.
func (r *Resolver) Cache() *cache.LRUCache[resolvedUser] { return r.cache }

// CurrentUser validates token and loads its user. An empty token is missing
// input; an invalid token or an unknown user is an auth failure.
func (r *Resolver) CurrentUser(ctx context.Context, token string) (*core.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, core.Fail(core.KindInputMissing, "user token is required", nil)
	}

	if hit, ok := r.cache.Get(token); ok {
		if hit.expiresAt.IsZero() || r.jwt.now().Before(hit.expiresAt) {
			return hit.user, nil
		}
		r.cache.Delete(token)
	}

	claims, err := r.jwt.Validate(token)
	if err != nil {
		return nil, core.Fail(core.KindAuthFailure, "invalid or expired token", err)
	}

	user, err := r.users.GetUser(ctx, claims.Subject)
	if errors.Is(err, core.ErrNotFound) {
		return nil, core.Fail(core.KindAuthFailure, "user no longer exists", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}

	var exp time.Time
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	r.cache.Set(token, resolvedUser{user: user, expiresAt: exp})
	return user, nil
}

// Forget drops every cached token of the user.
func (r *Resolver) Forget(userID string) {
	r.cache.DeleteFunc(func(u resolvedUser) bool { return u.user.ID == userID })
}
