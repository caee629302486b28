package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

type memoryUsers struct {
	mu      sync.Mutex
	byID    map[string]*core.User
	lookups int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]*core.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, u *core.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return core.Fail(core.KindValidation, "email already registered", nil)
		}
	}
	u.ID = "user-" + u.Email
	m.byID[u.ID] = u
	return nil
}

func (m *memoryUsers) GetUser(_ context.Context, id string) (*core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, core.ErrNotFound
}

func (m *memoryUsers) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, core.ErrNotFound
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestAuthenticator(store UserStore) *PasswordAuthenticator {
	a := NewPasswordAuthenticator(store)
	a.cost = bcrypt.MinCost
	return a
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	token, err := m.Generate(&core.User{ID: "u1", Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "a@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager(testSecret, time.Hour)
	token, _ := m.Generate(&core.User{ID: "u1"})

	expired := NewJWTManager(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldToken, _ := expired.Generate(&core.User{ID: "u1"})

	other := NewJWTManager("another-secret-of-enough-length", time.Hour)
	foreign, _ := other.Generate(&core.User{ID: "u1"})

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "u1"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"garbage":      "not-a-token",
		"expired":      oldToken,
		"wrong secret": foreign,
		"alg none":     unsigned,
		"truncated":    token[:len(token)-4],
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := m.Validate(tok); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := newMemoryUsers()
	a := newTestAuthenticator(store)
	ctx := context.Background()

	u, err := a.Register(ctx, " Ada ", "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Name != "Ada" || u.PasswordHash == "" || strings.Contains(u.PasswordHash, "correct") {
		t.Errorf("unexpected user %+v", u)
	}

	got, err := a.Authenticate(ctx, "ada@example.com", "correct horse")
	if err != nil || got.ID != u.ID {
		t.Fatalf("Authenticate = %+v, %v", got, err)
	}

	if _, err := a.Authenticate(ctx, "ada@example.com", "wrong password"); core.KindOf(err) != core.KindAuthFailure {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "whatever1"); core.KindOf(err) != core.KindAuthFailure {
		t.Errorf("unknown email: err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAuthenticator(newMemoryUsers())
	ctx := context.Background()

	tests := []struct {
		name, user, email, password string
	}{
		{"short password", "Ada", "ada@example.com", "short"},
		{"bad email", "Ada", "not-an-email", "long enough"},
		{"display name email", "Ada", "Ada <ada@example.com>", "long enough"},
		{"missing name", " ", "ada@example.com", "long enough"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Register(ctx, tt.user, tt.email, tt.password); core.KindOf(err) != core.KindValidation {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}

	if _, err := a.Register(ctx, "Ada", "dup@example.com", "long enough"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Register(ctx, "Ada", "dup@example.com", "long enough"); core.KindOf(err) != core.KindValidation {
		t.Errorf("duplicate: err = %v", err)
	}
}

func TestResolverCurrentUser(t *testing.T) {
	store := newMemoryUsers()
	ctx := context.Background()
	u, err := newTestAuthenticator(store).Register(ctx, "Ada", "ada@example.com", "long enough")
	if err != nil {
		t.Fatal(err)
	}

	jwtm := NewJWTManager(testSecret, time.Hour)
	r := NewResolver(jwtm, store, 16, time.Minute)
	token, _ := jwtm.Generate(u)

	got, err := r.CurrentUser(ctx, token)
	if err != nil || got.ID != u.ID {
		t.Fatalf("CurrentUser = %+v, %v", got, err)
	}
	if _, err := r.CurrentUser(ctx, token); err != nil {
		t.Fatal(err)
	}
	if store.lookups != 1 {
		t.Errorf("store lookups = %d, want 1 (second call cached)", store.lookups)
	}

	r.Forget(u.ID)
	if r.Cache().Size() != 0 {
		t.Errorf("cache not cleared for user")
	}

	if _, err := r.CurrentUser(ctx, ""); !errors.Is(err, core.ErrInputMissing) {
		t.Errorf("empty token: err = %v", err)
	}
	if _, err := r.CurrentUser(ctx, "garbage"); !errors.Is(err, core.ErrAuthFailure) {
		t.Errorf("bad token: err = %v", err)
	}

	ghost, _ := jwtm.Generate(&core.User{ID: "deleted-user"})
	if _, err := r.CurrentUser(ctx, ghost); !errors.Is(err, core.ErrAuthFailure) {
		t.Errorf("unknown user: err = %v", err)
	}
}

func TestResolverDropsExpiredCachedToken(t *testing.T) {
	store := newMemoryUsers()
	ctx := context.Background()
	u, err := newTestAuthenticator(store).Register(ctx, "Ada", "ada@example.com", "long enough")
	if err != nil {
		t.Fatal(err)
	}

	clock := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	jwtm := NewJWTManager(testSecret, 30*time.Second)
	jwtm.now = func() time.Time { return clock }
	r := NewResolver(jwtm, store, 16, time.Hour)

	token, err := jwtm.Generate(u)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.CurrentUser(ctx, token); err != nil {
		t.Fatalf("fresh token: %v", err)
	}

	clock = clock.Add(31 * time.Second)
	if _, err := r.CurrentUser(ctx, token); !errors.Is(err, core.ErrAuthFailure) {
		t.Errorf("expired token: err = %v, want auth failure", err)
	}
	if r.Cache().Size() != 0 {
		t.Errorf("expired entry still cached")
	}
}
