package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"campusconnect/internal/crypto"
	"campusconnect/internal/model"
)

type fakeUserStore struct {
	users map[int64]model.User
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return model.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return model.User{}, pgx.ErrNoRows
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return model.User{}, pgx.ErrNoRows
}

func testStore(t *testing.T) *fakeUserStore {
	t.Helper()
	hash, err := crypto.HashPassword("correct-horse", 4)
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	return &fakeUserStore{users: map[int64]model.User{
		1: {ID: 1, Username: "alice", Email: "alice@campus.edu", PasswordHash: hash, Role: model.RoleStudent, IsActive: true},
		2: {ID: 2, Username: "bob", Email: "bob@campus.edu", PasswordHash: hash, Role: model.RoleAdmin, IsActive: false},
	}}
}

func TestResolveByID(t *testing.T) {
	resolver := NewResolver(testStore(t))

	principal, err := resolver.ResolveByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	if principal.ID != 1 || principal.Role != model.RoleStudent {
		t.Fatalf("unexpected principal: %+v", principal)
	}

	if _, err := resolver.ResolveByID(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}

	// Inactive users are indistinguishable from missing ones.
	if _, err := resolver.ResolveByID(context.Background(), 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive user, got %v", err)
	}
}

func TestResolveByCredentials(t *testing.T) {
	resolver := NewResolver(testStore(t))
	ctx := context.Background()

	principal, err := resolver.ResolveByCredentials(ctx, "Alice@Campus.edu", "correct-horse")
	if err != nil {
		t.Fatalf("resolve by email error: %v", err)
	}
	if principal.ID != 1 {
		t.Fatalf("expected user 1, got %d", principal.ID)
	}

	if _, err := resolver.ResolveByCredentials(ctx, "alice", "correct-horse"); err != nil {
		t.Fatalf("resolve by username error: %v", err)
	}

	cases := []struct{ identifier, password string }{
		{"alice@campus.edu", "wrong"},
		{"nobody@campus.edu", "correct-horse"},
		{"nobody", "correct-horse"},
		{"bob@campus.edu", "correct-horse"}, // inactive
	}
	for _, tc := range cases {
		if _, err := resolver.ResolveByCredentials(ctx, tc.identifier, tc.password); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("identifier %q: expected ErrInvalidCredentials, got %v", tc.identifier, err)
		}
	}
}
