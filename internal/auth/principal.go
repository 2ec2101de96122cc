package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"campusconnect/internal/crypto"
	"campusconnect/internal/model"
)

var (
	// ErrNotFound covers both absent and deactivated users so callers
	// cannot tell the two apart.
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Principal is the resolved identity for one request. It is passed explicitly
// to every operation that needs it; nothing reads it from ambient state.
type Principal struct {
	ID            int64
	Email         string
	Role          model.Role
	EmailVerified bool
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == model.RoleAdmin
}

// UserStore is the credential-store capability the resolver depends on.
// Implementations report missing rows with pgx.ErrNoRows.
type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

type Resolver struct {
	users UserStore
}

func NewResolver(users UserStore) *Resolver {
	return &Resolver{users: users}
}

// ResolveByID loads the current user state for a validated token subject.
// Inactive users resolve as not-found regardless of token validity.
func (r *Resolver) ResolveByID(ctx context.Context, id int64) (*Principal, error) {
	user, err := r.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrNotFound
	}
	return principalOf(user), nil
}

// ResolveByCredentials authenticates a login attempt. The identifier is an
// email when it contains "@", a username otherwise. Unknown identifier and
// wrong password collapse to the same failure.
func (r *Resolver) ResolveByCredentials(ctx context.Context, identifier, password string) (*Principal, error) {
	var (
		user model.User
		err  error
	)
	if strings.Contains(identifier, "@") {
		user, err = r.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(identifier)))
	} else {
		user, err = r.users.GetUserByUsername(ctx, strings.TrimSpace(identifier))
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return principalOf(user), nil
}

func principalOf(user model.User) *Principal {
	return &Principal{
		ID:            user.ID,
		Email:         user.Email,
		Role:          user.Role,
		EmailVerified: user.EmailVerified,
	}
}
