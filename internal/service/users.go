package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"campusconnect/internal/auth"
	"campusconnect/internal/crypto"
	"campusconnect/internal/model"
	"campusconnect/internal/repository"
)

// Users covers profile reads and updates. A user may act on their own account
// and an admin on any account; role is not updatable through this service at
// all, so self-service can never escalate.
type Users struct {
	store      *repository.Store
	bcryptCost int
}

func NewUsers(store *repository.Store, bcryptCost int) *Users {
	return &Users{store: store, bcryptCost: bcryptCost}
}

func (s *Users) Get(ctx context.Context, principal *auth.Principal, id int64) (model.User, error) {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return model.User{}, err
	}
	user, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if !user.IsActive {
		return model.User{}, ErrUserNotFound
	}
	return user, nil
}

type UpdateUserInput struct {
	Email      *string `json:"email"`
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Department *string `json:"department"`
	Bio        *string `json:"bio"`
	Password   *string `json:"password"`
}

func (s *Users) Update(ctx context.Context, principal *auth.Principal, id int64, input UpdateUserInput) (model.User, error) {
	if err := auth.Evaluate(auth.RequireRoleOrSelf(model.RoleAdmin), principal, id); err != nil {
		return model.User{}, err
	}
	if _, err := s.Get(ctx, principal, id); err != nil {
		return model.User{}, err
	}

	update := repository.UserUpdate{
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Department: input.Department,
		Bio:        input.Bio,
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email == "" || !strings.Contains(email, "@") {
			return model.User{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
		}
		update.Email = &email
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return model.User{}, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
		}
		hash, err := crypto.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return model.User{}, err
		}
		update.PasswordHash = &hash
	}

	user, err := s.store.UpdateUser(ctx, id, update)
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return model.User{}, ErrDuplicateEmail
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

// Deactivate soft-deletes the account. Tokens already issued stop resolving
// on their next use because the principal resolver rejects inactive users.
func (s *Users) Deactivate(ctx context.Context, principal *auth.Principal, id int64) error {
	if err := auth.Evaluate(auth.RequireRoleOrSelf(model.RoleAdmin), principal, id); err != nil {
		return err
	}
	removed, err := s.store.DeactivateUser(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return ErrUserNotFound
	}
	return nil
}

func (s *Users) List(ctx context.Context, principal *auth.Principal, limit, offset int) ([]model.User, error) {
	if err := auth.Evaluate(auth.RequireRole(model.RoleAdmin), principal, 0); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.store.ListUsers(ctx, limit, offset)
}

func (s *Users) Search(ctx context.Context, principal *auth.Principal, term string, limit, offset int) ([]model.User, error) {
	if err := auth.Evaluate(auth.Authenticated(), principal, 0); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return []model.User{}, nil
	}
	limit, offset = clampPage(limit, offset)
	return s.store.SearchUsers(ctx, term, limit, offset)
}
