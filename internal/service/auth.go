package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"campusconnect/internal/auth"
	"campusconnect/internal/crypto"
	"campusconnect/internal/model"
	"campusconnect/internal/repository"
)

// Auth implements the session protocol: register, login, refresh, logout.
// Sessions are stateless; both token kinds are self-contained and nothing is
// stored server-side, so logout does not invalidate outstanding tokens.
type Auth struct {
	store      *repository.Store
	resolver   *auth.Resolver
	codec      *auth.Codec
	bcryptCost int
	now        func() time.Time
}

func NewAuth(store *repository.Store, resolver *auth.Resolver, codec *auth.Codec, bcryptCost int) *Auth {
	return &Auth{
		store:      store,
		resolver:   resolver,
		codec:      codec,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

type RegisterInput struct {
	Username   string  `json:"username"`
	Email      string  `json:"email"`
	Password   string  `json:"password"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Department *string `json:"department"`
	Bio        *string `json:"bio"`
}

// TokenPair is the login and refresh response body.
type TokenPair struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	TokenType    string     `json:"tokenType"`
	ExpiresIn    int64      `json:"expiresIn"`
	UserID       int64      `json:"userId"`
	Email        string     `json:"email"`
	Role         model.Role `json:"role"`
}

// Register creates a student account. Role is never taken from the request.
func (s *Auth) Register(ctx context.Context, input RegisterInput) (model.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateRegistration(input); err != nil {
		return model.User{}, err
	}

	if taken, err := s.store.ExistsByEmail(ctx, input.Email); err != nil {
		return model.User{}, err
	} else if taken {
		return model.User{}, ErrDuplicateEmail
	}
	if taken, err := s.store.ExistsByUsername(ctx, input.Username); err != nil {
		return model.User{}, err
	} else if taken {
		return model.User{}, ErrDuplicateUsername
	}

	hash, err := crypto.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	user, err := s.store.CreateUser(ctx, model.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         model.RoleStudent,
		Department:   input.Department,
		Bio:          input.Bio,
	})
	if err != nil {
		// Pre-checks race with concurrent registrations; the unique
		// constraints are the authority.
		if repository.IsUniqueViolation(err) {
			return model.User{}, ErrDuplicateUsername
		}
		return model.User{}, err
	}
	return user, nil
}

// Login exchanges credentials for a token pair. The last-login timestamp is
// recorded best-effort; a failure there never fails the login.
func (s *Auth) Login(ctx context.Context, identifier, password string) (TokenPair, error) {
	principal, err := s.resolver.ResolveByCredentials(ctx, identifier, password)
	if err != nil {
		return TokenPair{}, err
	}
	now := s.now()
	pair, err := s.issuePair(principal, now)
	if err != nil {
		return TokenPair{}, err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.store.UpdateLastLogin(ctx, principal.ID, now); err != nil {
			log.Printf("auth: update last login for user %d: %v", principal.ID, err)
		}
	}()

	return pair, nil
}

// Refresh exchanges a refresh token for a fresh pair. The user is re-resolved
// so a deactivated account cannot renew its session, and an access token is
// never accepted in place of a refresh token.
func (s *Auth) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.codec.Parse(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if !claims.IsRefresh() {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return TokenPair{}, ErrInvalidRefreshToken
	}
	principal, err := s.resolver.ResolveByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(principal, s.now())
}

// Logout is a client-side operation: the server holds no session state to
// discard. It exists so the route is explicit about that contract.
func (s *Auth) Logout(ctx context.Context) error {
	return nil
}

func (s *Auth) issuePair(principal *auth.Principal, now time.Time) (TokenPair, error) {
	access, err := s.codec.IssueAccess(principal.ID, principal.Email, principal.Role, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.codec.IssueRefresh(principal.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		UserID:       principal.ID,
		Email:        principal.Email,
		Role:         principal.Role,
	}, nil
}

func validateRegistration(input RegisterInput) error {
	if len(input.Username) < 3 || len(input.Username) > 50 {
		return fmt.Errorf("%w: username must be 3-50 characters", ErrInvalidInput)
	}
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	return nil
}
