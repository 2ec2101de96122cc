package repository

import (
	"context"
	"time"

	"campusconnect/internal/model"
)

const userColumns = `id, username, email, password_hash, first_name, last_name, role,
	department, bio, is_active, email_verified, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.Department,
		&user.Bio,
		&user.IsActive,
		&user.EmailVerified,
		&user.LastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (s *Store) CreateUser(ctx context.Context, user model.User) (model.User, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name, role, department, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+userColumns+`
	`, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Role, user.Department, user.Bio)
	return scanUser(row)
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	return exists, err
}

func (s *Store) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

type UserUpdate struct {
	Email        *string
	FirstName    *string
	LastName     *string
	Department   *string
	Bio          *string
	PasswordHash *string
}

func (s *Store) UpdateUser(ctx context.Context, id int64, update UserUpdate) (model.User, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE users SET
			email = COALESCE($2, email),
			first_name = COALESCE($3, first_name),
			last_name = COALESCE($4, last_name),
			department = COALESCE($5, department),
			bio = COALESCE($6, bio),
			password_hash = COALESCE($7, password_hash),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns+`
	`, id, update.Email, update.FirstName, update.LastName, update.Department, update.Bio, update.PasswordHash)
	return scanUser(row)
}

func (s *Store) UpdateLastLogin(ctx context.Context, id int64, loginAt time.Time) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, loginAt, id)
	return err
}

// DeactivateUser soft-deletes; the row is kept for referential history.
func (s *Store) DeactivateUser(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE users SET is_active = false, updated_at = now() WHERE id = $1 AND is_active = true`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]model.User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_active = true
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) SearchUsers(ctx context.Context, term string, limit, offset int) ([]model.User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_active = true
		  AND (username ILIKE '%' || $1 || '%'
		   OR first_name ILIKE '%' || $1 || '%'
		   OR last_name ILIKE '%' || $1 || '%'
		   OR email ILIKE '%' || $1 || '%')
		ORDER BY id
		LIMIT $2 OFFSET $3
	`, term, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
