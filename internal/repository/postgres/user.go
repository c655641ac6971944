package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/tagged-snippets/internal/apperror"
	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/repository"
)

var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table.
type UserDB struct {
	conn *sql.DB
}

const selectUsers = `SELECT id, username, password_hash, email, first_name, last_name, is_active, date_joined, last_login
	FROM users`

// Create inserts a new account and sets user.ID. A duplicate username
// is apperror.ErrConflict.
func (r *UserDB) Create(ctx context.Context, user *model.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	err := r.conn.QueryRowContext(ctx,
		`INSERT INTO users (username, password_hash, email, first_name, last_name, is_active, date_joined)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.FirstName,
		user.LastName,
		user.IsActive,
		user.DateJoined,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("postgres: inserting user %q: %w", user.Username, err)
	}
	return nil
}

// GetUserByID returns apperror.ErrNotFound when no user has this id.
func (r *UserDB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx, selectUsers+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by login name (case-sensitive).
func (r *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx, selectUsers+` WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("user not found with username %q", username),
			}
		}
		return nil, fmt.Errorf("postgres: getting user %q: %w", username, err)
	}
	return u, nil
}

// UpdateLastLogin stamps last_login with the current time.
func (r *UserDB) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.exec(ctx, id, `UPDATE users SET last_login = $1 WHERE id = $2`, time.Now().UTC(), id)
}

// SetActive enables or disables login for an account.
func (r *UserDB) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, id, `UPDATE users SET is_active = $1 WHERE id = $2`, active, id)
}

func (r *UserDB) exec(ctx context.Context, id int64, query string, args ...any) error {
	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: updating user %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	if err := row.Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FirstName, &u.LastName,
		&u.IsActive, &u.DateJoined, &lastLogin,
	); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}
