package sqlite

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

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB is the users table.
type UserDB struct {
	conn *sql.DB
}

const userColumns = `id, username, password_hash, email, first_name, last_name,
	is_active, date_joined, last_login`

// Create inserts a new account and sets user.ID.
//
// DateJoined defaults to now when the caller leaves it zero. A duplicate
// username is reported as apperror.ErrConflict.
func (r *UserDB) Create(ctx context.Context, user *model.User) error {
	if user.DateJoined.IsZero() {
		user.DateJoined = time.Now().UTC()
	}

	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, email, first_name, last_name, is_active, date_joined)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.Username,
		user.PasswordHash,
		user.Email,
		user.FirstName,
		user.LastName,
		user.IsActive,
		user.DateJoined,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Username)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading user id: %w", err)
	}
	user.ID = id

	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (r *UserDB) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}
	return u, nil
}

// GetByUsername retrieves a user by login name (case-sensitive).
func (r *UserDB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("user not found with username %q", username),
			}
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}
	return u, nil
}

// UpdateLastLogin stamps last_login with the current time.
func (r *UserDB) UpdateLastLogin(ctx context.Context, id int64) error {
	return r.exec(ctx, id,
		`UPDATE users SET last_login = ? WHERE id = ?`, time.Now().UTC(), id)
}

// SetActive enables or disables login for an account.
func (r *UserDB) SetActive(ctx context.Context, id int64, active bool) error {
	return r.exec(ctx, id,
		`UPDATE users SET is_active = ? WHERE id = ?`, active, id)
}

// exec runs a single-row UPDATE and maps "no rows matched" to NotFound.
func (r *UserDB) exec(ctx context.Context, id int64, query string, args ...any) error {
	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
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
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.IsActive,
		&u.DateJoined,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}
