package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sakif/tagged-snippets/internal/apperror"
	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/repository"
)

var _ repository.TagRepository = (*TagDB)(nil)

// TagDB is the tags table.
type TagDB struct {
	conn *sql.DB
}

// Create inserts a tag and sets tag.ID.
// A title that already exists yields apperror.ErrConflict.
func (r *TagDB) Create(ctx context.Context, tag *model.Tag) error {
	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO tags (title) VALUES (?)`,
		tag.Title,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("tag", tag.Title)
		}
		return fmt.Errorf("sqlite: creating tag %q: %w", tag.Title, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading tag id: %w", err)
	}
	tag.ID = id

	return nil
}

// GetByID returns apperror.ErrNotFound when no tag has this id.
func (r *TagDB) GetByID(ctx context.Context, id int64) (*model.Tag, error) {
	var t model.Tag
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, title FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %d: %w", id, err)
	}
	return &t, nil
}

// GetByTitle looks a tag up by exact (case-sensitive) title.
func (r *TagDB) GetByTitle(ctx context.Context, title string) (*model.Tag, error) {
	var t model.Tag
	err := r.conn.QueryRowContext(ctx,
		`SELECT id, title FROM tags WHERE title = ?`, title,
	).Scan(&t.ID, &t.Title)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("tag not found with title %q", title),
			}
		}
		return nil, fmt.Errorf("sqlite: getting tag %q: %w", title, err)
	}
	return &t, nil
}

// List returns every tag in ascending id order.
func (r *TagDB) List(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.conn.QueryContext(ctx, `SELECT id, title FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := make([]model.Tag, 0)
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Title); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}
