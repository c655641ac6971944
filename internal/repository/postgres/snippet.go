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

var _ repository.SnippetRepository = (*SnippetDB)(nil)

// SnippetDB is the snippets table.
type SnippetDB struct {
	conn *sql.DB
}

const selectSnippets = `SELECT s.id, s.title, s.content, s.created_at, s.updated_at, s.user_id, s.tag_id, t.title
	FROM snippets s JOIN tags t ON t.id = s.tag_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner, s *model.Snippet) error {
	err := row.Scan(
		&s.ID, &s.Title, &s.Content, &s.CreatedAt, &s.UpdatedAt,
		&s.UserID, &s.TagID, &s.Tag.Title,
	)
	s.Tag.ID = s.TagID
	return err
}

// Create inserts snippet and sets its ID and both timestamps.
func (r *SnippetDB) Create(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	err := r.conn.QueryRowContext(ctx,
		`INSERT INTO snippets (title, content, created_at, updated_at, user_id, tag_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		snippet.Title,
		snippet.Content,
		snippet.CreatedAt,
		snippet.UpdatedAt,
		snippet.UserID,
		snippet.TagID,
	).Scan(&snippet.ID)
	if err != nil {
		return fmt.Errorf("postgres: creating snippet: %w", err)
	}
	return nil
}

// GetByID returns the snippet with its tag joined in, or
// apperror.ErrNotFound.
func (r *SnippetDB) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	var snippet model.Snippet

	row := r.conn.QueryRowContext(ctx, selectSnippets+` WHERE s.id = $1`, id)
	if err := scanSnippet(row, &snippet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("postgres: getting snippet %d: %w", id, err)
	}
	return &snippet, nil
}

// List returns snippets in ascending id order, optionally only those
// with opts.TagID. It never returns a nil slice.
func (r *SnippetDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	query := selectSnippets
	var args []any
	if opts.TagID > 0 {
		query += ` WHERE s.tag_id = $1`
		args = append(args, opts.TagID)
	}
	query += ` ORDER BY s.id`

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("postgres: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating snippets: %w", err)
	}
	return snippets, nil
}

// Update rewrites title, content and tag and bumps updated_at.
func (r *SnippetDB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE snippets SET title = $1, content = $2, tag_id = $3, updated_at = $4
		 WHERE id = $5`,
		snippet.Title,
		snippet.Content,
		snippet.TagID,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating snippet %d: %w", snippet.ID, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}
	return nil
}

// DeleteMany removes all snippets whose id is in ids, in one transaction.
// Ids with no matching row are ignored; an empty list deletes nothing.
func (r *SnippetDB) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("postgres: beginning delete: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	var total int64
	for start := 0; start < len(ids); start += deleteBatchSize {
		batch := ids[start:min(start+deleteBatchSize, len(ids))]
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM snippets WHERE id IN (`+placeholders(1, len(batch))+`)`,
			args...,
		)
		if err != nil {
			return 0, fmt.Errorf("postgres: deleting snippets: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("postgres: checking rows affected: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("postgres: committing delete: %w", err)
	}
	return total, nil
}

// deleteBatchSize bounds the ids bound per DELETE, keeping each statement
// far below the 65535 bind parameters Postgres allows.
const deleteBatchSize = 500
