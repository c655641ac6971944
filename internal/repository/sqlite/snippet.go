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

// COMPILE-TIME INTERFACE CHECK:
// `var _ X = (*Y)(nil)` fails to compile if *Y doesn't implement X.
var _ repository.SnippetRepository = (*SnippetDB)(nil)

// SnippetDB is the snippets table.
type SnippetDB struct {
	conn *sql.DB
}

// snippetColumns is the SELECT list shared by every snippet read. The join
// brings in the tag title so callers get the embedded tag in one query.
const snippetColumns = `s.id, s.title, s.content, s.created_at, s.updated_at,
	s.user_id, s.tag_id, t.title`

const snippetFrom = `FROM snippets s JOIN tags t ON t.id = s.tag_id`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
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

// Create inserts a new snippet.
//
// The caller supplies Title, Content, UserID and TagID. Create fills in the
// generated ID and both timestamps on the caller's struct.
//
// PARAMETERIZED QUERIES (the ? placeholders):
// NEVER build SQL strings with fmt.Sprintf or string concatenation of user input.
// The driver binds the values safely.
func (r *SnippetDB) Create(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	res, err := r.conn.ExecContext(ctx,
		`INSERT INTO snippets (title, content, created_at, updated_at, user_id, tag_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snippet.Title,
		snippet.Content,
		snippet.CreatedAt,
		snippet.UpdatedAt,
		snippet.UserID,
		snippet.TagID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading snippet id: %w", err)
	}
	snippet.ID = id

	return nil
}

// GetByID retrieves a single snippet with its tag.
// sql.ErrNoRows is translated to apperror.NotFound so the handler can answer 404.
func (r *SnippetDB) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	var snippet model.Snippet

	row := r.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` `+snippetFrom+` WHERE s.id = ?`,
		id,
	)
	if err := scanSnippet(row, &snippet); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %d: %w", id, err)
	}

	return &snippet, nil
}

// List returns snippets in ascending id order, optionally filtered by tag.
//
// defer rows.Close() is critical: sql.Rows holds a pooled connection until
// it is closed.
func (r *SnippetDB) List(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	query := `SELECT ` + snippetColumns + ` ` + snippetFrom
	var args []any
	if opts.TagID > 0 {
		query += ` WHERE s.tag_id = ?`
		args = append(args, opts.TagID)
	}
	query += ` ORDER BY s.id`

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		var s model.Snippet
		if err := scanSnippet(rows, &s); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}

	// rows.Err() catches errors that happened DURING iteration.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update writes title, content and tag_id and refreshes updated_at.
// id, user_id and created_at are immutable.
func (r *SnippetDB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, content = ?, tag_id = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Content,
		snippet.TagID,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %d: %w", snippet.ID, err)
	}

	// 0 rows affected means the WHERE clause matched nothing → not found.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
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
		return 0, fmt.Errorf("sqlite: beginning delete: %w", err)
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
			`DELETE FROM snippets WHERE id IN (`+placeholders(len(batch))+`)`,
			args...,
		)
		if err != nil {
			return 0, fmt.Errorf("sqlite: deleting snippets: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing delete: %w", err)
	}
	return total, nil
}

// deleteBatchSize bounds the ids bound per DELETE, keeping each statement
// far below SQLite's bound-variable limit.
const deleteBatchSize = 500
