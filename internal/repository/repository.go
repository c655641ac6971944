// Package repository declares the storage contracts the service layer
// programs against. Concrete implementations live in the sqlite and
// postgres sub-packages; services never import those directly.
//
// ERROR CONTRACT (all implementations):
//   - a missing row is reported as apperror.ErrNotFound
//   - a uniqueness violation is reported as apperror.ErrConflict
//   - anything else is wrapped with the implementation's prefix ("sqlite: ...")
package repository

import (
	"context"

	"github.com/sakif/tagged-snippets/internal/model"
)

// ListOptions filters snippet listings. The zero value lists everything.
type ListOptions struct {
	TagID int64 // when > 0, only snippets referencing this tag
}

// SnippetRepository persists snippets. Every read returns the snippet with
// its Tag field populated from a join.
type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id int64) (*model.Snippet, error)
	List(ctx context.Context, opts ListOptions) ([]model.Snippet, error)
	Update(ctx context.Context, snippet *model.Snippet) error
	// DeleteMany removes every snippet whose id is in ids and reports how
	// many rows went away. Unknown ids are not an error.
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}

// TagRepository persists tags.
//
// Create fails with apperror.ErrConflict when the title is taken; the caller
// then re-fetches with GetByTitle. The unique index on tags.title is the
// only arbiter between concurrent creators.
type TagRepository interface {
	Create(ctx context.Context, tag *model.Tag) error
	GetByID(ctx context.Context, id int64) (*model.Tag, error)
	GetByTitle(ctx context.Context, title string) (*model.Tag, error)
	List(ctx context.Context) ([]model.Tag, error)
}

// UserRepository persists login accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id int64) error
	SetActive(ctx context.Context, id int64, active bool) error
}

// Store bundles the per-entity repositories that share one database handle.
type Store interface {
	Snippets() SnippetRepository
	Tags() TagRepository
	Users() UserRepository
	// Migrate applies pending schema migrations.
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
