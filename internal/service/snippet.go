// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never a concrete *sqlite.DB or
// *postgres.DB, so tests pass in-memory fakes and main picks the back end.
//
// Services return apperror kinds (NotFound, Validation, ...) and wrap
// everything else with fmt.Errorf("...: %w"). They know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/tagged-snippets/internal/apperror"
	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/repository"
)

// CreateSnippetInput is a new snippet as submitted by a client.
type CreateSnippetInput struct {
	Title    string `json:"title"     validate:"required,max=255"`
	Content  string `json:"content"   validate:"required"`
	TagTitle string `json:"tag_title" validate:"required,max=255"`
}

// UpdateSnippetInput is a partial update. Empty fields keep the stored value.
type UpdateSnippetInput struct {
	Title    string `json:"title"     validate:"omitempty,max=255"`
	Content  string `json:"content"`
	TagTitle string `json:"tag_title" validate:"omitempty,max=255"`
}

// SnippetService handles business logic for snippets.
//
// It needs the tag repository as well: every create, and every update that
// names a tag, resolves the tag title to a row, creating it on first use.
type SnippetService struct {
	snippets repository.SnippetRepository
	tags     repository.TagRepository
	logger   *slog.Logger
}

// NewSnippetService creates a new SnippetService.
func NewSnippetService(snippets repository.SnippetRepository, tags repository.TagRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		tags:     tags,
		logger:   logger,
	}
}

// Create validates the input, resolves (or creates) the tag and stores a
// snippet owned by ownerID. The returned snippet has its tag embedded.
func (s *SnippetService) Create(ctx context.Context, ownerID int64, in CreateSnippetInput) (*model.Snippet, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	tag, err := s.resolveTag(ctx, in.TagTitle)
	if err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:   in.Title,
		Content: in.Content,
		UserID:  ownerID,
		TagID:   tag.ID,
		Tag:     *tag,
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", in.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.Int64("id", snippet.ID),
		slog.Int64("userID", ownerID),
		slog.String("tag", tag.Title),
	)
	return snippet, nil
}

// List returns every snippet regardless of owner, in ascending id order.
func (s *SnippetService) List(ctx context.Context) ([]model.Snippet, error) {
	snippets, err := s.snippets.List(ctx, repository.ListOptions{})
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// Get retrieves a snippet by id.
// Returns apperror.ErrNotFound if the snippet doesn't exist.
func (s *SnippetService) Get(ctx context.Context, id int64) (*model.Snippet, error) {
	// NotFound propagates unlogged; it is an ordinary outcome.
	return s.snippets.GetByID(ctx, id)
}

// Update applies a partial update.
//
// STRATEGY: "Fetch then update". The fetch gives the NotFound error and the
// current values for any field the patch leaves empty.
func (s *SnippetService) Update(ctx context.Context, id int64, in UpdateSnippetInput) (*model.Snippet, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		snippet.Title = in.Title
	}
	if in.Content != "" {
		snippet.Content = in.Content
	}
	if in.TagTitle != "" {
		tag, err := s.resolveTag(ctx, in.TagTitle)
		if err != nil {
			return nil, err
		}
		snippet.TagID = tag.ID
		snippet.Tag = *tag
	}

	if err := s.snippets.Update(ctx, snippet); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// deleted between the fetch and the write
			return nil, err
		}
		s.logger.Error("failed to update snippet",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.Int64("id", snippet.ID))
	return snippet, nil
}

// Delete removes every snippet whose id is listed and returns the snippets
// that remain. Unknown ids are ignored. A nil ids slice means the client
// did not send the field at all, which is a validation error; an empty
// slice deletes nothing.
func (s *SnippetService) Delete(ctx context.Context, ids []int64) ([]model.Snippet, error) {
	if ids == nil {
		return nil, apperror.ValidationFailed("snippet_id", "snippet_id: This field is required.")
	}

	n, err := s.snippets.DeleteMany(ctx, ids)
	if err != nil {
		s.logger.Error("failed to delete snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("deleting snippets: %w", err)
	}
	if n > 0 {
		s.logger.Info("snippets deleted",
			slog.Int64("count", n),
			slog.Any("requested", ids),
		)
	}

	return s.List(ctx)
}

// resolveTag returns the tag with exactly this title, creating it if absent.
//
// Two requests may race to create the same new title. The unique index on
// tags.title lets one insert through; the loser gets ErrConflict and reads
// the winner's row.
func (s *SnippetService) resolveTag(ctx context.Context, title string) (*model.Tag, error) {
	tag, err := s.tags.GetByTitle(ctx, title)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("looking up tag %q: %w", title, err)
	}

	tag = &model.Tag{Title: title}
	err = s.tags.Create(ctx, tag)
	switch {
	case err == nil:
		s.logger.Info("tag created",
			slog.Int64("id", tag.ID),
			slog.String("title", tag.Title),
		)
		return tag, nil
	case errors.Is(err, apperror.ErrConflict):
		tag, err = s.tags.GetByTitle(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("re-reading tag %q after conflict: %w", title, err)
		}
		return tag, nil
	default:
		return nil, fmt.Errorf("creating tag %q: %w", title, err)
	}
}
