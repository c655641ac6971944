package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/repository"
)

// TagService serves the read-only tag endpoints.
type TagService struct {
	tags     repository.TagRepository
	snippets repository.SnippetRepository
	logger   *slog.Logger
}

// NewTagService creates a TagService. It reads snippets too, for the
// per-tag listing.
func NewTagService(tags repository.TagRepository, snippets repository.SnippetRepository, logger *slog.Logger) *TagService {
	return &TagService{tags: tags, snippets: snippets, logger: logger}
}

// List returns every tag in ascending id order.
func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		s.logger.Error("failed to list tags", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// SnippetsByTag returns the snippets filed under tagID.
// Returns apperror.ErrNotFound if the tag doesn't exist.
func (s *TagService) SnippetsByTag(ctx context.Context, tagID int64) ([]model.Snippet, error) {
	if _, err := s.tags.GetByID(ctx, tagID); err != nil {
		return nil, err
	}

	snippets, err := s.snippets.List(ctx, repository.ListOptions{TagID: tagID})
	if err != nil {
		s.logger.Error("failed to list snippets by tag",
			slog.Int64("tagID", tagID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing snippets for tag %d: %w", tagID, err)
	}
	return snippets, nil
}
