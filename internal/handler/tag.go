package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/presenter"
)

// TagService is what TagHandler needs from the service layer.
type TagService interface {
	List(ctx context.Context) ([]model.Tag, error)
	SnippetsByTag(ctx context.Context, tagID int64) ([]model.Snippet, error)
}

// TagHandler serves the read-only tag endpoints.
type TagHandler struct {
	tags       TagService
	trustProxy bool
	logger     *slog.Logger
}

// NewTagHandler creates a new TagHandler. trustProxy has the same meaning
// as for NewSnippetHandler.
func NewTagHandler(tags TagService, trustProxy bool, logger *slog.Logger) *TagHandler {
	return &TagHandler{tags: tags, trustProxy: trustProxy, logger: logger}
}

// HandleList returns every tag.
//
// HTTP: GET /tag/list
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tags, err := h.tags.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presenter.Tags(tags))
}

// HandleSnippets returns the snippets filed under one tag as a bare array.
//
// HTTP: GET /snippet/list_by_tag/{tag_id}
func (h *TagHandler) HandleSnippets(w http.ResponseWriter, r *http.Request) {
	tagID, err := pathID(r, "tag_id", "tag")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	snippets, err := h.tags.SnippetsByTag(r.Context(), tagID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presenter.Snippets(presenter.LinkerFromRequest(r, h.trustProxy), snippets))
}
