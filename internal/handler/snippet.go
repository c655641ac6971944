package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/tagged-snippets/internal/apperror"
	"github.com/sakif/tagged-snippets/internal/auth"
	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/presenter"
	"github.com/sakif/tagged-snippets/internal/service"
)

// SnippetService is what SnippetHandler needs from the service layer.
// Declaring it here, at the consumer, lets tests pass a fake.
type SnippetService interface {
	Create(ctx context.Context, ownerID int64, in service.CreateSnippetInput) (*model.Snippet, error)
	List(ctx context.Context) ([]model.Snippet, error)
	Get(ctx context.Context, id int64) (*model.Snippet, error)
	Update(ctx context.Context, id int64, in service.UpdateSnippetInput) (*model.Snippet, error)
	Delete(ctx context.Context, ids []int64) ([]model.Snippet, error)
}

// SnippetHandler manages CRUD operations for snippets.
// Every route it serves sits behind auth.RequireAuth.
type SnippetHandler struct {
	snippets   SnippetService
	trustProxy bool
	logger     *slog.Logger
}

// NewSnippetHandler creates a new SnippetHandler. trustProxy controls
// whether X-Forwarded-Proto is honoured when building detail links.
func NewSnippetHandler(snippets SnippetService, trustProxy bool, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, trustProxy: trustProxy, logger: logger}
}

func (h *SnippetHandler) linker(r *http.Request) presenter.Linker {
	return presenter.LinkerFromRequest(r, h.trustProxy)
}

// HandleCreate saves a new snippet owned by the caller.
//
// HTTP: POST /snippet/create
// REQUEST BODY: {"title": "Apple", "content": "red", "tag_title": "fruit"}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthenticated("Authentication credentials were not provided."))
		return
	}

	var in service.CreateSnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, presenter.Snippet(h.linker(r), snippet))
}

// HandleList returns every snippet as {"count": n, "results": [...]}.
//
// HTTP: GET /snippet/list
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presenter.List(h.linker(r), snippets))
}

// HandleDetail returns one snippet.
//
// HTTP: GET /snippet/detail/{id}
func (h *SnippetHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "snippet")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	snippet, err := h.snippets.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presenter.Snippet(h.linker(r), snippet))
}

// HandleUpdate applies a partial update.
//
// HTTP: PATCH /snippet/update/{id}
// REQUEST BODY: any subset of {"title", "content", "tag_title"}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "snippet")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var in service.UpdateSnippetInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	snippet, err := h.snippets.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, presenter.Snippet(h.linker(r), snippet))
}

type deleteRequest struct {
	// nil when the field is absent or null, empty when the client sent []
	SnippetIDs []int64 `json:"snippet_id"`
}

// HandleDelete removes the listed snippets.
//
// HTTP: DELETE /snippet/delete
// REQUEST BODY: {"snippet_id": [1, 2, 3]}
//
// Answers 204 No Content. The service returns the remaining snippets, but
// a 204 carries no body, so they are dropped here.
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.snippets.Delete(r.Context(), req.SnippetIDs); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pathID parses a positive integer URL parameter. Anything else is
// reported as NotFound: /snippet/detail/abc names no snippet.
func pathID(r *http.Request, param, resource string) (int64, error) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, raw)
	}
	return id, nil
}
