// Package presenter turns domain entities into the JSON payloads the API
// returns. It is the only place that knows the wire field names.
package presenter

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/tagged-snippets/internal/model"
)

// Linker builds absolute URLs pointing back at this server.
type Linker struct {
	Scheme string // "http" or "https"
	Host   string // host[:port] as the client addressed it
}

// LinkerFromRequest derives the scheme and host the client used.
//
// The scheme is https when the connection itself is TLS. Behind a reverse
// proxy that terminates TLS the connection is plain, so when trustProxy is
// set X-Forwarded-Proto is honoured as well. Never trust that header on a
// server reachable directly by clients.
func LinkerFromRequest(r *http.Request, trustProxy bool) Linker {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if trustProxy {
		if proto := r.Header.Get("X-Forwarded-Proto"); strings.EqualFold(proto, "https") {
			scheme = "https"
		}
	}
	return Linker{Scheme: scheme, Host: r.Host}
}

// SnippetDetail returns the absolute detail URL for snippet id.
func (l Linker) SnippetDetail(id int64) string {
	return fmt.Sprintf("%s://%s/snippet/detail/%d", l.Scheme, l.Host, id)
}

// TagView is the tag payload.
type TagView struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// SnippetView is the snippet payload. The embedded tag keeps the key
// "tag_id" that existing clients read.
type SnippetView struct {
	ID                int64     `json:"id"`
	Tag               TagView   `json:"tag_id"`
	SnippetDetailLink string    `json:"snippet_detail_link"`
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	UserID            int64     `json:"user_id"`
}

// SnippetList is the body of GET /snippet/list.
type SnippetList struct {
	Count   int           `json:"count"`
	Results []SnippetView `json:"results"`
}

// Tag renders a single tag.
func Tag(t model.Tag) TagView {
	return TagView{ID: t.ID, Title: t.Title}
}

// Tags never returns nil, so an empty list encodes as [].
func Tags(tags []model.Tag) []TagView {
	out := make([]TagView, len(tags))
	for i, t := range tags {
		out[i] = Tag(t)
	}
	return out
}

// Snippet renders s with its embedded tag and a detail link built by l.
func Snippet(l Linker, s *model.Snippet) SnippetView {
	return SnippetView{
		ID:                s.ID,
		Tag:               Tag(s.Tag),
		SnippetDetailLink: l.SnippetDetail(s.ID),
		Title:             s.Title,
		Content:           s.Content,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
		UserID:            s.UserID,
	}
}

// Snippets never returns nil, so an empty list encodes as [].
func Snippets(l Linker, snippets []model.Snippet) []SnippetView {
	out := make([]SnippetView, len(snippets))
	for i := range snippets {
		out[i] = Snippet(l, &snippets[i])
	}
	return out
}

// List wraps snippets in the {count, results} envelope used by
// /snippet/list.
func List(l Linker, snippets []model.Snippet) SnippetList {
	views := Snippets(l, snippets)
	return SnippetList{Count: len(views), Results: views}
}
