package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sakif/tagged-snippets/internal/apperror"
	"github.com/sakif/tagged-snippets/internal/model"
	"github.com/sakif/tagged-snippets/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written in-memory implementations of the repository interfaces.
// Each fake has error fields so tests can simulate a database failure.

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errDBDown = errors.New("db down")

// fakeUserRepo is keyed by id.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[int64]*model.User
	nextID int64

	getErr         error
	lastLoginErr   error
	lastLoginCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*model.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return apperror.Conflict("user", user.Username)
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.DateJoined = time.Now()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLoginCalls++
	if f.lastLoginErr != nil {
		return f.lastLoginErr
	}
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	now := time.Now()
	u.LastLogin = &now
	return nil
}

func (f *fakeUserRepo) SetActive(_ context.Context, id int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	u.IsActive = active
	return nil
}

// fakeTagRepo keeps tags by id and enforces unique titles.
//
// beforeCreate, when set, runs at the start of Create. Tests use it to
// slip a competing insert in between GetByTitle and Create.
type fakeTagRepo struct {
	mu     sync.Mutex
	tags   map[int64]*model.Tag
	nextID int64

	beforeCreate func()
	createErr    error
	getErr       error
	createCalls  int
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{tags: make(map[int64]*model.Tag)}
}

func (f *fakeTagRepo) insert(title string) *model.Tag {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	t := &model.Tag{ID: f.nextID, Title: title}
	f.tags[t.ID] = t
	return t
}

func (f *fakeTagRepo) Create(_ context.Context, tag *model.Tag) error {
	if f.beforeCreate != nil {
		f.beforeCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	for _, t := range f.tags {
		if t.Title == tag.Title {
			return apperror.Conflict("tag", tag.Title)
		}
	}
	f.nextID++
	tag.ID = f.nextID
	stored := *tag
	f.tags[tag.ID] = &stored
	return nil
}

func (f *fakeTagRepo) GetByID(_ context.Context, id int64) (*model.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tags[id]
	if !ok {
		return nil, apperror.NotFound("tag", id)
	}
	copied := *t
	return &copied, nil
}

func (f *fakeTagRepo) GetByTitle(_ context.Context, title string) (*model.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, t := range f.tags {
		if t.Title == title {
			copied := *t
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("tag", title)
}

func (f *fakeTagRepo) List(_ context.Context) ([]model.Tag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Tag, 0, len(f.tags))
	for _, t := range f.tags {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeSnippetRepo joins against a fakeTagRepo the way SQL would.
type fakeSnippetRepo struct {
	mu       sync.Mutex
	snippets map[int64]*model.Snippet
	nextID   int64
	tags     *fakeTagRepo

	createErr error
	listErr   error
	deleteErr error
}

func newFakeSnippetRepo(tags *fakeTagRepo) *fakeSnippetRepo {
	return &fakeSnippetRepo{snippets: make(map[int64]*model.Snippet), tags: tags}
}

func (f *fakeSnippetRepo) withTag(s model.Snippet) model.Snippet {
	if t, err := f.tags.GetByID(context.Background(), s.TagID); err == nil {
		s.Tag = *t
	}
	return s
}

func (f *fakeSnippetRepo) Create(_ context.Context, s *model.Snippet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	s.ID = f.nextID
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	stored := *s
	f.snippets[s.ID] = &stored
	return nil
}

func (f *fakeSnippetRepo) GetByID(_ context.Context, id int64) (*model.Snippet, error) {
	f.mu.Lock()
	s, ok := f.snippets[id]
	f.mu.Unlock()
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	out := f.withTag(*s)
	return &out, nil
}

func (f *fakeSnippetRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	out := make([]model.Snippet, 0, len(f.snippets))
	for _, s := range f.snippets {
		if opts.TagID > 0 && s.TagID != opts.TagID {
			continue
		}
		out = append(out, *s)
	}
	f.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	for i := range out {
		out[i] = f.withTag(out[i])
	}
	return out, nil
}

func (f *fakeSnippetRepo) Update(_ context.Context, s *model.Snippet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.snippets[s.ID]
	if !ok {
		return apperror.NotFound("snippet", s.ID)
	}
	s.UpdatedAt = time.Now()
	existing.Title = s.Title
	existing.Content = s.Content
	existing.TagID = s.TagID
	existing.UpdatedAt = s.UpdatedAt
	return nil
}

func (f *fakeSnippetRepo) DeleteMany(_ context.Context, ids []int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var n int64
	for _, id := range ids {
		if _, ok := f.snippets[id]; ok {
			delete(f.snippets, id)
			n++
		}
	}
	return n, nil
}
