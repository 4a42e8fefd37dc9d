package oauth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Tether/internal/core/users"
)

var testNow = time.Unix(1_700_000_000, 0)

type memUserStore struct {
	users     map[string]*users.User
	updateErr error
	writes    int
	mu        sync.Mutex
}

func newMemUserStore(us ...*users.User) *memUserStore {
	s := &memUserStore{users: make(map[string]*users.User)}
	for _, u := range us {
		if u.Providers == nil {
			u.Providers = users.Providers{}
		}
		s.users[u.ID] = u
	}
	return s
}

func (s *memUserStore) GetByID(_ context.Context, id string) (*users.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	cp := *u
	cp.Providers = u.Providers.Clone()
	return &cp, nil
}

func (s *memUserStore) UpdateProviders(_ context.Context, id string, providers users.Providers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	u, ok := s.users[id]
	if !ok {
		return users.ErrUserNotFound
	}
	s.writes++
	u.Providers = providers
	return nil
}

func (s *memUserStore) providers(id string) users.Providers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].Providers
}

type memStateStore struct {
	listErr   error
	createErr error
	records   []*StateRecord
	deleted   []string
	mu        sync.Mutex
}

func (s *memStateStore) Create(_ context.Context, rec *StateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *memStateStore) ListByUserID(_ context.Context, userID, state string) ([]*StateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*StateRecord
	for _, rec := range s.records {
		if rec.UserID == userID && rec.State == state {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memStateStore) Delete(_ context.Context, userID, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, state)
	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.UserID != userID || rec.State != state {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	return nil
}

// fakeProvider serves token, revoke and site endpoints and counts hits per path
type fakeProvider struct {
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
	hits     map[string]*atomic.Int32
}

func newFakeProvider(t *testing.T, handlers map[string]http.HandlerFunc) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{handlers: handlers, hits: make(map[string]*atomic.Int32)}
	for path := range handlers {
		fp.hits[path] = &atomic.Int32{}
	}
	fp.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := fp.handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fp.hits[r.URL.Path].Add(1)
		h(w, r)
	}))
	t.Cleanup(fp.server.Close)
	return fp
}

func (fp *fakeProvider) count(path string) int {
	c, ok := fp.hits[path]
	if !ok {
		return 0
	}
	return int(c.Load())
}

func (fp *fakeProvider) totalHits() int {
	total := 0
	for _, c := range fp.hits {
		total += int(c.Load())
	}
	return total
}

func (fp *fakeProvider) config() ProviderConfig {
	return ProviderConfig{
		ClientID:               "client-id",
		ClientSecret:           "client-secret",
		RedirectURI:            "https://app.example.com/oauth/callback",
		Scope:                  "scope-a scope-b",
		AuthorizationURL:       fp.server.URL + "/authorize",
		TokenURL:               fp.server.URL + "/token",
		RevocationURL:          fp.server.URL + "/revoke",
		AccessibleResourcesURL: fp.server.URL + "/accessible-resources",
	}
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(userStore UserStore, stateStore StateStore, fp *fakeProvider, opts Options) *Service {
	cfg := fp.config()
	opts.Logger = quietLogger()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	return NewService(userStore, stateStore, fp.server.Client(), Providers{
		users.ProviderGoogle: cfg,
		users.ProviderJira:   cfg,
	}, opts)
}
