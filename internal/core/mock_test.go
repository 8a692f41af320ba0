package core

import (
	"context"
	"sync"

	"github.com/snipsd/snipsd/internal/core/model"
	"github.com/snipsd/snipsd/internal/store"
)

// mockStore is a minimal in-memory SnippetStore for session tests.
type mockStore struct {
	mu          sync.Mutex
	snippets    map[int64]model.Snippet
	failDeletes map[int64]error
	updateErr   error
	updateCalls []model.UpdateSnippetInput
	deleteCalls int

	// blockDeletes, when set, stalls every delete until the channel is
	// closed, simulating a hung store.
	blockDeletes chan struct{}
}

func newMockStore(snippets ...model.Snippet) *mockStore {
	m := &mockStore{
		snippets:    make(map[int64]model.Snippet),
		failDeletes: make(map[int64]error),
	}
	for _, s := range snippets {
		m.snippets[s.ID] = s
	}
	return m
}

func (m *mockStore) ListSnippets(ctx context.Context) ([]model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Snippet
	for _, s := range m.snippets {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockStore) GetSnippet(ctx context.Context, id int64) (model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snippets[id]
	if !ok {
		return model.Snippet{}, store.ErrNotFound
	}
	return s, nil
}

func (m *mockStore) CreateSnippet(ctx context.Context, in model.CreateSnippetInput) (model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.snippets) + 1)
	s := model.Snippet{ID: id, Name: in.Name, Content: in.Content, Tags: in.Tags}
	m.snippets[id] = s
	return s, nil
}

func (m *mockStore) UpdateSnippet(ctx context.Context, id int64, in model.UpdateSnippetInput) (model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls = append(m.updateCalls, in)
	if m.updateErr != nil {
		return model.Snippet{}, m.updateErr
	}
	s, ok := m.snippets[id]
	if !ok {
		return model.Snippet{}, store.ErrNotFound
	}
	s.Name = in.Name
	s.Content = in.Content
	s.Tags = in.Tags
	m.snippets[id] = s
	return s, nil
}

func (m *mockStore) DeleteSnippet(ctx context.Context, id int64) error {
	if m.blockDeletes != nil {
		<-m.blockDeletes
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if err, ok := m.failDeletes[id]; ok {
		return err
	}
	if _, ok := m.snippets[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.snippets, id)
	return nil
}

func (m *mockStore) ListTags(ctx context.Context) ([]model.Tag, error) { return nil, nil }

func (m *mockStore) Close() error { return nil }
