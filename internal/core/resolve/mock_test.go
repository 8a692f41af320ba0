package resolve

import (
	"context"
	"sync"

	"github.com/snipsd/snipsd/internal/core/model"
	"github.com/snipsd/snipsd/internal/store"
)

// MockStore is an in-memory SnippetStore with scriptable failures.
type MockStore struct {
	mu sync.Mutex

	Snippets map[int64]model.Snippet

	// FailDeletes maps ids to the error their delete should return.
	FailDeletes map[int64]error
	// UpdateErr, when set, fails every update call.
	UpdateErr error

	DeleteCalls []int64
	UpdateCalls []model.UpdateSnippetInput
}

func NewMockStore(snippets ...model.Snippet) *MockStore {
	m := &MockStore{
		Snippets:    make(map[int64]model.Snippet),
		FailDeletes: make(map[int64]error),
	}
	for _, s := range snippets {
		m.Snippets[s.ID] = s
	}
	return m
}

func (m *MockStore) ListSnippets(ctx context.Context) ([]model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Snippet
	for _, s := range m.Snippets {
		out = append(out, s)
	}
	return out, nil
}

func (m *MockStore) GetSnippet(ctx context.Context, id int64) (model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.Snippets[id]
	if !ok {
		return model.Snippet{}, store.ErrNotFound
	}
	return s, nil
}

func (m *MockStore) CreateSnippet(ctx context.Context, in model.CreateSnippetInput) (model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := int64(len(m.Snippets) + 1)
	s := model.Snippet{ID: id, Name: in.Name, Content: in.Content, Description: in.Description, Tags: in.Tags}
	m.Snippets[id] = s
	return s, nil
}

func (m *MockStore) UpdateSnippet(ctx context.Context, id int64, in model.UpdateSnippetInput) (model.Snippet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls = append(m.UpdateCalls, in)
	if m.UpdateErr != nil {
		return model.Snippet{}, m.UpdateErr
	}
	s, ok := m.Snippets[id]
	if !ok {
		return model.Snippet{}, store.ErrNotFound
	}
	s.Name = in.Name
	s.Content = in.Content
	s.Description = in.Description
	s.Tags = in.Tags
	m.Snippets[id] = s
	return s, nil
}

func (m *MockStore) DeleteSnippet(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	if err, ok := m.FailDeletes[id]; ok {
		return err
	}
	if _, ok := m.Snippets[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.Snippets, id)
	return nil
}

func (m *MockStore) ListTags(ctx context.Context) ([]model.Tag, error) {
	return nil, nil
}

func (m *MockStore) Close() error { return nil }
