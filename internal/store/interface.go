package store

import (
	"context"
	"errors"

	"github.com/snipsd/snipsd/internal/core/model"
)

var (
	// ErrNotFound is returned when the requested snippet does not exist.
	ErrNotFound = errors.New("snippet not found")
	// ErrDuplicateName is returned when creating or renaming a snippet
	// would collide with an existing name.
	ErrDuplicateName = errors.New("snippet name already exists")
)

// SnippetStore is the narrow persistence contract the dedupe engine depends
// on. The engine only ever reads snapshots and issues deletes and updates;
// mutation safety and durability are the store's responsibility.
type SnippetStore interface {
	ListSnippets(ctx context.Context) ([]model.Snippet, error)
	GetSnippet(ctx context.Context, id int64) (model.Snippet, error)
	CreateSnippet(ctx context.Context, in model.CreateSnippetInput) (model.Snippet, error)
	UpdateSnippet(ctx context.Context, id int64, in model.UpdateSnippetInput) (model.Snippet, error)
	DeleteSnippet(ctx context.Context, id int64) error
	ListTags(ctx context.Context) ([]model.Tag, error)
	Close() error
}
