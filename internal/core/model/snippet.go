package model

// Snippet is a single text record subject to duplicate analysis. IDs are
// SQLite rowids, stable for the lifetime of the record. Timestamps are Unix
// epoch seconds.
type Snippet struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

// CreateSnippetInput is the payload for creating a new snippet.
type CreateSnippetInput struct {
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

// UpdateSnippetInput is the payload for updating an existing snippet.
type UpdateSnippetInput struct {
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

// Tag is a named label that can be attached to snippets.
type Tag struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}
