package store

// Schema statements, applied in order on startup. Matches the original
// snippet-manager layout: snippets plus a normalized tag association table.
var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS snippets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		description TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		color TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS snippet_tags (
		snippet_id INTEGER NOT NULL REFERENCES snippets(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (snippet_id, tag_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_snippets_name ON snippets(name)`,
	`CREATE INDEX IF NOT EXISTS idx_snippet_tags_tag ON snippet_tags(tag_id)`,
}

const (
	selectSnippetColumns = `id, name, content, description, created_at, updated_at`

	listSnippetsQuery = `
		SELECT ` + selectSnippetColumns + `
		FROM snippets
		ORDER BY id`

	getSnippetQuery = `
		SELECT ` + selectSnippetColumns + `
		FROM snippets
		WHERE id = ?`

	snippetExistsByNameQuery = `SELECT id FROM snippets WHERE name = ?`

	insertSnippetQuery = `
		INSERT INTO snippets (name, content, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	updateSnippetQuery = `
		UPDATE snippets
		SET name = ?, content = ?, description = ?, updated_at = ?
		WHERE id = ?`

	deleteSnippetQuery = `DELETE FROM snippets WHERE id = ?`

	listTagsQuery = `SELECT id, name, COALESCE(color, '') FROM tags ORDER BY name`

	getOrCreateTagQuery = `
		INSERT INTO tags (name)
		VALUES (?)
		ON CONFLICT(name) DO UPDATE SET name = excluded.name
		RETURNING id`

	associateTagQuery = `
		INSERT OR IGNORE INTO snippet_tags (snippet_id, tag_id)
		VALUES (?, ?)`

	clearSnippetTagsQuery = `DELETE FROM snippet_tags WHERE snippet_id = ?`

	snippetTagsQuery = `
		SELECT st.snippet_id, t.name
		FROM snippet_tags st
		JOIN tags t ON t.id = st.tag_id
		ORDER BY st.snippet_id, t.name`

	tagsForSnippetQuery = `
		SELECT t.name
		FROM snippet_tags st
		JOIN tags t ON t.id = st.tag_id
		WHERE st.snippet_id = ?
		ORDER BY t.name`
)
