package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/snipsd/snipsd/internal/core/model"
)

// SQLiteStore implements SnippetStore on a local SQLite database, the same
// backing the original snippet manager used.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (creating if necessary) the database at path and
// applies the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string, logger zerolog.Logger) (*SQLiteStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s': %w", path, err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.applySchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debug().Str("path", path).Msg("snippet store opened")
	return s, nil
}

func (s *SQLiteStore) applySchema() error {
	for _, q := range schemaQueries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListSnippets(ctx context.Context) ([]model.Snippet, error) {
	rows, err := s.db.QueryContext(ctx, listSnippetsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list snippets: %w", err)
	}
	defer rows.Close()

	var snippets []model.Snippet
	for rows.Next() {
		snip, err := scanSnippet(rows)
		if err != nil {
			return nil, err
		}
		snippets = append(snippets, snip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snippets: %w", err)
	}

	if err := s.attachTags(ctx, snippets); err != nil {
		return nil, err
	}
	return snippets, nil
}

func (s *SQLiteStore) GetSnippet(ctx context.Context, id int64) (model.Snippet, error) {
	row := s.db.QueryRowContext(ctx, getSnippetQuery, id)
	snip, err := scanSnippet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snippet{}, ErrNotFound
	}
	if err != nil {
		return model.Snippet{}, err
	}

	tags, err := s.tagsFor(ctx, id)
	if err != nil {
		return model.Snippet{}, err
	}
	snip.Tags = tags
	return snip, nil
}

func (s *SQLiteStore) CreateSnippet(ctx context.Context, in model.CreateSnippetInput) (model.Snippet, error) {
	if err := s.nameAvailable(ctx, in.Name, 0); err != nil {
		return model.Snippet{}, err
	}

	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, insertSnippetQuery,
		in.Name, in.Content, nullString(in.Description), now, now)
	if isUniqueViolation(err) {
		return model.Snippet{}, ErrDuplicateName
	}
	if err != nil {
		return model.Snippet{}, fmt.Errorf("failed to insert snippet: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Snippet{}, fmt.Errorf("failed to read inserted id: %w", err)
	}

	if err := s.setTags(ctx, id, in.Tags); err != nil {
		return model.Snippet{}, err
	}

	return s.GetSnippet(ctx, id)
}

func (s *SQLiteStore) UpdateSnippet(ctx context.Context, id int64, in model.UpdateSnippetInput) (model.Snippet, error) {
	if _, err := s.GetSnippet(ctx, id); err != nil {
		return model.Snippet{}, err
	}
	if err := s.nameAvailable(ctx, in.Name, id); err != nil {
		return model.Snippet{}, err
	}

	now := time.Now().Unix()
	if _, err := s.db.ExecContext(ctx, updateSnippetQuery,
		in.Name, in.Content, nullString(in.Description), now, id); err != nil {
		if isUniqueViolation(err) {
			return model.Snippet{}, ErrDuplicateName
		}
		return model.Snippet{}, fmt.Errorf("failed to update snippet %d: %w", id, err)
	}

	if err := s.setTags(ctx, id, in.Tags); err != nil {
		return model.Snippet{}, err
	}

	return s.GetSnippet(ctx, id)
}

func (s *SQLiteStore) DeleteSnippet(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, deleteSnippetQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete snippet %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx, listTagsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// nameAvailable checks the duplicate-name guard. selfID excludes the snippet
// being renamed from the collision check; pass 0 for creates.
func (s *SQLiteStore) nameAvailable(ctx context.Context, name string, selfID int64) error {
	var existing int64
	err := s.db.QueryRowContext(ctx, snippetExistsByNameQuery, name).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check snippet name: %w", err)
	}
	if existing != selfID {
		return ErrDuplicateName
	}
	return nil
}

// setTags replaces the snippet's tag associations. Tag names are normalized:
// trimmed, lower-cased, empties dropped.
func (s *SQLiteStore) setTags(ctx context.Context, snippetID int64, tags []string) error {
	if _, err := s.db.ExecContext(ctx, clearSnippetTagsQuery, snippetID); err != nil {
		return fmt.Errorf("failed to clear tags for snippet %d: %w", snippetID, err)
	}

	for _, raw := range tags {
		name := normalizeTag(raw)
		if name == "" {
			continue
		}

		var tagID int64
		if err := s.db.QueryRowContext(ctx, getOrCreateTagQuery, name).Scan(&tagID); err != nil {
			return fmt.Errorf("failed to get or create tag '%s': %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, associateTagQuery, snippetID, tagID); err != nil {
			return fmt.Errorf("failed to associate tag '%s': %w", name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) tagsFor(ctx context.Context, snippetID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, tagsForSnippetQuery, snippetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags for snippet %d: %w", snippetID, err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// attachTags loads all tag associations in one pass and attaches them to the
// snapshot in place.
func (s *SQLiteStore) attachTags(ctx context.Context, snippets []model.Snippet) error {
	if len(snippets) == 0 {
		return nil
	}

	rows, err := s.db.QueryContext(ctx, snippetTagsQuery)
	if err != nil {
		return fmt.Errorf("failed to load tag associations: %w", err)
	}
	defer rows.Close()

	bySnippet := make(map[int64][]string)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		bySnippet[id] = append(bySnippet[id], name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range snippets {
		snippets[i].Tags = bySnippet[snippets[i].ID]
	}
	return nil
}

// isUniqueViolation reports whether err is the snippets name index firing.
// The pre-insert name check is not atomic, so a concurrent create or rename
// can slip past it and surface here instead.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}

func normalizeTag(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(r rowScanner) (model.Snippet, error) {
	var snip model.Snippet
	var desc sql.NullString
	if err := r.Scan(&snip.ID, &snip.Name, &snip.Content, &desc, &snip.CreatedAt, &snip.UpdatedAt); err != nil {
		return model.Snippet{}, err
	}
	snip.Description = desc.String
	return snip, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
