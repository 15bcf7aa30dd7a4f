// Package vault persists saved tabs in a local SQLite database.
package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/asheshgoplani/tabdeck/internal/logging"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

var vaultLog = logging.ForComponent(logging.CompVault)

// SchemaVersion tracks the current database schema version.
const SchemaVersion = 1

// ErrNotFound is returned when an item id is not in the vault.
var ErrNotFound = errors.New("vault: item not found")

// Store is a SQLite-backed vault. Safe for concurrent use; several processes
// may share the file through WAL mode and the busy timeout.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the vault at dbPath and runs migrations.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("vault: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("vault: open: %w", err)
	}
	// busy_timeout is per connection; one connection keeps it applied and
	// serializes writers inside this process.
	db.SetMaxOpenConns(1)

	pragmas := []struct{ name, stmt string }{
		{"wal mode", "PRAGMA journal_mode=WAL"},
		{"busy timeout", "PRAGMA busy_timeout=5000"},
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p.stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("vault: %s: %w", p.name, err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Migrate creates the tables if they don't exist.
func (s *Store) Migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("vault: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("vault: create metadata: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS items (
			id          TEXT PRIMARY KEY,
			tab_id      INTEGER NOT NULL DEFAULT 0,
			title       TEXT NOT NULL,
			url         TEXT NOT NULL,
			favicon_url TEXT NOT NULL DEFAULT '',
			group_title TEXT NOT NULL DEFAULT '',
			saved_at    INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("vault: create items: %w", err)
	}

	if _, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_items_url ON items(url)`); err != nil {
		return fmt.Errorf("vault: create url index: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT OR REPLACE INTO metadata (key, value) VALUES ('schema_version', ?)
	`, fmt.Sprintf("%d", SchemaVersion)); err != nil {
		return fmt.Errorf("vault: set schema version: %w", err)
	}

	return tx.Commit()
}

// SaveTab stores a copy of tab and returns the new item.
func (s *Store) SaveTab(ctx context.Context, tab tabs.Tab, groupTitle string) (tabs.VaultItem, error) {
	item := tabs.VaultItem{
		ID:         uuid.NewString(),
		TabID:      tab.ID,
		Title:      tab.Title,
		URL:        tab.URL,
		FavIconURL: tab.FavIconURL,
		GroupTitle: groupTitle,
		SavedAt:    s.now().UTC().Truncate(time.Second),
	}
	if err := s.insert(ctx, s.db, item); err != nil {
		return tabs.VaultItem{}, err
	}
	vaultLog.Debug("item_saved", slog.String("id", item.ID), slog.Int("tab_id", tab.ID))
	return item, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insert(ctx context.Context, db execer, item tabs.VaultItem) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR REPLACE INTO items (id, tab_id, title, url, favicon_url, group_title, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.TabID, item.Title, item.URL, item.FavIconURL, item.GroupTitle, item.SavedAt.Unix())
	if err != nil {
		return fmt.Errorf("vault: save item: %w", err)
	}
	return nil
}

// RemoveItems deletes the given ids in one transaction. Unknown ids are
// ignored.
func (s *Store) RemoveItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	q := "DELETE FROM items WHERE id IN (" + strings.Join(placeholders, ",") + ")"
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("vault: remove items: %w", err)
	}
	n, _ := res.RowsAffected()
	vaultLog.Debug("items_removed", slog.Int("requested", len(ids)), slog.Int64("removed", n))
	return nil
}

// Get returns one item by id.
func (s *Store) Get(ctx context.Context, id string) (tabs.VaultItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, tab_id, title, url, favicon_url, group_title, saved_at
		FROM items WHERE id = ?
	`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return tabs.VaultItem{}, ErrNotFound
	}
	if err != nil {
		return tabs.VaultItem{}, fmt.Errorf("vault: get item: %w", err)
	}
	return item, nil
}

// List returns every item, newest first.
func (s *Store) List(ctx context.Context) ([]tabs.VaultItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tab_id, title, url, favicon_url, group_title, saved_at
		FROM items ORDER BY saved_at DESC, rowid DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("vault: list items: %w", err)
	}
	defer rows.Close()

	items := []tabs.VaultItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("vault: scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&n); err != nil {
		return 0, fmt.Errorf("vault: count: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(sc scanner) (tabs.VaultItem, error) {
	var item tabs.VaultItem
	var savedUnix int64
	if err := sc.Scan(&item.ID, &item.TabID, &item.Title, &item.URL, &item.FavIconURL, &item.GroupTitle, &savedUnix); err != nil {
		return tabs.VaultItem{}, err
	}
	item.SavedAt = time.Unix(savedUnix, 0).UTC()
	return item, nil
}
