package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

// exportFile is the JSON layout used by Export and Import.
type exportFile struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Items      []tabs.VaultItem `json:"items"`
}

// Export writes every item to path as JSON.
func (s *Store) Export(ctx context.Context, path string) (int, error) {
	items, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	data, err := json.MarshalIndent(exportFile{
		Version:    SchemaVersion,
		ExportedAt: s.now().UTC(),
		Items:      items,
	}, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("vault: marshal export: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return 0, fmt.Errorf("vault: write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("vault: rename export: %w", err)
	}
	return len(items), nil
}

// Import reads a file produced by Export and inserts its items in a single
// transaction. Items without an id get a fresh one; existing ids are
// overwritten. Items without a URL are skipped.
func (s *Store) Import(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("vault: read import: %w", err)
	}
	var f exportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("vault: parse import: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("vault: begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	n := 0
	for _, item := range f.Items {
		if item.URL == "" {
			continue
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if item.SavedAt.IsZero() {
			item.SavedAt = s.now().UTC()
		}
		if item.Title == "" {
			item.Title = tabs.UntitledTab
		}
		if err := s.insert(ctx, tx, item); err != nil {
			return 0, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("vault: commit import: %w", err)
	}
	return n, nil
}
