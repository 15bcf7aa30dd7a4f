package vault

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/tabdeck/internal/command"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

// Store has to satisfy the save command's collaborator contracts.
var (
	_ command.VaultWriter  = (*Store)(nil)
	_ command.VaultRemover = (*Store)(nil)
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveListGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := s.SaveTab(ctx, tabs.Tab{ID: 4, Title: "Docs", URL: "https://go.dev/doc"}, "Work")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Work", first.GroupTitle)

	second, err := s.SaveTab(ctx, tabs.Tab{ID: 5, Title: "Blog", URL: "https://go.dev/blog"}, "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID, "newest first")
	assert.Equal(t, first, items[1])

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 3; i++ {
		item, err := s.SaveTab(ctx, tabs.Tab{ID: i, Title: "t", URL: "https://example.com"}, "")
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}

	require.NoError(t, s.RemoveItems(ctx, []string{ids[0], ids[2], "unknown"}))
	require.NoError(t, s.RemoveItems(ctx, nil))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids[1], items[0].ID)
}

func TestReopenKeepsItems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.db")
	ctx := context.Background()

	s1, err := Open(path)
	require.NoError(t, err)
	_, err = s1.SaveTab(ctx, tabs.Tab{ID: 1, Title: "keep", URL: "https://keep.example"}, "")
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	items, err := s2.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "keep", items[0].Title)
}

func TestConcurrentSaves(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SaveTab(ctx, tabs.Tab{ID: i, Title: "c", URL: "https://c.example"}, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestExportImport(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := src.SaveTab(ctx, tabs.Tab{ID: i, Title: "x", URL: "https://x.example"}, "G")
		require.NoError(t, err)
	}
	out := filepath.Join(t.TempDir(), "vault.json")
	n, err := src.Export(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dst := newTestStore(t)
	n, err = dst.Import(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	want, err := src.List(ctx)
	require.NoError(t, err)
	got, err := dst.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, want, got)

	// importing twice overwrites by id
	_, err = dst.Import(ctx, out)
	require.NoError(t, err)
	count, err := dst.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
