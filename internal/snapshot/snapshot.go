// Package snapshot reads the tab snapshot file written by the browser
// extension and applies commands back to it.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/asheshgoplani/tabdeck/internal/logging"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

var snapLog = logging.ForComponent(logging.CompSnapshot)

// ErrNoSnapshot is returned when the snapshot file does not exist yet.
var ErrNoSnapshot = errors.New("snapshot: no snapshot file")

// ErrTabNotFound is returned by actions on a tab id that is not in the file.
var ErrTabNotFound = errors.New("snapshot: tab not found")

// rawTab is a tab as the extension reports it. Optional fields are pointers
// so a missing value can be told apart from a zero one.
type rawTab struct {
	ID         *int    `json:"id,omitempty"`
	Title      *string `json:"title,omitempty"`
	URL        *string `json:"url,omitempty"`
	FavIconURL string  `json:"favIconUrl,omitempty"`
	Active     bool    `json:"active"`
	Discarded  bool    `json:"discarded"`
	Pinned     bool    `json:"pinned,omitempty"`
	Audible    bool    `json:"audible,omitempty"`
	Muted      bool    `json:"muted,omitempty"`
	WindowID   int     `json:"windowId"`
	Index      int     `json:"index"`
	GroupID    *int    `json:"groupId,omitempty"`
}

type rawGroup struct {
	ID        int     `json:"id"`
	Title     *string `json:"title,omitempty"`
	Color     string  `json:"color"`
	Collapsed bool    `json:"collapsed"`
	WindowID  int     `json:"windowId"`
}

// document is the on-disk layout.
type document struct {
	CurrentWindowID int        `json:"current_window_id"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Tabs            []rawTab   `json:"tabs"`
	Groups          []rawGroup `json:"groups"`
}

// Snapshot is a decoded, adapted snapshot.
type Snapshot struct {
	CurrentWindowID int
	UpdatedAt       time.Time
	Tabs            []tabs.Tab
	Groups          []tabs.Group
}

// Source serves a snapshot file as a tab source, group source and action
// sink. Concurrent reads share one decode.
type Source struct {
	path          string
	extensionPage string

	sf      singleflight.Group
	writeMu sync.Mutex
	now     func() time.Time
}

// NewSource returns a Source for path. Tabs whose URL starts with
// extensionPage are hidden; an empty prefix hides nothing.
func NewSource(path, extensionPage string) *Source {
	return &Source{path: path, extensionPage: extensionPage, now: time.Now}
}

// Path is the snapshot file location.
func (s *Source) Path() string {
	return s.path
}

func (s *Source) readDocument() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("snapshot: parse %s: %w", filepath.Base(s.path), err)
	}
	return &doc, nil
}

// Load decodes the snapshot file and applies the adapter rules.
func (s *Source) Load(ctx context.Context) (*Snapshot, error) {
	ch := s.sf.DoChan("load", func() (any, error) {
		doc, err := s.readDocument()
		if err != nil {
			return nil, err
		}
		return s.adapt(doc), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// adapt turns raw records into engine entities: missing titles become
// "Untitled", missing URLs become "", and tabs without an id or showing the
// extension page are dropped.
func (s *Source) adapt(doc *document) *Snapshot {
	snap := &Snapshot{
		CurrentWindowID: doc.CurrentWindowID,
		UpdatedAt:       doc.UpdatedAt,
		Tabs:            make([]tabs.Tab, 0, len(doc.Tabs)),
		Groups:          make([]tabs.Group, 0, len(doc.Groups)),
	}
	skipped := 0
	for _, raw := range doc.Tabs {
		if raw.ID == nil {
			skipped++
			continue
		}
		tab := tabs.Tab{
			ID:         *raw.ID,
			Title:      tabs.UntitledTab,
			FavIconURL: raw.FavIconURL,
			Active:     raw.Active,
			Discarded:  raw.Discarded,
			Pinned:     raw.Pinned,
			Audible:    raw.Audible,
			Muted:      raw.Muted,
			WindowID:   raw.WindowID,
			Index:      raw.Index,
			GroupID:    tabs.NoGroup,
		}
		if raw.Title != nil && *raw.Title != "" {
			tab.Title = *raw.Title
		}
		if raw.URL != nil {
			tab.URL = *raw.URL
		}
		if raw.GroupID != nil {
			tab.GroupID = *raw.GroupID
		}
		if s.extensionPage != "" && strings.HasPrefix(tab.URL, s.extensionPage) {
			skipped++
			continue
		}
		snap.Tabs = append(snap.Tabs, tab)
	}
	for _, raw := range doc.Groups {
		g := tabs.Group{
			ID:        raw.ID,
			Color:     raw.Color,
			Collapsed: raw.Collapsed,
			WindowID:  raw.WindowID,
			Tabs:      []tabs.Tab{},
		}
		if raw.Title != nil {
			g.Title = *raw.Title
		}
		snap.Groups = append(snap.Groups, g)
	}
	if skipped > 0 {
		snapLog.Debug("tabs_skipped", slog.Int("count", skipped))
	}
	return snap
}

// inScope reports whether a record in windowID is visible under scope. A
// snapshot without a current window shows everything.
func inScope(scope tabs.Scope, current, windowID int) bool {
	return scope == tabs.ScopeAllWindows || current == 0 || windowID == current
}

// QueryTabs implements tabs.TabSource.
func (s *Source) QueryTabs(ctx context.Context, scope tabs.Scope) ([]tabs.Tab, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]tabs.Tab, 0, len(snap.Tabs))
	for _, t := range snap.Tabs {
		if inScope(scope, snap.CurrentWindowID, t.WindowID) {
			out = append(out, t)
		}
	}
	return out, nil
}

// QueryGroups implements tabs.GroupSource.
func (s *Source) QueryGroups(ctx context.Context, scope tabs.Scope) ([]tabs.Group, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]tabs.Group, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		if inScope(scope, snap.CurrentWindowID, g.WindowID) {
			out = append(out, g)
		}
	}
	return out, nil
}

// RemoveTabs implements tabs.ActionSink. Every id must be present; on error
// the file is left untouched.
func (s *Source) RemoveTabs(ctx context.Context, ids []int) error {
	remove := make(map[int]bool, len(ids))
	for _, id := range ids {
		remove[id] = true
	}
	return s.update(ctx, func(doc *document) error {
		found := 0
		kept := doc.Tabs[:0]
		for _, raw := range doc.Tabs {
			if raw.ID != nil && remove[*raw.ID] {
				found++
				continue
			}
			kept = append(kept, raw)
		}
		if found != len(remove) {
			return fmt.Errorf("%w: %d of %d ids missing", ErrTabNotFound, len(remove)-found, len(remove))
		}
		doc.Tabs = kept
		reindex(doc.Tabs)
		return nil
	})
}

// DiscardTab implements tabs.ActionSink. Active tabs cannot be discarded.
func (s *Source) DiscardTab(ctx context.Context, id int) error {
	return s.update(ctx, func(doc *document) error {
		for i := range doc.Tabs {
			raw := &doc.Tabs[i]
			if raw.ID == nil || *raw.ID != id {
				continue
			}
			if raw.Active {
				return fmt.Errorf("snapshot: tab %d is active", id)
			}
			raw.Discarded = true
			raw.Audible = false
			return nil
		}
		return fmt.Errorf("%w: %d", ErrTabNotFound, id)
	})
}

// reindex renumbers tab positions per window after removals.
func reindex(raw []rawTab) {
	next := make(map[int]int)
	for i := range raw {
		raw[i].Index = next[raw[i].WindowID]
		next[raw[i].WindowID]++
	}
}

// update applies fn to the document under the write lock and rewrites the
// file atomically.
func (s *Source) update(ctx context.Context, fn func(*document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	doc.UpdatedAt = s.now().UTC()
	return s.write(doc)
}

func (s *Source) write(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("snapshot: write temp: %w", err)
	}
	_ = tmp.Sync()
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("snapshot: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// Write replaces the snapshot file with the given state. The extension
// bridge and tests use it to publish a new snapshot.
func (s *Source) Write(snap *Snapshot) error {
	doc := &document{
		CurrentWindowID: snap.CurrentWindowID,
		UpdatedAt:       snap.UpdatedAt,
		Tabs:            make([]rawTab, 0, len(snap.Tabs)),
		Groups:          make([]rawGroup, 0, len(snap.Groups)),
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = s.now().UTC()
	}
	for _, t := range snap.Tabs {
		id, title, url, group := t.ID, t.Title, t.URL, t.GroupID
		doc.Tabs = append(doc.Tabs, rawTab{
			ID: &id, Title: &title, URL: &url, FavIconURL: t.FavIconURL,
			Active: t.Active, Discarded: t.Discarded, Pinned: t.Pinned,
			Audible: t.Audible, Muted: t.Muted,
			WindowID: t.WindowID, Index: t.Index, GroupID: &group,
		})
	}
	for _, g := range snap.Groups {
		title := g.Title
		doc.Groups = append(doc.Groups, rawGroup{
			ID: g.ID, Title: &title, Color: g.Color, Collapsed: g.Collapsed, WindowID: g.WindowID,
		})
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("snapshot: mkdir: %w", err)
	}
	return s.write(doc)
}
