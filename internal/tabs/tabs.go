// Package tabs holds the browser entities the query engine consumes and the
// contracts of the collaborators that supply and mutate them.
package tabs

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NoGroup is the group id carried by tabs that are not in a tab group.
const NoGroup = -1

// UntitledTab is the title given to tabs that report none.
const UntitledTab = "Untitled"

// Tab is a browser tab as seen by the engine.
type Tab struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	FavIconURL string `json:"favIconUrl,omitempty"`
	Active     bool   `json:"active"`
	Discarded  bool   `json:"discarded"`
	Pinned     bool   `json:"pinned"`
	Audible    bool   `json:"audible"`
	Muted      bool   `json:"muted"`
	WindowID   int    `json:"windowId"`
	Index      int    `json:"index"`
	GroupID    int    `json:"groupId"`
}

// HasGroup reports whether the tab belongs to a tab group.
func (t Tab) HasGroup() bool {
	return t.GroupID != NoGroup
}

// Group is a named, colored collection of tabs. Tabs is always empty when the
// group comes from a GroupSource: the engine only needs id, title and color.
type Group struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Color     string `json:"color"`
	Collapsed bool   `json:"collapsed"`
	WindowID  int    `json:"windowId"`
	Tabs      []Tab  `json:"tabs"`
}

// VaultItem is a tab persisted outside the live browser session.
type VaultItem struct {
	ID         string    `json:"id"`
	TabID      int       `json:"tabId"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	FavIconURL string    `json:"favIconUrl,omitempty"`
	GroupTitle string    `json:"groupTitle,omitempty"`
	SavedAt    time.Time `json:"savedAt"`
}

// Scope selects which windows a query or command acts on.
type Scope string

const (
	ScopeCurrentWindow Scope = "current-window"
	ScopeAllWindows    Scope = "all-windows"
)

// ParseScope accepts the canonical scope names plus a few short forms.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "current", "current-window", "window":
		return ScopeCurrentWindow, nil
	case "all", "all-windows", "global":
		return ScopeAllWindows, nil
	}
	return "", fmt.Errorf("unknown scope %q (want current-window or all-windows)", s)
}

// TabSource enumerates the tabs visible in a scope.
type TabSource interface {
	QueryTabs(ctx context.Context, scope Scope) ([]Tab, error)
}

// GroupSource enumerates the tab groups visible in a scope.
type GroupSource interface {
	QueryGroups(ctx context.Context, scope Scope) ([]Group, error)
}

// ActionSink applies the bulk mutations issued by commands.
type ActionSink interface {
	RemoveTabs(ctx context.Context, ids []int) error
	DiscardTab(ctx context.Context, id int) error
}

// GroupIndex maps group ids to groups.
func GroupIndex(groups []Group) map[int]Group {
	idx := make(map[int]Group, len(groups))
	for _, g := range groups {
		idx[g.ID] = g
	}
	return idx
}
