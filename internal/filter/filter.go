// Package filter evaluates parsed bangs and free-text terms against tabs.
package filter

import (
	"strings"

	"github.com/asheshgoplani/tabdeck/internal/query"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
	"github.com/asheshgoplani/tabdeck/internal/urlutil"
)

// Context is everything a predicate may consult besides the tab itself. It
// is rebuilt from a fresh snapshot for every search.
type Context struct {
	Tabs          []tabs.Tab
	VaultItems    []tabs.VaultItem
	Groups        map[int]tabs.Group
	Scope         tabs.Scope
	DuplicateMap  map[string][]tabs.Tab
	DuplicateMode urlutil.DuplicateMode
	LocalPatterns []string
}

// NewContext indexes groups and duplicate URLs for a snapshot.
func NewContext(all []tabs.Tab, groups []tabs.Group, vault []tabs.VaultItem, scope tabs.Scope, mode urlutil.DuplicateMode, localPatterns []string) *Context {
	return &Context{
		Tabs:          all,
		VaultItems:    vault,
		Groups:        tabs.GroupIndex(groups),
		Scope:         scope,
		DuplicateMap:  urlutil.BuildDuplicateMap(all, mode),
		DuplicateMode: mode,
		LocalPatterns: localPatterns,
	}
}

// TextScope selects the fields free-text terms are matched against.
type TextScope int

const (
	ScopeBoth TextScope = iota
	ScopeTitle
	ScopeURL
)

// Predicate evaluates one bang type against a tab. Bang types without a case
// pass every tab: an unknown filter never hides results.
func Predicate(bang query.BangType, tab tabs.Tab, ctx *Context, value string) bool {
	switch bang {
	case query.BangFrozen:
		return tab.Discarded
	case query.BangAudio:
		return tab.Audible
	case query.BangPin:
		return tab.Pinned
	case query.BangGrouped:
		return tab.HasGroup()
	case query.BangSolo:
		return !tab.HasGroup()
	case query.BangDuplicate:
		return urlutil.IsDuplicate(tab, ctx.DuplicateMap, ctx.DuplicateMode)
	case query.BangLocal:
		return urlutil.IsLocalURL(tab.URL, ctx.LocalPatterns)
	case query.BangIP:
		return urlutil.IsIPAddress(tab.URL)
	case query.BangBrowser:
		return urlutil.IsBrowserURL(tab.URL)
	case query.BangVault:
		return inVault(tab, ctx.VaultItems)
	case query.BangTitle:
		return urlutil.ContainsFold(tab.Title, value)
	case query.BangURL:
		return urlutil.ContainsFold(tab.URL, value)
	case query.BangGroupName:
		g, ok := groupOf(tab, ctx)
		return ok && urlutil.ContainsFold(g.Title, value)
	case query.BangGroupColor:
		g, ok := groupOf(tab, ctx)
		return ok && strings.EqualFold(g.Color, strings.TrimSpace(value))
	default:
		return true
	}
}

func groupOf(tab tabs.Tab, ctx *Context) (tabs.Group, bool) {
	if !tab.HasGroup() || ctx == nil {
		return tabs.Group{}, false
	}
	g, ok := ctx.Groups[tab.GroupID]
	return g, ok
}

func inVault(tab tabs.Tab, items []tabs.VaultItem) bool {
	for _, item := range items {
		if item.TabID != 0 && item.TabID == tab.ID {
			return true
		}
		if item.URL != "" && item.URL == tab.URL {
			return true
		}
	}
	return false
}

// ApplyFilter evaluates a parsed bang, inverting the result when negated.
func ApplyFilter(tab tabs.Tab, bang query.BangFilter, ctx *Context) bool {
	matched := Predicate(bang.Type, tab, ctx, bang.Value)
	if bang.Negated {
		return !matched
	}
	return matched
}

// ApplyAllFilters reports whether the tab passes every bang.
func ApplyAllFilters(tab tabs.Tab, bangs []query.BangFilter, ctx *Context) bool {
	for _, b := range bangs {
		if !ApplyFilter(tab, b, ctx) {
			return false
		}
	}
	return true
}

// ApplyTextSearch requires every term to appear in the fields selected by
// scope. Terms produced by comma splitting are matched the same way, so a
// comma list narrows rather than widens the result. No terms match all tabs.
func ApplyTextSearch(tab tabs.Tab, terms []string, scope TextScope) bool {
	for _, term := range terms {
		if !matchTerm(tab, term, scope) {
			return false
		}
	}
	return true
}

func matchTerm(tab tabs.Tab, term string, scope TextScope) bool {
	switch scope {
	case ScopeTitle:
		return urlutil.ContainsFold(tab.Title, term)
	case ScopeURL:
		return urlutil.ContainsFold(tab.URL, term)
	default:
		return urlutil.ContainsFold(tab.Title, term) || urlutil.ContainsFold(tab.URL, term)
	}
}
