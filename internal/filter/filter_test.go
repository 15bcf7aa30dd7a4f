package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/asheshgoplani/tabdeck/internal/query"
	"github.com/asheshgoplani/tabdeck/internal/tabs"
	"github.com/asheshgoplani/tabdeck/internal/urlutil"
)

func fixture() ([]tabs.Tab, *Context) {
	all := []tabs.Tab{
		{ID: 1, Title: "YouTube - Music", URL: "https://youtube.com/watch?v=1", Audible: true, GroupID: 10},
		{ID: 2, Title: "Spotify", URL: "https://spotify.com", Discarded: true, GroupID: tabs.NoGroup},
		{ID: 3, Title: "Router", URL: "http://192.168.1.1/", Pinned: true, GroupID: 11},
		{ID: 4, Title: "Settings", URL: "chrome://settings", GroupID: tabs.NoGroup},
		{ID: 5, Title: "YouTube", URL: "https://youtube.com/watch?v=2", GroupID: 99},
	}
	groups := []tabs.Group{
		{ID: 10, Title: "Media Stuff", Color: "red"},
		{ID: 11, Title: "Infra", Color: "Blue"},
	}
	vault := []tabs.VaultItem{
		{ID: "a", TabID: 2, URL: "https://spotify.com"},
		{ID: "b", URL: "http://192.168.1.1/"},
	}
	return all, NewContext(all, groups, vault, tabs.ScopeAllWindows, urlutil.DuplicateLoose, nil)
}

func TestFrozenAndNegation(t *testing.T) {
	all, ctx := fixture()
	frozen := query.BangFilter{Type: query.BangFrozen}
	notFrozen := query.BangFilter{Type: query.BangFrozen, Negated: true}
	for _, tab := range all {
		assert.Equal(t, tab.Discarded, ApplyFilter(tab, frozen, ctx), tab.Title)
		assert.Equal(t, !tab.Discarded, ApplyFilter(tab, notFrozen, ctx), tab.Title)
	}
}

func TestPredicates(t *testing.T) {
	all, ctx := fixture()
	tests := []struct {
		bang  query.BangType
		value string
		want  []int
	}{
		{query.BangAudio, "", []int{1}},
		{query.BangPin, "", []int{3}},
		{query.BangGrouped, "", []int{1, 3, 5}},
		{query.BangSolo, "", []int{2, 4}},
		{query.BangDuplicate, "", []int{1, 5}},
		{query.BangLocal, "", []int{3}},
		{query.BangIP, "", []int{3}},
		{query.BangBrowser, "", []int{4}},
		{query.BangVault, "", []int{2, 3}},
		{query.BangTitle, "youtube", []int{1, 5}},
		{query.BangURL, "SPOTIFY", []int{2}},
		{query.BangGroupName, "media", []int{1}},
		{query.BangGroupColor, "blue", []int{3}},
		{query.BangGroupColor, "Red ", []int{1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.bang)+"/"+tt.value, func(t *testing.T) {
			got := []int{}
			for _, tab := range all {
				if Predicate(tt.bang, tab, ctx, tt.value) {
					got = append(got, tab.ID)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDuplicatePredicate(t *testing.T) {
	all := []tabs.Tab{
		{ID: 1, URL: "https://example.com/page"},
		{ID: 2, URL: "https://example.com/page/"},
		{ID: 3, URL: "https://example.com/other"},
	}
	ctx := NewContext(all, nil, nil, tabs.ScopeCurrentWindow, urlutil.DuplicateLoose, nil)
	assert.True(t, Predicate(query.BangDuplicate, all[0], ctx, ""))
	assert.True(t, Predicate(query.BangDuplicate, all[1], ctx, ""))
	assert.False(t, Predicate(query.BangDuplicate, all[2], ctx, ""))
}

func TestGroupPredicatesUnknownGroup(t *testing.T) {
	all, ctx := fixture()
	// tab 5 points at a group id that is not in the snapshot
	assert.False(t, Predicate(query.BangGroupName, all[4], ctx, ""))
	assert.False(t, Predicate(query.BangGroupColor, all[4], ctx, "red"))
	assert.False(t, Predicate(query.BangGroupName, all[1], ctx, ""))
}

func TestUnknownBangFailsOpen(t *testing.T) {
	all, ctx := fixture()
	unknown := query.BangFilter{Type: query.BangType("sparkly")}
	for _, tab := range all {
		assert.True(t, ApplyFilter(tab, unknown, ctx))
	}
	unknown.Negated = true
	assert.False(t, ApplyFilter(all[0], unknown, ctx))
}

func TestApplyAllFilters(t *testing.T) {
	all, ctx := fixture()
	bangs := []query.BangFilter{
		{Type: query.BangGrouped},
		{Type: query.BangAudio, Negated: true},
	}
	var got []int
	for _, tab := range all {
		if ApplyAllFilters(tab, bangs, ctx) {
			got = append(got, tab.ID)
		}
	}
	assert.Equal(t, []int{3, 5}, got)
	assert.True(t, ApplyAllFilters(all[0], nil, ctx))
}

func TestApplyTextSearch(t *testing.T) {
	tab := tabs.Tab{Title: "YouTube - Music", URL: "https://youtube.com/watch"}

	assert.True(t, ApplyTextSearch(tab, nil, ScopeBoth))
	assert.True(t, ApplyTextSearch(tab, []string{"music"}, ScopeBoth))
	assert.True(t, ApplyTextSearch(tab, []string{"watch"}, ScopeBoth))
	assert.False(t, ApplyTextSearch(tab, []string{"watch"}, ScopeTitle))
	assert.False(t, ApplyTextSearch(tab, []string{"music"}, ScopeURL))

	// every term has to match, even those that came from a comma list
	assert.True(t, ApplyTextSearch(tab, []string{"youtube", "music"}, ScopeBoth))
	assert.False(t, ApplyTextSearch(tab, []string{"youtube", "spotify"}, ScopeBoth))
}
