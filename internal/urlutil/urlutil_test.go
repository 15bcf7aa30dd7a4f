package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		raw  string
		mode DuplicateMode
		want string
	}{
		{"https://example.com/page", DuplicateLoose, "https://example.com/page"},
		{"https://example.com/page/", DuplicateLoose, "https://example.com/page"},
		{"https://Example.com/Page", DuplicateLoose, "https://example.com/page"},
		{"https://example.com/page?q=1#top", DuplicateLoose, "https://example.com/page"},
		{"https://Example.com/Page?q=1#top", DuplicateStrict, "https://example.com/Page?q=1"},
		{"https://example.com/a/", DuplicateStrict, "https://example.com/a"},
		{"  ", DuplicateLoose, ""},
		{"not a url/", DuplicateLoose, "not a url"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.raw, tt.mode), "%s (%s)", tt.raw, tt.mode)
	}
}

func TestBuildDuplicateMapLoose(t *testing.T) {
	all := []tabs.Tab{
		{ID: 1, URL: "https://example.com/page"},
		{ID: 2, URL: "https://example.com/page/"},
		{ID: 3, URL: "https://Example.com/Page"},
		{ID: 4, URL: "https://other.org"},
		{ID: 5, URL: ""},
	}
	m := BuildDuplicateMap(all, DuplicateLoose)
	require.Len(t, m, 2)
	assert.Len(t, m["https://example.com/page"], 3)

	assert.True(t, IsDuplicate(all[0], m, DuplicateLoose))
	assert.True(t, IsDuplicate(all[2], m, DuplicateLoose))
	assert.False(t, IsDuplicate(all[3], m, DuplicateLoose))
	assert.False(t, IsDuplicate(all[4], m, DuplicateLoose))
}

func TestBuildDuplicateMapStrict(t *testing.T) {
	all := []tabs.Tab{
		{ID: 1, URL: "https://example.com/search?q=go"},
		{ID: 2, URL: "https://example.com/search?q=rust"},
		{ID: 3, URL: "https://example.com/search?q=go#results"},
	}
	m := BuildDuplicateMap(all, DuplicateStrict)
	assert.Len(t, m, 2)
	assert.Len(t, m["https://example.com/search?q=go"], 2)
	assert.Len(t, m["https://example.com/search?q=rust"], 1)

	loose := BuildDuplicateMap(all, DuplicateLoose)
	assert.Len(t, loose, 1)
}

func TestParseDuplicateMode(t *testing.T) {
	assert.Equal(t, DuplicateStrict, ParseDuplicateMode("STRICT"))
	assert.Equal(t, DuplicateLoose, ParseDuplicateMode(""))
	assert.Equal(t, DuplicateLoose, ParseDuplicateMode("whatever"))
}

func TestIsIPAddress(t *testing.T) {
	yes := []string{
		"http://192.168.1.10/admin",
		"https://8.8.8.8",
		"http://[::1]:8080/",
		"http://[2001:db8::1]/x",
	}
	no := []string{
		"https://example.com",
		"http://localhost:3000",
		"",
		"chrome://settings",
		"https://1.2.3.4.example.com",
	}
	for _, u := range yes {
		assert.True(t, IsIPAddress(u), u)
	}
	for _, u := range no {
		assert.False(t, IsIPAddress(u), u)
	}
}

func TestIsLocalURL(t *testing.T) {
	yes := []string{
		"http://localhost:3000",
		"http://app.localhost/",
		"http://printer.local/status",
		"http://127.0.0.1:8080",
		"http://10.0.0.5",
		"http://172.20.1.1",
		"http://192.168.0.1",
		"http://169.254.10.10",
		"http://0.0.0.0:9000",
		"http://[::1]/",
		"http://[fd00::1]/",
		"file:///home/user/notes.html",
	}
	no := []string{
		"https://example.com",
		"http://8.8.8.8",
		"http://172.32.0.1",
		"",
		"about:blank",
	}
	for _, u := range yes {
		assert.True(t, IsLocalURL(u, nil), u)
	}
	for _, u := range no {
		assert.False(t, IsLocalURL(u, nil), u)
	}

	assert.True(t, IsLocalURL("https://dev.corp.internal/wiki", []string{".INTERNAL"}))
	assert.False(t, IsLocalURL("https://example.com", []string{"", "  "}))
}

func TestIsBrowserURL(t *testing.T) {
	for _, u := range []string{"chrome://settings", "about:blank", "edge://flags", "chrome-extension://abc/popup.html", "moz-extension://x", "brave://rewards", "view-source:https://a.b"} {
		assert.True(t, IsBrowserURL(u), u)
	}
	for _, u := range []string{"https://chrome.google.com", "", "file:///tmp"} {
		assert.False(t, IsBrowserURL(u), u)
	}
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("YouTube - Music", "music"))
	assert.True(t, ContainsFold("anything", ""))
	assert.False(t, ContainsFold("spotify", "youtube"))
}
