// Package urlutil classifies and normalizes tab URLs.
package urlutil

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/asheshgoplani/tabdeck/internal/tabs"
)

// DuplicateMode controls how aggressively URLs are folded together when
// looking for duplicate tabs.
type DuplicateMode string

const (
	// DuplicateLoose ignores case, query string, fragment and trailing slash.
	DuplicateLoose DuplicateMode = "loose"
	// DuplicateStrict keeps path case and the query string; only the scheme
	// and host are case-folded and the fragment dropped.
	DuplicateStrict DuplicateMode = "strict"
)

// ParseDuplicateMode defaults to loose for anything but "strict".
func ParseDuplicateMode(s string) DuplicateMode {
	if strings.EqualFold(strings.TrimSpace(s), string(DuplicateStrict)) {
		return DuplicateStrict
	}
	return DuplicateLoose
}

// NormalizeURL returns the comparison key for raw under mode. Unparseable
// URLs fall back to a trimmed, lower-cased copy in loose mode.
func NormalizeURL(raw string, mode DuplicateMode) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		if mode == DuplicateStrict {
			return strings.TrimRight(raw, "/")
		}
		return strings.TrimRight(strings.ToLower(raw), "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if mode != DuplicateStrict {
		u.RawQuery = ""
		u.ForceQuery = false
	}

	key := u.String()
	if mode != DuplicateStrict {
		key = strings.ToLower(key)
	}
	if u.RawQuery == "" {
		key = strings.TrimRight(key, "/")
	}
	return key
}

// BuildDuplicateMap groups tabs by normalized URL. Tabs without a URL are
// left out. Every entry with two or more tabs is a set of duplicates.
func BuildDuplicateMap(all []tabs.Tab, mode DuplicateMode) map[string][]tabs.Tab {
	m := make(map[string][]tabs.Tab)
	for _, t := range all {
		key := NormalizeURL(t.URL, mode)
		if key == "" {
			continue
		}
		m[key] = append(m[key], t)
	}
	return m
}

// IsDuplicate reports whether tab shares its normalized URL with another tab.
func IsDuplicate(tab tabs.Tab, dup map[string][]tabs.Tab, mode DuplicateMode) bool {
	key := NormalizeURL(tab.URL, mode)
	if key == "" {
		return false
	}
	return len(dup[key]) >= 2
}

// Hostname extracts the host of raw without port or IPv6 brackets.
func Hostname(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// IsIPAddress reports whether the URL's host is a literal IPv4 or IPv6
// address rather than a domain name.
func IsIPAddress(raw string) bool {
	host := Hostname(raw)
	if host == "" {
		return false
	}
	_, err := netip.ParseAddr(host)
	return err == nil
}

// IsLocalURL reports whether raw points at the local machine or a private
// network: localhost, .local/.localhost names, loopback, private and
// link-local addresses, file:// URLs, or any of the extra patterns
// (case-insensitive substrings of the URL).
func IsLocalURL(raw string, patterns []string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "file:") {
		return true
	}
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" && strings.Contains(lower, p) {
			return true
		}
	}

	host := Hostname(raw)
	if host == "" {
		return false
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}

// browserSchemes are the URL schemes of pages rendered by the browser itself.
var browserSchemes = []string{
	"chrome:",
	"chrome-extension:",
	"chrome-search:",
	"chrome-untrusted:",
	"devtools:",
	"about:",
	"edge:",
	"extension:",
	"brave:",
	"opera:",
	"vivaldi:",
	"moz-extension:",
	"resource:",
	"view-source:",
}

// IsBrowserURL reports whether raw is an internal browser page.
func IsBrowserURL(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, scheme := range browserSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// ContainsFold is the substring test used by every text predicate.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
