package engine

import (
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/asheshgoplani/tabdeck/internal/query"
)

// SortResults returns a sorted copy of results. Title and URL compare with
// locale collation; index compares numerically. Ties keep their input order.
func (e *Engine) SortResults(results []Result, key query.SortKey) []Result {
	return SortResults(results, key, e.Collation)
}

// SortResults is the engine-free form of Engine.SortResults.
func SortResults(results []Result, key query.SortKey, tag language.Tag) []Result {
	out := make([]Result, len(results))
	copy(out, results)

	switch key {
	case query.SortTitle, query.SortURL:
		// Collators keep scratch buffers and are not safe to share.
		c := collate.New(tag, collate.IgnoreCase)
		field := func(r Result) string { return r.Tab.Title }
		if key == query.SortURL {
			field = func(r Result) string { return r.Tab.URL }
		}
		slices.SortStableFunc(out, func(a, b Result) int {
			return c.CompareString(field(a), field(b))
		})
	default:
		slices.SortStableFunc(out, func(a, b Result) int {
			return a.Tab.Index - b.Tab.Index
		})
	}
	return out
}
