package query

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Suggestion is an autocomplete candidate for a partially typed bang or
// command name.
type Suggestion struct {
	// Insert is the text to put in the search bar, including its sigil.
	Insert      string `json:"insert"`
	Name        string `json:"name"`
	Short       string `json:"short,omitempty"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

type catalogEntry struct {
	sigil string
	name  string
	short string
	desc  string
	kind  string
}

// catalogSource adapts catalog entries to fuzzy.Source, matching on both the
// canonical name and the short alias.
type catalogSource []catalogEntry

func (c catalogSource) String(i int) string {
	if c[i].short == "" {
		return c[i].name
	}
	return c[i].name + " " + c[i].short
}

func (c catalogSource) Len() int { return len(c) }

func bangEntries(sigil string) catalogSource {
	entries := make(catalogSource, 0, len(bangDefinitions))
	for _, def := range bangDefinitions {
		entries = append(entries, catalogEntry{sigil, string(def.Type), def.Short, def.Description, "bang:" + def.Kind.String()})
	}
	return entries
}

func commandEntries() catalogSource {
	entries := make(catalogSource, 0, len(commandDefinitions))
	for _, def := range commandDefinitions {
		kind := "command"
		if !def.Implemented {
			kind = "command:unimplemented"
		}
		entries = append(entries, catalogEntry{"/", string(def.Type), def.Short, def.Description, kind})
	}
	return entries
}

// Suggest ranks catalog entries for the last word of a partially typed query.
// "!", "-!" and "/" select the bang or command catalog; a bare word searches
// both. Only catalog names are matched here, never tab content.
func Suggest(input string) []Suggestion {
	word := input
	if i := strings.LastIndexAny(input, " \t"); i >= 0 {
		word = input[i+1:]
	}

	var source catalogSource
	var pattern string
	switch {
	case strings.HasPrefix(word, "-!"):
		source, pattern = bangEntries("-!"), word[2:]
	case strings.HasPrefix(word, "!"):
		source, pattern = bangEntries("!"), word[1:]
	case strings.HasPrefix(word, "/"):
		source, pattern = commandEntries(), word[1:]
	default:
		source = append(bangEntries("!"), commandEntries()...)
		pattern = word
	}

	var picked []catalogEntry
	if pattern == "" {
		picked = source
	} else {
		for _, m := range fuzzy.FindFrom(strings.ToLower(pattern), source) {
			picked = append(picked, source[m.Index])
		}
	}

	out := make([]Suggestion, 0, len(picked))
	for _, e := range picked {
		out = append(out, Suggestion{
			Insert:      e.sigil + e.name,
			Name:        e.name,
			Short:       e.short,
			Description: e.desc,
			Kind:        e.kind,
		})
	}
	return out
}
