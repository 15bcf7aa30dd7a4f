package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		q := Parse(in)
		assert.Empty(t, q.TextTerms)
		assert.Empty(t, q.Bangs)
		assert.Empty(t, q.Commands)
		assert.Empty(t, q.Errors)
		assert.Equal(t, SortIndex, q.Sort)
		assert.True(t, q.IsEmpty())
	}
}

func TestParseTextTerms(t *testing.T) {
	q := Parse("youtube, music")
	assert.Contains(t, q.TextTerms, "youtube")
	assert.Contains(t, q.TextTerms, "music")
	assert.Empty(t, q.Bangs)

	q = Parse(`"hello, world" plain`)
	assert.Equal(t, []string{"hello", "world", "plain"}, q.TextTerms)

	q = Parse("  spaced   words  ")
	assert.Equal(t, "spaced   words", q.Raw)
	assert.Equal(t, []string{"spaced", "words"}, q.TextTerms)
}

func TestParseBooleanBangs(t *testing.T) {
	q := Parse("!audio")
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, BangAudio, q.Bangs[0].Type)
	assert.False(t, q.Bangs[0].Negated)
	assert.False(t, q.Bangs[0].HasValue())

	q = Parse("-!frozen")
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, BangFrozen, q.Bangs[0].Type)
	assert.True(t, q.Bangs[0].Negated)
	assert.Equal(t, "-!frozen", q.Bangs[0].Raw)
}

func TestParseBooleanBangDoesNotEatText(t *testing.T) {
	q := Parse("!pin docs")
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, BangPin, q.Bangs[0].Type)
	assert.Empty(t, q.Bangs[0].Value)
	assert.Equal(t, []string{"docs"}, q.TextTerms)
}

func TestParseShortAliasesCaseInsensitive(t *testing.T) {
	q := Parse("!A !P -!D !GN work")
	require.Len(t, q.Bangs, 4)
	assert.Equal(t, BangAudio, q.Bangs[0].Type)
	assert.Equal(t, BangPin, q.Bangs[1].Type)
	assert.Equal(t, BangDuplicate, q.Bangs[2].Type)
	assert.True(t, q.Bangs[2].Negated)
	assert.Equal(t, BangGroupName, q.Bangs[3].Type)
	assert.Equal(t, "work", q.Bangs[3].Value)
}

func TestParseTextScopeValue(t *testing.T) {
	q := Parse("!t hello world")
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, BangTitle, q.Bangs[0].Type)
	assert.Equal(t, "hello world", q.Bangs[0].Value)
	assert.Empty(t, q.TextTerms)
}

func TestParseValueStopsAtNextBang(t *testing.T) {
	q := Parse("!gn my work !audio news")
	require.Len(t, q.Bangs, 2)
	assert.Equal(t, "my work", q.Bangs[0].Value)
	assert.Equal(t, BangAudio, q.Bangs[1].Type)
	assert.Equal(t, []string{"news"}, q.TextTerms)
}

func TestParseValueStopsAtCommand(t *testing.T) {
	q := Parse("!gc red/delete")
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, "red", q.Bangs[0].Value)
	assert.Equal(t, []CommandType{CommandDelete}, q.Commands)
}

func TestParseValueWithoutText(t *testing.T) {
	q := Parse("!gn")
	require.Len(t, q.Bangs, 1)
	assert.False(t, q.Bangs[0].HasValue())
}

func TestParseValueCommaRemainderBecomesTerm(t *testing.T) {
	q := Parse(`!gn "work,github" docs`)
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, "work", q.Bangs[0].Value)
	assert.Equal(t, []string{"github", "docs"}, q.TextTerms)

	q = Parse(`!u "example, foo, bar"`)
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, "example", q.Bangs[0].Value)
	assert.Equal(t, []string{"foo", "bar"}, q.TextTerms)
}

func TestParseValueCommaStopsCollection(t *testing.T) {
	q := Parse(`!gn alpha "beta," gamma`)
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, "alpha beta", q.Bangs[0].Value)
	assert.Equal(t, []string{"gamma"}, q.TextTerms)
}

func TestParseUnknownBangFallsBackToText(t *testing.T) {
	q := Parse("!xyz")
	assert.Empty(t, q.Bangs)
	assert.Contains(t, q.TextTerms, "xyz")

	q = Parse("-!nope other")
	assert.Empty(t, q.Bangs)
	assert.Equal(t, []string{"nope", "other"}, q.TextTerms)
}

func TestParseCommands(t *testing.T) {
	q := Parse("/delete /s /F")
	assert.Equal(t, []CommandType{CommandDelete, CommandSave, CommandFreeze}, q.Commands)
	assert.Empty(t, q.TextTerms)

	q = Parse("/bogus foo")
	assert.Empty(t, q.Commands)
	assert.Equal(t, []string{"foo"}, q.TextTerms)

	q = Parse("/ug /g")
	assert.Equal(t, []CommandType{CommandUngroup, CommandGroup}, q.Commands)
}

func TestParseNegatedCommandIgnored(t *testing.T) {
	q := Parse("-/delete news")
	assert.Empty(t, q.Commands)
	assert.Equal(t, []string{"delete", "news"}, q.TextTerms)
}

func TestParseBangImmediatelyFollowedByCommand(t *testing.T) {
	q := Parse("!frozen/delete")
	require.Len(t, q.Bangs, 1)
	assert.Equal(t, BangFrozen, q.Bangs[0].Type)
	assert.Equal(t, []CommandType{CommandDelete}, q.Commands)
}

func TestParseSortDirective(t *testing.T) {
	tests := []struct {
		in   string
		want SortKey
	}{
		{"news sort:title", SortTitle},
		{"news sort:alpha", SortTitle},
		{"news SORT:URL", SortURL},
		{"sort:url sort:index", SortIndex},
		{"news", SortIndex},
	}
	for _, tt := range tests {
		q := Parse(tt.in)
		assert.Equal(t, tt.want, q.Sort, tt.in)
		for _, term := range q.TextTerms {
			assert.NotContains(t, term, "sort:", tt.in)
		}
	}

	q := Parse("sort:title")
	assert.Empty(t, q.TextTerms)
	assert.True(t, q.IsEmpty())
}

func TestParseMixed(t *testing.T) {
	q := Parse("youtube !audio -!frozen /freeze sort:url")
	assert.Equal(t, []string{"youtube"}, q.TextTerms)
	require.Len(t, q.Bangs, 2)
	assert.Equal(t, BangAudio, q.Bangs[0].Type)
	assert.Equal(t, BangFrozen, q.Bangs[1].Type)
	assert.True(t, q.Bangs[1].Negated)
	assert.Equal(t, []CommandType{CommandFreeze}, q.Commands)
	assert.Equal(t, SortURL, q.Sort)
	assert.Less(t, q.Bangs[0].Position, q.Bangs[1].Position)
}

func TestParseNeverReportsErrors(t *testing.T) {
	for _, in := range []string{`"unterminated`, "!", "/", "-!", "-/", ",,,", "!1", "a-!b-/c", `""`} {
		q := Parse(in)
		assert.Empty(t, q.Errors, in)
	}
}
