package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tok struct {
	kind  TokenKind
	value string
}

func kinds(tokens []Token) []tok {
	out := make([]tok, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, tok{t.Kind, t.Value})
	}
	return out
}

func TestTokenizeBasic(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []tok
	}{
		{"empty", "", []tok{}},
		{"whitespace", "   ", []tok{}},
		{"word", "abc", []tok{{TokenText, "abc"}}},
		{"words", "abc def", []tok{{TokenText, "abc"}, {TokenText, "def"}}},
		{"quoted", `"ab  cd"`, []tok{{TokenText, "ab  cd"}}},
		{"unterminated quote", `"ab cd`, []tok{{TokenText, "ab cd"}}},
		{"empty quote", `""`, []tok{}},
		{"bang", "!audio", []tok{{TokenBang, "audio"}}},
		{"bang folded", "!AuDiO", []tok{{TokenBang, "audio"}}},
		{"exclude", "-!frozen", []tok{{TokenExclude, "frozen"}}},
		{"command", "/Delete", []tok{{TokenCommand, "delete"}}},
		{"negated command skipped", "-/delete", []tok{{TokenText, "delete"}}},
		{"comma alone", ",", []tok{}},
		{"comma list", "a,b , c", []tok{{TokenText, "a"}, {TokenText, "b"}, {TokenText, "c"}}},
		{"stray bang", "! x", []tok{{TokenText, "!"}, {TokenText, "x"}}},
		{"stray slash", "/1", []tok{{TokenText, "/"}, {TokenText, "1"}}},
		{"stray exclude", "-!9", []tok{{TokenText, "-"}, {TokenText, "!"}, {TokenText, "9"}}},
		{"hyphenated word", "foo-bar", []tok{{TokenText, "foo-bar"}}},
		{"adjacent constructs", "news!audio/freeze", []tok{
			{TokenText, "news"}, {TokenBang, "audio"}, {TokenCommand, "freeze"},
		}},
		{"name stops at non-letter", "!gn2", []tok{{TokenBang, "gn"}, {TokenText, "2"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kinds(Tokenize(tt.in)))
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	in := `yt !audio -!frozen "a b" /delete`
	tokens := Tokenize(in)
	require.Len(t, tokens, 5)

	prevEnd := 0
	for _, tk := range tokens {
		assert.GreaterOrEqual(t, tk.Start, prevEnd)
		assert.Greater(t, tk.End, tk.Start)
		assert.Equal(t, in[tk.Start:tk.End], tk.Raw)
		prevEnd = tk.End
	}
	assert.Equal(t, `"a b"`, tokens[3].Raw)
	assert.Equal(t, "a b", tokens[3].Value)
}
