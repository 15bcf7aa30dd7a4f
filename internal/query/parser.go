package query

import (
	"log/slog"
	"strings"

	"github.com/asheshgoplani/tabdeck/internal/logging"
)

var queryLog = logging.ForComponent(logging.CompQuery)

// BangFilter is a resolved bang.
type BangFilter struct {
	Type     BangType `json:"type"`
	Value    string   `json:"value,omitempty"`
	Negated  bool     `json:"negated"`
	Raw      string   `json:"raw"`
	Position int      `json:"position"`
}

// HasValue reports whether the parser collected a value for the bang.
func (b BangFilter) HasValue() bool {
	return b.Value != ""
}

// ParsedQuery is the structured form of a query string.
type ParsedQuery struct {
	TextTerms []string      `json:"textTerms"`
	Bangs     []BangFilter  `json:"bangs"`
	Commands  []CommandType `json:"commands"`
	Sort      SortKey       `json:"sort"`
	// Errors is reserved for diagnostics; parsing is lenient and never fails.
	Errors []string `json:"errors"`
	Raw    string   `json:"raw"`
}

// IsEmpty reports whether the query carries no terms, bangs or commands.
func (q *ParsedQuery) IsEmpty() bool {
	return len(q.TextTerms) == 0 && len(q.Bangs) == 0 && len(q.Commands) == 0
}

// tokenStream is an indexable cursor over tokens that allows a synthesized
// token to be placed right after the current position.
type tokenStream struct {
	tokens []Token
	pos    int
}

func (s *tokenStream) done() bool { return s.pos >= len(s.tokens) }

func (s *tokenStream) current() Token { return s.tokens[s.pos] }

func (s *tokenStream) advance() { s.pos++ }

// insertNext places tok immediately after the current token.
func (s *tokenStream) insertNext(tok Token) {
	at := s.pos + 1
	s.tokens = append(s.tokens, Token{})
	copy(s.tokens[at+1:], s.tokens[at:])
	s.tokens[at] = tok
}

// Parse turns a query string into a ParsedQuery. Unknown bangs become text
// terms and unknown commands are dropped.
func Parse(input string) *ParsedQuery {
	raw := strings.TrimSpace(input)
	q := &ParsedQuery{
		TextTerms: []string{},
		Bangs:     []BangFilter{},
		Commands:  []CommandType{},
		Sort:      SortIndex,
		Errors:    []string{},
		Raw:       raw,
	}
	if raw == "" {
		return q
	}

	s := &tokenStream{tokens: Tokenize(raw)}
	for !s.done() {
		tok := s.current()
		switch tok.Kind {
		case TokenText:
			q.TextTerms = append(q.TextTerms, splitTerms(tok.Value)...)
			s.advance()

		case TokenBang, TokenExclude:
			def, ok := LookupBang(tok.Value)
			if !ok {
				queryLog.Debug("unknown_bang", slog.String("name", tok.Value))
				q.TextTerms = append(q.TextTerms, tok.Value)
				s.advance()
				continue
			}
			bang := BangFilter{
				Type:     def.Type,
				Negated:  tok.Kind == TokenExclude,
				Raw:      tok.Raw,
				Position: tok.Start,
			}
			s.advance()
			if def.Kind.TakesValue() {
				bang.Value = collectValue(s)
			}
			q.Bangs = append(q.Bangs, bang)

		case TokenCommand:
			if def, ok := LookupCommand(tok.Value); ok {
				q.Commands = append(q.Commands, def.Type)
			} else {
				queryLog.Debug("unknown_command", slog.String("name", tok.Value))
			}
			s.advance()

		default:
			s.advance()
		}
	}

	q.TextTerms = extractSort(q)
	return q
}

// collectValue consumes the text tokens following a value-taking bang. A
// comma ends the value; whatever follows it goes back into the stream as a
// new text token so it can still become a search term.
func collectValue(s *tokenStream) string {
	var parts []string
	for !s.done() {
		tok := s.current()
		if tok.Kind != TokenText {
			break
		}
		idx := strings.IndexByte(tok.Value, ',')
		if idx < 0 {
			parts = append(parts, strings.TrimSpace(tok.Value))
			s.advance()
			continue
		}

		if before := strings.TrimSpace(tok.Value[:idx]); before != "" {
			parts = append(parts, before)
		}
		if rest := tok.Value[idx+1:]; strings.TrimSpace(rest) != "" {
			start := tok.Start + max(strings.Index(tok.Raw, tok.Value), 0) + idx + 1
			s.insertNext(Token{
				Kind:  TokenText,
				Raw:   rest,
				Value: rest,
				Start: start,
				End:   start + len(rest),
			})
		}
		s.advance()
		break
	}
	return strings.Join(parts, " ")
}

// splitTerms splits a text value on commas into trimmed, non-empty terms.
func splitTerms(value string) []string {
	var terms []string
	for _, piece := range strings.Split(value, ",") {
		if piece = strings.TrimSpace(piece); piece != "" {
			terms = append(terms, piece)
		}
	}
	return terms
}

// extractSort removes sort directives from the text terms and records the
// last one seen as the query's sort key.
func extractSort(q *ParsedQuery) []string {
	terms := q.TextTerms[:0]
	for _, term := range q.TextTerms {
		if key, ok := sortDirectives[strings.ToLower(term)]; ok {
			q.Sort = key
			continue
		}
		terms = append(terms, term)
	}
	return terms
}
