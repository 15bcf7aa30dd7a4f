package query

import "strings"

// TokenKind classifies a token.
type TokenKind int

const (
	TokenText TokenKind = iota
	TokenBang
	TokenExclude
	TokenCommand
)

func (k TokenKind) String() string {
	switch k {
	case TokenText:
		return "text"
	case TokenBang:
		return "bang"
	case TokenExclude:
		return "exclude"
	case TokenCommand:
		return "command"
	default:
		return "unknown"
	}
}

// Token is one lexical unit of a query. Start and End are byte offsets into
// the original string, half-open.
type Token struct {
	Kind  TokenKind
	Raw   string
	Value string
	Start int
	End   int
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// Tokenize splits a query into text, bang, exclude and command tokens.
// It never fails: characters that cannot start a token of their kind fall
// back to one-character text tokens.
func Tokenize(query string) []Token {
	var tokens []Token
	n := len(query)

	// peek returns the byte at i, or 0 past the end.
	peek := func(i int) byte {
		if i < n {
			return query[i]
		}
		return 0
	}

	// readName consumes a run of letters starting at i.
	readName := func(i int) int {
		for i < n && isLetter(query[i]) {
			i++
		}
		return i
	}

	emit := func(kind TokenKind, value string, start, end int) {
		tokens = append(tokens, Token{
			Kind:  kind,
			Raw:   query[start:end],
			Value: value,
			Start: start,
			End:   end,
		})
	}

	pos := 0
	for pos < n {
		c := query[pos]
		switch {
		case isSpace(c):
			pos++

		case c == '"':
			closing := strings.IndexByte(query[pos+1:], '"')
			end := n
			value := query[pos+1:]
			if closing >= 0 {
				end = pos + 1 + closing + 1
				value = query[pos+1 : end-1]
			}
			if strings.TrimSpace(value) != "" {
				emit(TokenText, value, pos, end)
			}
			pos = end

		case c == '/' && isLetter(peek(pos+1)):
			end := readName(pos + 1)
			emit(TokenCommand, strings.ToLower(query[pos+1:end]), pos, end)
			pos = end

		case c == '!' && isLetter(peek(pos+1)):
			end := readName(pos + 1)
			emit(TokenBang, strings.ToLower(query[pos+1:end]), pos, end)
			pos = end

		case c == '-' && peek(pos+1) == '!' && isLetter(peek(pos+2)):
			end := readName(pos + 2)
			emit(TokenExclude, strings.ToLower(query[pos+2:end]), pos, end)
			pos = end

		case c == '-' && peek(pos+1) == '/':
			// A negated command means nothing.
			pos += 2

		case c == ',':
			pos++

		default:
			start := pos
			for pos < n {
				b := query[pos]
				if isSpace(b) || b == '"' || b == '!' || b == '/' || b == ',' {
					break
				}
				if b == '-' && (peek(pos+1) == '!' || peek(pos+1) == '/') {
					break
				}
				pos++
			}
			if pos == start {
				// Stray delimiter.
				pos++
				emit(TokenText, query[start:pos], start, pos)
				continue
			}
			if value := strings.TrimSpace(query[start:pos]); value != "" {
				emit(TokenText, value, start, pos)
			}
		}
	}
	return tokens
}
