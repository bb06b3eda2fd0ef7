package javascan

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokTextBlock
	tokChar
	tokNumber
	tokPunct
)

type tok struct {
	kind tokenKind
	text string // identifier, punctuation, or decoded string value
	pos  token.Position
}

func (t tok) is(kind tokenKind, text string) bool {
	return t.kind == kind && t.text == text
}

// lexer splits Java source into the tokens the scanner cares about.
// Comments and whitespace are dropped; literals are kept whole so their
// contents never look like declarations.
type lexer struct {
	src  string
	file string
	off  int
	line int
	col  int
}

func newLexer(file string, src []byte) *lexer {
	s := string(src)
	s = strings.TrimPrefix(s, "\ufeff")
	return &lexer{src: s, file: file, line: 1, col: 1}
}

func (l *lexer) pos() token.Position {
	return token.Position{Filename: l.file, Offset: l.off, Line: l.line, Column: l.col}
}

func (l *lexer) errorf(pos token.Position, format string, args ...any) error {
	return fmt.Errorf("%s: %s", pos, fmt.Sprintf(format, args...))
}

func (l *lexer) peekRune() rune {
	if l.off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.src[l.off:], s)
}

func (l *lexer) skip(n int) {
	for range n {
		l.advance()
	}
}

func (l *lexer) next() (tok, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return tok{}, err
	}
	start := l.pos()
	if l.off >= len(l.src) {
		return tok{kind: tokEOF, pos: start}, nil
	}

	r := l.peekRune()
	switch {
	case isIdentStart(r):
		begin := l.off
		for l.off < len(l.src) && isIdentPart(l.peekRune()) {
			l.advance()
		}
		return tok{kind: tokIdent, text: l.src[begin:l.off], pos: start}, nil

	case r >= '0' && r <= '9':
		begin := l.off
		for l.off < len(l.src) {
			c := l.peekRune()
			if c != '.' && c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
				break
			}
			l.advance()
		}
		return tok{kind: tokNumber, text: l.src[begin:l.off], pos: start}, nil

	case l.hasPrefix(`"""`):
		l.skip(3)
		end := strings.Index(l.src[l.off:], `"""`)
		for end > 0 && l.src[l.off+end-1] == '\\' {
			next := strings.Index(l.src[l.off+end+1:], `"""`)
			if next < 0 {
				end = -1
				break
			}
			end += next + 1
		}
		if end < 0 {
			return tok{}, l.errorf(start, "unterminated text block")
		}
		text := l.src[l.off : l.off+end]
		l.skip(utf8.RuneCountInString(text) + 3)
		return tok{kind: tokTextBlock, text: text, pos: start}, nil

	case r == '"' || r == '\'':
		l.advance()
		var raw strings.Builder
		for {
			if l.off >= len(l.src) {
				return tok{}, l.errorf(start, "unterminated literal")
			}
			c := l.advance()
			if c == '\n' {
				return tok{}, l.errorf(start, "newline in literal")
			}
			if c == r {
				break
			}
			raw.WriteRune(c)
			if c == '\\' && l.off < len(l.src) {
				raw.WriteRune(l.advance())
			}
		}
		value, err := unescape(raw.String())
		if err != nil {
			return tok{}, l.errorf(start, "%v", err)
		}
		kind := tokString
		if r == '\'' {
			kind = tokChar
		}
		return tok{kind: kind, text: value, pos: start}, nil
	}

	l.advance()
	return tok{kind: tokPunct, text: string(r), pos: start}, nil
}

func (l *lexer) skipSpaceAndComments() error {
	for l.off < len(l.src) {
		switch {
		case unicode.IsSpace(l.peekRune()):
			l.advance()
		case l.hasPrefix("//"):
			for l.off < len(l.src) && l.peekRune() != '\n' {
				l.advance()
			}
		case l.hasPrefix("/*"):
			start := l.pos()
			l.skip(2)
			end := strings.Index(l.src[l.off:], "*/")
			if end < 0 {
				return l.errorf(start, "unterminated comment")
			}
			l.skip(utf8.RuneCountInString(l.src[l.off:l.off+end]) + 2)
		default:
			return nil
		}
	}
	return nil
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// unescape decodes the escape sequences of a Java string literal body.
func unescape(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("trailing backslash in literal")
		}
		switch e := s[i]; e {
		case 'b':
			b.WriteByte('\b')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'f':
			b.WriteByte('\f')
		case 'r':
			b.WriteByte('\r')
		case 's':
			b.WriteByte(' ')
		case '"', '\'', '\\':
			b.WriteByte(e)
		case 'u':
			r, n, err := unicodeEscape(s[i-1:])
			if err != nil {
				return "", err
			}
			if utf16.IsSurrogate(r) {
				if r2, n2, err := unicodeEscape(s[i-1+n:]); err == nil {
					if pair := utf16.DecodeRune(r, r2); pair != unicode.ReplacementChar {
						r = pair
						n += n2
					}
				}
			}
			i += n - 2
			b.WriteRune(r)
		default:
			if e < '0' || e > '7' {
				return "", fmt.Errorf("unknown escape \\%c", e)
			}
			// octal: up to three digits, value at most \377
			j := i
			for j < len(s) && j-i < 3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			if j-i == 3 && s[i] > '3' {
				j--
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 8)
			b.WriteRune(rune(n))
			i = j - 1
		}
	}
	return b.String(), nil
}

// unicodeEscape decodes a \uXXXX escape (any number of u's) at the start of
// s and returns the rune and the number of bytes consumed.
func unicodeEscape(s string) (rune, int, error) {
	if !strings.HasPrefix(s, `\u`) {
		return 0, 0, fmt.Errorf("not a unicode escape")
	}
	i := 1
	for i < len(s) && s[i] == 'u' {
		i++
	}
	if i+4 > len(s) {
		return 0, 0, fmt.Errorf("short unicode escape")
	}
	n, err := strconv.ParseUint(s[i:i+4], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad unicode escape %q", s[:i+4])
	}
	return rune(n), i + 4, nil
}
