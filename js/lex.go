package js

import (
	"bytes"
	"unicode"

	"github.com/tdewolff/parse/v2"
)

// lexer splits JavaScript into tokens, it skips whitespace and comments. It is told by its caller whether a slash is a division and whether a closing brace continues a template literal.
type lexer struct {
	r         *parse.Input
	errorFunc ErrorFunc

	lineStart bool // no token since the last line terminator
	newline   bool // line terminator before the current token
	skipped   int  // number of whitespace and comment bytes before the current token
	ident     bool // current token is an identifier or keyword
	number    bool // current token is a numeric literal
	dotless   bool // current token is a numeric literal without decimal point
	regexp    bool // current token is a regular expression literal
}

func newLexer(r *parse.Input, errorFunc ErrorFunc) *lexer {
	return &lexer{
		r:         r,
		errorFunc: errorFunc,
		lineStart: true,
	}
}

// Next returns the next token. It returns ErrorToken at the end of the input, in which case skipped holds the number of trailing bytes.
func (l *lexer) Next(div, templateTail bool) (TokenType, []byte) {
	l.newline = false
	l.ident = false
	l.number = false
	l.dotless = false
	l.regexp = false
	l.skipWhitespace()
	l.skipped = len(l.r.Shift())
	l.lineStart = false

	c := l.r.Peek(0)
	switch c {
	case 0:
		if l.r.Err() != nil {
			return ErrorToken, nil
		}
	case '\'', '"':
		l.consumeStringToken()
		return LiteralToken, l.r.Shift()
	case '`':
		if l.consumeTemplateToken() {
			return TemplateHeadToken, l.r.Shift()
		}
		return LiteralToken, l.r.Shift()
	case '}':
		if templateTail {
			if l.consumeTemplateToken() {
				return TemplateMiddleToken, l.r.Shift()
			}
			return TemplateEndToken, l.r.Shift()
		}
	case '/':
		if !div {
			l.consumeRegExpToken()
			l.regexp = true
			return LiteralToken, l.r.Shift()
		}
	case '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		l.consumeNumericToken()
		return LiteralToken, l.r.Shift()
	case '.':
		if c := l.r.Peek(1); '0' <= c && c <= '9' {
			l.consumeNumericToken()
			return LiteralToken, l.r.Shift()
		}
	case '#':
		l.r.Move(1)
		l.consumeIdentifierToken()
		l.ident = true
		return LiteralToken, l.r.Shift()
	}

	if tt, ok := l.consumePunctuatorToken(); ok {
		return tt, l.r.Shift()
	} else if l.consumeIdentifierToken() {
		l.ident = true
		return LiteralToken, l.r.Shift()
	}

	// unknown character
	l.r.MoveRune()
	return LiteralToken, l.r.Shift()
}

func (l *lexer) error(offset int, message string) {
	if l.errorFunc != nil {
		err := parse.NewError(bytes.NewBuffer(l.r.Bytes()), offset, message)
		l.errorFunc(&Error{
			Message: err.Message,
			Offset:  offset,
			Line:    err.Line,
			Column:  err.Column,
			Context: err.Context,
		})
	}
}

func (l *lexer) eof() bool {
	return l.r.Peek(0) == 0 && l.r.Err() != nil
}

////////////////////////////////////////////////////////////////

func (l *lexer) skipWhitespace() {
	for {
		if l.consumeWhitespace() {
			continue
		} else if l.consumeLineTerminator() {
			l.newline = true
			l.lineStart = true
			continue
		}

		c := l.r.Peek(0)
		if c == '#' && l.r.Peek(1) == '!' && l.r.Offset() == 0 {
			// hashbang
			l.consumeSingleLineComment()
		} else if c == '/' && l.r.Peek(1) == '/' {
			l.consumeSingleLineComment()
		} else if c == '/' && l.r.Peek(1) == '*' {
			l.consumeMultiLineComment()
		} else if c == '<' && l.r.Peek(1) == '!' && l.r.Peek(2) == '-' && l.r.Peek(3) == '-' {
			l.consumeSingleLineComment()
		} else if l.lineStart && c == '-' && l.r.Peek(1) == '-' && l.r.Peek(2) == '>' {
			l.consumeSingleLineComment()
		} else {
			return
		}
	}
}

func (l *lexer) consumeWhitespace() bool {
	c := l.r.Peek(0)
	if c == ' ' || c == '\t' || c == '\v' || c == '\f' {
		l.r.Move(1)
		return true
	} else if 0xC0 <= c {
		if r, n := l.r.PeekRune(0); r == '\u00A0' || r == '\uFEFF' || unicode.Is(unicode.Zs, r) {
			l.r.Move(n)
			return true
		}
	}
	return false
}

func (l *lexer) consumeLineTerminator() bool {
	c := l.r.Peek(0)
	if c == '\n' {
		l.r.Move(1)
		return true
	} else if c == '\r' {
		if l.r.Peek(1) == '\n' {
			l.r.Move(2)
		} else {
			l.r.Move(1)
		}
		return true
	} else if c == 0xE2 && l.r.Peek(1) == 0x80 && (l.r.Peek(2) == 0xA8 || l.r.Peek(2) == 0xA9) {
		l.r.Move(3)
		return true
	}
	return false
}

func (l *lexer) atLineTerminator() bool {
	c := l.r.Peek(0)
	return c == '\n' || c == '\r' || c == 0xE2 && l.r.Peek(1) == 0x80 && (l.r.Peek(2) == 0xA8 || l.r.Peek(2) == 0xA9)
}

func (l *lexer) consumeSingleLineComment() {
	for !l.atLineTerminator() && !l.eof() {
		l.r.Move(1)
	}
}

func (l *lexer) consumeMultiLineComment() {
	start := l.r.Offset()
	l.r.Move(2)
	for {
		if l.r.Peek(0) == '*' && l.r.Peek(1) == '/' {
			l.r.Move(2)
			return
		} else if l.eof() {
			l.error(start, "unterminated comment")
			return
		} else if l.consumeLineTerminator() {
			l.newline = true
			l.lineStart = true
		} else {
			l.r.Move(1)
		}
	}
}

////////////////////////////////////////////////////////////////

func (l *lexer) consumeDigits() bool {
	if c := l.r.Peek(0); c < '0' || '9' < c {
		return false
	}
	for {
		if c := l.r.Peek(0); '0' <= c && c <= '9' || c == '_' {
			l.r.Move(1)
		} else {
			return true
		}
	}
}

func (l *lexer) consumeRadixDigits(radix byte) bool {
	n := 0
	for {
		c := l.r.Peek(0)
		if c == '_' && 0 < n {
			l.r.Move(1)
			continue
		}
		var d byte
		if '0' <= c && c <= '9' {
			d = c - '0'
		} else if 'a' <= c && c <= 'f' {
			d = c - 'a' + 10
		} else if 'A' <= c && c <= 'F' {
			d = c - 'A' + 10
		} else {
			return 0 < n
		}
		if radix <= d {
			return 0 < n
		}
		l.r.Move(1)
		n++
	}
}

func (l *lexer) consumeNumericToken() {
	// assume to be on 0 1 2 3 4 5 6 7 8 9 or . followed by a digit
	start := l.r.Offset()
	l.number = true
	l.dotless = true
	if l.r.Peek(0) == '0' {
		radix := byte(0)
		switch l.r.Peek(1) {
		case 'x', 'X':
			radix = 16
		case 'o', 'O':
			radix = 8
		case 'b', 'B':
			radix = 2
		}
		if radix != 0 {
			l.r.Move(2)
			if !l.consumeRadixDigits(radix) {
				if radix == 16 {
					l.error(start, "missing hexadecimal digits")
				} else {
					l.error(start, "missing digits")
				}
			}
			if l.r.Peek(0) == 'n' {
				l.r.Move(1)
			}
			return
		}
	}

	l.consumeDigits()
	if l.r.Peek(0) == '.' {
		l.r.Move(1)
		l.dotless = false
		l.consumeDigits()
		if l.r.Peek(0) == '.' {
			if c := l.r.Peek(1); '0' <= c && c <= '9' {
				l.error(l.r.Offset(), "too many decimal points")
			}
		}
	}
	if c := l.r.Peek(0); c == 'e' || c == 'E' {
		l.r.Move(1)
		if c := l.r.Peek(0); c == '+' || c == '-' {
			l.r.Move(1)
		}
		if !l.consumeDigits() {
			l.error(start, "missing exponent digits")
		}
	} else if l.dotless && l.r.Peek(0) == 'n' {
		l.r.Move(1)
	}
}

func (l *lexer) consumeStringToken() {
	// assume to be on ' or "
	start := l.r.Offset()
	delim := l.r.Peek(0)
	l.r.Move(1)
	for {
		c := l.r.Peek(0)
		if c == delim {
			l.r.Move(1)
			return
		} else if c == '\\' {
			l.r.Move(1)
			if !l.consumeLineTerminator() && !l.eof() {
				l.r.MoveRune()
			}
			continue
		} else if l.eof() {
			l.error(start, "unterminated string literal")
			return
		}
		l.r.Move(1)
	}
}

// consumeTemplateToken consumes a template literal from its start, or its continuation from a closing brace. It returns true if it stopped at a substitution.
func (l *lexer) consumeTemplateToken() bool {
	// assume to be on ` or }
	start := l.r.Offset()
	l.r.Move(1)
	for {
		c := l.r.Peek(0)
		if c == '`' {
			l.r.Move(1)
			return false
		} else if c == '$' && l.r.Peek(1) == '{' {
			l.r.Move(2)
			return true
		} else if c == '\\' {
			l.r.Move(1)
			if !l.eof() {
				l.r.MoveRune()
			}
			continue
		} else if l.eof() {
			l.error(start, "unterminated template literal")
			return false
		}
		l.r.Move(1)
	}
}

func (l *lexer) consumeRegExpToken() {
	// assume to be on /
	start := l.r.Offset()
	l.r.Move(1)
	inClass := false
	for {
		c := l.r.Peek(0)
		if !inClass && c == '/' {
			l.r.Move(1)
			break
		} else if c == '[' {
			inClass = true
		} else if c == ']' {
			inClass = false
		} else if c == '\\' {
			l.r.Move(1)
			if l.atLineTerminator() || l.eof() {
				l.error(start, "unterminated regular expression literal")
				return
			}
			l.r.MoveRune()
			continue
		} else if l.atLineTerminator() || l.eof() {
			l.error(start, "unterminated regular expression literal")
			return
		}
		l.r.Move(1)
	}
	for identifierTable[l.r.Peek(0)] {
		l.r.Move(1)
	}
}

func (l *lexer) consumePunctuatorToken() (TokenType, bool) {
	c := l.r.Peek(0)
	if !punctuatorTable[c] {
		return ErrorToken, false
	}

	n := 1
	for n < maxPunctuatorLen && punctuatorTable[l.r.Peek(n)] {
		n++
	}
	b := l.r.Bytes()[l.r.Offset():]
	for ; 0 < n; n-- {
		if tt, ok := punctuators[string(b[:n])]; ok {
			if n == 2 && b[0] == '?' && b[1] == '.' {
				if c := l.r.Peek(2); '0' <= c && c <= '9' {
					// conditional followed by a decimal number
					continue
				}
			}
			l.r.Move(n)
			return tt, true
		}
	}
	return ErrorToken, false
}

func (l *lexer) consumeIdentifierToken() bool {
	n := 0
	for {
		c := l.r.Peek(0)
		if c == '\\' {
			l.consumeUnicodeEscape()
		} else if identifierTable[c] && c < 0x80 {
			l.r.Move(1)
		} else if 0x80 <= c && !l.eof() {
			if r, size := l.r.PeekRune(0); r == '\u00A0' || r == '\uFEFF' || r == '\u2028' || r == '\u2029' || unicode.Is(unicode.Zs, r) {
				return 0 < n
			} else {
				l.r.Move(size)
			}
		} else {
			return 0 < n
		}
		n++
	}
}

// consumeUnicodeEscape consumes \uXXXX or \u{X...} inside an identifier. Malformed escapes are consumed up to the first unexpected byte.
func (l *lexer) consumeUnicodeEscape() {
	// assume to be on \
	l.r.Move(1)
	if l.r.Peek(0) != 'u' {
		if !l.eof() {
			l.r.Move(1)
		}
		return
	}
	l.r.Move(1)
	if l.r.Peek(0) == '{' {
		l.r.Move(1)
		for hexTable[l.r.Peek(0)] {
			l.r.Move(1)
		}
		if l.r.Peek(0) == '}' {
			l.r.Move(1)
		}
		return
	}
	for i := 0; i < 4 && hexTable[l.r.Peek(0)]; i++ {
		l.r.Move(1)
	}
}

var identifierTable [256]bool
var punctuatorTable [256]bool
var hexTable [256]bool

func init() {
	for c := 0; c < 256; c++ {
		identifierTable[c] = 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c == '$' || c == '_' || c == '\\' || 0x80 <= c
		hexTable[c] = '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
	}
	for p := range punctuators {
		for i := 0; i < len(p); i++ {
			punctuatorTable[p[i]] = true
		}
	}
}
