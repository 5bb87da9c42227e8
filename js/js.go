// Package js minifies JavaScript by removing whitespace and comments, without parsing it into an AST.
package js

import (
	"fmt"
	"io"

	"github.com/tdewolff/parse/v2"
)

var (
	newlineBytes = []byte("\n")
	spaceBytes   = []byte(" ")
)

// Error is a recoverable anomaly found while scanning, such as a malformed numeric literal or an unterminated string.
type Error struct {
	Message string
	Offset  int // byte offset in the source
	Line    int
	Column  int
	Context string // the line at which the anomaly occurred
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s on line %d and column %d", e.Message, e.Line, e.Column)
}

// ErrorFunc is called synchronously for every anomaly, minification continues afterwards.
type ErrorFunc func(*Error)

// Mapper receives the progress through the source and output, and is implemented by source map generators.
// For each token, OutputSpace is called with the separator, ConsumeSource with the skipped whitespace and comments, OutputToken with the token, and ConsumeSource with the token length.
type Mapper interface {
	ConsumeSource(int)
	OutputSpace([]byte)
	OutputToken([]byte)
}

////////////////////////////////////////////////////////////////

// DefaultMinifier is the default minifier.
var DefaultMinifier = &Minifier{}

// Minifier is a JS minifier.
type Minifier struct {
	MaxLineLength int // soft limit, lines are only broken where the source has a line break
}

// Minify minifies JS data, it reads from r and writes to w.
func Minify(w io.Writer, r io.Reader) error {
	return DefaultMinifier.Minify(w, r)
}

// Minify minifies JS data, it reads from r and writes to w.
func (o *Minifier) Minify(w io.Writer, r io.Reader) error {
	z := parse.NewInput(r)
	defer z.Restore()

	if err := z.Err(); err != nil && err != io.EOF {
		return err
	}
	return o.minify(w, z, nil, nil)
}

// MinifySource minifies src and writes to w. The mapper and errorFunc may be nil.
func (o *Minifier) MinifySource(w io.Writer, src []byte, m Mapper, errorFunc ErrorFunc) error {
	z := parse.NewInputBytes(src)
	defer z.Restore()

	return o.minify(w, z, m, errorFunc)
}

func (o *Minifier) minify(w io.Writer, z *parse.Input, m Mapper, errorFunc ErrorFunc) error {
	s := &jsMinifier{
		o:     o,
		w:     w,
		m:     m,
		l:     newLexer(z, errorFunc),
		state: statementState,
	}
	return s.run()
}

////////////////////////////////////////////////////////////////

type jsMinifier struct {
	o *Minifier
	w io.Writer
	m Mapper
	l *lexer

	state state
	stack []state

	prev        byte // last byte written
	prevDotless bool
	prevNumber  bool
	prevRegexp  bool
	lineLen     int
}

func (s *jsMinifier) run() error {
	for {
		div := divStates[s.state.abs()]
		templateTail := 0 < len(s.stack) && s.stack[len(s.stack)-1].abs() == templateTailState
		lexTT, text := s.l.Next(div, templateTail)
		if lexTT == ErrorToken {
			if s.m != nil {
				s.m.ConsumeSource(s.l.skipped)
			}
			return nil
		}

		forced := false
		tt, a := lexTT, action{}
		switch lexTT {
		case TemplateMiddleToken:
			s.state = s.state.withSign(parenExprState)
		case TemplateEndToken:
			s.pop()
			// the resume state is missing when the stack was full
			s.state = s.state.withSign(parenValueState)
			s.pop()
		default:
			tt, a = classify(s.state, lexTT, text, s.l.ident)
			if s.l.newline && asiTable[s.state.abs()][tt] {
				forced = true
				s.state = s.state.withSign(asiReset[s.state.abs()])
				tt, a = classify(s.state, lexTT, text, s.l.ident)
			}
		}

		if err := s.write(s.separator(tt, text, forced), text); err != nil {
			return err
		}

		if tt == TemplateHeadToken {
			if a.push == noState {
				a.push = s.state
			}
			a.goTo = s.state.withSign(parenExprState)
			s.transition(a)
			s.push(s.state.withSign(templateTailState))
		} else {
			s.transition(a)
		}

		s.prevDotless = s.l.dotless
		s.prevNumber = s.l.number
		s.prevRegexp = s.l.regexp
	}
}

func (s *jsMinifier) push(t state) {
	if len(s.stack) < maxStackDepth {
		s.stack = append(s.stack, t)
	}
}

func (s *jsMinifier) pop() {
	if 0 < len(s.stack) {
		s.state = s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
	}
}

// transition pushes before it pops, and a pop takes precedence over a goto.
func (s *jsMinifier) transition(a action) {
	if a.push != noState {
		s.push(a.push)
	}
	if a.pop {
		s.pop()
	} else if a.goTo != noState {
		s.state = a.goTo
	}
}

// separator returns the bytes to write between the previous and the current token.
func (s *jsMinifier) separator(tt TokenType, text []byte, forced bool) []byte {
	first := text[0]
	if s.prev == 0 {
		return nil
	} else if forced {
		return newlineBytes
	} else if 0 < s.o.MaxLineLength && s.o.MaxLineLength < s.lineLen+len(text) && s.l.newline && tt != ArrowToken && !isIncrDecr(tt, text) {
		return newlineBytes
	} else if isIdentifierByte(s.prev) && isIdentifierByte(first) {
		return spaceBytes
	} else if s.prev == first && (first == '+' || first == '-' || first == '/') {
		return spaceBytes
	} else if s.prevDotless && tt == DotToken && len(text) == 1 {
		return spaceBytes
	} else if s.prev == '<' && first == '!' {
		// <!-- starts a comment
		return spaceBytes
	} else if (s.prevRegexp || s.prevNumber) && isIdentifierByte(first) {
		return spaceBytes
	}
	return nil
}

func (s *jsMinifier) write(sep, text []byte) error {
	if 0 < len(sep) {
		if _, err := s.w.Write(sep); err != nil {
			return err
		}
		if sep[0] == '\n' {
			s.lineLen = 0
		} else {
			s.lineLen += len(sep)
		}
	}
	if _, err := s.w.Write(text); err != nil {
		return err
	}
	if s.m != nil {
		s.m.OutputSpace(sep)
		s.m.ConsumeSource(s.l.skipped)
		s.m.OutputToken(text)
		s.m.ConsumeSource(len(text))
	}

	if i := lastLineTerminator(text); i != -1 {
		s.lineLen = len(text) - i - 1
	} else {
		s.lineLen += len(text)
	}
	s.prev = text[len(text)-1]
	return nil
}

func isIncrDecr(tt TokenType, text []byte) bool {
	return tt == UnaryOpToken && len(text) == 2 && (text[0] == '+' || text[0] == '-')
}

func isIdentifierByte(c byte) bool {
	return identifierTable[c] || c == '#'
}

// lastLineTerminator returns the index of the last byte of the last line terminator, or -1.
func lastLineTerminator(b []byte) int {
	for i := len(b) - 1; 0 <= i; i-- {
		if c := b[i]; c == '\n' || c == '\r' {
			return i
		} else if (c == 0xA8 || c == 0xA9) && 2 <= i && b[i-2] == 0xE2 && b[i-1] == 0x80 {
			return i
		}
	}
	return -1
}
