package js

import (
	"testing"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

type TTs []TokenType

func lexTokens(src string, div bool) (TTs, []string) {
	l := newLexer(parse.NewInputString(src), nil)
	tts := TTs{}
	texts := []string{}
	for {
		tt, text := l.Next(div, false)
		if tt == ErrorToken {
			return tts, texts
		}
		tts = append(tts, tt)
		texts = append(texts, string(text))
	}
}

func TestLexTokens(t *testing.T) {
	var tokenTests = []struct {
		js     string
		div    bool
		texts  []string
		ttypes TTs
	}{
		{" \t\v\f\u00A0\uFEFF\u2000", false, []string{}, TTs{}},
		{"a/* comment */b// comment", false, []string{"a", "b"}, TTs{LiteralToken, LiteralToken}},
		{">>>= >>> >>", false, []string{">>>=", ">>>", ">>"}, TTs{BinaryOpToken, BinaryOpToken, BinaryOpToken}},
		{"a?.b?.5:c", false, []string{"a", "?.", "b", "?", ".5", ":", "c"}, TTs{LiteralToken, DotToken, LiteralToken, HookToken, LiteralToken, ColonToken, LiteralToken}},
		{"...x=>{}", false, []string{"...", "x", "=>", "{", "}"}, TTs{UnaryOpToken, LiteralToken, ArrowToken, BraceOpenToken, BraceCloseToken}},
		{"[a](b);c,d", false, []string{"[", "a", "]", "(", "b", ")", ";", "c", ",", "d"}, TTs{ParenOpenToken, LiteralToken, ParenCloseToken, ParenOpenToken, LiteralToken, ParenCloseToken, SemicolonToken, LiteralToken, CommaToken, LiteralToken}},
		{"'a\\'b' \"c\\\\\"", false, []string{"'a\\'b'", "\"c\\\\\""}, TTs{LiteralToken, LiteralToken}},
		{"'a\\\nb'", false, []string{"'a\\\nb'"}, TTs{LiteralToken}},
		{"`a\\`${", false, []string{"`a\\`${"}, TTs{TemplateHeadToken}},
		{"`a$b`", false, []string{"`a$b`"}, TTs{LiteralToken}},
		{"0x1F 0o7 0b1 1e-5 .5e3 5. 1_0n", false, []string{"0x1F", "0o7", "0b1", "1e-5", ".5e3", "5.", "1_0n"}, TTs{LiteralToken, LiteralToken, LiteralToken, LiteralToken, LiteralToken, LiteralToken, LiteralToken}},
		{"/a[/]b/gi", false, []string{"/a[/]b/gi"}, TTs{LiteralToken}},
		{"/a\\/b/", false, []string{"/a\\/b/"}, TTs{LiteralToken}},
		{"a/b/g", true, []string{"a", "/", "b", "/", "g"}, TTs{LiteralToken, BinaryOpToken, LiteralToken, BinaryOpToken, LiteralToken}},
		{"a/=b", true, []string{"a", "/=", "b"}, TTs{LiteralToken, BinaryOpToken, LiteralToken}},
		{"\\u0061bc #priv $_ é", false, []string{"\\u0061bc", "#priv", "$_", "é"}, TTs{LiteralToken, LiteralToken, LiteralToken, LiteralToken}},
		{"\\u{61}b \\u{1F600} \\u00e9x", false, []string{"\\u{61}b", "\\u{1F600}", "\\u00e9x"}, TTs{LiteralToken, LiteralToken, LiteralToken}},
		{"'a\nb' 'c", false, []string{"'a\nb'", "'c"}, TTs{LiteralToken, LiteralToken}},
		{"@", false, []string{"@"}, TTs{LiteralToken}},
		{"a??=b||=c", false, []string{"a", "??=", "b", "||=", "c"}, TTs{LiteralToken, BinaryOpToken, LiteralToken, BinaryOpToken, LiteralToken}},
	}

	for _, tt := range tokenTests {
		t.Run(tt.js, func(t *testing.T) {
			ttypes, texts := lexTokens(tt.js, tt.div)
			test.T(t, texts, tt.texts)
			test.T(t, ttypes, tt.ttypes)
		})
	}
}

func TestLexNewline(t *testing.T) {
	var newlineTests = []struct {
		js      string
		newline bool
	}{
		{"a b", false},
		{"a\nb", true},
		{"a\rb", true},
		{"a\r\nb", true},
		{"a\u2028b", true},
		{"a\u2029b", true},
		{"a/*\n*/b", true},
		{"a/* */b", false},
		{"a//\nb", true},
		{"a\n-->\nb", true},
	}

	for _, tt := range newlineTests {
		t.Run(tt.js, func(t *testing.T) {
			l := newLexer(parse.NewInputString(tt.js), nil)
			l.Next(false, false)
			_, text := l.Next(false, false)
			test.String(t, string(text), "b")
			test.T(t, l.newline, tt.newline)
		})
	}
}

func TestLexTemplate(t *testing.T) {
	l := newLexer(parse.NewInputString("`a${b}c${d}e`"), nil)
	var tts TTs
	var texts []string
	depth := 0 // open substitutions
	for {
		tt, text := l.Next(false, 0 < depth)
		if tt == ErrorToken {
			break
		}
		tts = append(tts, tt)
		texts = append(texts, string(text))
		if tt == TemplateHeadToken {
			depth++
		} else if tt == TemplateEndToken {
			depth--
		}
	}
	test.T(t, tts, TTs{TemplateHeadToken, LiteralToken, TemplateMiddleToken, LiteralToken, TemplateEndToken})
	test.T(t, texts, []string{"`a${", "b", "}c${", "d", "}e`"})
}

func TestLexFlags(t *testing.T) {
	l := newLexer(parse.NewInputString("42 42. /a/ b 0x1"), nil)
	l.Next(false, false)
	test.That(t, l.number && l.dotless && !l.regexp, "42")
	l.Next(false, false)
	test.That(t, l.number && !l.dotless, "42.")
	l.Next(false, false)
	test.That(t, l.regexp && !l.number, "/a/")
	l.Next(false, false)
	test.That(t, l.ident && !l.number, "b")
	l.Next(false, false)
	test.That(t, l.number && l.dotless, "0x1")
}

func TestLexErrorsRecover(t *testing.T) {
	var errs []*Error
	l := newLexer(parse.NewInputString("1.2.3 0x 'a"), func(err *Error) {
		errs = append(errs, err)
	})
	var texts []string
	for {
		tt, text := l.Next(false, false)
		if tt == ErrorToken {
			break
		}
		texts = append(texts, string(text))
	}
	test.T(t, texts, []string{"1.2", ".3", "0x", "'a"})
	test.T(t, len(errs), 3)
	test.T(t, errs[0].Offset, 3)
	test.T(t, errs[1].Offset, 6)
	test.T(t, errs[2].Offset, 9)
}
