package js

import (
	"strconv"
)

// TokenType determines the type of token, eg. a number or a semicolon.
type TokenType uint8

// TokenType values.
const (
	ErrorToken TokenType = iota // extra token when errors occur
	UnaryOpToken
	BinaryOpToken
	DotToken
	HookToken
	ColonToken
	CommaToken
	SemicolonToken
	BraceOpenToken
	BraceCloseToken
	ParenOpenToken
	ParenCloseToken
	ArrowToken
	LiteralToken
	TemplateHeadToken   // `...${
	TemplateMiddleToken // }...${
	TemplateEndToken    // }...`
	ReturnLikeToken
	IfLikeToken
	DoLikeToken
	VarLikeToken
	FunctionLikeToken
	ClassLikeToken
	AsyncToken
	AwaitToken
	SpecialToken
)

const numTokenTypes = int(SpecialToken) + 1

// String returns the string representation of a TokenType.
func (tt TokenType) String() string {
	switch tt {
	case ErrorToken:
		return "Error"
	case UnaryOpToken:
		return "UnaryOp"
	case BinaryOpToken:
		return "BinaryOp"
	case DotToken:
		return "Dot"
	case HookToken:
		return "Hook"
	case ColonToken:
		return "Colon"
	case CommaToken:
		return "Comma"
	case SemicolonToken:
		return "Semicolon"
	case BraceOpenToken:
		return "BraceOpen"
	case BraceCloseToken:
		return "BraceClose"
	case ParenOpenToken:
		return "ParenOpen"
	case ParenCloseToken:
		return "ParenClose"
	case ArrowToken:
		return "Arrow"
	case LiteralToken:
		return "Literal"
	case TemplateHeadToken:
		return "TemplateHead"
	case TemplateMiddleToken:
		return "TemplateMiddle"
	case TemplateEndToken:
		return "TemplateEnd"
	case ReturnLikeToken:
		return "ReturnLike"
	case IfLikeToken:
		return "IfLike"
	case DoLikeToken:
		return "DoLike"
	case VarLikeToken:
		return "VarLike"
	case FunctionLikeToken:
		return "FunctionLike"
	case ClassLikeToken:
		return "ClassLike"
	case AsyncToken:
		return "Async"
	case AwaitToken:
		return "Await"
	case SpecialToken:
		return "Special"
	}
	return "Invalid(" + strconv.Itoa(int(tt)) + ")"
}

// keywords maps reserved and contextual words to their token type, other words are literals.
// The word yield is resolved by the scanning state.
var keywords = map[string]TokenType{
	"async":      AsyncToken,
	"await":      AwaitToken,
	"break":      ReturnLikeToken,
	"case":       VarLikeToken,
	"catch":      IfLikeToken,
	"class":      ClassLikeToken,
	"const":      VarLikeToken,
	"continue":   ReturnLikeToken,
	"delete":     UnaryOpToken,
	"do":         DoLikeToken,
	"else":       DoLikeToken,
	"finally":    DoLikeToken,
	"for":        IfLikeToken,
	"function":   FunctionLikeToken,
	"if":         IfLikeToken,
	"in":         BinaryOpToken,
	"instanceof": BinaryOpToken,
	"let":        VarLikeToken,
	"new":        UnaryOpToken,
	"return":     ReturnLikeToken,
	"switch":     IfLikeToken,
	"throw":      ReturnLikeToken,
	"try":        DoLikeToken,
	"typeof":     UnaryOpToken,
	"var":        VarLikeToken,
	"void":       UnaryOpToken,
	"while":      IfLikeToken,
	"with":       IfLikeToken,
}

// punctuators maps all punctuators to their token type, the longest is four bytes.
var punctuators = map[string]TokenType{
	"{":    BraceOpenToken,
	"}":    BraceCloseToken,
	"(":    ParenOpenToken,
	")":    ParenCloseToken,
	"[":    ParenOpenToken,
	"]":    ParenCloseToken,
	";":    SemicolonToken,
	",":    CommaToken,
	"?":    HookToken,
	":":    ColonToken,
	".":    DotToken,
	"?.":   DotToken,
	"=>":   ArrowToken,
	"...":  UnaryOpToken,
	"++":   UnaryOpToken,
	"--":   UnaryOpToken,
	"!":    UnaryOpToken,
	"~":    UnaryOpToken,
	"=":    BinaryOpToken,
	"==":   BinaryOpToken,
	"===":  BinaryOpToken,
	"!=":   BinaryOpToken,
	"!==":  BinaryOpToken,
	"<":    BinaryOpToken,
	"<=":   BinaryOpToken,
	"<<":   BinaryOpToken,
	"<<=":  BinaryOpToken,
	">":    BinaryOpToken,
	">=":   BinaryOpToken,
	">>":   BinaryOpToken,
	">>=":  BinaryOpToken,
	">>>":  BinaryOpToken,
	">>>=": BinaryOpToken,
	"+":    BinaryOpToken,
	"+=":   BinaryOpToken,
	"-":    BinaryOpToken,
	"-=":   BinaryOpToken,
	"*":    BinaryOpToken,
	"*=":   BinaryOpToken,
	"**":   BinaryOpToken,
	"**=":  BinaryOpToken,
	"/":    BinaryOpToken,
	"/=":   BinaryOpToken,
	"%":    BinaryOpToken,
	"%=":   BinaryOpToken,
	"&":    BinaryOpToken,
	"&=":   BinaryOpToken,
	"&&":   BinaryOpToken,
	"&&=":  BinaryOpToken,
	"|":    BinaryOpToken,
	"|=":   BinaryOpToken,
	"||":   BinaryOpToken,
	"||=":  BinaryOpToken,
	"^":    BinaryOpToken,
	"^=":   BinaryOpToken,
	"??":   BinaryOpToken,
	"??=":  BinaryOpToken,
}

const maxPunctuatorLen = 4
