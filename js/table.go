package js

import (
	"strconv"
)

// state is a position in the grammar. Negative states are the same positions inside a generator function body.
type state int16

// states that are not part of an expression family
const (
	noState state = iota
	statementState
	returnState         // after return, throw, break, continue or yield at statement level
	statementAsyncState // after async at statement level
	keywordParenState   // after if, for, while, with, switch or catch
	functionState
	generatorState
	functionBodyState
	generatorBodyState
	classState
	classBodyState
	classMemberState
	classMethodState
	classGeneratorState
	classGeneratorMethodState
	propertyState
	propertyKeyState
	propertyGeneratorState
	propertyMethodState
	propertyGeneratorMethodState
	importState
	importListState
	exportState
	exportDefaultState
	templateTailState // stack marker for a template substitution
	firstFamilyState
)

// family is a context in which expressions are scanned, it determines what ends an expression.
type family int16

const (
	stmtFamily family = iota
	parenFamily
	objectFamily
	ternaryFamily
	heritageFamily
	fieldFamily
	numFamilies
)

// kind is the position within an expression.
type kind int16

const (
	exprKind     kind = iota // expecting an operand
	valueKind                // after an operand
	asyncKind                // after async
	dotKind                  // after a member access
	arrowKind                // after =>
	arrowEndKind             // after the block body of an arrow function
	numKinds
)

const numStates = int(firstFamilyState) + int(numFamilies)*int(numKinds)

func familyState(f family, k kind) state {
	return firstFamilyState + state(f)*state(numKinds) + state(k)
}

var (
	stmtExprState     = familyState(stmtFamily, exprKind)
	stmtValueState    = familyState(stmtFamily, valueKind)
	stmtDotState      = familyState(stmtFamily, dotKind)
	parenExprState    = familyState(parenFamily, exprKind)
	parenValueState   = familyState(parenFamily, valueKind)
	objectExprState   = familyState(objectFamily, exprKind)
	objectValueState  = familyState(objectFamily, valueKind)
	ternaryExprState  = familyState(ternaryFamily, exprKind)
	heritageExprState = familyState(heritageFamily, exprKind)
	fieldExprState    = familyState(fieldFamily, exprKind)
)

var stateNames = map[state]string{
	statementState:               "Statement",
	returnState:                  "Return",
	statementAsyncState:          "StatementAsync",
	keywordParenState:            "KeywordParen",
	functionState:                "Function",
	generatorState:               "Generator",
	functionBodyState:            "FunctionBody",
	generatorBodyState:           "GeneratorBody",
	classState:                   "Class",
	classBodyState:               "ClassBody",
	classMemberState:             "ClassMember",
	classMethodState:             "ClassMethod",
	classGeneratorState:          "ClassGenerator",
	classGeneratorMethodState:    "ClassGeneratorMethod",
	propertyState:                "Property",
	propertyKeyState:             "PropertyKey",
	propertyGeneratorState:       "PropertyGenerator",
	propertyMethodState:          "PropertyMethod",
	propertyGeneratorMethodState: "PropertyGeneratorMethod",
	importState:                  "Import",
	importListState:              "ImportList",
	exportState:                  "Export",
	exportDefaultState:           "ExportDefault",
	templateTailState:            "TemplateTail",
}

var familyNames = [numFamilies]string{"Stmt", "Paren", "Object", "Ternary", "Heritage", "Field"}
var kindNames = [numKinds]string{"Expr", "Value", "Async", "Dot", "Arrow", "ArrowEnd"}

func (s state) String() string {
	sign := ""
	if s < 0 {
		sign = "-"
		s = -s
	}
	if name, ok := stateNames[s]; ok {
		return sign + name
	} else if firstFamilyState <= s && int(s) < numStates {
		i := s - firstFamilyState
		return sign + familyNames[i/state(numKinds)] + kindNames[i%state(numKinds)]
	}
	return "Invalid(" + strconv.Itoa(int(s)) + ")"
}

func (s state) abs() state {
	if s < 0 {
		return -s
	}
	return s
}

// withSign returns the positive state t with the sign of s.
func (s state) withSign(t state) state {
	if s < 0 {
		return -t
	}
	return t
}

func (s state) negative() int {
	if s < 0 {
		return 1
	}
	return 0
}

////////////////////////////////////////////////////////////////

// action is a transition in the grammar model. A push is done first, after which the state is popped from the stack if pop is set, or set to goTo otherwise.
// An absolute goTo keeps its sign when the table is mirrored for generator bodies.
type action struct {
	push, goTo state
	pop        bool
	absolute   bool
}

func to(s state) action {
	return action{goTo: s}
}

func pushTo(push, s state) action {
	return action{push: push, goTo: s}
}

func pushAbsTo(push, s state) action {
	return action{push: push, goTo: s, absolute: true}
}

var popAction = action{pop: true}

// mirror returns the action for the negative counterpart of its state.
func (a action) mirror() action {
	a.push = -a.push
	if !a.absolute {
		a.goTo = -a.goTo
	}
	return a
}

type row [numTokenTypes]action

const maxStackDepth = 1000

var (
	model                [2][numStates]row
	specials             [2][numStates]map[string]action
	asiTable             [numStates][numTokenTypes]bool
	asiReset             [numStates]state
	divStates            [numStates]bool
	keywordLiteralStates [numStates]bool
)

////////////////////////////////////////////////////////////////

func exprRow(f family) row {
	expr, value := familyState(f, exprKind), familyState(f, valueKind)

	var r row
	for _, tt := range []TokenType{UnaryOpToken, BinaryOpToken, HookToken, ColonToken, CommaToken, IfLikeToken, DoLikeToken, VarLikeToken, AwaitToken, ReturnLikeToken} {
		r[tt] = to(expr)
	}
	if f == stmtFamily {
		r[ReturnLikeToken] = to(returnState)
	}
	r[DotToken] = to(familyState(f, dotKind))
	switch f {
	case stmtFamily:
		r[SemicolonToken] = to(statementState)
	case parenFamily:
		r[SemicolonToken] = to(parenExprState)
	case fieldFamily:
		r[SemicolonToken] = to(classBodyState)
	}
	r[BraceOpenToken] = pushTo(value, propertyState)
	r[BraceCloseToken] = popAction
	r[ParenOpenToken] = pushTo(value, parenExprState)
	r[ParenCloseToken] = popAction
	r[ArrowToken] = to(familyState(f, arrowKind))
	r[LiteralToken] = to(value)
	r[TemplateHeadToken] = pushTo(value, parenExprState)
	r[FunctionLikeToken] = pushTo(value, functionState)
	r[ClassLikeToken] = pushTo(value, classState)
	r[AsyncToken] = to(familyState(f, asyncKind))
	return r
}

func valueRow(f family) row {
	expr, value := familyState(f, exprKind), familyState(f, valueKind)

	r := exprRow(f)
	r[UnaryOpToken] = to(value)
	r[HookToken] = pushTo(expr, ternaryExprState)
	switch f {
	case stmtFamily:
		r[ColonToken] = to(statementState)
	case ternaryFamily:
		r[ColonToken] = popAction
	case objectFamily:
		r[ColonToken] = to(objectExprState)
	}
	if f == objectFamily {
		r[CommaToken] = to(propertyState)
	}
	switch f {
	case stmtFamily:
		r[BraceOpenToken] = pushTo(statementState, statementState)
	case heritageFamily:
		r[BraceOpenToken] = to(classBodyState)
	}
	r[LiteralToken] = to(value)
	r[AsyncToken] = to(value)
	return r
}

func familyRows(f family) [numKinds]row {
	var rows [numKinds]row
	rows[exprKind] = exprRow(f)
	rows[valueKind] = valueRow(f)
	rows[asyncKind] = valueRow(f)
	rows[dotKind] = exprRow(f)
	rows[dotKind][LiteralToken] = to(familyState(f, valueKind))
	rows[arrowKind] = exprRow(f)
	rows[arrowKind][BraceOpenToken] = pushAbsTo(familyState(f, arrowEndKind), statementState)
	rows[arrowEndKind] = valueRow(f)
	return rows
}

func statementRow() row {
	r := exprRow(stmtFamily)
	r[SemicolonToken] = to(statementState)
	r[BraceOpenToken] = pushTo(statementState, statementState)
	r[ReturnLikeToken] = to(returnState)
	r[IfLikeToken] = to(keywordParenState)
	r[DoLikeToken] = to(statementState)
	r[VarLikeToken] = to(stmtExprState)
	r[FunctionLikeToken] = pushTo(statementState, functionState)
	r[ClassLikeToken] = pushTo(statementState, classState)
	r[AsyncToken] = to(statementAsyncState)
	return r
}

func positiveTable() (*[numStates]row, *[numStates]map[string]action) {
	t := &[numStates]row{}
	sp := &[numStates]map[string]action{}

	for f := family(0); f < numFamilies; f++ {
		rows := familyRows(f)
		for k := kind(0); k < numKinds; k++ {
			t[familyState(f, k)] = rows[k]
		}
	}
	sp[parenValueState] = map[string]action{"of": to(parenExprState)}

	t[statementState] = statementRow()
	sp[statementState] = map[string]action{
		"import": to(importState),
		"export": to(exportState),
	}

	t[returnState] = exprRow(stmtFamily)

	t[statementAsyncState] = valueRow(stmtFamily)
	t[statementAsyncState][FunctionLikeToken] = pushTo(statementState, functionState)

	t[keywordParenState] = statementRow()
	t[keywordParenState][ParenOpenToken] = pushTo(statementState, parenExprState)
	t[keywordParenState][AwaitToken] = to(keywordParenState)

	// functions
	t[functionState][LiteralToken] = to(functionState)
	t[functionState][ParenOpenToken] = pushTo(functionBodyState, parenExprState)
	sp[functionState] = map[string]action{"*": to(generatorState)}
	t[generatorState][LiteralToken] = to(generatorState)
	t[generatorState][ParenOpenToken] = pushTo(generatorBodyState, parenExprState)
	t[functionBodyState][BraceOpenToken] = action{goTo: statementState, absolute: true}
	t[generatorBodyState][BraceOpenToken] = action{goTo: -statementState, absolute: true}

	// classes
	t[classState][LiteralToken] = to(classState)
	t[classState][BraceOpenToken] = to(classBodyState)
	sp[classState] = map[string]action{"extends": to(heritageExprState)}

	t[classBodyState][LiteralToken] = to(classMemberState)
	t[classBodyState][SemicolonToken] = to(classBodyState)
	t[classBodyState][ParenOpenToken] = pushTo(classMemberState, parenExprState)
	t[classBodyState][BraceOpenToken] = pushAbsTo(classBodyState, statementState)
	t[classBodyState][BraceCloseToken] = popAction
	sp[classBodyState] = map[string]action{"*": to(classGeneratorState)}

	t[classMemberState][LiteralToken] = to(classMemberState)
	t[classMemberState][ParenOpenToken] = pushTo(classMethodState, parenExprState)
	t[classMemberState][BinaryOpToken] = to(fieldExprState)
	t[classMemberState][SemicolonToken] = to(classBodyState)
	t[classMemberState][BraceOpenToken] = pushAbsTo(classBodyState, statementState)
	t[classMemberState][BraceCloseToken] = popAction
	sp[classMemberState] = map[string]action{"*": to(classGeneratorState)}
	t[classMethodState] = t[classMemberState]
	sp[classMethodState] = sp[classMemberState]

	t[classGeneratorState][LiteralToken] = to(classGeneratorState)
	t[classGeneratorState][ParenOpenToken] = pushTo(classGeneratorMethodState, parenExprState)
	t[classGeneratorMethodState][ParenOpenToken] = pushTo(classGeneratorMethodState, parenExprState)
	t[classGeneratorMethodState][BraceOpenToken] = pushAbsTo(classBodyState, -statementState)

	// object literals
	t[propertyState][LiteralToken] = to(propertyKeyState)
	t[propertyState][UnaryOpToken] = to(objectExprState)
	t[propertyState][ParenOpenToken] = pushTo(propertyKeyState, parenExprState)
	t[propertyState][CommaToken] = to(propertyState)
	t[propertyState][BraceCloseToken] = popAction
	sp[propertyState] = map[string]action{"*": to(propertyGeneratorState)}

	t[propertyKeyState][LiteralToken] = to(propertyKeyState)
	t[propertyKeyState][ColonToken] = to(objectExprState)
	t[propertyKeyState][BinaryOpToken] = to(objectExprState)
	t[propertyKeyState][ParenOpenToken] = pushTo(propertyMethodState, parenExprState)
	t[propertyKeyState][CommaToken] = to(propertyState)
	t[propertyKeyState][BraceCloseToken] = popAction
	sp[propertyKeyState] = map[string]action{"*": to(propertyGeneratorState)}

	t[propertyGeneratorState][LiteralToken] = to(propertyGeneratorState)
	t[propertyGeneratorState][ParenOpenToken] = pushTo(propertyGeneratorMethodState, parenExprState)
	t[propertyMethodState][BraceOpenToken] = pushAbsTo(objectValueState, statementState)
	t[propertyGeneratorMethodState][ParenOpenToken] = pushTo(propertyGeneratorMethodState, parenExprState)
	t[propertyGeneratorMethodState][BraceOpenToken] = pushAbsTo(objectValueState, -statementState)

	// modules
	t[importState][LiteralToken] = to(importState)
	t[importState][BraceOpenToken] = pushTo(importState, importListState)
	t[importState][BraceCloseToken] = popAction
	t[importState][CommaToken] = to(importState)
	t[importState][SemicolonToken] = to(statementState)
	t[importState][ParenOpenToken] = pushTo(stmtValueState, parenExprState)
	t[importState][DotToken] = to(stmtDotState)
	sp[importState] = map[string]action{"*": to(importState)}

	t[importListState][LiteralToken] = to(importListState)
	t[importListState][CommaToken] = to(importListState)
	t[importListState][BraceCloseToken] = popAction

	t[exportState] = statementRow()
	t[exportState][BraceOpenToken] = pushTo(importState, importListState)
	sp[exportState] = map[string]action{
		"default": to(exportDefaultState),
		"*":       to(importState),
	}

	t[exportDefaultState] = statementRow()
	t[exportDefaultState][BraceOpenToken] = pushTo(stmtValueState, propertyState)
	return t, sp
}

func markASI(s, reset state, tts ...TokenType) {
	for _, tt := range tts {
		asiTable[s][tt] = true
	}
	asiReset[s] = reset
}

func markASIExcept(s, reset state, except ...TokenType) {
	for tt := 0; tt < numTokenTypes; tt++ {
		asiTable[s][tt] = true
	}
	for _, tt := range except {
		asiTable[s][tt] = false
	}
	asiTable[s][ErrorToken] = false
	asiReset[s] = reset
}

func init() {
	positive, positiveSpecials := positiveTable()
	for s := 1; s < numStates; s++ {
		model[0][s] = positive[s]
		for tt := 0; tt < numTokenTypes; tt++ {
			model[1][s][tt] = positive[s][tt].mirror()
		}
		if positiveSpecials[s] != nil {
			specials[0][s] = positiveSpecials[s]
			specials[1][s] = make(map[string]action, len(positiveSpecials[s]))
			for text, a := range positiveSpecials[s] {
				specials[1][s][text] = a.mirror()
			}
		}
	}

	// a line terminator before these tokens ends the statement
	statementStart := []TokenType{LiteralToken, UnaryOpToken, ReturnLikeToken, IfLikeToken, DoLikeToken, VarLikeToken, FunctionLikeToken, ClassLikeToken, AsyncToken, AwaitToken, SpecialToken, BraceOpenToken}
	for _, s := range []state{stmtValueState, familyState(stmtFamily, asyncKind), statementAsyncState} {
		markASI(s, statementState, statementStart...)
	}
	markASI(familyState(fieldFamily, valueKind), classBodyState, statementStart...)
	markASI(familyState(fieldFamily, asyncKind), classBodyState, statementStart...)
	markASI(importState, statementState, append(statementStart, ParenOpenToken)...)
	markASI(classMemberState, classBodyState, append(statementStart, ParenOpenToken)...)
	markASI(classMethodState, classBodyState, append(statementStart, ParenOpenToken)...)
	markASIExcept(returnState, statementState, SemicolonToken, BraceCloseToken)
	markASIExcept(familyState(stmtFamily, arrowEndKind), statementState, CommaToken, SemicolonToken, ParenCloseToken, BraceCloseToken, ColonToken)
	markASIExcept(familyState(fieldFamily, arrowEndKind), classBodyState, CommaToken, SemicolonToken, ParenCloseToken, BraceCloseToken, ColonToken)

	for f := family(0); f < numFamilies; f++ {
		divStates[familyState(f, valueKind)] = true
		divStates[familyState(f, asyncKind)] = true
		keywordLiteralStates[familyState(f, dotKind)] = true
	}
	divStates[statementAsyncState] = true

	for _, s := range []state{propertyState, propertyKeyState, propertyGeneratorState, classBodyState, classMemberState, classMethodState, classGeneratorState, importState, importListState, functionState, generatorState, classState} {
		keywordLiteralStates[s] = true
	}
}

////////////////////////////////////////////////////////////////

// classify returns the token type of a token in state s together with the transition it triggers.
func classify(s state, tt TokenType, text []byte, ident bool) (TokenType, action) {
	neg, abs := s.negative(), s.abs()
	if ident || tt == BinaryOpToken {
		if sp := specials[neg][abs]; sp != nil {
			if a, ok := sp[string(text)]; ok {
				return SpecialToken, a
			}
		}
	}
	if ident {
		if keyword, ok := keywords[string(text)]; ok {
			tt = keyword
		} else if s < 0 && string(text) == "yield" {
			tt = ReturnLikeToken
		}
		if keywordLiteralStates[abs] {
			tt = LiteralToken
		}
	}
	return tt, model[neg][abs][tt]
}
