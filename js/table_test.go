package js

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestStateString(t *testing.T) {
	test.String(t, statementState.String(), "Statement")
	test.String(t, (-classBodyState).String(), "-ClassBody")
	test.String(t, stmtValueState.String(), "StmtValue")
	test.String(t, (-familyState(fieldFamily, arrowEndKind)).String(), "-FieldArrowEnd")
	test.String(t, state(numStates).String(), "Invalid(61)")
}

func TestMirroredTable(t *testing.T) {
	for s := 1; s < numStates; s++ {
		for tt := 0; tt < numTokenTypes; tt++ {
			a, b := model[0][s][tt], model[1][s][tt]
			test.T(t, b.push, -a.push, state(s), TokenType(tt))
			test.T(t, b.pop, a.pop, state(s), TokenType(tt))
			if a.absolute {
				test.T(t, b.goTo, a.goTo, state(s), TokenType(tt))
			} else {
				test.T(t, b.goTo, -a.goTo, state(s), TokenType(tt))
			}
		}
		for text, a := range specials[0][s] {
			test.T(t, specials[1][s][text], a.mirror(), state(s), text)
		}
	}

	// method and function bodies have a fixed sign
	test.T(t, model[1][functionBodyState][BraceOpenToken].goTo, statementState)
	test.T(t, model[1][generatorBodyState][BraceOpenToken].goTo, -statementState)
	test.T(t, model[0][generatorBodyState][BraceOpenToken].goTo, -statementState)
	test.T(t, model[1][propertyMethodState][BraceOpenToken].goTo, statementState)
	test.T(t, model[1][propertyMethodState][BraceOpenToken].push, -objectValueState)
	test.T(t, model[1][classMemberState][BraceOpenToken].goTo, statementState)
	test.T(t, model[1][familyState(stmtFamily, arrowKind)][BraceOpenToken].goTo, statementState)
	test.T(t, model[1][statementState][LiteralToken].goTo, -stmtValueState)
}

func TestClassify(t *testing.T) {
	var classifyTests = []struct {
		s     state
		tt    TokenType
		text  string
		ident bool
		res   TokenType
	}{
		{statementState, LiteralToken, "yield", true, LiteralToken},
		{-statementState, LiteralToken, "yield", true, ReturnLikeToken},
		{-stmtDotState, LiteralToken, "yield", true, LiteralToken},
		{statementState, LiteralToken, "import", true, SpecialToken},
		{stmtValueState, LiteralToken, "import", true, LiteralToken},
		{statementState, LiteralToken, "if", true, IfLikeToken},
		{propertyState, LiteralToken, "if", true, LiteralToken},
		{classBodyState, LiteralToken, "function", true, LiteralToken},
		{functionState, BinaryOpToken, "*", false, SpecialToken},
		{stmtValueState, BinaryOpToken, "*", false, BinaryOpToken},
		{parenValueState, LiteralToken, "of", true, SpecialToken},
		{statementState, LiteralToken, "async", true, AsyncToken},
		{exportState, LiteralToken, "default", true, SpecialToken},
		{statementState, LiteralToken, "\"import\"", false, LiteralToken},
	}

	for _, tt := range classifyTests {
		t.Run(tt.s.String()+" "+tt.text, func(t *testing.T) {
			res, _ := classify(tt.s, tt.tt, []byte(tt.text), tt.ident)
			test.T(t, res, tt.res)
		})
	}
}

func TestTransition(t *testing.T) {
	s := &jsMinifier{state: statementState}
	s.transition(pushTo(stmtValueState, parenExprState))
	test.T(t, s.state, parenExprState)
	test.T(t, s.stack, []state{stmtValueState})

	// pop wins over goto
	s.transition(action{push: classBodyState, goTo: classState, pop: true})
	test.T(t, s.state, classBodyState)
	test.T(t, s.stack, []state{stmtValueState})

	s.transition(popAction)
	test.T(t, s.state, stmtValueState)
	test.T(t, len(s.stack), 0)

	// pop on an empty stack
	s.transition(popAction)
	test.T(t, s.state, stmtValueState)
}

func TestTables(t *testing.T) {
	test.That(t, divStates[stmtValueState], "value")
	test.That(t, divStates[statementAsyncState], "statement async")
	test.That(t, !divStates[statementState], "statement")
	test.That(t, !divStates[returnState], "return")
	test.That(t, !divStates[familyState(stmtFamily, arrowEndKind)], "arrow end")

	test.That(t, asiTable[returnState][LiteralToken])
	test.That(t, !asiTable[returnState][SemicolonToken])
	test.That(t, asiTable[stmtValueState][UnaryOpToken])
	test.That(t, !asiTable[stmtValueState][BinaryOpToken])
	test.That(t, !asiTable[stmtValueState][ParenOpenToken])
	test.That(t, asiTable[classMemberState][ParenOpenToken])
	test.That(t, !asiTable[parenValueState][LiteralToken])
	test.T(t, asiReset[familyState(fieldFamily, valueKind)], classBodyState)
	test.T(t, asiReset[stmtValueState], statementState)
}
