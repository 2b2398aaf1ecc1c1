// Package minic implements the compiler proper: parsing source text into an
// ast.Block and lowering that tree to x86-64 assembly text.
package minic

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"minic.dev/compiler/pkg/ast"
	"minic.dev/compiler/pkg/lexer"
	"minic.dev/compiler/pkg/token"
)

const maxCallArguments = 6

// tokenStream is a one-token-lookahead adapter over a *lexer.Tokenizer. It
// is the only thing the parser ever talks to; it never exposes raw
// tokenizer failure, translating an unrecognized-input position into a
// failed peek that the parser turns into a CompileError.
type tokenStream struct {
	tz      *lexer.Tokenizer
	lookahd token.Token
	has     bool
}

func newTokenStream(text string) *tokenStream {
	return &tokenStream{tz: lexer.New(text)}
}

// peek returns the lookahead token without consuming it, reporting false if
// the tokenizer could not produce one (either because it is exhausted, or
// because nothing matched at the current position).
func (ts *tokenStream) peek() (token.Token, bool) {
	if !ts.has {
		tok, ok := ts.tz.Next()
		if !ok {
			return token.Token{}, false
		}
		ts.lookahd, ts.has = tok, true
	}
	return ts.lookahd, true
}

// take consumes and returns the lookahead token, advancing the stream.
func (ts *tokenStream) take() token.Token {
	tok, _ := ts.peek()
	ts.has = false
	return tok
}

// Parser is a recursive-descent parser with one parse method per grammar
// production (parseStatement down to parsePrimary); it assigns local-variable slots and mints control-flow
// labels as a side effect of parsing.
type Parser struct {
	source  string
	tokens  *tokenStream
	symbols *SymbolTable
	labelNo int
}

// NewParser returns a Parser ready to consume 'source'.
func NewParser(source string) *Parser {
	return &Parser{
		source:  source,
		tokens:  newTokenStream(source),
		symbols: NewSymbolTable(),
	}
}

// Parse consumes the entire token stream and returns the program's
// top-level Block, or the first CompileError encountered.
func (p *Parser) Parse() (ast.Block, error) {
	block := ast.Block{}
	for {
		tok, ok := p.tokens.peek()
		if !ok {
			return ast.Block{}, unexpectedEOF(p.source, len(p.source))
		}
		if tok.Kind == token.EOF {
			p.tokens.take()
			return block, nil
		}

		stmt, err := p.parseStatement()
		if err != nil {
			return ast.Block{}, err
		}
		block.Statements = append(block.Statements, stmt)
	}
}

func (p *Parser) nextLabelSuffix() int {
	p.labelNo++
	return p.labelNo
}

func (p *Parser) errorIndex() int {
	if tok, ok := p.tokens.peek(); ok {
		if tok.Kind == token.EOF {
			return len(p.source)
		}
		return tok.IndexStart
	}
	return len(p.source)
}

// expect consumes the lookahead if it has 'kind', returning it; otherwise
// returns an UnexpectedToken error naming 'kind' as the sole expectation.
func (p *Parser) expect(kind token.Kind) (token.Token, error) {
	tok, ok := p.tokens.peek()
	if !ok || tok.Kind != kind {
		return token.Token{}, unexpectedToken(p.source, p.errorIndex(), kind)
	}
	return p.tokens.take(), nil
}

// accept consumes the lookahead and returns true if it has 'kind'; it is a
// no-op (and returns false) otherwise.
func (p *Parser) accept(kind token.Kind) bool {
	tok, ok := p.tokens.peek()
	if !ok || tok.Kind != kind {
		return false
	}
	p.tokens.take()
	return true
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	tok, ok := p.tokens.peek()
	if !ok {
		return nil, unexpectedEOF(p.source, len(p.source))
	}

	switch tok.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.Return:
		return p.parseReturn()
	case token.If:
		return p.parseIf()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseFor()
	default:
		return p.parseExpressionStatement()
	}
}

// parseBlock implements the "block parsing" rule: after '{', consume
// statements until one fails to parse, then require '}'. A syntax error
// inside the block therefore surfaces as "expected '}'", unless the failed
// statement stopped with '}' as the lookahead: then the block closes there
// and the partial statement is discarded without an error.
func (p *Parser) parseBlock() (ast.Statement, error) {
	if _, err := p.expect(token.LBrace); err != nil {
		return nil, err
	}

	block := ast.Block{}
	for {
		tok, ok := p.tokens.peek()
		if !ok || tok.Kind == token.RBrace {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			break
		}
		block.Statements = append(block.Statements, stmt)
	}

	if _, err := p.expect(token.RBrace); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	p.tokens.take() // 'return'
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	logrus.WithField("stage", "parser").Debugf("return statement")
	return ast.Return{Value: value}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	p.tokens.take() // 'if'
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	then, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	if p.accept(token.Else) {
		elseStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		n := p.nextLabelSuffix()
		return ast.IfElse{
			Condition: cond,
			Then:      then,
			Else:      elseStmt,
			EndLabel:  fmt.Sprintf(".Lend%d", n),
			ElseLabel: fmt.Sprintf(".Lelse%d", n),
		}, nil
	}

	n := p.nextLabelSuffix()
	return ast.If{Condition: cond, Then: then, EndLabel: fmt.Sprintf(".Lend%d", n)}, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	p.tokens.take() // 'while'
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	n := p.nextLabelSuffix()
	return ast.While{
		Condition:  cond,
		Body:       body,
		BeginLabel: fmt.Sprintf(".Lbegin%d", n),
		EndLabel:   fmt.Sprintf(".Lend%d", n),
	}, nil
}

// tryOptionalExpression treats a for-header clause as absent (returning a
// nil expression) when the lookahead is already 'delimiter'; otherwise it
// parses an expression and propagates any parse error. The caller requires
// the delimiter next in either case.
func (p *Parser) tryOptionalExpression(delimiter token.Kind) (ast.Expression, error) {
	if tok, ok := p.tokens.peek(); ok && tok.Kind == delimiter {
		return nil, nil
	}
	return p.parseExpression()
}

func (p *Parser) parseFor() (ast.Statement, error) {
	p.tokens.take() // 'for'
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	init, err := p.tryOptionalExpression(token.Semicolon)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}

	cond, err := p.tryOptionalExpression(token.Semicolon)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}

	update, err := p.tryOptionalExpression(token.RParen)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}

	n := p.nextLabelSuffix()
	return ast.For{
		Init:       init,
		Condition:  cond,
		Update:     update,
		Body:       body,
		BeginLabel: fmt.Sprintf(".Lbegin%d", n),
		EndLabel:   fmt.Sprintf(".Lend%d", n),
	}, nil
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Semicolon); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseAssign()
}

// parseAssign is right-associative: "a = b = c" parses as Assign(a,
// Assign(b, c)) because the rhs recurses into parseAssign, not
// parseEquality.
func (p *Parser) parseAssign() (ast.Expression, error) {
	lhsStart := p.errorIndex()

	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}

	if !p.accept(token.Assign) {
		return lhs, nil
	}

	if !ast.IsLeftValue(lhs) {
		return nil, notALeftValue(p.source, lhsStart)
	}

	rhs, err := p.parseAssign()
	if err != nil {
		return nil, err
	}
	return ast.BinaryExpr{Operator: ast.OpAssign, Lhs: lhs, Rhs: rhs}, nil
}

func (p *Parser) parseEquality() (ast.Expression, error) {
	lhs, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept(token.Eq):
			rhs, err := p.parseRelational()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpEq, Lhs: lhs, Rhs: rhs}
		case p.accept(token.Ne):
			rhs, err := p.parseRelational()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpNe, Lhs: lhs, Rhs: rhs}
		default:
			return lhs, nil
		}
	}
}

// parseRelational swaps operands for '>' and '>=' so the AST only ever
// carries Lt/LtEq.
func (p *Parser) parseRelational() (ast.Expression, error) {
	lhs, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept(token.Lt):
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpLt, Lhs: lhs, Rhs: rhs}
		case p.accept(token.LtEq):
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpLtEq, Lhs: lhs, Rhs: rhs}
		case p.accept(token.Gt):
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpLt, Lhs: rhs, Rhs: lhs}
		case p.accept(token.GtEq):
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpLtEq, Lhs: rhs, Rhs: lhs}
		default:
			return lhs, nil
		}
	}
}

func (p *Parser) parseAdd() (ast.Expression, error) {
	lhs, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept(token.Plus):
			rhs, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpAdd, Lhs: lhs, Rhs: rhs}
		case p.accept(token.Minus):
			rhs, err := p.parseMul()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpSub, Lhs: lhs, Rhs: rhs}
		default:
			return lhs, nil
		}
	}
}

func (p *Parser) parseMul() (ast.Expression, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept(token.Star):
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpMul, Lhs: lhs, Rhs: rhs}
		case p.accept(token.Slash):
			rhs, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			lhs = ast.BinaryExpr{Operator: ast.OpDiv, Lhs: lhs, Rhs: rhs}
		default:
			return lhs, nil
		}
	}
}

// parseUnary models "-x" as "0 - x" and "+x" as "x", so the AST never
// carries a unary-operator node.
func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.accept(token.Plus) {
		return p.parsePrimary()
	}
	if p.accept(token.Minus) {
		rhs, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return ast.BinaryExpr{Operator: ast.OpSub, Lhs: ast.Integer{Value: 0}, Rhs: rhs}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	tok, ok := p.tokens.peek()
	if !ok {
		return nil, unexpectedEOF(p.source, len(p.source))
	}

	switch tok.Kind {
	case token.Integer:
		p.tokens.take()
		return ast.Integer{Value: tok.IntValue}, nil

	case token.Identifier:
		p.tokens.take()
		if !p.accept(token.LParen) {
			return ast.LocalVariable{Identifier: tok.Text, Offset: p.symbols.Offset(tok.Text)}, nil
		}
		args, err := p.parseCallArguments()
		if err != nil {
			return nil, err
		}
		return ast.FunctionCall{Identifier: tok.Text, Arguments: args}, nil

	case token.LParen:
		p.tokens.take()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, unexpectedToken(p.source, p.errorIndex(), token.Integer, token.Identifier, token.LParen)
	}
}

func (p *Parser) parseCallArguments() ([]ast.Expression, error) {
	var args []ast.Expression

	if tok, ok := p.tokens.peek(); ok && tok.Kind == token.RParen {
		p.tokens.take()
		return args, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if len(args) > maxCallArguments {
			panic(fmt.Sprintf("minic: function call exceeds %d arguments", maxCallArguments))
		}
		if !p.accept(token.Comma) {
			break
		}
	}

	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return args, nil
}
