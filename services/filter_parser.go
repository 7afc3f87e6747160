package services

import (
	"fmt"
	"strconv"
	"strings"
)

// ==========================
// Tokenizer
// ==========================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokOp
	tokAnd
	tokOr
	tokBetween
	tokLParen
	tokRParen
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "field name"
	case tokNumber:
		return "number"
	case tokOp:
		return "operator"
	case tokAnd:
		return "AND"
	case tokOr:
		return "OR"
	case tokBetween:
		return "BETWEEN"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	}
	return "token"
}

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(input) {
		ch := input[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case ch == '=' || ch == '!' || ch == '<' || ch == '>':
			start := i
			i++
			if i < len(input) && input[i] == '=' {
				i++
			}
			op := input[start:i]
			if op == "!" {
				return nil, &FilterSyntaxError{Pos: start, Msg: "expected '=' after '!'"}
			}
			tokens = append(tokens, token{kind: tokOp, text: op, pos: start})
		case ch == '$' || ch == '-' || ch == '.' || isDigit(ch):
			start := i
			if ch == '$' {
				i++
			}
			if i < len(input) && input[i] == '-' {
				i++
			}
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			text := input[start:i]
			num, err := strconv.ParseFloat(strings.TrimPrefix(text, "$"), 64)
			if err != nil {
				return nil, &FilterSyntaxError{Pos: start, Msg: fmt.Sprintf("invalid number %q", text)}
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: num, pos: start})
		case isLetter(ch) || ch == '_':
			start := i
			for i < len(input) && (isLetter(input[i]) || isDigit(input[i]) || input[i] == '_') {
				i++
			}
			word := input[start:i]
			switch strings.ToUpper(word) {
			case "AND":
				tokens = append(tokens, token{kind: tokAnd, text: "AND", pos: start})
			case "OR":
				tokens = append(tokens, token{kind: tokOr, text: "OR", pos: start})
			case "BETWEEN":
				tokens = append(tokens, token{kind: tokBetween, text: "BETWEEN", pos: start})
			default:
				tokens = append(tokens, token{kind: tokIdent, text: strings.ToLower(word), pos: start})
			}
		default:
			return nil, &FilterSyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", ch)}
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(input)}), nil
}

func isDigit(ch byte) bool  { return ch >= '0' && ch <= '9' }
func isLetter(ch byte) bool { return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') }

// ==========================
// Parser
// ==========================
//
//	expr   := term { ("AND" | "OR") term }
//	term   := "(" expr ")" | clause
//	clause := field op number | field "BETWEEN" number "AND" number
//
// AND and OR share one precedence level and fold left to right.

// fieldResolver maps a field name as written to its canonical name
type fieldResolver func(name string) (string, bool)

type filterParser struct {
	tokens  []token
	pos     int
	resolve fieldResolver
}

func parseFilterExpression(input string, resolve fieldResolver) (FilterExpr, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	if tokens[0].kind == tokEOF {
		return nil, &FilterSyntaxError{Pos: 0, Msg: "empty expression"}
	}

	p := &filterParser{tokens: tokens, resolve: resolve}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.unexpected(tok, "AND, OR or end of input")
	}
	return expr, nil
}

func (p *filterParser) peek() token {
	return p.tokens[p.pos]
}

func (p *filterParser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *filterParser) expect(kind tokenKind) (token, error) {
	tok := p.next()
	if tok.kind != kind {
		return tok, p.unexpected(tok, kind.String())
	}
	return tok, nil
}

func (p *filterParser) unexpected(tok token, want string) error {
	got := tok.kind.String()
	if tok.text != "" {
		got = fmt.Sprintf("%q", tok.text)
	}
	return &FilterSyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("expected %s, got %s", want, got)}
}

func (p *filterParser) parseExpr() (FilterExpr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokAnd && tok.kind != tokOr {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: tok.text, Left: left, Right: right}
	}
}

func (p *filterParser) parseTerm() (FilterExpr, error) {
	if p.peek().kind == tokLParen {
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return p.parseClause()
}

func (p *filterParser) parseClause() (FilterExpr, error) {
	fieldTok, err := p.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	field, ok := p.resolve(fieldTok.text)
	if !ok {
		return nil, &FilterSyntaxError{
			Pos: fieldTok.pos,
			Msg: fmt.Sprintf("unknown field %q", fieldTok.text),
			Err: ErrUnknownField,
		}
	}

	if p.peek().kind == tokBetween {
		p.next()
		low, err := p.expect(tokNumber)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokAnd); err != nil {
			return nil, err
		}
		high, err := p.expect(tokNumber)
		if err != nil {
			return nil, err
		}
		if low.num > high.num {
			return nil, &FilterSyntaxError{
				Pos: low.pos,
				Msg: fmt.Sprintf("BETWEEN lower bound %s exceeds upper bound %s", low.text, high.text),
			}
		}
		return &Logical{
			Op:    "AND",
			Left:  &Comparison{Field: field, Op: ">=", Value: low.num},
			Right: &Comparison{Field: field, Op: "<=", Value: high.num},
		}, nil
	}

	opTok, err := p.expect(tokOp)
	if err != nil {
		return nil, err
	}
	value, err := p.expect(tokNumber)
	if err != nil {
		return nil, err
	}
	op := opTok.text
	if op == "==" {
		op = "="
	}
	return &Comparison{Field: field, Op: op, Value: value.num}, nil
}
