// Package plugin parses and dispatches plugin commands embedded in map
// event scripts, such as check_soil(4) or say('hello', 2).
package plugin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	tokenIdent = iota
	tokenInt
	tokenString
	tokenLParen
	tokenRParen
	tokenComma
)

var tokenNames = map[int]string{
	tokenIdent:  "identifier",
	tokenInt:    "integer",
	tokenString: "string",
	tokenLParen: "'('",
	tokenRParen: "')'",
	tokenComma:  "','",
}

var lexer *lexmachine.Lexer

func init() {
	lexer = lexmachine.NewLexer()
	lexer.Add([]byte(`[a-zA-Z_][a-zA-Z0-9_]*`), getToken(tokenIdent))
	lexer.Add([]byte(`[\+\-]?[0-9]+`), getToken(tokenInt))
	lexer.Add([]byte(`"(\\.|[^"])*"`), getToken(tokenString))
	lexer.Add([]byte(`'(\\.|[^'])*'`), getToken(tokenString))
	lexer.Add([]byte(`\(`), getToken(tokenLParen))
	lexer.Add([]byte(`\)`), getToken(tokenRParen))
	lexer.Add([]byte(`,`), getToken(tokenComma))
	lexer.Add([]byte(`\s+`), skip)
	if err := lexer.Compile(); err != nil {
		panic(err)
	}
}

func getToken(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

func skip(*lexmachine.Scanner, *machines.Match) (interface{}, error) {
	return nil, nil
}

// ArgKind is the type of a command argument.
type ArgKind int

const (
	Int ArgKind = iota
	String
)

func (k ArgKind) String() string {
	switch k {
	case Int:
		return "int"
	case String:
		return "string"
	}
	return fmt.Sprintf("ArgKind(%d)", int(k))
}

// Arg is one parsed argument.
type Arg struct {
	Kind ArgKind
	Int  int64
	Str  string
}

func (a Arg) String() string {
	if a.Kind == Int {
		return strconv.FormatInt(a.Int, 10)
	}
	return strconv.Quote(a.Str)
}

// Call is a parsed command invocation.
type Call struct {
	Name string
	Args []Arg
}

func (c Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Parse reads `name`, `name()` or `name(arg, ...)`. Arguments are integers,
// single or double quoted strings, or bare words, which are taken as strings.
func Parse(src string) (Call, error) {
	toks, err := tokenize(src)
	if err != nil {
		return Call{}, err
	}
	p := &parser{src: src, toks: toks}
	return p.call()
}

func tokenize(src string) ([]*lexmachine.Token, error) {
	scanner, err := lexer.Scanner([]byte(src))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create scanner")
	}
	var toks []*lexmachine.Token
	for tok, err, eos := scanner.Next(); !eos; tok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "failed to scan %q", src)
		}
		toks = append(toks, tok.(*lexmachine.Token))
	}
	return toks, nil
}

type parser struct {
	src  string
	toks []*lexmachine.Token
	pos  int
}

func (p *parser) peek() *lexmachine.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return nil
}

func (p *parser) expect(tokenType int) (*lexmachine.Token, error) {
	tok := p.peek()
	if tok == nil {
		return nil, errors.Errorf("%q: expected %s, got end of input", p.src, tokenNames[tokenType])
	}
	if tok.Type != tokenType {
		return nil, errors.Errorf("%q: expected %s at column %d, got %q", p.src, tokenNames[tokenType], tok.StartColumn, tok.Lexeme)
	}
	p.pos++
	return tok, nil
}

func (p *parser) call() (Call, error) {
	name, err := p.expect(tokenIdent)
	if err != nil {
		return Call{}, err
	}
	c := Call{Name: string(name.Lexeme)}

	if p.peek() != nil {
		if _, err := p.expect(tokenLParen); err != nil {
			return Call{}, err
		}
		if c.Args, err = p.args(); err != nil {
			return Call{}, err
		}
	}
	if tok := p.peek(); tok != nil {
		return Call{}, errors.Errorf("%q: unexpected %q after call", p.src, tok.Lexeme)
	}
	return c, nil
}

func (p *parser) args() ([]Arg, error) {
	var args []Arg
	if tok := p.peek(); tok != nil && tok.Type == tokenRParen {
		p.pos++
		return args, nil
	}
	for {
		arg, err := p.arg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		tok := p.peek()
		if tok == nil {
			return nil, errors.Errorf("%q: missing ')'", p.src)
		}
		p.pos++
		switch tok.Type {
		case tokenComma:
			continue
		case tokenRParen:
			return args, nil
		default:
			return nil, errors.Errorf("%q: expected ',' or ')' at column %d, got %q", p.src, tok.StartColumn, tok.Lexeme)
		}
	}
}

func (p *parser) arg() (Arg, error) {
	tok := p.peek()
	if tok == nil {
		return Arg{}, errors.Errorf("%q: expected argument, got end of input", p.src)
	}
	p.pos++
	lexeme := string(tok.Lexeme)
	switch tok.Type {
	case tokenInt:
		n, err := strconv.ParseInt(lexeme, 10, 64)
		if err != nil {
			return Arg{}, errors.Wrapf(err, "%q: integer %s", p.src, lexeme)
		}
		return Arg{Kind: Int, Int: n}, nil
	case tokenString:
		return Arg{Kind: String, Str: unquote(lexeme)}, nil
	case tokenIdent:
		return Arg{Kind: String, Str: lexeme}, nil
	}
	return Arg{}, errors.Errorf("%q: expected argument at column %d, got %q", p.src, tok.StartColumn, lexeme)
}

// unquote strips the surrounding quotes and resolves backslash escapes.
func unquote(lexeme string) string {
	body := lexeme[1 : len(lexeme)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}
