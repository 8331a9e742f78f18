package pattern

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MaxActions bounds the size of an expanded pattern.
const MaxActions = 200_000

// ParseError describes a syntax error in pattern notation.
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pattern:%d:%d: %s", e.Line, e.Col, e.Msg)
}

// =============================================================================
// Lexer
// =============================================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokInt
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokStar
	tokComma
)

type token struct {
	kind tokenKind
	text string
	line int
	col  int
}

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of pattern"
	}
	return strconv.Quote(t.text)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}

func lex(src string) ([]token, error) {
	var toks []token
	for lineNo, line := range strings.Split(src, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		runes := []rune(line)
		for i := 0; i < len(runes); {
			r := runes[i]
			col := i + 1
			switch {
			case unicode.IsSpace(r):
				i++
			case r == '(' || r == ')' || r == '[' || r == ']' || r == '*' || r == ',':
				toks = append(toks, token{kind: punct[r], text: string(r), line: lineNo + 1, col: col})
				i++
			case unicode.IsDigit(r):
				j := i
				for j < len(runes) && unicode.IsDigit(runes[j]) {
					j++
				}
				toks = append(toks, token{kind: tokInt, text: string(runes[i:j]), line: lineNo + 1, col: col})
				i = j
			case unicode.IsLetter(r) || r == '_':
				j := i
				for j < len(runes) && isWordRune(runes[j]) {
					j++
				}
				toks = append(toks, token{kind: tokWord, text: string(runes[i:j]), line: lineNo + 1, col: col})
				i = j
			default:
				return nil, &ParseError{Line: lineNo + 1, Col: col, Msg: fmt.Sprintf("unexpected character %q", r)}
			}
		}
	}
	lines := strings.Split(src, "\n")
	end := token{kind: tokEOF, line: len(lines), col: len([]rune(lines[len(lines)-1])) + 1}
	return append(toks, end), nil
}

var punct = map[rune]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBracket,
	']': tokRBracket,
	'*': tokStar,
	',': tokComma,
}

// =============================================================================
// Parser
// =============================================================================

// Parse reads a pattern written in notation and returns the expanded action list.
func Parse(src string) ([]Action, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	actions, err := p.list(tokEOF)
	if err != nil {
		return nil, err
	}
	return actions, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and fixed patterns.
func MustParse(src string) []Action {
	actions, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return actions
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Line: t.line, Col: t.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) list(until tokenKind) ([]Action, error) {
	var out []Action
	for {
		t := p.peek()
		switch t.kind {
		case until:
			return out, nil
		case tokComma:
			p.next()
			continue
		case tokEOF:
			return nil, p.errorf(t, "unclosed '['")
		}
		items, err := p.item()
		if err != nil {
			return nil, err
		}
		if len(out)+len(items) > MaxActions {
			return nil, p.errorf(t, "pattern expands to more than %d actions", MaxActions)
		}
		out = append(out, items...)
	}
}

func (p *parser) count() (int, error) {
	t := p.next()
	n, err := strconv.Atoi(t.text)
	if err != nil || n > MaxActions {
		return 0, p.errorf(t, "invalid count %s", t.describe())
	}
	return n, nil
}

// item parses an atom with optional N* prefix and *N suffix.
func (p *parser) item() ([]Action, error) {
	start := p.peek()
	times := 1
	if start.kind == tokInt && p.peekAt(1).kind == tokStar {
		n, err := p.count()
		if err != nil {
			return nil, err
		}
		p.next()
		times = n
	}

	atom, err := p.atom()
	if err != nil {
		return nil, err
	}

	if p.peek().kind == tokStar {
		p.next()
		if p.peek().kind != tokInt {
			return nil, p.errorf(p.peek(), "expected repeat count after '*', found %s", p.peek().describe())
		}
		n, err := p.count()
		if err != nil {
			return nil, err
		}
		times *= n
	}

	if len(atom)*times > MaxActions {
		return nil, p.errorf(start, "pattern expands to more than %d actions", MaxActions)
	}
	out := make([]Action, 0, len(atom)*times)
	for i := 0; i < times; i++ {
		out = append(out, atom...)
	}
	return out, nil
}

func (p *parser) atom() ([]Action, error) {
	t := p.next()
	switch t.kind {
	case tokLBracket:
		inner, err := p.list(tokRBracket)
		if err != nil {
			return nil, err
		}
		p.next()
		return inner, nil
	case tokWord:
		var args []token
		if p.peek().kind == tokLParen {
			p.next()
			var err error
			if args, err = p.args(); err != nil {
				return nil, err
			}
		}
		a, err := p.build(t, args)
		if err != nil {
			return nil, err
		}
		return []Action{a}, nil
	default:
		return nil, p.errorf(t, "unexpected %s", t.describe())
	}
}

func (p *parser) args() ([]token, error) {
	var args []token
	for {
		t := p.next()
		switch t.kind {
		case tokInt, tokWord:
			args = append(args, t)
		default:
			return nil, p.errorf(t, "expected argument, found %s", t.describe())
		}
		sep := p.next()
		switch sep.kind {
		case tokRParen:
			return args, nil
		case tokComma:
		default:
			return nil, p.errorf(sep, "expected ',' or ')', found %s", sep.describe())
		}
	}
}

func (p *parser) intArg(t token, limit int) (int, error) {
	if t.kind != tokInt {
		return 0, p.errorf(t, "expected a number, found %s", t.describe())
	}
	n, err := strconv.Atoi(t.text)
	if err != nil || n > limit {
		return 0, p.errorf(t, "number %s out of range", t.text)
	}
	return n, nil
}

const maxLabel = 1<<32 - 1

func (p *parser) build(word token, args []token) (Action, error) {
	name := strings.ToLower(word.text)
	arity := func(want ...int) error {
		for _, w := range want {
			if len(args) == w {
				return nil
			}
		}
		return p.errorf(word, "%s takes %v argument(s), got %d", name, want, len(args))
	}

	switch name {
	case "sc", "inc", "dec", "slst", "flo", "blo", "bl", "reverse", "fo":
		if err := arity(0); err != nil {
			return Action{}, err
		}
		return simple[name], nil

	case "ch":
		if err := arity(1); err != nil {
			return Action{}, err
		}
		n, err := p.intArg(args[0], MaxActions)
		if err != nil {
			return Action{}, err
		}
		return Ch(n), nil

	case "attach":
		if err := arity(2); err != nil {
			return Action{}, err
		}
		l, err := p.intArg(args[0], maxLabel)
		if err != nil {
			return Action{}, err
		}
		n, err := p.intArg(args[1], MaxActions)
		if err != nil {
			return Action{}, err
		}
		return Attach(Label(l), n), nil

	case "goto", "mark":
		if err := arity(1); err != nil {
			return Action{}, err
		}
		l, err := p.intArg(args[0], maxLabel)
		if err != nil {
			return Action{}, err
		}
		if name == "goto" {
			return Goto(Label(l)), nil
		}
		return Mark(Label(l)), nil

	case "mr":
		if err := arity(1, 2); err != nil {
			return Action{}, err
		}
		n, err := p.intArg(args[0], MaxActions)
		if err != nil {
			return Action{}, err
		}
		if len(args) == 1 {
			return MR(n), nil
		}
		if args[1].kind != tokWord {
			return Action{}, p.errorf(args[1], "expected a ring name, found %s", args[1].describe())
		}
		return MRConfigurable(n, args[1].text), nil

	case "color":
		if err := arity(3); err != nil {
			return Action{}, err
		}
		var c RGB
		for i := range c {
			v, err := p.intArg(args[i], 255)
			if err != nil {
				return Action{}, err
			}
			c[i] = uint8(v)
		}
		return Color(c[0], c[1], c[2]), nil
	}
	return Action{}, p.errorf(word, "unknown stitch %q", word.text)
}

var simple = map[string]Action{
	"sc":      Sc(),
	"inc":     Inc(),
	"dec":     Dec(),
	"slst":    Slst(),
	"flo":     FLO(),
	"blo":     BLO(),
	"bl":      BL(),
	"reverse": Reverse(),
	"fo":      FO(),
}
