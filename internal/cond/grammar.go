package cond

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"safechain/internal/value"
)

// conditionLexer tokenizes the whitespace-separated boolean expression
// language of §4.2: device.variable references, relational operators,
// the AND/OR/NOT keywords and their `&`/`|`/`!` symbol forms, and literal
// values. Styled after the teacher's own
// stateful lexer (kanso's grammar.KansoLexer), trimmed to this language's
// smaller token set.
var conditionLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Integer", `-?[0-9]+`, nil},
		{"Operator", `(<=|>=|!=|=|<|>)`, nil},
		{"Punctuation", `[().,&|!]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

type exprNode struct {
	Or *orNode `@@`
}

type orNode struct {
	Left *andNode   `@@`
	Rest []*andNode `(("OR" | "|") @@)*`
}

type andNode struct {
	Left *notNode   `@@`
	Rest []*notNode `(("AND" | "&") @@)*`
}

type notNode struct {
	Not     bool        `@("NOT" | "!")?`
	Primary *primaryNode `@@`
}

type primaryNode struct {
	True  bool      `(  @"TRUE"`
	False bool      ` | @"FALSE"`
	Sub   *exprNode `| "(" @@ ")"`
	Atom  *atomNode `| @@ )`
}

type atomNode struct {
	SubjDevice   string `@Ident "."`
	SubjVariable string `@Ident`
	Op           string `@Operator`
	ObjDevice    string `(  @Ident "."`
	ObjVariable  string `   @Ident`
	ObjInt       *int   ` | @Integer`
	ObjToken     string ` | @Ident )`
}

var parser = participle.MustBuild[exprNode](
	participle.Lexer(conditionLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse compiles a whitespace-tokenized boolean expression (the source
// form used throughout the rule catalogue: trigger conditions, action
// assignments treated as `=` atoms, and custom-rule bodies) into a
// Condition tree.
func Parse(text string) (Condition, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &True{}, nil
	}
	root, err := parser.ParseString("", text)
	if err != nil {
		return nil, fmt.Errorf("cond: parse %q: %w", text, err)
	}
	return buildOr(root.Or), nil
}

func buildOr(n *orNode) Condition {
	c := buildAnd(n.Left)
	for _, r := range n.Rest {
		c = &Or{Left: c, Right: buildAnd(r)}
	}
	return c
}

func buildAnd(n *andNode) Condition {
	c := buildNot(n.Left)
	for _, r := range n.Rest {
		c = &And{Left: c, Right: buildNot(r)}
	}
	return c
}

func buildNot(n *notNode) Condition {
	c := buildPrimary(n.Primary)
	if n.Not {
		return &Not{Operand: c}
	}
	return c
}

func buildPrimary(n *primaryNode) Condition {
	switch {
	case n.True:
		return &True{}
	case n.False:
		return &False{}
	case n.Sub != nil:
		return buildOr(n.Sub.Or)
	default:
		return buildAtom(n.Atom)
	}
}

// ParseAssignment compiles a comma-separated assignment string (the
// action-template form: `device.var = value, device2.var2 = value2`)
// into an And-chain of atoms, mirroring Assignment.py's per-comma
// Condition construction. Unlike Parse, the separator here is `,` with
// implicit AND — assignment strings never carry OR/NOT/parens.
func ParseAssignment(text string) (Condition, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &True{}, nil
	}
	parts := strings.Split(text, ",")
	var result Condition
	for _, p := range parts {
		c, err := Parse(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("cond: parse assignment %q: %w", text, err)
		}
		if _, ok := c.(*Atom); !ok {
			return nil, fmt.Errorf("cond: assignment clause %q must be a single atom", p)
		}
		if result == nil {
			result = c
		} else {
			result = &And{Left: result, Right: c}
		}
	}
	return result, nil
}

// Atoms flattens an And-chain (as produced by ParseAssignment) back into
// its individual atoms, in source order.
func Atoms(c Condition) []*Atom {
	var out []*Atom
	var walk func(Condition)
	walk = func(c Condition) {
		switch n := c.(type) {
		case *And:
			walk(n.Left)
			walk(n.Right)
		case *Atom:
			out = append(out, n)
		}
	}
	walk(c)
	return out
}

func buildAtom(n *atomNode) Condition {
	subj := splitPrevious(n.SubjDevice, n.SubjVariable)

	var obj Object
	switch {
	case n.ObjInt != nil:
		obj = Object{Kind: ObjLiteral, Literal: value.Int(*n.ObjInt)}
	case n.ObjDevice != "":
		obj = Object{Kind: ObjVariable, Ref: splitPrevious(n.ObjDevice, n.ObjVariable)}
	default:
		obj = Object{Kind: ObjLiteral, Literal: value.Token(n.ObjToken)}
	}

	return &Atom{Subject: subj, Op: n.Op, Object: obj}
}

const previousSuffix = "_previous"

func splitPrevious(device, variable string) Ref {
	if strings.HasSuffix(variable, previousSuffix) {
		return Ref{Device: device, Variable: strings.TrimSuffix(variable, previousSuffix), Previous: true}
	}
	return Ref{Device: device, Variable: variable}
}
