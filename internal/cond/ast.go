// Package cond implements the boolean condition language of §4.2: a
// proper recursive expression tree (And/Or/Not/Atom/True/False) parsed
// from whitespace-tokenized `subject op object` boolean expressions. This
// replaces the legacy interleaved-token representation of the original
// implementation (a flat tuple of ('device.var', '=', 'value') triples
// joined inline with '&'/'|'/'!' tokens) with a tree any caller can walk
// without re-tokenizing.
package cond

import (
	"fmt"
	"strings"

	"safechain/internal/value"
)

// Condition is a boolean expression node. The concrete types below are
// the only implementations; callers switch on concrete type rather than
// calling interface methods for anything beyond rendering, matching the
// teacher's closed-variant style used throughout this module.
type Condition interface {
	fmt.Stringer
	isCondition()
}

type And struct{ Left, Right Condition }
type Or struct{ Left, Right Condition }
type Not struct{ Operand Condition }
type True struct{}
type False struct{}

// ObjectKind discriminates what an Atom compares its Subject against.
type ObjectKind int

const (
	ObjLiteral  ObjectKind = iota // a concrete value.Literal
	ObjVariable                   // another device.variable reference (the `≡` case)
	ObjLabelSet                   // a pre-rendered NuSMV set-of-labels text (never parsed)
)

// Ref names a single device.variable, optionally the `_previous` shadow.
type Ref struct {
	Device   string
	Variable string
	Previous bool
}

func (r Ref) String() string {
	if r.Previous {
		return r.Device + "." + r.Variable + "_previous"
	}
	return r.Device + "." + r.Variable
}

// Object is the right-hand side of an Atom.
type Object struct {
	Kind     ObjectKind
	Ref      Ref           // ObjVariable
	Literal  value.Literal // ObjLiteral
	SetLabel string        // ObjLabelSet, already formatted as "{a, b, OTHERS}"
}

func (o Object) String() string {
	switch o.Kind {
	case ObjVariable:
		return o.Ref.String()
	case ObjLabelSet:
		return o.SetLabel
	default:
		return o.Literal.String()
	}
}

// Atom is a single `subject op object` comparison, the leaf of the tree.
type Atom struct {
	Subject Ref
	Op      string
	Object  Object
}

func (*And) isCondition()   {}
func (*Or) isCondition()    {}
func (*Not) isCondition()   {}
func (*True) isCondition()  {}
func (*False) isCondition() {}
func (*Atom) isCondition()  {}

func (n *And) String() string { return fmt.Sprintf("(%s & %s)", n.Left, n.Right) }
func (n *Or) String() string  { return fmt.Sprintf("(%s | %s)", n.Left, n.Right) }
func (n *Not) String() string { return fmt.Sprintf("!%s", n.Operand) }
func (*True) String() string  { return "TRUE" }
func (*False) String() string { return "FALSE" }
func (a *Atom) String() string {
	return fmt.Sprintf("%s %s %s", a.Subject, a.Op, a.Object)
}

// VarRef is one (device, variable) pair an Atom or tree mentions.
type VarRef struct {
	Device   string
	Variable string
}

// Variables returns every distinct (device, variable) pair referenced
// anywhere in the tree, mirroring Condition.getVariables but walked over
// the whole expression rather than a single tuple.
func Variables(c Condition) []VarRef {
	seen := map[VarRef]bool{}
	var out []VarRef
	add := func(r Ref) {
		vr := VarRef{r.Device, r.Variable}
		if !seen[vr] {
			seen[vr] = true
			out = append(out, vr)
		}
	}
	var walk func(Condition)
	walk = func(c Condition) {
		switch n := c.(type) {
		case *And:
			walk(n.Left)
			walk(n.Right)
		case *Or:
			walk(n.Left)
			walk(n.Right)
		case *Not:
			walk(n.Operand)
		case *Atom:
			add(n.Subject)
			if n.Object.Kind == ObjVariable {
				add(n.Object.Ref)
			}
		}
	}
	walk(c)
	return out
}

// Constraint is one fact recorded for the grouping pass: "this atom
// compared (device, variable) against op/value", or, when Value is nil,
// an opaque reference (a `≡` atom, which schedules a
// value.MergeConstraints call unioning the two sides' constraint sets
// rather than recording a literal value of its own).
type Constraint struct {
	Device, Variable string
	Op               string
	Value            *value.Literal
	EquivDevice      string // set together with EquivVariable when Op == "≡"
	EquivVariable    string
}

// Constraints walks the tree and yields one Constraint per Atom,
// mirroring Condition.getConstraints, generalized from a single tuple to
// the whole expression.
func Constraints(c Condition) []Constraint {
	var out []Constraint
	var walk func(Condition)
	walk = func(c Condition) {
		switch n := c.(type) {
		case *And:
			walk(n.Left)
			walk(n.Right)
		case *Or:
			walk(n.Left)
			walk(n.Right)
		case *Not:
			walk(n.Operand)
		case *Atom:
			if n.Object.Kind == ObjVariable {
				out = append(out, Constraint{
					Device: n.Subject.Device, Variable: n.Subject.Variable,
					Op: "≡", EquivDevice: n.Object.Ref.Device, EquivVariable: n.Object.Ref.Variable,
				})
				out = append(out, Constraint{Device: n.Object.Ref.Device, Variable: n.Object.Ref.Variable, Op: "≡",
					EquivDevice: n.Subject.Device, EquivVariable: n.Subject.Variable})
			} else {
				lit := n.Object.Literal
				out = append(out, Constraint{Device: n.Subject.Device, Variable: n.Subject.Variable, Op: n.Op, Value: &lit})
			}
		}
	}
	walk(c)
	return out
}

// Resolver looks up a device's bound variable by name, the seam between
// this package's pure tree walk and the controller's working set.
type Resolver interface {
	Variable(device, name string) (*value.Variable, error)
}

// NuSMV renders c to a NuSMV boolean expression, optionally applying each
// referenced variable's current grouping (rewriting comparisons and
// collapsing assignment values through Variable.EquivalentTriggerCondition
// / EquivalentActionCondition). assignment selects which of the two
// rewrites an Atom's single relational form stands for: condition atoms
// (trigger/precondition positions) use the comparison rewrite, assignment
// atoms (action positions, always `=`) use the assignment rewrite.
func NuSMV(c Condition, r Resolver, assignment bool) (string, error) {
	switch n := c.(type) {
	case *And:
		l, err := NuSMV(n.Left, r, assignment)
		if err != nil {
			return "", err
		}
		right, err := NuSMV(n.Right, r, assignment)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s & %s)", l, right), nil
	case *Or:
		l, err := NuSMV(n.Left, r, assignment)
		if err != nil {
			return "", err
		}
		right, err := NuSMV(n.Right, r, assignment)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s | %s)", l, right), nil
	case *Not:
		inner, err := NuSMV(n.Operand, r, assignment)
		if err != nil {
			return "", err
		}
		return "!" + inner, nil
	case *True:
		return "TRUE", nil
	case *False:
		return "FALSE", nil
	case *Atom:
		return atomNuSMV(n, r, assignment)
	}
	return "", fmt.Errorf("cond: unknown node type %T", c)
}

// AssignmentRHS renders the right-hand side NuSMV text for assigning obj
// to target: an unchanged reference if obj is itself a variable, or
// target's grouped-domain partition label for obj's literal value
// otherwise. This is what a transition's case-table row actually needs —
// not a full "target = rhs" predicate, just rhs.
func AssignmentRHS(target Ref, obj Object, r Resolver) (string, error) {
	if obj.Kind == ObjVariable {
		return obj.Ref.String(), nil
	}
	v, err := r.Variable(target.Device, target.Variable)
	if err != nil {
		return "", err
	}
	return v.EquivalentActionCondition(obj.Literal), nil
}

func atomNuSMV(a *Atom, r Resolver, assignment bool) (string, error) {
	subjectText := a.Subject.String()

	if a.Object.Kind == ObjVariable {
		return fmt.Sprintf("%s %s %s", subjectText, a.Op, a.Object.Ref), nil
	}

	v, err := r.Variable(a.Subject.Device, a.Subject.Variable)
	if err != nil {
		return "", err
	}

	if assignment {
		text := v.EquivalentActionCondition(a.Object.Literal)
		return fmt.Sprintf("%s = %s", subjectText, text), nil
	}

	op, text, err := v.EquivalentTriggerCondition(a.Op, a.Object.Literal)
	if err != nil {
		return "", err
	}
	if text == "{}" {
		return "FALSE", nil
	}
	return fmt.Sprintf("%s %s %s", subjectText, op, text), nil
}

// SimplifyText drops the constant operands NuSMV rewrites leave behind when
// an Atom collapses to TRUE or FALSE: a leading `TRUE & ` or trailing
// ` & TRUE` inside a parenthesised group, and likewise `FALSE | ` and
// ` | FALSE`, repeated until nothing changes. The enclosing parentheses
// are kept, so `(TRUE & x)` becomes `(x)`. It operates on rendered text rather than
// the tree since NuSMV already returns text; kept here because it is
// cond's concern (textual boolean simplification), not the emitter's.
func SimplifyText(expr string) string {
	for {
		next := strings.ReplaceAll(expr, "(TRUE & ", "(")
		next = strings.ReplaceAll(next, " & TRUE)", ")")
		next = strings.ReplaceAll(next, "(FALSE | ", "(")
		next = strings.ReplaceAll(next, " | FALSE)", ")")
		if next == expr {
			return expr
		}
		expr = next
	}
}
