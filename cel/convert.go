package cel

// This file converts parsed CEL expressions to the expression nodes indexed by
// a trigger tree. Comparisons of a variable with a literal, the logical
// operators, and the pseudo functions exists, optional and ignore are
// converted structurally. Any other sub-expression is unparsed back to
// source and kept as an opaque expr.Call.

import (
	"fmt"
	"slices"

	"github.com/ezachrisen/triggertree/expr"
	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/operators"
	gexpr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Names of the functions with special meaning in trigger expressions.
const (
	ExistsFunction   = "exists"
	OptionalFunction = "optional"
	IgnoreFunction   = "ignore"
)

var comparisons = map[string]expr.Op{
	operators.Equals:        expr.Equal,
	operators.NotEquals:     expr.NotEqual,
	operators.Less:          expr.Less,
	operators.LessEquals:    expr.LessEqual,
	operators.Greater:       expr.Greater,
	operators.GreaterEquals: expr.GreaterEqual,
}

type converter struct {
	info *gexpr.SourceInfo
}

func convert(ast *celgo.Ast) (expr.Node, error) {
	parsed, err := celgo.AstToParsedExpr(ast)
	if err != nil {
		return nil, err
	}
	c := converter{info: parsed.GetSourceInfo()}
	return c.node(parsed.GetExpr())
}

func (c converter) node(e *gexpr.Expr) (expr.Node, error) {
	switch k := e.ExprKind.(type) {
	case *gexpr.Expr_ConstExpr:
		if b, ok := k.ConstExpr.ConstantKind.(*gexpr.Constant_BoolValue); ok {
			return expr.Const{Value: b.BoolValue}, nil
		}
	case *gexpr.Expr_IdentExpr:
		return expr.Eq(k.IdentExpr.GetName(), true), nil
	case *gexpr.Expr_SelectExpr:
		// has(a.b) is parsed to a test-only select
		if k.SelectExpr.GetTestOnly() {
			if p, ok := path(k.SelectExpr.GetOperand()); ok {
				return expr.Has(p + "." + k.SelectExpr.GetField()), nil
			}
			break
		}
		if p, ok := path(e); ok {
			return expr.Eq(p, true), nil
		}
	case *gexpr.Expr_CallExpr:
		if k.CallExpr.GetTarget() == nil {
			return c.call(e, k.CallExpr)
		}
	}
	return c.opaque(e)
}

func (c converter) call(e *gexpr.Expr, call *gexpr.Expr_Call) (expr.Node, error) {
	args := call.GetArgs()
	switch fn := call.GetFunction(); fn {
	case operators.LogicalAnd:
		terms, err := c.flatten(fn, args, nil)
		if err != nil {
			return nil, err
		}
		return expr.And{Terms: terms}, nil
	case operators.LogicalOr:
		terms, err := c.flatten(fn, args, nil)
		if err != nil {
			return nil, err
		}
		return expr.Or{Terms: terms}, nil
	case operators.LogicalNot:
		t, err := c.unary(args)
		if err != nil {
			return nil, err
		}
		return expr.Not{Term: t}, nil
	case OptionalFunction:
		t, err := c.unary(args)
		if err != nil {
			return nil, err
		}
		return expr.Optional{Term: t}, nil
	case IgnoreFunction:
		t, err := c.unary(args)
		if err != nil {
			return nil, err
		}
		return expr.Ignore{Term: t}, nil
	case ExistsFunction:
		if len(args) == 1 {
			if p, ok := path(args[0]); ok {
				return expr.Has(p), nil
			}
		}
	case operators.In:
		if n, ok := in(args); ok {
			return n, nil
		}
	default:
		if op, ok := comparisons[fn]; ok && len(args) == 2 {
			if n, ok := compare(op, args[0], args[1]); ok {
				return n, nil
			}
		}
	}
	return c.opaque(e)
}

func (c converter) unary(args []*gexpr.Expr) (expr.Node, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: expected 1 argument, got %d", expr.ErrInvalidExpression, len(args))
	}
	return c.node(args[0])
}

// flatten collects the terms of nested calls to the same logical operator, so
// that a && b && c becomes a single And.
func (c converter) flatten(fn string, args []*gexpr.Expr, terms []expr.Node) ([]expr.Node, error) {
	for _, a := range args {
		if call := a.GetCallExpr(); call != nil && call.GetFunction() == fn && call.GetTarget() == nil {
			var err error
			if terms, err = c.flatten(fn, call.GetArgs(), terms); err != nil {
				return nil, err
			}
			continue
		}
		t, err := c.node(a)
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}
	return terms, nil
}

// compare converts a comparison of a variable with a literal, in either order.
// Comparing with null tests for presence.
func compare(op expr.Op, l, r *gexpr.Expr) (expr.Node, bool) {
	p, ok := path(l)
	lit := r
	if !ok {
		if p, ok = path(r); !ok {
			return nil, false
		}
		lit = l
		op = op.Flip()
	}
	v, ok := literal(lit)
	if !ok {
		return nil, false
	}
	if v == nil {
		switch op {
		case expr.Equal:
			return expr.Compare{Path: p, Op: expr.NotExists}, true
		case expr.NotEqual:
			return expr.Has(p), true
		}
		return nil, false
	}
	return expr.Compare{Path: p, Op: op, Value: v}, true
}

// in converts x in [a, b] to x == a || x == b.
func in(args []*gexpr.Expr) (expr.Node, bool) {
	if len(args) != 2 {
		return nil, false
	}
	p, ok := path(args[0])
	if !ok {
		return nil, false
	}
	list := args[1].GetListExpr()
	if list == nil {
		return nil, false
	}
	var terms []expr.Node
	for _, el := range list.GetElements() {
		v, ok := literal(el)
		if !ok || v == nil {
			return nil, false
		}
		terms = append(terms, expr.Eq(p, v))
	}
	return expr.Or{Terms: terms}, true
}

// path returns the dotted path of an identifier or a chain of field selections.
func path(e *gexpr.Expr) (string, bool) {
	switch k := e.ExprKind.(type) {
	case *gexpr.Expr_IdentExpr:
		return k.IdentExpr.GetName(), true
	case *gexpr.Expr_SelectExpr:
		if k.SelectExpr.GetTestOnly() {
			return "", false
		}
		p, ok := path(k.SelectExpr.GetOperand())
		if !ok {
			return "", false
		}
		return p + "." + k.SelectExpr.GetField(), true
	}
	return "", false
}

// literal returns the Go value of a constant. null is returned as nil.
func literal(e *gexpr.Expr) (any, bool) {
	k := e.GetConstExpr()
	if k == nil {
		return nil, false
	}
	switch v := k.ConstantKind.(type) {
	case *gexpr.Constant_BoolValue:
		return v.BoolValue, true
	case *gexpr.Constant_Int64Value:
		return v.Int64Value, true
	case *gexpr.Constant_Uint64Value:
		return v.Uint64Value, true
	case *gexpr.Constant_DoubleValue:
		return v.DoubleValue, true
	case *gexpr.Constant_StringValue:
		return v.StringValue, true
	case *gexpr.Constant_NullValue:
		return nil, true
	}
	return nil, false
}

// opaque unparses e and wraps it in a Call.
func (c converter) opaque(e *gexpr.Expr) (expr.Node, error) {
	ast := celgo.ParsedExprToAst(&gexpr.ParsedExpr{Expr: e, SourceInfo: c.info})
	src, err := celgo.AstToString(ast)
	if err != nil {
		return nil, fmt.Errorf("unparsing expression %d: %w", e.GetId(), err)
	}
	call := expr.Call{Source: src}
	if ce := e.GetCallExpr(); ce != nil {
		call.Function = ce.GetFunction()
	}
	call.Vars = rootVars(e)
	return call, nil
}

// rootVars returns the names of the variables e refers to, sorted.
func rootVars(e *gexpr.Expr) []string {
	var vars []string
	var bound []string
	var walk func(e *gexpr.Expr)
	walk = func(e *gexpr.Expr) {
		if e == nil {
			return
		}
		switch k := e.ExprKind.(type) {
		case *gexpr.Expr_IdentExpr:
			if name := k.IdentExpr.GetName(); !slices.Contains(bound, name) && !slices.Contains(vars, name) {
				vars = append(vars, name)
			}
		case *gexpr.Expr_SelectExpr:
			walk(k.SelectExpr.GetOperand())
		case *gexpr.Expr_CallExpr:
			walk(k.CallExpr.GetTarget())
			for _, a := range k.CallExpr.GetArgs() {
				walk(a)
			}
		case *gexpr.Expr_ListExpr:
			for _, el := range k.ListExpr.GetElements() {
				walk(el)
			}
		case *gexpr.Expr_StructExpr:
			for _, en := range k.StructExpr.GetEntries() {
				walk(en.GetMapKey())
				walk(en.GetValue())
			}
		case *gexpr.Expr_ComprehensionExpr:
			comp := k.ComprehensionExpr
			walk(comp.GetIterRange())
			walk(comp.GetAccuInit())
			bound = append(bound, comp.GetIterVar(), comp.GetAccuVar())
			walk(comp.GetLoopCondition())
			walk(comp.GetLoopStep())
			walk(comp.GetResult())
			bound = bound[:len(bound)-2]
		}
	}
	walk(e)
	slices.Sort(vars)
	return vars
}
