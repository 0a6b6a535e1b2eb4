// ABOUTME: Arithmetic expression evaluator over named embedding vectors
// ABOUTME: Parses with go/parser and evaluates scalars/vectors against a Scope
package vecmath

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
)

// Value is an evaluation result: either a scalar or a vector
type Value struct {
	Scalar   float64
	Vector   []float64
	IsVector bool
}

// ScalarValue wraps a float as a Value
func ScalarValue(f float64) Value {
	return Value{Scalar: f}
}

// VectorValue wraps a vector as a Value
func VectorValue(v []float64) Value {
	return Value{Vector: v, IsVector: true}
}

func (v Value) kind() string {
	if v.IsVector {
		return fmt.Sprintf("vector[%d]", len(v.Vector))
	}
	return "scalar"
}

// Func is a function callable from an expression
type Func func(args []Value) (Value, error)

// Scope resolves identifiers to vectors and function names to Funcs.
// Every scope created by NewScope carries the built-in functions.
type Scope struct {
	vars  map[string]Value
	funcs map[string]Func
}

// NewScope creates a scope holding only the built-in functions
func NewScope() *Scope {
	s := &Scope{
		vars:  make(map[string]Value),
		funcs: make(map[string]Func, len(builtins)),
	}
	for name, fn := range builtins {
		s.funcs[name] = fn
	}
	return s
}

// SetVector binds name to a vector
func (s *Scope) SetVector(name string, v []float64) {
	s.vars[name] = VectorValue(v)
}

// SetFunc binds name to a callable, shadowing any built-in of the same name
func (s *Scope) SetFunc(name string, fn Func) {
	s.funcs[name] = fn
}

// Evaluate parses expr and evaluates it against scope.
// All failures are returned as *EvaluationError.
func Evaluate(expr string, scope *Scope) (Value, error) {
	if scope == nil {
		scope = NewScope()
	}
	if strings.TrimSpace(expr) == "" {
		return Value{}, &EvaluationError{Expression: expr, Err: ErrEmptyExpression}
	}

	node, err := parser.ParseExpr(expr)
	if err != nil {
		return Value{}, &EvaluationError{Expression: expr, Err: fmt.Errorf("%w: %v", ErrSyntax, err)}
	}

	v, err := scope.eval(node)
	if err != nil {
		return Value{}, &EvaluationError{Expression: expr, Err: err}
	}
	return v, nil
}

// EvaluateVector evaluates expr and requires the result to be a vector
func EvaluateVector(expr string, scope *Scope) ([]float64, error) {
	v, err := Evaluate(expr, scope)
	if err != nil {
		return nil, err
	}
	if !v.IsVector {
		return nil, &EvaluationError{
			Expression: expr,
			Err:        fmt.Errorf("%w: expression yields a scalar, not a vector", ErrTypeMismatch),
		}
	}
	return v.Vector, nil
}

func (s *Scope) eval(node ast.Expr) (Value, error) {
	switch n := node.(type) {
	case *ast.ParenExpr:
		return s.eval(n.X)

	case *ast.BasicLit:
		return parseLiteral(n)

	case *ast.Ident:
		if v, ok := s.vars[n.Name]; ok {
			return v, nil
		}
		if _, ok := s.funcs[n.Name]; ok {
			return Value{}, fmt.Errorf("%w: function %s used as a value", ErrTypeMismatch, n.Name)
		}
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownIdentifier, n.Name)

	case *ast.UnaryExpr:
		x, err := s.eval(n.X)
		if err != nil {
			return Value{}, err
		}
		switch n.Op {
		case token.ADD:
			return x, nil
		case token.SUB:
			return scale(x, -1), nil
		}
		return Value{}, fmt.Errorf("%w: unsupported unary operator %s", ErrSyntax, n.Op)

	case *ast.BinaryExpr:
		x, err := s.eval(n.X)
		if err != nil {
			return Value{}, err
		}
		y, err := s.eval(n.Y)
		if err != nil {
			return Value{}, err
		}
		return binary(n.Op, x, y)

	case *ast.CallExpr:
		ident, ok := n.Fun.(*ast.Ident)
		if !ok || n.Ellipsis.IsValid() {
			return Value{}, fmt.Errorf("%w: unsupported call", ErrSyntax)
		}
		fn, ok := s.funcs[ident.Name]
		if !ok {
			if _, isVar := s.vars[ident.Name]; isVar {
				return Value{}, fmt.Errorf("%w: %s is not a function", ErrTypeMismatch, ident.Name)
			}
			return Value{}, fmt.Errorf("%w: %s", ErrUnknownIdentifier, ident.Name)
		}
		args := make([]Value, 0, len(n.Args))
		for _, a := range n.Args {
			v, err := s.eval(a)
			if err != nil {
				return Value{}, err
			}
			args = append(args, v)
		}
		v, err := fn(args)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", ident.Name, err)
		}
		return v, nil
	}

	return Value{}, fmt.Errorf("%w: unsupported expression %T", ErrSyntax, node)
}

func parseLiteral(lit *ast.BasicLit) (Value, error) {
	switch lit.Kind {
	case token.INT:
		i, err := strconv.ParseInt(lit.Value, 0, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: bad integer %s", ErrSyntax, lit.Value)
		}
		return ScalarValue(float64(i)), nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: bad number %s", ErrSyntax, lit.Value)
		}
		return ScalarValue(f), nil
	}
	return Value{}, fmt.Errorf("%w: unsupported literal %s", ErrSyntax, lit.Value)
}

// binary follows math-library semantics: vector*vector is the dot product,
// scalars broadcast over vectors for + and -, and vector/vector is undefined.
func binary(op token.Token, x, y Value) (Value, error) {
	switch op {
	case token.ADD, token.SUB:
		sign := 1.0
		if op == token.SUB {
			sign = -1
		}
		switch {
		case !x.IsVector && !y.IsVector:
			return ScalarValue(x.Scalar + sign*y.Scalar), nil
		case x.IsVector && y.IsVector:
			if len(x.Vector) != len(y.Vector) {
				return Value{}, fmt.Errorf("%w: %s %s %s", ErrTypeMismatch, x.kind(), op, y.kind())
			}
			out := make([]float64, len(x.Vector))
			for i := range out {
				out[i] = x.Vector[i] + sign*y.Vector[i]
			}
			return VectorValue(out), nil
		case x.IsVector:
			out := make([]float64, len(x.Vector))
			for i := range out {
				out[i] = x.Vector[i] + sign*y.Scalar
			}
			return VectorValue(out), nil
		default:
			out := make([]float64, len(y.Vector))
			for i := range out {
				out[i] = x.Scalar + sign*y.Vector[i]
			}
			return VectorValue(out), nil
		}

	case token.MUL:
		switch {
		case !x.IsVector && !y.IsVector:
			return ScalarValue(x.Scalar * y.Scalar), nil
		case x.IsVector && y.IsVector:
			d, err := Dot(x.Vector, y.Vector)
			if err != nil {
				return Value{}, fmt.Errorf("%w: %s * %s", ErrTypeMismatch, x.kind(), y.kind())
			}
			return ScalarValue(d), nil
		case x.IsVector:
			return scale(x, y.Scalar), nil
		default:
			return scale(y, x.Scalar), nil
		}

	case token.QUO:
		if y.IsVector {
			return Value{}, fmt.Errorf("%w: cannot divide by %s", ErrTypeMismatch, y.kind())
		}
		if y.Scalar == 0 {
			return Value{}, ErrDivisionByZero
		}
		return scale(x, 1/y.Scalar), nil
	}

	return Value{}, fmt.Errorf("%w: unsupported operator %s", ErrSyntax, op)
}

func scale(v Value, k float64) Value {
	if !v.IsVector {
		return ScalarValue(v.Scalar * k)
	}
	out := make([]float64, len(v.Vector))
	for i, x := range v.Vector {
		out[i] = x * k
	}
	return VectorValue(out)
}
