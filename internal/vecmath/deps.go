// ABOUTME: Static dependency analysis for math expressions
// ABOUTME: Extracts referenced identifiers without evaluating anything
package vecmath

import (
	"go/ast"
	"go/parser"
	"sort"
)

// Dependencies returns every free identifier referenced by expr, excluding
// built-in function names in call position. A parse failure yields an empty set.
func Dependencies(expr string) map[string]struct{} {
	deps := make(map[string]struct{})

	node, err := parser.ParseExpr(expr)
	if err != nil {
		return deps
	}

	ast.Inspect(node, visit(deps))
	return deps
}

// visit records identifiers into deps, skipping built-in callees
func visit(deps map[string]struct{}) func(ast.Node) bool {
	var fn func(ast.Node) bool
	fn = func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.CallExpr:
			if id, ok := x.Fun.(*ast.Ident); ok && IsBuiltin(id.Name) {
				for _, arg := range x.Args {
					ast.Inspect(arg, fn)
				}
				return false
			}
		case *ast.Ident:
			deps[x.Name] = struct{}{}
		case *ast.SelectorExpr:
			// a.b is rejected by the evaluator; only the base counts
			ast.Inspect(x.X, fn)
			return false
		}
		return true
	}
	return fn
}

// DependencyList returns Dependencies(expr) as a sorted slice
func DependencyList(expr string) []string {
	deps := Dependencies(expr)
	out := make([]string, 0, len(deps))
	for name := range deps {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
