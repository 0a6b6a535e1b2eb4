// ABOUTME: Unit tests for expression dependency analysis
// ABOUTME: Verifies built-in callees are excluded and parse failures degrade to empty
package vecmath

import (
	"reflect"
	"testing"
)

func TestDependencyList(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"a0 + a1", []string{"a0", "a1"}},
		{"a0 + a0 * 2", []string{"a0"}},
		{"cosineSimilarity(a0, b1) * a2", []string{"a0", "a2", "b1"}},
		{"normalize(mean(a0, a1))", []string{"a0", "a1"}},
		{"1 + 2", []string{}},
		{"", []string{}},
		{"a0 +", []string{}},
		{"custom(a3)", []string{"a3", "custom"}},
		{"a0 + norm", []string{"a0", "norm"}},
		{"dot(mean, a1)", []string{"a1", "mean"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := DependencyList(tt.expr)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DependencyList(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestDependencies_ExcludesBuiltins(t *testing.T) {
	deps := Dependencies("cosineSimilarity(a0, a1) + dot(a0, a1) + norm(a0)")
	for _, name := range BuiltinNames() {
		if _, ok := deps[name]; ok {
			t.Errorf("built-in %s reported as dependency", name)
		}
	}
	if len(deps) != 2 {
		t.Errorf("expected 2 dependencies, got %v", deps)
	}
}
