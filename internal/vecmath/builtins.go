// ABOUTME: Built-in functions injected into every expression scope
// ABOUTME: cosineSimilarity, dot, norm, normalize and mean
package vecmath

import (
	"fmt"
	"sort"
)

// CosineSimilarityFunc is the name under which cosine similarity is exposed to expressions
const CosineSimilarityFunc = "cosineSimilarity"

var builtins = map[string]Func{
	CosineSimilarityFunc: func(args []Value) (Value, error) {
		a, b, err := twoVectors(args)
		if err != nil {
			return Value{}, err
		}
		sim, err := CosineSimilarity(a, b)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return ScalarValue(sim), nil
	},
	"dot": func(args []Value) (Value, error) {
		a, b, err := twoVectors(args)
		if err != nil {
			return Value{}, err
		}
		d, err := Dot(a, b)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return ScalarValue(d), nil
	},
	"norm": func(args []Value) (Value, error) {
		v, err := oneVector(args)
		if err != nil {
			return Value{}, err
		}
		return ScalarValue(Norm(v)), nil
	},
	"normalize": func(args []Value) (Value, error) {
		v, err := oneVector(args)
		if err != nil {
			return Value{}, err
		}
		n := Norm(v)
		if n == 0 {
			return Value{}, ErrDivisionByZero
		}
		return scale(VectorValue(v), 1/n), nil
	},
	"mean": func(args []Value) (Value, error) {
		if len(args) == 0 {
			return Value{}, fmt.Errorf("%w: want at least 1, got 0", ErrArity)
		}
		var sum []float64
		for i, a := range args {
			if !a.IsVector {
				return Value{}, fmt.Errorf("%w: argument %d is a scalar", ErrTypeMismatch, i+1)
			}
			if sum == nil {
				sum = make([]float64, len(a.Vector))
			}
			if len(a.Vector) != len(sum) {
				return Value{}, fmt.Errorf("%w: argument %d has length %d, want %d", ErrTypeMismatch, i+1, len(a.Vector), len(sum))
			}
			for j, x := range a.Vector {
				sum[j] += x
			}
		}
		return scale(VectorValue(sum), 1/float64(len(args))), nil
	},
}

// BuiltinNames returns the sorted names of the built-in functions
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether name is reserved for a built-in function
func IsBuiltin(name string) bool {
	_, ok := builtins[name]
	return ok
}

func oneVector(args []Value) ([]float64, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: want 1, got %d", ErrArity, len(args))
	}
	if !args[0].IsVector {
		return nil, fmt.Errorf("%w: want a vector, got a scalar", ErrTypeMismatch)
	}
	return args[0].Vector, nil
}

func twoVectors(args []Value) ([]float64, []float64, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%w: want 2, got %d", ErrArity, len(args))
	}
	if !args[0].IsVector || !args[1].IsVector {
		return nil, nil, fmt.Errorf("%w: want two vectors, got %s and %s", ErrTypeMismatch, args[0].kind(), args[1].kind())
	}
	return args[0].Vector, args[1].Vector, nil
}
