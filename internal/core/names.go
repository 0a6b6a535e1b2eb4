// ABOUTME: Name allocation for new embedding entries
// ABOUTME: Picks the smallest free prefix+index so freed names are reused
package core

import "strconv"

const (
	// TextPrefix names text entries a0, a1, ...
	TextPrefix = "a"
	// MathPrefix names math entries b0, b1, ...
	MathPrefix = "b"
)

// NextName returns prefix+i for the smallest i >= 0 not present in taken
func NextName(prefix string, taken map[string]struct{}) string {
	for i := 0; ; i++ {
		name := prefix + strconv.Itoa(i)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}
