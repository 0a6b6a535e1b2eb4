// ABOUTME: Tests for shared utility functions used by CLI commands
// ABOUTME: Verifies truncate and console argument splitting

package commands

import (
	"reflect"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{
			name:   "short string unchanged",
			input:  "hello",
			maxLen: 10,
			want:   "hello",
		},
		{
			name:   "exact length unchanged",
			input:  "hello",
			maxLen: 5,
			want:   "hello",
		},
		{
			name:   "long string truncated",
			input:  "hello world",
			maxLen: 8,
			want:   "hello...",
		},
		{
			name:   "very short maxLen",
			input:  "hello",
			maxLen: 2,
			want:   "he",
		},
		{
			name:   "empty string",
			input:  "",
			maxLen: 10,
			want:   "",
		},
		{
			name:   "unicode truncated with ellipsis",
			input:  "你好世界你好世界",
			maxLen: 5,
			want:   "你好...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		line string
		n    int
		want []string
	}{
		{"empty", "   ", 2, nil},
		{"single word", "ls", 2, []string{"ls"}},
		{"rest keeps spacing", "text a0  hello   world ", 3, []string{"text", "a0", "hello   world"}},
		{"tabs separate", "rm\ta0", 2, []string{"rm", "a0"}},
		{"fewer words than parts", "text a0", 3, []string{"text", "a0"}},
		{"n of one", "a b c", 1, []string{"a b c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitArgs(tt.line, tt.n)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitArgs(%q, %d) = %q, want %q", tt.line, tt.n, got, tt.want)
			}
		})
	}
}
