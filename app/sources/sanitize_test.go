package sources

import (
	"strings"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "Just a sentence.",
			want:  "Just a sentence.",
		},
		{
			name:  "tags removed",
			input: "<p>Hello <strong>world</strong></p>",
			want:  "Hello world",
		},
		{
			name:  "entities decoded",
			input: "Fish &amp; chips",
			want:  "Fish & chips",
		},
		{
			name:  "whitespace collapsed",
			input: "<div>first</div>   <div>second</div>",
			want:  "first second",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stripMarkup(tt.input)
			if got != tt.want {
				t.Errorf("stripMarkup(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("hello", 10); got != "hello" {
		t.Errorf("Short string should be unchanged, got %q", got)
	}
	if got := truncate("hello world", 5); got != "hello" {
		t.Errorf("Expected 'hello', got %q", got)
	}
	long := strings.Repeat("é", 600)
	if got := truncate(long, 500); len([]rune(got)) != 500 {
		t.Errorf("Expected 500 runes, got %d", len([]rune(got)))
	}
}
