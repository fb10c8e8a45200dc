package sources

import (
	"testing"
)

func TestFilterAccept(t *testing.T) {
	filter := NewFilter()

	tests := []struct {
		name        string
		title       string
		description string
		want        bool
	}{
		{
			name:        "positive keyword accepts",
			title:       "Local hero rescues kitten from storm drain",
			description: "A heartwarming story from downtown",
			want:        true,
		},
		{
			name:        "negative keyword rejects",
			title:       "Hero firefighter dies in blaze",
			description: "",
			want:        false,
		},
		{
			name:        "no positive cue rejects",
			title:       "City council meets on Tuesday",
			description: "Agenda includes zoning updates",
			want:        false,
		},
		{
			name:        "negative in description rejects",
			title:       "Community celebrates anniversary",
			description: "Residents recall the disaster of 2010",
			want:        false,
		},
		{
			name:        "case insensitive match",
			title:       "BREAKTHROUGH in renewable energy",
			description: "",
			want:        true,
		},
		{
			name:        "empty text rejects",
			title:       "",
			description: "",
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filter.Accept(tt.title, tt.description)
			if got != tt.want {
				t.Errorf("Accept(%q, %q) = %v, want %v", tt.title, tt.description, got, tt.want)
			}
		})
	}
}

func TestFilterCustomKeywords(t *testing.T) {
	filter := NewFilterWithKeywords([]string{"bad"}, []string{"good"})

	if filter.Accept("a bad good day", "") {
		t.Error("Negative keyword should win over positive keyword")
	}
	if !filter.Accept("a good day", "") {
		t.Error("Positive keyword should accept")
	}
	if filter.Accept("a plain day", "") {
		t.Error("Absence of positive keyword should reject")
	}
}
