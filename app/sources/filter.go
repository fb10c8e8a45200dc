package sources

import (
	"strings"
)

// Default keyword vocabularies for the positivity filter. Negative cues
// exclude a candidate outright; at least one positive cue must be present
// for a candidate to pass.
var defaultNegativeKeywords = []string{
	"death", "die", "died", "kill", "murder", "shoot", "attack",
	"war", "conflict", "terror", "bomb", "explode", "crash", "accident",
	"fire", "disaster", "threat", "warning", "crisis", "scandal", "abuse",
	"violence", "injure", "wound", "arrest", "guilty", "sentence", "jail",
	"prison", "convicted", "fraud", "scam", "stolen", "theft", "robbery",
	"missing", "lost", "disappear", "tragic", "devastat", "destroy",
	"lawsuit", "sue", "bankrupt", "collapse", "fail", "defeat", "loss",
	"cancer", "disease outbreak", "pandemic", "epidemic", "victim",
}

var defaultPositiveKeywords = []string{
	"rescue", "save", "hero", "miracle", "heartwarming", "inspire",
	"help", "donate", "charity", "volunteer", "recover", "cure",
	"breakthrough", "discover", "success", "achieve", "win", "celebrate",
	"award", "honor", "graduate", "adopted", "reunite", "wedding",
	"birth", "newborn", "joy", "happy", "smile", "kind", "generous",
	"hope", "peace", "unity", "together", "community", "friend",
	"love", "compassion", "beauty", "amazing", "wonderful", "fantastic",
}

// Filter is a conservative keyword allow-list: any negative cue rejects,
// and without at least one positive cue a candidate is rejected too.
type Filter struct {
	negative []string
	positive []string
}

// NewFilter builds a filter with the default keyword vocabularies.
func NewFilter() *Filter {
	return &Filter{
		negative: defaultNegativeKeywords,
		positive: defaultPositiveKeywords,
	}
}

// NewFilterWithKeywords builds a filter with custom vocabularies.
func NewFilterWithKeywords(negative, positive []string) *Filter {
	return &Filter{negative: negative, positive: positive}
}

// Accept reports whether a candidate with the given title and description
// passes the filter.
func (f *Filter) Accept(title, description string) bool {
	text := strings.ToLower(title + " " + description)

	for _, keyword := range f.negative {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return false
		}
	}

	for _, keyword := range f.positive {
		if strings.Contains(text, strings.ToLower(keyword)) {
			return true
		}
	}

	return false
}
