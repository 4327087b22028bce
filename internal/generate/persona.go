package generate

import "strings"

// personaKeywords maps summary vocabulary to a communication-style label
// used to steer message tone. First match wins; order is most to least
// specific.
var personaKeywords = []struct {
	label string
	words []string
}{
	{"analytical", []string{"data", "metrics", "analysis", "research", "engineering"}},
	{"driver", []string{"results", "growth", "revenue", "performance", "execution"}},
	{"expressive", []string{"vision", "innovation", "creative", "transformation"}},
	{"amiable", []string{"team", "people", "relationship", "culture", "community"}},
}

// InferPersona maps a strategic brief to a communication-style label.
// Unmatched text gets the neutral "balanced" label.
func InferPersona(summary string) string {
	lower := strings.ToLower(summary)
	for _, p := range personaKeywords {
		for _, w := range p.words {
			if strings.Contains(lower, w) {
				return p.label
			}
		}
	}
	return "balanced"
}
