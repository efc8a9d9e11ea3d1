package analysis

import "strings"

// nounExceptions maps irregular plural forms to their base form.
var nounExceptions = map[string]string{
	"analyses":    "analysis",
	"bases":       "base",
	"children":    "child",
	"crises":      "crisis",
	"criteria":    "criterion",
	"diagnoses":   "diagnosis",
	"feet":        "foot",
	"geese":       "goose",
	"hypotheses":  "hypothesis",
	"indices":     "index",
	"matrices":    "matrix",
	"media":       "medium",
	"men":         "man",
	"mice":        "mouse",
	"phenomena":   "phenomenon",
	"teeth":       "tooth",
	"theses":      "thesis",
	"vertices":    "vertex",
	"women":       "woman",
	"salespeople": "salesperson",
	"appendices":  "appendix",
}

// invariantNouns are words ending in "s" that are already in their base form.
var invariantNouns = toSet(
	"news", "series", "species", "aws", "kubernetes", "pandas", "sass", "css", "ios",
	"analytics", "mathematics", "economics", "logistics", "physics", "sales",
	"always", "whereas", "perhaps",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Lemmatize reduces a lowercased token to its singular noun form.
// Tokens that do not look like regular plurals are returned unchanged.
func Lemmatize(token string) string {
	if base, ok := nounExceptions[token]; ok {
		return base
	}
	if _, ok := invariantNouns[token]; ok {
		return token
	}
	if len(token) <= 3 || !strings.HasSuffix(token, "s") {
		return token
	}

	switch {
	case strings.HasSuffix(token, "ss"),
		strings.HasSuffix(token, "us"),
		strings.HasSuffix(token, "is"),
		strings.HasSuffix(token, "ous"):
		return token
	case strings.HasSuffix(token, "ies") && len(token) > 4:
		return strings.TrimSuffix(token, "ies") + "y"
	case strings.HasSuffix(token, "sses"),
		strings.HasSuffix(token, "xes"),
		strings.HasSuffix(token, "zes"),
		strings.HasSuffix(token, "ches"),
		strings.HasSuffix(token, "shes"):
		return strings.TrimSuffix(token, "es")
	default:
		return strings.TrimSuffix(token, "s")
	}
}
