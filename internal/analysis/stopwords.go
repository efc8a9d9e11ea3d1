package analysis

import (
	_ "embed"
	"strings"
)

//go:embed stopwords_en.txt
var englishStopwords string

// fillerWords are frequent words in job descriptions that carry no skill signal.
var fillerWords = []string{
	"could", "would", "never", "one", "even", "like", "said", "say", "also",
	"might", "must", "every", "much", "may", "two", "know", "upon", "without",
	"go", "went", "got", "put", "see", "seem", "seemed", "take", "taken",
	"make", "made", "come", "came", "look", "looking", "think", "thinking",
	"thought", "use", "used", "find", "found", "give", "given", "tell", "told",
	"ask", "asked", "back", "get", "getting", "keep", "kept", "let", "lets",
	"ensure", "provide", "seems", "leave", "left", "set", "from", "subject", "re",
	"edu",
}

var stopwords = buildStopwords()

func buildStopwords() map[string]struct{} {
	set := make(map[string]struct{}, 256)
	for _, line := range strings.Split(englishStopwords, "\n") {
		word := strings.TrimSpace(line)
		if word == "" {
			continue
		}
		set[word] = struct{}{}
	}
	for _, word := range fillerWords {
		set[word] = struct{}{}
	}
	return set
}

// IsStopword reports whether the lowercased token is ignored by the word frequency report.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}
