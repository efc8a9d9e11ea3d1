package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// asciiPunctuation is the set of characters deleted before tokenization.
	asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	minTokenLength   = 3
)

// NormalizeCorpus builds the word frequency table of text: lowercase, digits and punctuation removed,
// short tokens and stopwords dropped, tokens lemmatized. The table is ordered by descending count,
// ties keep first-encounter order.
func NormalizeCorpus(text string) Counts {
	tokens := Tokenize(text)
	lemmas := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if IsStopword(token) {
			continue
		}
		lemmas = append(lemmas, Lemmatize(token))
	}
	return byCountDesc(countInOrder(lemmas))
}

// Tokenize lowercases text, strips digits and punctuation and splits on whitespace.
// Tokens shorter than three characters are dropped.
func Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || (r < utf8.RuneSelf && strings.ContainsRune(asciiPunctuation, r)) {
			return -1
		}
		return r
	}, strings.ToLower(text))

	fields := strings.Fields(cleaned)
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minTokenLength {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
