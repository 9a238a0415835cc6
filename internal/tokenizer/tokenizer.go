// Package tokenizer turns raw field text into the normalized lexemes and
// trigram shingles used by the search indexes. Vector building and query
// planning share this package so that a query is normalized exactly like
// the text it is matched against.
package tokenizer

import (
	"regexp"
	"strings"
)

// nonWordRegex matches sequences of characters that separate words.
var nonWordRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases and trims text.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Tokenize converts text into normalized tokens: lowercase, split on word
// boundaries, empty tokens dropped. Stopwords are kept; callers that want
// lexemes use Lexemes.
func Tokenize(text string) []string {
	split := nonWordRegex.Split(Normalize(text), -1)

	tokens := make([]string, 0, len(split))
	for _, s := range split {
		if s != "" {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// Lexemes tokenizes text and strips stopwords. This is the pipeline used
// for both indexed fields and incoming queries.
func Lexemes(text string) []string {
	tokens := Tokenize(text)

	lexemes := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if stopwords[token] {
			continue
		}
		lexemes = append(lexemes, token)
	}
	return lexemes
}

// UniqueLexemes returns the lexemes of text deduplicated, preserving first
// occurrence order.
func UniqueLexemes(text string) []string {
	lexemes := Lexemes(text)

	seen := make(map[string]struct{}, len(lexemes))
	unique := make([]string, 0, len(lexemes))
	for _, lexeme := range lexemes {
		if _, ok := seen[lexeme]; ok {
			continue
		}
		seen[lexeme] = struct{}{}
		unique = append(unique, lexeme)
	}
	return unique
}

// Shingles returns the trigram shingle set of text. Each token is padded
// with two leading and one trailing space before the 3-character windows
// are taken, so word starts weigh more than word interiors. "flour" yields
// {"  f", " fl", "flo", "lou", "our", "ur "}.
func Shingles(text string) map[string]struct{} {
	shingles := make(map[string]struct{})
	for _, token := range Tokenize(text) {
		padded := "  " + token + " "
		for i := 0; i+3 <= len(padded); i++ {
			shingles[padded[i:i+3]] = struct{}{}
		}
	}
	return shingles
}
