// Package textutil holds the tokenizer shared by the offline embedder,
// the lexical retrieval fallback, the summarizer and the TUI highlighter.
package textutil

import (
	"math"
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Words returns the lower-cased letter tokens of s.
func Words(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// ContentWords returns Words(s) without stopwords.
func ContentWords(s string) []string {
	raw := Words(s)
	out := raw[:0]
	for _, t := range raw {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// IsStopword reports whether the lower-cased token is a stopword.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

// TokenSet returns the distinct Words of s.
func TokenSet(s string) map[string]struct{} {
	tokens := Words(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// Sentences splits text on terminal punctuation. Text without any
// terminator is returned as a single trimmed sentence.
func Sentences(text string) []string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	return sentences
}

// Overlap counts distinct tokens of text that appear in query.
func Overlap(query map[string]struct{}, text string) int {
	n := 0
	for t := range TokenSet(text) {
		if _, ok := query[t]; ok {
			n++
		}
	}
	return n
}

// Ochiai returns |A∩B| / sqrt(|A||B|) for the query set and the tokens of text.
func Ochiai(query map[string]struct{}, text string) float64 {
	set := TokenSet(text)
	if len(query) == 0 || len(set) == 0 {
		return 0
	}
	inter := 0
	for t := range set {
		if _, ok := query[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(query))*float64(len(set)))
}
