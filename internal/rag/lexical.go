package rag

import (
	"strings"
	"unicode"
)

const (
	lexicalLengthScale = float32(10.0)
	maxLexicalScore    = float32(0.4)
	titleMatchBonus    = float32(0.1)
)

var lexicalStopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "was": {}, "were": {}, "with": {},
}

// LexicalScore computes a lightweight lexical relevance score for a text
// relative to a query, used to rank keyword search hits. The score stays in
// a predictable range; matching the note title earns a small bonus.
func LexicalScore(query, text, title string) float32 {
	queryTokens := filterStopwords(tokenize(query))
	if len(queryTokens) == 0 {
		return 0
	}

	textTokens := tokenize(text)
	if len(textTokens) == 0 {
		return 0
	}

	freq := make(map[string]int, len(textTokens))
	for _, token := range textTokens {
		freq[token]++
	}

	var rawMatches int
	for _, token := range queryTokens {
		rawMatches += freq[token]
	}

	score := (float32(rawMatches) / (1 + float32(len(textTokens)))) * lexicalLengthScale

	if title != "" {
		titleSet := make(map[string]struct{})
		for _, token := range tokenize(title) {
			titleSet[token] = struct{}{}
		}
		for _, token := range queryTokens {
			if _, ok := titleSet[token]; ok {
				score += titleMatchBonus
			}
		}
	}

	if score > maxLexicalScore {
		return maxLexicalScore
	}
	if score < 0 {
		return 0
	}
	return score
}

func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var builder strings.Builder
	builder.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	tokens := strings.Fields(builder.String())
	if len(tokens) == 0 {
		return nil
	}
	return tokens
}

func filterStopwords(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, isStop := lexicalStopwords[token]; isStop {
			continue
		}
		result = append(result, token)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
