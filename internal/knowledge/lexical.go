package knowledge

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// lexicalSearch scores every document against the query with a composite of
// substring containment, token matches and character-set overlap, weighted
// 0.7 content / 0.3 title. Works for languages without word boundaries
// because of the character-overlap term. Returns up to topK positive-scoring
// documents, best first; ties preserve insertion order.
func lexicalSearch(docs []Document, query string, topK int) []SearchResult {
	queryLower := strings.ToLower(query)
	queryTokens := strings.Fields(queryLower)
	queryChars := charSet(queryLower)

	results := make([]SearchResult, 0, len(docs))
	for _, doc := range docs {
		contentLower := strings.ToLower(doc.Content)
		titleLower := strings.ToLower(doc.Title)

		contentScore := fieldScore(contentLower, queryLower, queryTokens, queryChars)
		titleScore := fieldScore(titleLower, queryLower, queryTokens, queryChars)

		score := 0.7*contentScore + 0.3*titleScore
		if score > 0 {
			results = append(results, SearchResult{Document: doc, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results
}

// fieldScore sums three signals: +1.0 for full-query containment, +0.5 per
// matched token of at least two runes, and +0.3 times the share of query
// characters present in the field.
func fieldScore(field, queryLower string, queryTokens []string, queryChars map[rune]struct{}) float64 {
	var score float64

	if queryLower != "" && strings.Contains(field, queryLower) {
		score += 1.0
	}

	for _, tok := range queryTokens {
		if utf8.RuneCountInString(tok) >= 2 && strings.Contains(field, tok) {
			score += 0.5
		}
	}

	if len(queryChars) > 0 {
		fieldChars := charSet(field)
		overlap := 0
		for r := range queryChars {
			if _, ok := fieldChars[r]; ok {
				overlap++
			}
		}
		score += 0.3 * float64(overlap) / float64(len(queryChars))
	}

	return score
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}
