package textutil

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// TokenSetRatio scores two strings from 0 to 100 by comparing their
// whitespace-separated token sets. Word order and duplicate words are
// ignored, and a string whose tokens are a subset of the other's scores 100.
func TokenSetRatio(a, b string) int {
	tokensA := tokenSet(a)
	tokensB := tokenSet(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for token := range tokensA {
		if _, ok := tokensB[token]; ok {
			common = append(common, token)
		} else {
			onlyA = append(onlyA, token)
		}
	}
	for token := range tokensB {
		if _, ok := tokensA[token]; !ok {
			onlyB = append(onlyB, token)
		}
	}
	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sect := sortedJoin(common)
	combinedA := strings.TrimSpace(sect + " " + sortedJoin(onlyA))
	combinedB := strings.TrimSpace(sect + " " + sortedJoin(onlyB))

	best := IndelRatio(combinedA, combinedB)
	if sect != "" {
		best = max(best, IndelRatio(sect, combinedA), IndelRatio(sect, combinedB))
	}
	return best
}

// IndelRatio returns the normalized insertion/deletion similarity of a and
// b as an integer percentage. Two empty strings score 0.
func IndelRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	distance := total - 2*longestCommonSubsequence(ra, rb)
	return int(math.RoundToEven(100 * (1 - float64(distance)/float64(total))))
}

func longestCommonSubsequence(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// tokenSet lowercases s, treats every non-alphanumeric rune as a separator,
// and returns the distinct tokens.
func tokenSet(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func sortedJoin(tokens []string) string {
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
