// Package fuzzy scores how alike two personal names are. Scores are in [0,1]
// and computed over runes after Normalize
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultThreshold is the minimum score every name comparison must reach
const DefaultThreshold = 0.93

// winkler boost applies to at most this many leading runes
const maxPrefix = 4

const prefixScale = 0.1

// Normalize upper-cases s, folds diacritics and collapses whitespace runs
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// Levenshtein returns the edit distance between a and b
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	row := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = min(row[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		row, prev = prev, row
	}
	return prev[len(rb)]
}

// EditSimilarity is (max-distance)/max over the longer input, 1 when both are empty
func EditSimilarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return float64(longest-Levenshtein(a, b)) / float64(longest)
}

// Jaro returns the Jaro similarity of a and b
func Jaro(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	window := max(max(len(ra), len(rb))/2-1, 0)
	aHit := make([]bool, len(ra))
	bHit := make([]bool, len(rb))

	matches := 0
	for i := range ra {
		lo := max(0, i-window)
		hi := min(len(rb), i+window+1)
		for j := lo; j < hi; j++ {
			if bHit[j] || ra[i] != rb[j] {
				continue
			}
			aHit[i], bHit[j] = true, true
			matches++
			break
		}
	}
	if matches == 0 {
		return 0
	}

	transpositions, k := 0, 0
	for i := range ra {
		if !aHit[i] {
			continue
		}
		for !bHit[k] {
			k++
		}
		if ra[i] != rb[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	t := float64(transpositions) / 2
	return (m/float64(len(ra)) + m/float64(len(rb)) + (m-t)/m) / 3
}

// JaroWinkler boosts Jaro by the shared prefix. Both empty is a perfect
// match and exactly one empty is no match
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 1
	}
	j := Jaro(a, b)
	if j == 0 {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	prefix := 0
	for prefix < min(len(ra), len(rb), maxPrefix) && ra[prefix] == rb[prefix] {
		prefix++
	}
	return j + float64(prefix)*prefixScale*(1-j)
}
