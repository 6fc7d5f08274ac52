package fuzzy

import (
	"strings"
	"unicode"
)

// LevenshteinDistance calculates the edit distance between two strings
// This measures how many single-character edits (insertions, deletions, or substitutions)
// are required to change one string into another
func LevenshteinDistance(s1, s2 string) int {
	s1 = normalizeString(s1)
	s2 = normalizeString(s2)

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)
	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}
	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[m][n]
}

// Threshold returns the typo tolerance for a keyword of the given length.
func Threshold(keyword string) int {
	n := len([]rune(keyword))
	switch {
	case n <= 4:
		return 0
	case n <= 7:
		return 1
	default:
		return 2
	}
}

// MatchKeyword reports whether keyword occurs in text, exactly as a substring or as a
// word within typo tolerance. Short keywords must match exactly.
func MatchKeyword(text, keyword string) bool {
	text = normalizeString(text)
	keyword = normalizeString(keyword)
	if keyword == "" {
		return false
	}
	if strings.Contains(text, keyword) {
		return true
	}

	threshold := Threshold(keyword)
	if threshold == 0 {
		return false
	}
	for _, word := range words(text) {
		if LevenshteinDistance(keyword, word) <= threshold {
			return true
		}
	}
	return false
}

// MatchAny returns the first keyword that matches text.
func MatchAny(text string, keywords []string) (string, bool) {
	for _, k := range keywords {
		if MatchKeyword(text, k) {
			return k, true
		}
	}
	return "", false
}

// CountMatches scores text against a keyword set; exact hits weigh more than fuzzy ones.
func CountMatches(text string, keywords []string) float64 {
	norm := normalizeString(text)
	score := 0.0
	for _, k := range keywords {
		kn := normalizeString(k)
		switch {
		case kn == "":
		case containsWord(norm, kn):
			score += 1.5
		case strings.Contains(norm, kn):
			score += 1.0
		case MatchKeyword(norm, kn):
			score += 0.5
		}
	}
	return score
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// normalizeString lowercases, strips accents and collapses whitespace
func normalizeString(s string) string {
	s = removeAccents(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// words splits on anything that is not a letter or digit
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsWord checks if text contains query as a whole word
func containsWord(text, query string) bool {
	if strings.Contains(query, " ") {
		return strings.Contains(" "+strings.Join(words(text), " ")+" ", " "+query+" ")
	}
	for _, word := range words(text) {
		if word == query {
			return true
		}
	}
	return false
}

// removeAccents removes diacritical marks so "più" matches "piu"
func removeAccents(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) { // Mn: Mark, nonspacing
			continue
		}
		switch r {
		case 'á', 'à', 'â', 'ä', 'ã':
			result.WriteRune('a')
		case 'é', 'è', 'ê', 'ë':
			result.WriteRune('e')
		case 'í', 'ì', 'î', 'ï':
			result.WriteRune('i')
		case 'ó', 'ò', 'ô', 'ö', 'õ':
			result.WriteRune('o')
		case 'ú', 'ù', 'û', 'ü':
			result.WriteRune('u')
		case 'ç':
			result.WriteRune('c')
		case 'ñ':
			result.WriteRune('n')
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
