package knowledge

import (
	"path/filepath"
	"strings"
)

// scoreNote implements the additive ranking algorithm of §4.2.1.
func scoreNote(n *IndexedNote, lowerQuery string) int {
	if lowerQuery == "" {
		return 0
	}

	base := filepath.Base(n.PathLower)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	score := 0

	// Exact matches.
	if n.TitleLower == lowerQuery {
		score += 220
	}
	if n.PathLower == lowerQuery {
		score += 180
	}
	if stem == lowerQuery {
		score += 260
	}
	if base == lowerQuery || base == lowerQuery+".md" {
		score += 180
	}

	// Prefix matches.
	if strings.HasPrefix(n.TitleLower, lowerQuery) {
		score += 130
	}
	if strings.HasPrefix(n.PathLower, lowerQuery) {
		score += 110
	}
	if strings.HasPrefix(stem, lowerQuery) {
		score += 160
	}
	if strings.HasPrefix(base, lowerQuery) {
		score += 120
	}

	// Substring matches.
	if strings.Contains(n.TitleLower, lowerQuery) {
		score += 70
	}
	if strings.Contains(n.PathLower, lowerQuery) {
		score += 50
	}
	if strings.Contains(stem, lowerQuery) {
		score += 90
	}

	// Subsequence bonuses.
	if s, ok := subsequenceScore(stem, lowerQuery); ok {
		score += s * 6
	}
	if s, ok := subsequenceScore(n.TitleLower, lowerQuery); ok {
		score += s * 3
	}
	if s, ok := subsequenceScore(n.PathLower, lowerQuery); ok {
		score += s * 1
	}

	// Tag hits.
	for _, t := range n.TagsLower {
		if t == lowerQuery {
			score += 40
		} else if strings.Contains(t, lowerQuery) {
			score += 24
		}
	}

	// Link hits.
	for _, l := range n.LinksLower {
		if l == lowerQuery {
			score += 24
		} else if strings.Contains(l, lowerQuery) {
			score += 12
		}
	}

	// Token-set hits.
	for _, qt := range tokenize(lowerQuery) {
		if _, ok := n.TokenSet[qt]; ok {
			score += 8
		}
	}

	return score
}

// quickOpenFallbackMatch decides whether a candidate with no inverted-index
// hit should still be offered to quick-open: a direct substring hit on
// path/title, or (for queries long enough that a subsequence match means
// something) a subsequence hit on the file stem, title, or path.
func quickOpenFallbackMatch(n *IndexedNote, lowerQuery string) bool {
	if lowerQuery == "" {
		return true
	}
	if strings.Contains(n.PathLower, lowerQuery) || strings.Contains(n.TitleLower, lowerQuery) {
		return true
	}

	base := filepath.Base(n.PathLower)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	queryLen := len([]rune(lowerQuery))
	if queryLen <= 1 {
		return false
	}

	if _, ok := subsequenceScore(stem, lowerQuery); ok {
		return true
	}
	if queryLen >= 3 {
		if _, ok := subsequenceScore(n.TitleLower, lowerQuery); ok {
			return true
		}
	}
	if queryLen >= 4 {
		if _, ok := subsequenceScore(n.PathLower, lowerQuery); ok {
			return true
		}
	}
	return false
}

// subsequenceScore implements the fuzzy subsequence matcher of §4.2.1: q's
// characters must appear in h in order (not necessarily contiguous). It
// returns false if q is not a subsequence of h.
func subsequenceScore(h string, q string) (int, bool) {
	if q == "" {
		return 0, false
	}

	hr := []rune(h)
	qr := []rune(q)

	score := 0
	hi := 0
	lastMatch := -1
	firstMatch := -1
	matched := 0

	for qi := 0; qi < len(qr); qi++ {
		found := -1
		for ; hi < len(hr); hi++ {
			if hr[hi] == qr[qi] {
				found = hi
				break
			}
		}
		if found == -1 {
			return 0, false
		}
		matched++

		if firstMatch == -1 {
			firstMatch = found
			score += 12
		} else {
			gap := found - lastMatch - 1
			switch {
			case gap == 0:
				score += 16
			case gap <= 2:
				score += 9
			case gap <= 5:
				score += 4
			default:
				score += 1
			}
		}

		if found == 0 || !isAlnumRune(hr[found-1]) {
			score += 7
		}

		lastMatch = found
		hi = found + 1
	}

	if matched != len(qr) {
		return 0, false
	}

	span := lastMatch - firstMatch + 1
	switch {
	case span == len(qr):
		score += 20
	case span <= len(qr)+2:
		score += 10
	default:
		score += 2
	}

	score += 4 * len(qr)

	return score, true
}

func isAlnumRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	}
	return false
}
