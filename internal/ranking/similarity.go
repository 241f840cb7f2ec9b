package ranking

import "strings"

// trigramSimilarity computes Jaccard similarity over character trigrams,
// padding both strings so short handles still produce a usable signal.
// Result is in [0, 1]; identical strings score 1.
func trigramSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	var shared int
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigrams(s string) map[string]struct{} {
	padded := "  " + s + " "
	runes := []rune(padded)
	out := make(map[string]struct{}, len(runes))
	for i := 0; i+3 <= len(runes); i++ {
		out[string(runes[i:i+3])] = struct{}{}
	}
	return out
}

// fuzzyMatch reports whether query plausibly refers to target: substring,
// prefix, or sufficiently similar trigram-wise.
func fuzzyMatch(query, target string) bool {
	if query == "" || target == "" {
		return false
	}
	if strings.Contains(target, query) || strings.HasPrefix(query, target) {
		return true
	}
	return trigramSimilarity(query, target) >= 0.3
}
