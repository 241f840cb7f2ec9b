package search

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"people-search/internal/domain"
)

// Normalize turns raw user input into a query descriptor: trims, NFKC
// unicode normalization, lower-cases, strips a leading "@" (flagging
// exact-handle intent), and clamps the page limit. An empty normalized
// text is not an error here; callers branch to the suggestions fallback.
func Normalize(text string, limit int, after string) domain.Query {
	trimmed := strings.TrimSpace(text)

	exact := strings.HasPrefix(trimmed, "@")
	if exact {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "@"))
	}

	normalized := strings.ToLower(norm.NFKC.String(trimmed))

	return domain.Query{
		Text:        normalized,
		ExactHandle: exact,
		Limit:       clampLimit(limit, domain.SearchLimitDefault),
		After:       strings.ToLower(strings.TrimSpace(after)),
	}
}

// clampLimit bounds limit into [SearchLimitMin, SearchLimitMax]; zero or
// negative values fall back to def.
func clampLimit(limit, def int) int {
	switch {
	case limit <= 0:
		return def
	case limit < domain.SearchLimitMin:
		return domain.SearchLimitMin
	case limit > domain.SearchLimitMax:
		return domain.SearchLimitMax
	default:
		return limit
	}
}
