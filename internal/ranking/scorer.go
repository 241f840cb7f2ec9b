package ranking

import (
	"math"
	"sort"
	"strings"
	"time"

	"people-search/internal/domain"
)

const (
	// Handle fuzzy matches are mapped into this band; exact matches score 1.
	handleSimFloor = 0.60
	handleSimCeil  = 0.75
	// A query that began with "@" signals handle intent and nudges fuzzy
	// handle matches toward the top of the band.
	handleIntentBoost = 0.05

	// Display-name matches carry a flat baseline; they never outrank a
	// decent handle match on text alone.
	displayNameScore = 0.50

	verifiedBoost  = 0.08
	trustedBoost   = 0.04
	trustedMinTier = 2

	strongMatchThreshold = 0.60

	recencyFloor    = 0.70
	recencyHalfLife = 14 * 24 * time.Hour
	recencySlope    = 4 * 24 * time.Hour
)

// Scorer ranks candidate users against a normalized query. The zero value
// uses the current time for recency; tests pin Now.
type Scorer struct {
	Now func() time.Time
}

// Rank scores, filters, and sorts candidates: descending score, ties broken
// by handle ascending so the order is total and cursor-stable. Candidates
// with no usable identity or no text signal are dropped, never an error.
func (s Scorer) Rank(q domain.Query, candidates []domain.SearchUser) []domain.SearchUser {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}

	ranked := make([]domain.SearchUser, 0, len(candidates))
	for _, c := range candidates {
		if c.Handle == "" || c.ID == "" {
			continue
		}
		score, ok := s.score(q, c, now)
		if !ok {
			continue
		}
		c.Score = score
		ranked = append(ranked, c)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Handle < ranked[j].Handle
	})
	return ranked
}

// score blends text relevance, popularity, and recency. The blend is an
// explicit three-case dispatch on match strength:
//
//	exact  -> text only, popularity and recency ignored
//	strong -> 0.9*text + 0.1*popularity, times recency
//	weak   -> 0.75*text + 0.25*popularity, times recency
//
// Exact handle matches must never be displaced by a popular near-miss.
func (s Scorer) score(q domain.Query, c domain.SearchUser, now time.Time) (float64, bool) {
	text, ok := textRelevance(q, c)
	if !ok {
		return 0, false
	}
	if text >= 1 {
		return 1, true
	}

	pop := popularityScore(c)
	rec := recencyMultiplier(now.Sub(c.LastActiveAt))

	if text >= strongMatchThreshold {
		return (0.9*text + 0.1*pop) * rec, true
	}
	return (0.75*text + 0.25*pop) * rec, true
}

func textRelevance(q domain.Query, c domain.SearchUser) (float64, bool) {
	handle := strings.ToLower(c.Handle)
	if q.Text == handle {
		return 1, true
	}

	if fuzzyMatch(q.Text, handle) {
		score := handleSimFloor + (handleSimCeil-handleSimFloor)*trigramSimilarity(q.Text, handle)
		if q.ExactHandle {
			score = math.Min(handleSimCeil, score+handleIntentBoost)
		}
		return score, true
	}

	name := strings.ToLower(c.DisplayName)
	if name != "" && fuzzyMatch(q.Text, name) {
		return displayNameScore, true
	}

	return 0, false
}

// popularityScore is log10(1+followers)/10 plus flat boosts for verified and
// trusted accounts, capped at 1.
func popularityScore(c domain.SearchUser) float64 {
	if c.FollowersCount < 0 {
		return 0
	}
	score := math.Log10(1+float64(c.FollowersCount)) / 10
	if c.Verified {
		score += verifiedBoost
	}
	if c.TrustLevel >= trustedMinTier {
		score += trustedBoost
	}
	return math.Min(1, score)
}

// recencyMultiplier decays from 1.0 for recent activity toward 0.70 for
// dormant accounts, sigmoid centered at 14 days of inactivity.
func recencyMultiplier(inactive time.Duration) float64 {
	if inactive < 0 {
		inactive = 0
	}
	x := float64(inactive-recencyHalfLife) / float64(recencySlope)
	return recencyFloor + (1-recencyFloor)/(1+math.Exp(x))
}
