package ranking

import (
	"testing"
	"time"

	"people-search/internal/domain"
)

func fixedScorer() Scorer {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return Scorer{Now: func() time.Time { return base }}
}

func candidate(id, handle string, followers int64, lastActive time.Time) domain.SearchUser {
	return domain.SearchUser{
		ID:             id,
		Handle:         handle,
		DisplayHandle:  handle,
		FollowersCount: followers,
		LastActiveAt:   lastActive,
		Status:         domain.UserStatusActive,
	}
}

func TestExactMatchBeatsPopularNearMiss(t *testing.T) {
	s := fixedScorer()
	now := s.Now()

	exact := candidate("u1", "rocky.evans", 3, now.Add(-200*24*time.Hour))
	popular := candidate("u2", "rocky.evanston", 2_000_000, now)
	popular.Verified = true
	popular.TrustLevel = 3

	ranked := s.Rank(domain.Query{Text: "rocky.evans", Limit: 20}, []domain.SearchUser{popular, exact})
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked candidates, got %d", len(ranked))
	}
	if ranked[0].Handle != "rocky.evans" {
		t.Errorf("exact match should rank first, got %q", ranked[0].Handle)
	}
	if ranked[0].Score != 1 {
		t.Errorf("exact match score = %v, want 1 (text only)", ranked[0].Score)
	}
}

func TestBlendDispatch(t *testing.T) {
	s := fixedScorer()
	now := s.Now()

	// Fresh account so recency is near 1 and the blend dominates.
	strong := candidate("u1", "johndoe", 0, now)
	weakName := candidate("u2", "xzq.99x", 0, now)
	weakName.DisplayName = "John Doe"

	ranked := s.Rank(domain.Query{Text: "johndo", Limit: 20}, []domain.SearchUser{weakName, strong})
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked, got %d", len(ranked))
	}
	if ranked[0].Handle != "johndoe" {
		t.Errorf("handle match should outrank display-name match, got %q first", ranked[0].Handle)
	}
	// Display-name baseline is 0.50: weak branch, 0.75*0.50 plus popularity
	// share, under the strong handle match.
	if ranked[1].Score >= ranked[0].Score {
		t.Errorf("scores not ordered: %v then %v", ranked[0].Score, ranked[1].Score)
	}
}

func TestHandleIntentBoost(t *testing.T) {
	s := fixedScorer()
	now := s.Now()
	c := candidate("u1", "rocky.evans", 0, now)

	plain := s.Rank(domain.Query{Text: "rocky.ev", Limit: 20}, []domain.SearchUser{c})
	atted := s.Rank(domain.Query{Text: "rocky.ev", ExactHandle: true, Limit: 20}, []domain.SearchUser{c})
	if len(plain) != 1 || len(atted) != 1 {
		t.Fatalf("expected single result in both rankings")
	}
	if atted[0].Score <= plain[0].Score {
		t.Errorf("@-intent should boost fuzzy handle score: %v <= %v", atted[0].Score, plain[0].Score)
	}
}

func TestPopularityScoreCapAndBoosts(t *testing.T) {
	base := domain.SearchUser{FollowersCount: 1000}
	got := popularityScore(base)
	want := 3.0003 / 10 // log10(1001)/10
	if diff := got - want; diff > 0.001 || diff < -0.001 {
		t.Errorf("popularityScore(1000 followers) = %v, want ~%v", got, want)
	}

	boosted := base
	boosted.Verified = true
	boosted.TrustLevel = 2
	if d := popularityScore(boosted) - got - 0.12; d > 1e-9 || d < -1e-9 {
		t.Errorf("verified+trusted boosts should add 0.12, got delta %v", popularityScore(boosted)-got)
	}

	huge := domain.SearchUser{FollowersCount: 1 << 62, Verified: true, TrustLevel: 5}
	if popularityScore(huge) != 1 {
		t.Errorf("popularity must cap at 1, got %v", popularityScore(huge))
	}
}

func TestRecencyMultiplierBounds(t *testing.T) {
	if m := recencyMultiplier(0); m < 0.95 || m > 1 {
		t.Errorf("fresh activity multiplier = %v, want near 1", m)
	}
	if m := recencyMultiplier(14 * 24 * time.Hour); m < 0.84 || m > 0.86 {
		t.Errorf("14-day multiplier = %v, want ~0.85", m)
	}
	if m := recencyMultiplier(365 * 24 * time.Hour); m < 0.70 || m > 0.705 {
		t.Errorf("dormant multiplier = %v, want ~0.70 floor", m)
	}
}

func TestPoisonCandidatesAreSkipped(t *testing.T) {
	s := fixedScorer()
	now := s.Now()

	good := candidate("u1", "johndoe", 10, now)
	noHandle := candidate("u2", "", 10, now)
	noID := candidate("", "johndoe2", 10, now)

	ranked := s.Rank(domain.Query{Text: "johndoe", Limit: 20}, []domain.SearchUser{noHandle, good, noID})
	if len(ranked) != 1 || ranked[0].ID != "u1" {
		t.Fatalf("expected only the well-formed candidate, got %d results", len(ranked))
	}
}

func TestTieBreakByHandle(t *testing.T) {
	s := fixedScorer()
	now := s.Now()

	a := candidate("u1", "dana.a", 100, now)
	b := candidate("u2", "dana.b", 100, now)

	ranked := s.Rank(domain.Query{Text: "dana", Limit: 20}, []domain.SearchUser{b, a})
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked, got %d", len(ranked))
	}
	if ranked[0].Score == ranked[1].Score && ranked[0].Handle > ranked[1].Handle {
		t.Errorf("equal scores must order by handle ascending, got %q before %q", ranked[0].Handle, ranked[1].Handle)
	}
}

func TestUnrelatedCandidateExcluded(t *testing.T) {
	s := fixedScorer()
	c := candidate("u1", "zzz", 1_000_000, s.Now())
	ranked := s.Rank(domain.Query{Text: "rocky", Limit: 20}, []domain.SearchUser{c})
	if len(ranked) != 0 {
		t.Fatalf("candidate with no text signal must be excluded, got %d", len(ranked))
	}
}
