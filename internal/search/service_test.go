package search

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"people-search/internal/domain"
	"people-search/internal/ranking"
	"people-search/internal/repository"
)

// fakeUsers is an in-memory UserRepository with simple substring recall,
// standing in for the sqlite implementation.
type fakeUsers struct {
	users    []domain.User
	excluded map[string]map[string]bool // viewerID -> blocked/muted target IDs
	follows  map[string]map[string]bool // viewerID -> followed target IDs
}

func (f *fakeUsers) Init(ctx context.Context) error { return nil }

func (f *fakeUsers) Create(ctx context.Context, user *domain.User) error {
	f.users = append(f.users, *user)
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].ID == id {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByHandle(ctx context.Context, handle string) (*domain.User, error) {
	for i := range f.users {
		if f.users[i].Handle == strings.ToLower(handle) {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) HandleExists(ctx context.Context, handle string) (bool, error) {
	_, err := f.GetByHandle(ctx, handle)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeUsers) SearchCandidates(ctx context.Context, viewerID, text string) ([]domain.SearchUser, error) {
	var out []domain.SearchUser
	for _, u := range f.users {
		if u.Status != domain.UserStatusActive {
			continue
		}
		if f.excluded[viewerID][u.ID] {
			continue
		}
		if !strings.Contains(u.Handle, text) &&
			!strings.Contains(strings.ToLower(u.DisplayName), text) &&
			!strings.HasPrefix(text, u.Handle) {
			continue
		}
		out = append(out, u.SearchUser)
	}
	return out, nil
}

func (f *fakeUsers) Suggested(ctx context.Context, viewerID string, limit int) ([]domain.SearchUser, error) {
	var out []domain.SearchUser
	for _, u := range f.users {
		if u.Status != domain.UserStatusActive || u.ID == viewerID {
			continue
		}
		if f.follows[viewerID][u.ID] || f.excluded[viewerID][u.ID] {
			continue
		}
		out = append(out, u.SearchUser)
	}
	// followers desc, handle asc
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].FollowersCount > out[i].FollowersCount ||
				(out[j].FollowersCount == out[i].FollowersCount && out[j].Handle < out[i].Handle) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUsers) UpdateLastActive(ctx context.Context, id string) error { return nil }

func (f *fakeUsers) AdjustFollowers(ctx context.Context, id string, d int64) error { return nil }

type fakeResolver struct{}

func (fakeResolver) ResolveURL(ctx context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func testService(users *fakeUsers) Service {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	scorer := ranking.Scorer{Now: func() time.Time { return base }}
	return NewService(users, scorer, fakeResolver{}, nil)
}

func seedUsers(prefix string, n int, followers int64) *fakeUsers {
	f := &fakeUsers{
		excluded: map[string]map[string]bool{},
		follows:  map[string]map[string]bool{},
	}
	active := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		h := fmt.Sprintf("%s.%02d", prefix, i)
		f.users = append(f.users, domain.User{SearchUser: domain.SearchUser{
			ID:             "id-" + h,
			Handle:         h,
			DisplayHandle:  h,
			FollowersCount: followers + int64(i),
			LastActiveAt:   active,
			Status:         domain.UserStatusActive,
		}})
	}
	return f
}

func TestNormalize(t *testing.T) {
	q := Normalize("  @Rocky.Evans  ", 0, "")
	if !q.ExactHandle {
		t.Error("leading @ should flag exact-handle intent")
	}
	if q.Text != "rocky.evans" {
		t.Errorf("normalized text = %q, want rocky.evans", q.Text)
	}
	if q.Limit != domain.SearchLimitDefault {
		t.Errorf("zero limit should default to %d, got %d", domain.SearchLimitDefault, q.Limit)
	}

	if q := Normalize("x", 1, ""); q.Limit != domain.SearchLimitMin {
		t.Errorf("limit 1 should clamp to %d, got %d", domain.SearchLimitMin, q.Limit)
	}
	if q := Normalize("x", 500, ""); q.Limit != domain.SearchLimitMax {
		t.Errorf("limit 500 should clamp to %d, got %d", domain.SearchLimitMax, q.Limit)
	}
}

func TestEmptyQueryFallsBackToSuggestions(t *testing.T) {
	users := seedUsers("creator", 8, 1000)
	svc := testService(users)

	page, err := svc.Search(context.Background(), "viewer", "", 10, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Items) != 8 {
		t.Fatalf("got %d suggestions, want 8", len(page.Items))
	}
	if page.HasMore || page.NextCursor != "" {
		t.Error("suggestions fallback must be single-page, no cursor")
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].FollowersCount > page.Items[i-1].FollowersCount {
			t.Fatalf("suggestions not sorted by followers desc at %d", i)
		}
	}
}

func TestSuggestedExcludesFollowsAndSelf(t *testing.T) {
	users := seedUsers("creator", 5, 1000)
	viewer := users.users[0].ID
	users.follows[viewer] = map[string]bool{users.users[1].ID: true}
	svc := testService(users)

	items, err := svc.Suggested(context.Background(), viewer, 10)
	if err != nil {
		t.Fatalf("Suggested: %v", err)
	}
	for _, it := range items {
		if it.ID == viewer {
			t.Error("suggestions include the viewer")
		}
		if it.ID == users.users[1].ID {
			t.Error("suggestions include an already-followed account")
		}
	}
}

func TestPaginationCompleteness(t *testing.T) {
	for _, total := range []int{12, 10} { // 10 = exact multiple of the limit
		users := seedUsers("dana", total, 10)
		svc := testService(users)

		seen := map[string]bool{}
		after := ""
		pages := 0
		for {
			page, err := svc.Search(context.Background(), "viewer", "dana", 5, after)
			if err != nil {
				t.Fatalf("Search page %d: %v", pages, err)
			}
			for _, it := range page.Items {
				if seen[it.Handle] {
					t.Fatalf("handle %q appeared on two pages", it.Handle)
				}
				seen[it.Handle] = true
			}
			pages++
			if !page.HasMore {
				break
			}
			after = page.NextCursor
			if pages > 10 {
				t.Fatal("pagination did not terminate")
			}
		}
		if len(seen) != total {
			t.Errorf("total=%d: traversal yielded %d distinct handles", total, len(seen))
		}
	}
}

func TestPaginationIdempotence(t *testing.T) {
	users := seedUsers("dana", 15, 10)
	// Equal popularity so ranking ties break by handle and page order is
	// the handle order.
	for i := range users.users {
		users.users[i].FollowersCount = 10
	}
	svc := testService(users)

	first, err := svc.Search(context.Background(), "viewer", "dana", 5, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for try := 0; try < 2; try++ {
		page, err := svc.Search(context.Background(), "viewer", "dana", 5, first.NextCursor)
		if err != nil {
			t.Fatalf("Search retry %d: %v", try, err)
		}
		if len(page.Items) != 5 {
			t.Fatalf("retry %d: got %d items", try, len(page.Items))
		}
		for i, it := range page.Items {
			if want := fmt.Sprintf("dana.%02d", i+5); it.Handle != want {
				t.Errorf("retry %d item %d = %q, want %q", try, i, it.Handle, want)
			}
		}
	}
}

func TestUnknownCursorYieldsEmptyPage(t *testing.T) {
	users := seedUsers("dana", 6, 10)
	svc := testService(users)

	page, err := svc.Search(context.Background(), "viewer", "dana", 5, "vanished.user")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(page.Items) != 0 || page.HasMore {
		t.Errorf("unknown cursor should yield an empty terminal page, got %d items", len(page.Items))
	}
}

func TestLookupHandle(t *testing.T) {
	users := seedUsers("rocky", 3, 50)
	users.users = append(users.users, domain.User{SearchUser: domain.SearchUser{
		ID:            "id-rocky.evans",
		Handle:        "rocky.evans",
		DisplayHandle: "Rocky.Evans",
		LastActiveAt:  time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC),
		Status:        domain.UserStatusActive,
	}})
	svc := testService(users)

	got, err := svc.LookupHandle(context.Background(), "viewer", "@Rocky.Evans")
	if err != nil {
		t.Fatalf("LookupHandle: %v", err)
	}
	if got == nil || got.Handle != "rocky.evans" {
		t.Fatalf("LookupHandle = %+v, want rocky.evans", got)
	}

	missing, err := svc.LookupHandle(context.Background(), "viewer", "@nobody.here")
	if err != nil {
		t.Fatalf("LookupHandle missing: %v", err)
	}
	if missing != nil {
		t.Errorf("missing handle should return nil, got %+v", missing)
	}
}

func TestViewerExclusionsApplied(t *testing.T) {
	users := seedUsers("dana", 4, 10)
	users.excluded["viewer"] = map[string]bool{users.users[0].ID: true}
	svc := testService(users)

	page, err := svc.Search(context.Background(), "viewer", "dana", 10, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, it := range page.Items {
		if it.ID == users.users[0].ID {
			t.Error("blocked account present in results")
		}
	}
	if len(page.Items) != 3 {
		t.Errorf("got %d items, want 3 post-filter", len(page.Items))
	}
}

func TestAvatarKeysResolved(t *testing.T) {
	users := seedUsers("dana", 2, 10)
	users.users[0].AvatarURL = "avatars/dana0.png"
	users.users[1].AvatarURL = "https://elsewhere.example.com/pic.png"
	svc := testService(users)

	page, err := svc.Search(context.Background(), "viewer", "dana", 10, "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, it := range page.Items {
		switch it.ID {
		case users.users[0].ID:
			if it.AvatarURL != "https://cdn.example.com/avatars/dana0.png" {
				t.Errorf("stored key not resolved: %q", it.AvatarURL)
			}
		case users.users[1].ID:
			if it.AvatarURL != "https://elsewhere.example.com/pic.png" {
				t.Errorf("absolute URL must pass through, got %q", it.AvatarURL)
			}
		}
	}
}
