package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"people-search/internal/domain"
	"people-search/internal/ranking"
	"people-search/internal/repository"
	"people-search/internal/storage"
)

// Service ranks, filters, and paginates user search results.
type Service interface {
	// Search returns one ranked page. An empty query falls back to the
	// suggested-creators set (single page, no cursor).
	Search(ctx context.Context, viewerID, text string, limit int, after string) (domain.Page, error)
	// Suggested returns popular accounts the viewer does not yet follow.
	Suggested(ctx context.Context, viewerID string, limit int) ([]domain.SearchUser, error)
	// LookupHandle resolves one user by exact (case-insensitive) handle;
	// (nil, nil) when no such user is visible to the viewer.
	LookupHandle(ctx context.Context, viewerID, handle string) (*domain.SearchUser, error)
}

type service struct {
	users   repository.UserRepository
	scorer  ranking.Scorer
	avatars storage.URLResolver
	logger  *logrus.Logger
}

func NewService(users repository.UserRepository, scorer ranking.Scorer, avatars storage.URLResolver, logger *logrus.Logger) Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &service{
		users:   users,
		scorer:  scorer,
		avatars: avatars,
		logger:  logger,
	}
}

func (s *service) Search(ctx context.Context, viewerID, text string, limit int, after string) (domain.Page, error) {
	q := Normalize(text, limit, after)

	if q.Text == "" {
		items, err := s.Suggested(ctx, viewerID, q.Limit)
		if err != nil {
			return domain.Page{}, err
		}
		return domain.Page{Items: items, Query: ""}, nil
	}

	candidates, err := s.users.SearchCandidates(ctx, viewerID, q.Text)
	if err != nil {
		return domain.Page{}, fmt.Errorf("fetch candidates: %w", err)
	}

	ranked := s.scorer.Rank(q, candidates)
	page := paginate(q, ranked)
	s.resolveAvatars(ctx, page.Items)
	return page, nil
}

func (s *service) Suggested(ctx context.Context, viewerID string, limit int) ([]domain.SearchUser, error) {
	limit = clampLimit(limit, domain.SuggestedLimitDefault)

	items, err := s.users.Suggested(ctx, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch suggested: %w", err)
	}
	s.resolveAvatars(ctx, items)
	return items, nil
}

func (s *service) LookupHandle(ctx context.Context, viewerID, handle string) (*domain.SearchUser, error) {
	want := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(handle), "@")))
	if want == "" {
		return nil, nil
	}

	page, err := s.Search(ctx, viewerID, "@"+want, 1, "")
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		if strings.EqualFold(page.Items[i].Handle, want) {
			return &page.Items[i], nil
		}
	}
	return nil, nil
}

// paginate slices the ranked set strictly past the cursor handle. A cursor
// that no longer exists in the ranked order yields an empty page rather
// than risking duplicates under mutated data. hasMore keeps the original
// resultCount >= limit heuristic.
func paginate(q domain.Query, ranked []domain.SearchUser) domain.Page {
	if q.After != "" {
		start := -1
		for i := range ranked {
			if ranked[i].Handle == q.After {
				start = i + 1
				break
			}
		}
		if start < 0 {
			return domain.Page{Query: q.Text}
		}
		ranked = ranked[start:]
	}

	items := ranked
	if len(items) > q.Limit {
		items = items[:q.Limit]
	}

	page := domain.Page{
		Items:   items,
		Query:   q.Text,
		HasMore: len(items) >= q.Limit,
	}
	if page.HasMore && len(items) > 0 {
		page.NextCursor = items[len(items)-1].Handle
	}
	return page
}

// resolveAvatars swaps stored object keys for presigned URLs. Failures are
// logged and leave the raw value in place; they never fail the search.
func (s *service) resolveAvatars(ctx context.Context, items []domain.SearchUser) {
	if s.avatars == nil {
		return
	}
	for i := range items {
		if items[i].AvatarURL == "" || strings.HasPrefix(items[i].AvatarURL, "http://") || strings.HasPrefix(items[i].AvatarURL, "https://") {
			continue
		}
		url, err := s.avatars.ResolveURL(ctx, items[i].AvatarURL)
		if err != nil {
			s.logger.Warnf("resolve avatar for %s: %v", items[i].Handle, err)
			continue
		}
		items[i].AvatarURL = url
	}
}
