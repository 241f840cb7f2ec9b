package repository

import (
	"context"

	"people-search/internal/domain"
)

// UserRepository defines persistence operations for user profiles and
// accounts. Handle lookups are case-insensitive; handles are stored
// lowercase and are globally unique.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByHandle(ctx context.Context, handle string) (*domain.User, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	// SearchCandidates returns active users plausibly matching text on
	// handle or display name, with the viewer's block/mute exclusions
	// already applied. No limit: the filter runs before scoring truncation.
	SearchCandidates(ctx context.Context, viewerID, text string) ([]domain.SearchUser, error)
	// Suggested returns active users ordered by followers descending,
	// excluding the viewer and anyone the viewer already follows.
	Suggested(ctx context.Context, viewerID string, limit int) ([]domain.SearchUser, error)
	UpdateLastActive(ctx context.Context, id string) error
	// AdjustFollowers shifts a user's follower count by delta, clamped at
	// zero.
	AdjustFollowers(ctx context.Context, id string, delta int64) error
}

// RelationRepository manages directed viewer→target edges (block, mute,
// follow) that gate search visibility.
type RelationRepository interface {
	Init(ctx context.Context) error
	// Set records an edge; it reports whether a new row was written.
	Set(ctx context.Context, viewerID, targetID string, kind domain.RelationKind) (bool, error)
	// Delete removes an edge; it reports whether a row existed.
	Delete(ctx context.Context, viewerID, targetID string, kind domain.RelationKind) (bool, error)
	Exists(ctx context.Context, viewerID, targetID string, kind domain.RelationKind) (bool, error)
}
