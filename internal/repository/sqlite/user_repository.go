package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"people-search/internal/domain"
	"people-search/internal/repository"
)

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	handle TEXT NOT NULL UNIQUE,
	display_handle TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	trust_level INTEGER NOT NULL DEFAULT 0,
	verified INTEGER NOT NULL DEFAULT 0,
	followers_count INTEGER NOT NULL DEFAULT 0,
	last_active_at DATETIME NOT NULL,
	status TEXT NOT NULL DEFAULT 'active',
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_followers ON users(followers_count DESC);
`

const userColumns = `id, handle, display_handle, display_name, avatar_url, trust_level, verified, followers_count, last_active_at, status, password_hash, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.LastActiveAt.IsZero() {
		user.LastActiveAt = now
	}
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}
	user.Handle = strings.ToLower(user.Handle)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, handle, display_handle, display_name, avatar_url, trust_level, verified, followers_count, last_active_at, status, password_hash, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Handle,
		user.DisplayHandle,
		user.DisplayName,
		user.AvatarURL,
		user.TrustLevel,
		user.Verified,
		user.FollowersCount,
		user.LastActiveAt,
		string(user.Status),
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return fmt.Errorf("%w: %s", repository.ErrHandleTaken, user.Handle)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE id = ?`,
		id,
	)
	return scanUser(row)
}

func (r *UserRepository) GetByHandle(ctx context.Context, handle string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+userColumns+`
FROM users
WHERE handle = ?`,
		strings.ToLower(handle),
	)
	return scanUser(row)
}

func (r *UserRepository) HandleExists(ctx context.Context, handle string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM users WHERE handle = ?`,
		strings.ToLower(handle),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check handle: %w", err)
	}
	return true, nil
}

// SearchCandidates recalls active users whose handle or display name
// plausibly matches text, excluding anyone the viewer has blocked or muted.
// Exclusions run here, before scoring truncation, so page sizes stay
// accurate post-filter. Fine-grained ranking happens above this layer.
func (r *UserRepository) SearchCandidates(ctx context.Context, viewerID, text string) ([]domain.SearchUser, error) {
	pattern := "%" + escapeLike(text) + "%"

	rows, err := r.db.QueryContext(ctx, `
SELECT `+userColumns+`
FROM users u
WHERE u.status = 'active'
  AND (
	u.handle LIKE ? ESCAPE '\'
	OR lower(u.display_name) LIKE ? ESCAPE '\'
	OR ? LIKE u.handle || '%'
  )
  AND NOT EXISTS (
	SELECT 1 FROM relations rel
	WHERE rel.viewer_id = ? AND rel.target_id = u.id AND rel.kind IN ('block', 'mute')
  )
ORDER BY u.handle`,
		pattern, pattern, text, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	return collectSearchUsers(rows)
}

// Suggested returns active users by followers descending, excluding the
// viewer, anyone the viewer follows, and anyone the viewer has blocked or
// muted. Ties break by handle so the order is deterministic.
func (r *UserRepository) Suggested(ctx context.Context, viewerID string, limit int) ([]domain.SearchUser, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+userColumns+`
FROM users u
WHERE u.status = 'active'
  AND u.id != ?
  AND NOT EXISTS (
	SELECT 1 FROM relations rel
	WHERE rel.viewer_id = ? AND rel.target_id = u.id AND rel.kind IN ('follow', 'block', 'mute')
  )
ORDER BY u.followers_count DESC, u.handle ASC
LIMIT ?`,
		viewerID, viewerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("suggested users: %w", err)
	}
	defer rows.Close()

	return collectSearchUsers(rows)
}

func (r *UserRepository) UpdateLastActive(ctx context.Context, id string) error {
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active_at = ?, updated_at = ? WHERE id = ?`,
		now, now, id,
	); err != nil {
		return fmt.Errorf("update last active: %w", err)
	}
	return nil
}

func (r *UserRepository) AdjustFollowers(ctx context.Context, id string, delta int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET followers_count = max(0, followers_count + ?), updated_at = ? WHERE id = ?`,
		delta, time.Now().UTC(), id,
	); err != nil {
		return fmt.Errorf("adjust followers: %w", err)
	}
	return nil
}

func collectSearchUsers(rows *sql.Rows) ([]domain.SearchUser, error) {
	var users []domain.SearchUser
	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user.SearchUser)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	user, err := scanUserRow(row)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func scanUserRow(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var (
		user   domain.User
		status string
	)
	if err := row.Scan(
		&user.ID,
		&user.Handle,
		&user.DisplayHandle,
		&user.DisplayName,
		&user.AvatarURL,
		&user.TrustLevel,
		&user.Verified,
		&user.FollowersCount,
		&user.LastActiveAt,
		&status,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	user.Status = domain.UserStatus(status)
	return &user, nil
}

// escapeLike escapes LIKE wildcards so query text is matched literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
