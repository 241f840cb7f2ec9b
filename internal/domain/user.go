package domain

import "time"

// UserStatus gates global visibility of an account in search results.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusBanned    UserStatus = "banned"
	UserStatusSuspended UserStatus = "suspended"
)

// SearchUser is a user profile as ranked and returned by the search engine.
// Score is computed per query and never persisted.
type SearchUser struct {
	ID             string
	Handle         string
	DisplayHandle  string
	DisplayName    string
	AvatarURL      string
	TrustLevel     int
	Verified       bool
	FollowersCount int64
	LastActiveAt   time.Time
	Status         UserStatus
	Score          float64
}

// User is the full account row, including credentials. Services strip
// PasswordHash before anything leaves the service layer.
type User struct {
	SearchUser
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
