package http

import (
	"time"

	"people-search/internal/domain"
)

type SearchUserResponse struct {
	ID             string  `json:"user_id"`
	Handle         string  `json:"handle"`
	DisplayHandle  string  `json:"display_handle"`
	DisplayName    string  `json:"display_name"`
	AvatarURL      *string `json:"avatar_url,omitempty"`
	TrustLevel     int     `json:"trust_level"`
	Verified       bool    `json:"verified"`
	FollowersCount int64   `json:"followers_count"`
	LastActiveAt   string  `json:"last_active_at"`
	Score          float64 `json:"score"`
}

type SearchResponse struct {
	Items      []SearchUserResponse `json:"items"`
	Query      string               `json:"query"`
	Count      int                  `json:"count"`
	HasMore    bool                 `json:"has_more"`
	NextCursor *string              `json:"next_cursor"`
}

type SuggestedResponse struct {
	Items []SearchUserResponse `json:"items"`
	Count int                  `json:"count"`
}

type HandleCheckResponse struct {
	Handle      string   `json:"handle"`
	Available   bool     `json:"available"`
	Violation   *string  `json:"violation,omitempty"`
	Suggestions []string `json:"suggestions"`
}

type AuthResponse struct {
	Token string             `json:"token"`
	User  SearchUserResponse `json:"user"`
}

func userToResponse(u domain.SearchUser) SearchUserResponse {
	resp := SearchUserResponse{
		ID:             u.ID,
		Handle:         u.Handle,
		DisplayHandle:  u.DisplayHandle,
		DisplayName:    u.DisplayName,
		TrustLevel:     u.TrustLevel,
		Verified:       u.Verified,
		FollowersCount: u.FollowersCount,
		LastActiveAt:   u.LastActiveAt.Format(time.RFC3339),
		Score:          u.Score,
	}
	if u.AvatarURL != "" {
		v := u.AvatarURL
		resp.AvatarURL = &v
	}
	return resp
}

func usersToResponse(users []domain.SearchUser) []SearchUserResponse {
	out := make([]SearchUserResponse, len(users))
	for i := range users {
		out[i] = userToResponse(users[i])
	}
	return out
}

func pageToResponse(page domain.Page) SearchResponse {
	resp := SearchResponse{
		Items:   usersToResponse(page.Items),
		Query:   page.Query,
		Count:   len(page.Items),
		HasMore: page.HasMore,
	}
	if page.HasMore && page.NextCursor != "" {
		v := page.NextCursor
		resp.NextCursor = &v
	}
	return resp
}
