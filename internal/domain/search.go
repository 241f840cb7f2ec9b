package domain

// Limit bounds for a single search page.
const (
	SearchLimitMin     = 5
	SearchLimitMax     = 50
	SearchLimitDefault = 20

	SuggestedLimitDefault = 10
)

// Query is the normalized descriptor of a single search request.
type Query struct {
	// Text is the trimmed, lower-cased, unicode-normalized query with any
	// leading "@" removed.
	Text string
	// ExactHandle is set when the raw input began with "@".
	ExactHandle bool
	// Limit is clamped into [SearchLimitMin, SearchLimitMax].
	Limit int
	// After is the handle of the last item of the previous page, empty for
	// the first page.
	After string
}

// Page is one slice of ranked results plus cursor state.
type Page struct {
	Items      []SearchUser
	Query      string
	HasMore    bool
	NextCursor string
}

// RelationKind classifies a directed viewer→target edge.
type RelationKind string

const (
	RelationBlock  RelationKind = "block"
	RelationMute   RelationKind = "mute"
	RelationFollow RelationKind = "follow"
)
