package routing

import "time"

// MatchBy is the route predicate kind. Predicates are evaluated as equality
// against a single event attribute, never as pattern matching.
type MatchBy string

const (
	MatchByCampaignID MatchBy = "campaign_id"
	MatchBySource     MatchBy = "source"
	MatchByAny        MatchBy = "any"
)

func (m MatchBy) Valid() bool {
	switch m {
	case MatchByCampaignID, MatchBySource, MatchByAny:
		return true
	}
	return false
}

// Destination identifies a delivery target chat, with an optional forum
// topic within it.
type Destination struct {
	ChatID  int64  `json:"chat_id"`
	TopicID *int64 `json:"topic_id,omitempty"`
}

// Route maps events to a destination for one profile. ChatID nil means the
// profile's default destination applies when the route wins.
type Route struct {
	ID         string    `json:"id"`
	ProfileID  string    `json:"profile_id"`
	MatchBy    MatchBy   `json:"match_by"`
	MatchValue string    `json:"match_value"`
	Statuses   []string  `json:"statuses,omitempty"`
	Countries  []string  `json:"countries,omitempty"`
	ChatID     *int64    `json:"chat_id,omitempty"`
	TopicID    *int64    `json:"topic_id,omitempty"`
	Priority   int       `json:"priority"`
	Enabled    bool      `json:"enabled"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
