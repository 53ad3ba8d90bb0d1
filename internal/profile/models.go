package profile

import "time"

// Profile is one integration owner's endpoint configuration. The secret is a
// capability credential carried by postback URLs, not a password.
type Profile struct {
	ID             string    `json:"id"`
	OwnerUserID    int64     `json:"owner_user_id"`
	Secret         string    `json:"secret"`
	DefaultChatID  int64     `json:"default_chat_id"`
	DefaultTopicID *int64    `json:"default_topic_id,omitempty"`
	Enabled        bool      `json:"enabled"`
	RateLimitRPS   int       `json:"rate_limit_rps"`
	DedupTTLSec    int       `json:"dedup_ttl_sec"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
