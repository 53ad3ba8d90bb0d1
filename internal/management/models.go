package management

// Request bodies for the administrative API. Secrets are generated server
// side and only ever returned, never accepted.

type CreateProfileRequest struct {
	OwnerUserID    int64  `json:"owner_user_id" binding:"required"`
	DefaultChatID  int64  `json:"default_chat_id" binding:"required"`
	DefaultTopicID *int64 `json:"default_topic_id"`
	RateLimitRPS   int    `json:"rate_limit_rps"`
	DedupTTLSec    int    `json:"dedup_ttl_sec"`
}

type UpdateProfileRequest struct {
	DefaultChatID  *int64 `json:"default_chat_id"`
	DefaultTopicID *int64 `json:"default_topic_id"`
	RateLimitRPS   *int   `json:"rate_limit_rps"`
	DedupTTLSec    *int   `json:"dedup_ttl_sec"`
}

type RotateSecretResponse struct {
	Secret string `json:"secret"`
}

type CreateRouteRequest struct {
	MatchBy    string   `json:"match_by" binding:"required"`
	MatchValue string   `json:"match_value"`
	Statuses   []string `json:"statuses"`
	Countries  []string `json:"countries"`
	ChatID     *int64   `json:"chat_id"`
	TopicID    *int64   `json:"topic_id"`
	Priority   int      `json:"priority"`
	Enabled    *bool    `json:"enabled"`
}

type UpdateRouteRequest struct {
	MatchBy    string   `json:"match_by" binding:"required"`
	MatchValue string   `json:"match_value"`
	Statuses   []string `json:"statuses"`
	Countries  []string `json:"countries"`
	ChatID     *int64   `json:"chat_id"`
	TopicID    *int64   `json:"topic_id"`
	Priority   int      `json:"priority"`
	Enabled    *bool    `json:"enabled"`
}
