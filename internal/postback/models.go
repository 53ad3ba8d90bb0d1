package postback

import "time"

// Fields is the closed record of the raw postback body. Upstream trackers
// send form-encoded or JSON bodies; only top-level string values are read and
// unknown keys are ignored. Missing fields stay empty and degrade gracefully
// during normalization.
type Fields struct {
	Status            string `json:"status" form:"status" bson:"status"`
	TransactionID     string `json:"transaction_id" form:"transaction_id" bson:"transaction_id"`
	ClickID           string `json:"click_id" form:"click_id" bson:"click_id"`
	CampaignID        string `json:"campaign_id" form:"campaign_id" bson:"campaign_id"`
	CampaignName      string `json:"campaign_name" form:"campaign_name" bson:"campaign_name"`
	OfferName         string `json:"offer_name" form:"offer_name" bson:"offer_name"`
	ConversionRevenue string `json:"conversion_revenue" form:"conversion_revenue" bson:"conversion_revenue"`
	Payout            string `json:"payout" form:"payout" bson:"payout"`
	Currency          string `json:"currency" form:"currency" bson:"currency"`
	Country           string `json:"country" form:"country" bson:"country"`
	Source            string `json:"source" form:"source" bson:"source"`
	CreativeID        string `json:"creative_id" form:"creative_id" bson:"creative_id"`
	LandingName       string `json:"landing_name" form:"landing_name" bson:"landing_name"`
	SubID1            string `json:"sub_id_1" form:"sub_id_1" bson:"sub_id_1"`
	SubID2            string `json:"sub_id_2" form:"sub_id_2" bson:"sub_id_2"`
	SubID3            string `json:"sub_id_3" form:"sub_id_3" bson:"sub_id_3"`
	SubID4            string `json:"sub_id_4" form:"sub_id_4" bson:"sub_id_4"`
	SubID5            string `json:"sub_id_5" form:"sub_id_5" bson:"sub_id_5"`
	SubID6            string `json:"sub_id_6" form:"sub_id_6" bson:"sub_id_6"`
	SubID7            string `json:"sub_id_7" form:"sub_id_7" bson:"sub_id_7"`
	SubID8            string `json:"sub_id_8" form:"sub_id_8" bson:"sub_id_8"`
	SubID9            string `json:"sub_id_9" form:"sub_id_9" bson:"sub_id_9"`
	SubID10           string `json:"sub_id_10" form:"sub_id_10" bson:"sub_id_10"`
}

// Status is the canonical conversion status. Unrecognized upstream vocabulary
// maps to StatusUnknown, never to an error.
type Status string

const (
	StatusRegistration Status = "registration"
	StatusDeposit      Status = "deposit"
	StatusRejected     Status = "rejected"
	StatusUnknown      Status = "unknown"
)

func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusRegistration, StatusDeposit, StatusRejected, StatusUnknown:
		return true
	}
	return false
}

// Amount distinguishes "no revenue reported" from "zero revenue".
type Amount struct {
	Valid bool    `json:"valid"`
	Value float64 `json:"value"`
}

// SubID is one extra tracking dimension carried through to the rendered
// message.
type SubID struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Outcome classifies what the pipeline did with an accepted event. None of
// these are sender-visible errors; they live in the event log only.
type Outcome string

const (
	OutcomeDelivered      Outcome = "delivered"
	OutcomeDuplicate      Outcome = "duplicate_suppressed"
	OutcomeRateLimited    Outcome = "rate_limited"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

// Event is the canonical record produced by normalization and appended to the
// event log. Rows are immutable once written except processed/error, set
// exactly once by the owning pipeline run.
type Event struct {
	ID                string    `json:"id"`
	ProfileID         string    `json:"profile_id"`
	DedupKey          string    `json:"dedup_key"`
	DedupKeyGenerated bool      `json:"dedup_key_generated"`
	Status            Status    `json:"status"`
	RawStatus         string    `json:"raw_status"`
	TransactionID     string    `json:"transaction_id"`
	ClickID           string    `json:"click_id"`
	CampaignID        string    `json:"campaign_id"`
	CampaignName      string    `json:"campaign_name"`
	OfferName         string    `json:"offer_name"`
	Revenue           Amount    `json:"revenue"`
	Payout            Amount    `json:"payout"`
	Currency          string    `json:"currency"`
	Country           string    `json:"country"`
	Source            string    `json:"source"`
	CreativeID        string    `json:"creative_id"`
	LandingName       string    `json:"landing_name"`
	SubIDs            []SubID   `json:"sub_ids,omitempty"`
	Outcome           Outcome   `json:"outcome"`
	Processed         bool      `json:"processed"`
	SentChatID        *int64    `json:"sent_chat_id,omitempty"`
	SentTopicID       *int64    `json:"sent_topic_id,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
