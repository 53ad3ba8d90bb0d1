package postback

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"postrelay/internal/constants"
)

// Upstream trackers disagree on status vocabulary; normalization matches
// case-insensitive substrings against these sets and falls back to unknown.
var statusVocabulary = []struct {
	status Status
	words  []string
}{
	{StatusRegistration, []string{"registration", "register", "signup", "lead"}},
	{StatusDeposit, []string{"deposit", "sale", "ftd", "purchase", "payment"}},
	{StatusRejected, []string{"rejected", "reject", "trash", "refuse"}},
}

// Normalize maps raw postback fields onto the canonical event record. No
// field is fatal: absent or malformed values degrade to their unset variants.
func Normalize(fields Fields) Event {
	ev := Event{
		RawStatus:     sanitize(fields.Status),
		TransactionID: sanitize(fields.TransactionID),
		ClickID:       sanitize(fields.ClickID),
		CampaignID:    sanitize(fields.CampaignID),
		CampaignName:  sanitize(fields.CampaignName),
		OfferName:     sanitize(fields.OfferName),
		Revenue:       parseAmount(fields.ConversionRevenue),
		Payout:        parseAmount(fields.Payout),
		Currency:      sanitize(fields.Currency),
		Country:       sanitize(fields.Country),
		Source:        sanitize(fields.Source),
		CreativeID:    sanitize(fields.CreativeID),
		LandingName:   sanitize(fields.LandingName),
		SubIDs:        collectSubIDs(fields),
	}
	ev.Status = NormalizeStatus(ev.RawStatus)
	ev.DedupKey, ev.DedupKeyGenerated = deriveDedupKey(&ev)
	return ev
}

// NormalizeStatus maps free-text upstream status vocabulary onto the closed
// canonical set.
func NormalizeStatus(raw string) Status {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return StatusUnknown
	}
	for _, entry := range statusVocabulary {
		for _, word := range entry.words {
			if strings.Contains(lowered, word) {
				return entry.status
			}
		}
	}
	return StatusUnknown
}

func sanitize(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > constants.MaxFieldLength {
		// Back off to a rune boundary so truncation cannot leave an
		// invalid UTF-8 tail in the rendered message.
		cut := constants.MaxFieldLength
		for cut > 0 && !utf8.RuneStart(value[cut]) {
			cut--
		}
		value = value[:cut]
	}
	return value
}

// parseAmount reads a decimal monetary value. Non-numeric or absent input
// yields the unset sentinel rather than zero.
func parseAmount(raw string) Amount {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Amount{}
	}
	raw = strings.ReplaceAll(raw, ",", ".")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Amount{}
	}
	return Amount{Valid: true, Value: value}
}

func collectSubIDs(fields Fields) []SubID {
	raw := []string{
		fields.SubID1, fields.SubID2, fields.SubID3, fields.SubID4, fields.SubID5,
		fields.SubID6, fields.SubID7, fields.SubID8, fields.SubID9, fields.SubID10,
	}
	var subIDs []SubID
	for i, value := range raw {
		value = sanitize(value)
		if value == "" {
			continue
		}
		subIDs = append(subIDs, SubID{
			Name:  fmt.Sprintf("sub_id_%d", i+1),
			Value: value,
		})
	}
	return subIDs
}

// deriveDedupKey picks the event fingerprint: transaction id when present,
// else click id, else a hash of the full normalized payload.
func deriveDedupKey(ev *Event) (string, bool) {
	if ev.TransactionID != "" {
		return ev.TransactionID, false
	}
	if ev.ClickID != "" {
		return ev.ClickID, false
	}
	return payloadHash(ev), true
}

func payloadHash(ev *Event) string {
	var b strings.Builder
	b.WriteString("status=" + string(ev.Status))
	b.WriteString("|raw_status=" + ev.RawStatus)
	b.WriteString("|campaign_id=" + ev.CampaignID)
	b.WriteString("|campaign_name=" + ev.CampaignName)
	b.WriteString("|offer_name=" + ev.OfferName)
	if ev.Revenue.Valid {
		b.WriteString("|revenue=" + strconv.FormatFloat(ev.Revenue.Value, 'f', -1, 64))
	}
	if ev.Payout.Valid {
		b.WriteString("|payout=" + strconv.FormatFloat(ev.Payout.Value, 'f', -1, 64))
	}
	b.WriteString("|currency=" + ev.Currency)
	b.WriteString("|country=" + ev.Country)
	b.WriteString("|source=" + ev.Source)
	b.WriteString("|creative_id=" + ev.CreativeID)
	b.WriteString("|landing_name=" + ev.LandingName)
	for _, subID := range ev.SubIDs {
		b.WriteString("|" + subID.Name + "=" + subID.Value)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])[:32]
}
