package delivery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"postrelay/internal/postback"
)

func TestRenderRegistration(t *testing.T) {
	msg := Render(postback.Event{
		Status:       postback.StatusRegistration,
		CampaignName: "Spring Promo",
		OfferName:    "Casino X",
		Country:      "DE",
		Source:       "fb",
		DedupKey:     "tx-1",
		SubIDs:       []postback.SubID{{Name: "sub_id_1", Value: "aff7"}},
	})

	assert.Contains(t, msg, "📝 <b>Registration</b>")
	assert.Contains(t, msg, "Campaign: <code>Spring Promo</code>")
	assert.Contains(t, msg, "Offer: <code>Casino X</code>")
	assert.Contains(t, msg, "GEO: <code>DE</code>")
	assert.Contains(t, msg, "Source: <code>fb</code>")
	assert.Contains(t, msg, "Sub1: <code>aff7</code>")
	assert.Contains(t, msg, "TX: <code>tx-1</code>")
}

func TestRenderDepositAmounts(t *testing.T) {
	tests := []struct {
		name  string
		event postback.Event
		want  string
	}{
		{
			name: "whole revenue with currency",
			event: postback.Event{Status: postback.StatusDeposit,
				Revenue: postback.Amount{Valid: true, Value: 100}, Currency: "USD"},
			want: "Revenue: <b>100 USD</b>",
		},
		{
			name: "fractional revenue",
			event: postback.Event{Status: postback.StatusDeposit,
				Revenue: postback.Amount{Valid: true, Value: 12.5}},
			want: "Revenue: <b>12.50</b>",
		},
		{
			name: "payout fallback",
			event: postback.Event{Status: postback.StatusDeposit,
				Payout: postback.Amount{Valid: true, Value: 30}},
			want: "Revenue: <b>30</b>",
		},
		{
			name:  "unset renders zero",
			event: postback.Event{Status: postback.StatusDeposit},
			want:  "Revenue: <b>0</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, Render(tt.event), tt.want)
		})
	}
}

func TestRenderRejectedReason(t *testing.T) {
	msg := Render(postback.Event{
		Status:       postback.StatusRejected,
		CampaignName: "Spring Promo",
		SubIDs:       []postback.SubID{{Name: "sub_id_2", Value: "fraud"}},
		DedupKey:     "tx-9",
	})

	assert.Contains(t, msg, "⛔️ <b>Rejected</b>")
	assert.Contains(t, msg, "Reason: <code>fraud</code>")
}

func TestRenderUnknownUsesRawStatus(t *testing.T) {
	msg := Render(postback.Event{
		Status:    postback.StatusUnknown,
		RawStatus: "hold",
	})

	assert.Contains(t, msg, "📌 <b>hold</b>")
}

func TestRenderMissingFieldsPlaceholder(t *testing.T) {
	msg := Render(postback.Event{Status: postback.StatusRegistration})

	assert.Contains(t, msg, "Campaign: <code>—</code>")
	assert.Contains(t, msg, "Offer: <code>—</code>")
	assert.Contains(t, msg, "GEO: <code>—</code>")
	assert.NotContains(t, msg, "TX:")
}

func TestRenderEscapesHTML(t *testing.T) {
	msg := Render(postback.Event{
		Status:       postback.StatusRegistration,
		CampaignName: "<script>alert(1)</script>",
	})

	assert.NotContains(t, msg, "<script>")
	assert.Contains(t, msg, "&lt;script&gt;")
}

func TestRenderGeneratedTransactionIsTruncated(t *testing.T) {
	msg := Render(postback.Event{
		Status:            postback.StatusRegistration,
		DedupKey:          "0123456789abcdef0123456789abcdef",
		DedupKeyGenerated: true,
	})

	assert.Contains(t, msg, "TX: <code>01234567... (generated)</code>")
}

func TestRenderExtraSubIDs(t *testing.T) {
	base := postback.Event{Status: postback.StatusRegistration}

	t.Run("few extras are appended", func(t *testing.T) {
		ev := base
		ev.SubIDs = []postback.SubID{
			{Name: "sub_id_2", Value: "a"},
			{Name: "sub_id_3", Value: "b"},
		}
		assert.Contains(t, Render(ev), "📎 s2:a | s3:b")
	})

	t.Run("too many extras are dropped", func(t *testing.T) {
		ev := base
		for _, name := range []string{"sub_id_2", "sub_id_3", "sub_id_4", "sub_id_5"} {
			ev.SubIDs = append(ev.SubIDs, postback.SubID{Name: name, Value: "x"})
		}
		assert.False(t, strings.Contains(Render(ev), "📎"))
	})
}
