package postback

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"postrelay/internal/constants"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"registration", StatusRegistration},
		{"Lead", StatusRegistration},
		{"new_signup", StatusRegistration},
		{"REGISTER", StatusRegistration},
		{"deposit", StatusDeposit},
		{"first_deposit", StatusDeposit},
		{"SALE", StatusDeposit},
		{"ftd", StatusDeposit},
		{"purchase_confirmed", StatusDeposit},
		{"payment", StatusDeposit},
		{"rejected", StatusRejected},
		{"reject", StatusRejected},
		{"trash", StatusRejected},
		{"refused", StatusRejected},
		{"", StatusUnknown},
		{"approved", StatusUnknown},
		{"hold", StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeStatus(tt.raw))
		})
	}
}

func TestNormalizeAmounts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Amount
	}{
		{"decimal", "12.50", Amount{Valid: true, Value: 12.5}},
		{"integer", "100", Amount{Valid: true, Value: 100}},
		{"comma separator", "12,50", Amount{Valid: true, Value: 12.5}},
		{"absent stays unset", "", Amount{}},
		{"garbage stays unset", "N/A", Amount{}},
		{"zero is a real value", "0", Amount{Valid: true, Value: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Normalize(Fields{ConversionRevenue: tt.raw})
			assert.Equal(t, tt.want, ev.Revenue)
		})
	}
}

func TestNormalizeSanitizesStrings(t *testing.T) {
	long := strings.Repeat("x", constants.MaxFieldLength+50)
	ev := Normalize(Fields{
		CampaignName: "  spring promo  ",
		OfferName:    long,
	})

	assert.Equal(t, "spring promo", ev.CampaignName)
	assert.Len(t, ev.OfferName, constants.MaxFieldLength)
}

func TestNormalizeTruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes: the cap lands mid-rune, so a byte-wise cut would leave
	// an invalid UTF-8 tail that the message sink rejects.
	long := strings.Repeat("€", constants.MaxFieldLength)
	ev := Normalize(Fields{OfferName: long})

	assert.True(t, utf8.ValidString(ev.OfferName))
	assert.LessOrEqual(t, len(ev.OfferName), constants.MaxFieldLength)
	assert.Equal(t, strings.Repeat("€", constants.MaxFieldLength/3), ev.OfferName)
}

func TestNormalizeDedupKeyDerivation(t *testing.T) {
	t.Run("transaction id wins", func(t *testing.T) {
		ev := Normalize(Fields{TransactionID: "tx-1", ClickID: "click-1"})
		assert.Equal(t, "tx-1", ev.DedupKey)
		assert.False(t, ev.DedupKeyGenerated)
	})

	t.Run("click id is the fallback", func(t *testing.T) {
		ev := Normalize(Fields{ClickID: "click-1"})
		assert.Equal(t, "click-1", ev.DedupKey)
		assert.False(t, ev.DedupKeyGenerated)
	})

	t.Run("payload hash is the last resort", func(t *testing.T) {
		ev := Normalize(Fields{Status: "deposit", CampaignID: "c1"})
		assert.Len(t, ev.DedupKey, 32)
		assert.True(t, ev.DedupKeyGenerated)

		// Identical payloads hash identically; different payloads do not.
		same := Normalize(Fields{Status: "deposit", CampaignID: "c1"})
		assert.Equal(t, ev.DedupKey, same.DedupKey)

		other := Normalize(Fields{Status: "deposit", CampaignID: "c2"})
		assert.NotEqual(t, ev.DedupKey, other.DedupKey)
	})
}

func TestNormalizeSubIDs(t *testing.T) {
	ev := Normalize(Fields{
		SubID1: "affiliate_7",
		SubID3: "creative_b",
	})

	assert.Equal(t, []SubID{
		{Name: "sub_id_1", Value: "affiliate_7"},
		{Name: "sub_id_3", Value: "creative_b"},
	}, ev.SubIDs)
}
