package delivery

import (
	"fmt"
	"html"
	"strings"

	"postrelay/internal/postback"
)

const missingField = "—"

// Render produces the HTML Telegram message for a canonical event. Every
// interpolated value is escaped; missing fields render as a dash rather than
// being dropped.
func Render(ev postback.Event) string {
	var b strings.Builder

	switch ev.Status {
	case postback.StatusRegistration:
		renderRegistration(&b, ev)
	case postback.StatusDeposit:
		renderDeposit(&b, ev)
	case postback.StatusRejected:
		renderRejected(&b, ev)
	default:
		renderGeneric(&b, ev)
	}

	appendExtraSubIDs(&b, ev)
	return b.String()
}

func renderRegistration(b *strings.Builder, ev postback.Event) {
	b.WriteString("📝 <b>Registration</b>")
	writeCodeLine(b, "Campaign", ev.CampaignName)
	writeCodeLine(b, "Offer", firstNonEmpty(ev.OfferName, ev.LandingName))
	writeCodeLine(b, "GEO", ev.Country)
	if ev.Source != "" {
		writeCodeLine(b, "Source", ev.Source)
	}
	if sub := firstSubID(ev); sub != "" {
		writeCodeLine(b, "Sub1", sub)
	}
	writeTransaction(b, ev)
}

func renderDeposit(b *strings.Builder, ev postback.Event) {
	b.WriteString("💰 <b>Deposit</b>")
	writeCodeLine(b, "Campaign", ev.CampaignName)
	if ev.CreativeID != "" {
		writeCodeLine(b, "Creative", ev.CreativeID)
	}
	writeCodeLine(b, "Landing", firstNonEmpty(ev.OfferName, ev.LandingName))
	fmt.Fprintf(b, "\nRevenue: <b>%s</b>", html.EscapeString(formatAmount(ev)))
	if sub := firstSubID(ev); sub != "" {
		writeCodeLine(b, "Sub1", sub)
	}
	if ev.Country != "" {
		fmt.Fprintf(b, " | GEO: <code>%s</code>", html.EscapeString(ev.Country))
	}
	writeTransaction(b, ev)
}

func renderRejected(b *strings.Builder, ev postback.Event) {
	b.WriteString("⛔️ <b>Rejected</b>")
	writeCodeLine(b, "Campaign", ev.CampaignName)
	if reason := subIDValue(ev, "sub_id_2"); reason != "" {
		writeCodeLine(b, "Reason", reason)
	}
	writeTransaction(b, ev)
}

func renderGeneric(b *strings.Builder, ev postback.Event) {
	title := ev.RawStatus
	if title == "" {
		title = "Event"
	}
	fmt.Fprintf(b, "📌 <b>%s</b>", html.EscapeString(title))
	writeCodeLine(b, "Campaign", ev.CampaignName)
	writeCodeLine(b, "Offer", ev.OfferName)
	if ev.Country != "" {
		writeCodeLine(b, "GEO", ev.Country)
	}
	writeTransaction(b, ev)
}

// appendExtraSubIDs attaches sub_id_2..sub_id_10 as a compact trailer, but
// only when there are few enough to stay readable.
func appendExtraSubIDs(b *strings.Builder, ev postback.Event) {
	var extras []string
	for _, sub := range ev.SubIDs {
		if sub.Name == "sub_id_1" {
			continue
		}
		shortName := strings.Replace(sub.Name, "sub_id_", "s", 1)
		extras = append(extras, fmt.Sprintf("%s:%s", shortName, html.EscapeString(sub.Value)))
	}
	if len(extras) > 0 && len(extras) <= 3 {
		fmt.Fprintf(b, "\n📎 %s", strings.Join(extras, " | "))
	}
}

func writeCodeLine(b *strings.Builder, label, value string) {
	if value == "" {
		value = missingField
	}
	fmt.Fprintf(b, "\n%s: <code>%s</code>", label, html.EscapeString(value))
}

func writeTransaction(b *strings.Builder, ev postback.Event) {
	tx := ev.DedupKey
	if tx == "" {
		return
	}
	if ev.DedupKeyGenerated {
		tx = tx[:8] + "... (generated)"
	}
	fmt.Fprintf(b, "\nTX: <code>%s</code>", html.EscapeString(tx))
}

func formatAmount(ev postback.Event) string {
	amount := ev.Revenue
	if !amount.Valid {
		amount = ev.Payout
	}

	var text string
	switch {
	case !amount.Valid:
		text = "0"
	case amount.Value == float64(int64(amount.Value)):
		text = fmt.Sprintf("%d", int64(amount.Value))
	default:
		text = fmt.Sprintf("%.2f", amount.Value)
	}

	if ev.Currency != "" {
		return text + " " + ev.Currency
	}
	return text
}

func firstSubID(ev postback.Event) string {
	return subIDValue(ev, "sub_id_1")
}

func subIDValue(ev postback.Event, name string) string {
	for _, sub := range ev.SubIDs {
		if sub.Name == name {
			return sub.Value
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
