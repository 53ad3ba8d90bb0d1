package postback

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventStore appends pipeline outcomes to the event log. Rows are write-once:
// the pipeline composes the full record and appends it in a single statement,
// so a retried request never mutates an existing row.
type EventStore interface {
	Append(ctx context.Context, ev *Event) error
	ListByProfile(ctx context.Context, profileID string, limit int) ([]Event, error)
}

type PostgresEventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

const eventColumns = `id, profile_id, dedup_key, dedup_key_generated, status, raw_status,
	transaction_id, click_id, campaign_id, campaign_name, offer_name,
	revenue, payout, currency, country, source, creative_id, landing_name,
	outcome, processed, sent_chat_id, sent_topic_id, error, created_at`

func (s *PostgresEventStore) Append(ctx context.Context, ev *Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`

	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.ProfileID, ev.DedupKey, ev.DedupKeyGenerated, ev.Status, ev.RawStatus,
		ev.TransactionID, ev.ClickID, ev.CampaignID, ev.CampaignName, ev.OfferName,
		amountValue(ev.Revenue), amountValue(ev.Payout), ev.Currency, ev.Country,
		ev.Source, ev.CreativeID, ev.LandingName,
		ev.Outcome, ev.Processed, ev.SentChatID, ev.SentTopicID,
		nullableString(ev.Error), ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

func (s *PostgresEventStore) ListByProfile(ctx context.Context, profileID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE profile_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, profileID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		var ev Event
		var revenue, payout sql.NullFloat64
		var errText sql.NullString
		if err := rows.Scan(
			&ev.ID, &ev.ProfileID, &ev.DedupKey, &ev.DedupKeyGenerated, &ev.Status, &ev.RawStatus,
			&ev.TransactionID, &ev.ClickID, &ev.CampaignID, &ev.CampaignName, &ev.OfferName,
			&revenue, &payout, &ev.Currency, &ev.Country,
			&ev.Source, &ev.CreativeID, &ev.LandingName,
			&ev.Outcome, &ev.Processed, &ev.SentChatID, &ev.SentTopicID,
			&errText, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if revenue.Valid {
			ev.Revenue = Amount{Valid: true, Value: revenue.Float64}
		}
		if payout.Valid {
			ev.Payout = Amount{Valid: true, Value: payout.Float64}
		}
		ev.Error = errText.String
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

func amountValue(a Amount) interface{} {
	if !a.Valid {
		return nil
	}
	return a.Value
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
