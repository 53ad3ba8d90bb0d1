package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	pkgerrors "postrelay/pkg/errors"
)

type Repository interface {
	GetBySecret(ctx context.Context, secret string) (*Profile, error)
	Get(ctx context.Context, id string) (*Profile, error)
	GetByOwner(ctx context.Context, ownerUserID int64) (*Profile, error)
	Create(ctx context.Context, profile *Profile) error
	Update(ctx context.Context, profile *Profile) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	RotateSecret(ctx context.Context, id string, secret string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const profileColumns = `id, owner_user_id, secret, default_chat_id, default_topic_id, enabled, rate_limit_rps, dedup_ttl_sec, created_at, updated_at`

func (r *PostgresRepository) GetBySecret(ctx context.Context, secret string) (*Profile, error) {
	return r.getWhere(ctx, "secret = $1", secret)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Profile, error) {
	return r.getWhere(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerUserID int64) (*Profile, error) {
	return r.getWhere(ctx, "owner_user_id = $1", ownerUserID)
}

func (r *PostgresRepository) getWhere(ctx context.Context, where string, arg interface{}) (*Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE ` + where + `
	`

	row := r.db.QueryRowContext(ctx, query, arg)

	var p Profile
	err := row.Scan(
		&p.ID, &p.OwnerUserID, &p.Secret, &p.DefaultChatID, &p.DefaultTopicID,
		&p.Enabled, &p.RateLimitRPS, &p.DedupTTLSec, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithCause(err).WithDetail("message", "profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, profile *Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		profile.ID, profile.OwnerUserID, profile.Secret,
		profile.DefaultChatID, profile.DefaultTopicID, profile.Enabled,
		profile.RateLimitRPS, profile.DedupTTLSec,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return pkgerrors.ErrConflict.WithCause(err).WithDetail("message", fmt.Sprintf("profile for owner %d already exists", profile.OwnerUserID))
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, profile *Profile) error {
	profile.UpdatedAt = time.Now()

	query := `
		UPDATE profiles
		SET default_chat_id = $1, default_topic_id = $2,
		    rate_limit_rps = $3, dedup_ttl_sec = $4, updated_at = $5
		WHERE id = $6
	`

	res, err := r.db.ExecContext(ctx, query,
		profile.DefaultChatID, profile.DefaultTopicID,
		profile.RateLimitRPS, profile.DedupTTLSec,
		profile.UpdatedAt, profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	return requireRowAffected(res, profile.ID)
}

// SetEnabled soft-disables or re-enables a profile. Profiles are never hard
// deleted while routes reference them.
func (r *PostgresRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE profiles SET enabled = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, enabled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set profile enabled: %w", err)
	}

	return requireRowAffected(res, id)
}

func (r *PostgresRepository) RotateSecret(ctx context.Context, id string, secret string) error {
	query := `UPDATE profiles SET secret = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, secret, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to rotate profile secret: %w", err)
	}

	return requireRowAffected(res, id)
}

func requireRowAffected(res sql.Result, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.ErrNotFound.WithDetail("message", fmt.Sprintf("profile '%s' not found", id))
	}
	return nil
}
