package routing

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
	ListEnabled(ctx context.Context, profileID string) ([]Route, error)
	ListByProfile(ctx context.Context, profileID string) ([]Route, error)
	Get(ctx context.Context, id string) (*Route, error)
	Create(ctx context.Context, route *Route) error
	Update(ctx context.Context, route *Route) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	Delete(ctx context.Context, id string) error
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

const routeColumns = `id, profile_id, match_by, match_value, statuses, countries, chat_id, topic_id, priority, enabled, created_at, updated_at`

// ListEnabled returns the profile's enabled routes in evaluation order:
// priority ascending with creation order as tie-break.
func (r *PostgresRepository) ListEnabled(ctx context.Context, profileID string) ([]Route, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE profile_id = $1 AND enabled = TRUE
		ORDER BY priority ASC, created_at ASC, id ASC
	`
	return r.queryRoutes(ctx, query, profileID)
}

func (r *PostgresRepository) ListByProfile(ctx context.Context, profileID string) ([]Route, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE profile_id = $1
		ORDER BY priority ASC, created_at ASC, id ASC
	`
	return r.queryRoutes(ctx, query, profileID)
}

func (r *PostgresRepository) queryRoutes(ctx context.Context, query string, args ...interface{}) ([]Route, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate routes: %w", err)
	}

	return routes, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*Route, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM routes
		WHERE id = $1
	`

	route, err := scanRoute(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrNotFound.WithCause(err).WithDetail("message", fmt.Sprintf("route '%s' not found", id))
	}
	if err != nil {
		return nil, err
	}
	return route, nil
}

func (r *PostgresRepository) Create(ctx context.Context, route *Route) error {
	if route.ID == "" {
		route.ID = uuid.New().String()
	}
	now := time.Now()
	route.CreatedAt = now
	route.UpdatedAt = now

	query := `
		INSERT INTO routes (` + routeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		route.ID, route.ProfileID, route.MatchBy, route.MatchValue,
		pq.Array(route.Statuses), pq.Array(route.Countries),
		route.ChatID, route.TopicID, route.Priority, route.Enabled,
		route.CreatedAt, route.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return pkgerrors.ErrValidation.WithCause(err).WithDetail("message", fmt.Sprintf("profile '%s' does not exist", route.ProfileID))
		}
		return fmt.Errorf("failed to create route: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, route *Route) error {
	route.UpdatedAt = time.Now()

	query := `
		UPDATE routes
		SET match_by = $1, match_value = $2, statuses = $3, countries = $4,
		    chat_id = $5, topic_id = $6, priority = $7, enabled = $8, updated_at = $9
		WHERE id = $10
	`

	res, err := r.db.ExecContext(ctx, query,
		route.MatchBy, route.MatchValue,
		pq.Array(route.Statuses), pq.Array(route.Countries),
		route.ChatID, route.TopicID, route.Priority, route.Enabled,
		route.UpdatedAt, route.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update route: %w", err)
	}

	return requireRowAffected(res, route.ID)
}

func (r *PostgresRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := `UPDATE routes SET enabled = $1, updated_at = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, enabled, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set route enabled: %w", err)
	}

	return requireRowAffected(res, id)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM routes WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}

	return requireRowAffected(res, id)
}

func requireRowAffected(res sql.Result, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return pkgerrors.ErrNotFound.WithDetail("message", fmt.Sprintf("route '%s' not found", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRoute(row rowScanner) (*Route, error) {
	var route Route
	err := row.Scan(
		&route.ID, &route.ProfileID, &route.MatchBy, &route.MatchValue,
		pq.Array(&route.Statuses), pq.Array(&route.Countries),
		&route.ChatID, &route.TopicID, &route.Priority, &route.Enabled,
		&route.CreatedAt, &route.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan route: %w", err)
	}
	return &route, nil
}
