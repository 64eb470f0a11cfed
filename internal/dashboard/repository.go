package dashboard

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
)

// Repository answers aggregate questions about one producer's listings.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CountByStatus(ctx context.Context, producerID string) (map[domain.Status]int, error) {
	const q = `
		SELECT status, COUNT(*)
		FROM item_listings
		WHERE producer_id = $1
		GROUP BY status
	`
	rows, err := r.db.QueryContext(ctx, q, producerID)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.Status]int, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out[s] = 0
	}
	for rows.Next() {
		var (
			status domain.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *Repository) CountPickupRequests(ctx context.Context, producerID string) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM pickup_requests p
		JOIN item_listings l ON l.id = p.item_id
		WHERE l.producer_id = $1
	`
	var n int
	if err := r.db.QueryRowContext(ctx, q, producerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pickup requests: %w", err)
	}
	return n, nil
}

// ListPickupRequests returns pickup requests filed against the producer's
// listings, newest first.
func (r *Repository) ListPickupRequests(ctx context.Context, producerID string, limit, offset int) ([]PickupRequestView, error) {
	const q = `
		SELECT p.id, p.item_id, p.user_id, p.pickup_address, p.scheduled_date, p.notes, p.created_at, l.title
		FROM pickup_requests p
		JOIN item_listings l ON l.id = p.item_id
		WHERE l.producer_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, q, producerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list pickup requests: %w", err)
	}
	defer rows.Close()

	out := make([]PickupRequestView, 0, limit)
	for rows.Next() {
		var v PickupRequestView
		if err := rows.Scan(
			&v.ID, &v.ItemID, &v.UserID, &v.PickupAddress, &v.ScheduledDate, &v.Notes, &v.CreatedAt, &v.ItemTitle,
		); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
