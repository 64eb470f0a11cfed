package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/reloop-app/reloop-backend/internal/items/domain"
	"github.com/reloop-app/reloop-backend/internal/storage/postgres"
	"github.com/reloop-app/reloop-backend/internal/users"
)

// ItemRepository persists listings, their category details and pickup
// requests. Reads run on the pool; writes only through WithinTx.
type ItemRepository struct {
	queries
	db *sql.DB
}

func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{queries: queries{db: db}, db: db}
}

// WithinTx runs fn against a single transaction. Any error rolls back every
// write fn made.
func (r *ItemRepository) WithinTx(ctx context.Context, fn func(w domain.ListingWriter) error) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&queries{db: tx})
	})
}

// DeleteOrphanedDetails removes variant rows whose listing is gone or now
// belongs to another category.
func (r *ItemRepository) DeleteOrphanedDetails(ctx context.Context) (int64, error) {
	var total int64
	for _, c := range domain.Categories {
		table, err := tableFor(c)
		if err != nil {
			return total, err
		}
		q := `DELETE FROM ` + postgres.Ident(table) + ` d
			WHERE NOT EXISTS (
				SELECT 1 FROM item_listings l WHERE l.id = d.item_id AND l.category = $1
			)`
		res, err := r.db.ExecContext(ctx, q, string(c))
		if err != nil {
			return total, fmt.Errorf("sweep %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

type queries struct {
	db postgres.DBTX
}

type scanner interface {
	Scan(dest ...any) error
}

const listingSelect = `
	SELECT l.id, l.title, l.description, l.category, l.latitude, l.longitude, l.address,
	       l.status, l.producer_id, l.receiver_id, l.created_at, l.updated_at,
	       u.id, u.external_id, u.email, u.name, u.phone_number, u.profile_image, u.created_at, u.updated_at
	FROM item_listings l
	JOIN users u ON u.id = l.producer_id`

func scanListing(sc scanner) (domain.ItemListing, error) {
	var l domain.ItemListing
	u := &users.User{}
	err := sc.Scan(
		&l.ID, &l.Title, &l.Description, &l.Category, &l.Latitude, &l.Longitude, &l.Address,
		&l.Status, &l.ProducerID, &l.ReceiverID, &l.CreatedAt, &l.UpdatedAt,
		&u.ID, &u.ExternalID, &u.Email, &u.Name, &u.PhoneNumber, &u.ProfileImage, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return l, err
	}
	l.Producer = u
	return l, nil
}

func (q *queries) GetListing(ctx context.Context, id string) (*domain.ItemListing, error) {
	l, err := scanListing(q.db.QueryRowContext(ctx, listingSelect+` WHERE l.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}

	out := []domain.ItemListing{l}
	if err := q.attachDetails(ctx, out); err != nil {
		return nil, err
	}
	return &out[0], nil
}

// FindListings returns one page of matches, newest first.
func (q *queries) FindListings(ctx context.Context, sq domain.SearchQuery) ([]domain.ItemListing, error) {
	where, err := buildSearchWhere(sq)
	if err != nil {
		return nil, err
	}

	stmt := listingSelect + where.String() +
		` ORDER BY l.created_at DESC LIMIT ` + where.next(sq.Limit) + ` OFFSET ` + where.next(sq.Offset)

	rows, err := q.db.QueryContext(ctx, stmt, where.args...)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ItemListing, 0, sq.Limit)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := q.attachDetails(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q *queries) CountListings(ctx context.Context, sq domain.SearchQuery) (int, error) {
	where, err := buildSearchWhere(sq)
	if err != nil {
		return 0, err
	}

	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_listings l`+where.String(), where.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return n, nil
}

// attachDetails loads variants with one query per category present.
func (q *queries) attachDetails(ctx context.Context, listings []domain.ItemListing) error {
	byCategory := make(map[domain.Category][]int)
	for i, l := range listings {
		byCategory[l.Category] = append(byCategory[l.Category], i)
	}

	for _, c := range domain.Categories {
		idx := byCategory[c]
		if len(idx) == 0 {
			continue
		}

		found, err := q.loadDetails(ctx, c, listings, idx)
		if err != nil {
			return err
		}
		for _, i := range idx {
			if d, ok := found[listings[i].ID]; ok {
				listings[i].Details = d
			}
		}
	}
	return nil
}

func (q *queries) loadDetails(ctx context.Context, c domain.Category, listings []domain.ItemListing, idx []int) (map[string]domain.CategoryDetails, error) {
	empty, err := domain.NewDetails(c)
	if err != nil {
		return nil, err
	}
	layout, err := layoutOf(empty)
	if err != nil {
		return nil, err
	}

	placeholders := make([]string, len(idx))
	args := make([]any, len(idx))
	for n, i := range idx {
		placeholders[n] = fmt.Sprintf("$%d", n+1)
		args[n] = listings[i].ID
	}

	stmt := `SELECT item_id, ` + strings.Join(layout.cols, ", ") +
		` FROM ` + postgres.Ident(layout.table) +
		` WHERE item_id IN (` + strings.Join(placeholders, ", ") + `)`

	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("load %s details: %w", c, err)
	}
	defer rows.Close()

	out := make(map[string]domain.CategoryDetails, len(idx))
	for rows.Next() {
		d, err := domain.NewDetails(c)
		if err != nil {
			return nil, err
		}
		row, err := layoutOf(d)
		if err != nil {
			return nil, err
		}

		var itemID string
		if err := rows.Scan(append([]any{&itemID}, row.ptrs...)...); err != nil {
			return nil, fmt.Errorf("scan %s details: %w", c, err)
		}
		out[itemID] = d
	}
	return out, rows.Err()
}

func (q *queries) CreateListing(ctx context.Context, l *domain.ItemListing) error {
	const stmt = `
		INSERT INTO item_listings
			(id, title, description, category, latitude, longitude, address, status, producer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := q.db.ExecContext(ctx, stmt,
		l.ID, l.Title, l.Description, string(l.Category), l.Latitude, l.Longitude, l.Address,
		string(l.Status), l.ProducerID, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (q *queries) UpdateListing(ctx context.Context, l *domain.ItemListing) error {
	const stmt = `
		UPDATE item_listings
		SET title = $2, description = $3, category = $4, latitude = $5, longitude = $6,
		    address = $7, status = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := q.db.ExecContext(ctx, stmt,
		l.ID, l.Title, l.Description, string(l.Category), l.Latitude, l.Longitude,
		l.Address, string(l.Status), l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}
	return expectRow(res)
}

func (q *queries) DeleteListing(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM item_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return expectRow(res)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (q *queries) CreateDetails(ctx context.Context, itemID string, d domain.CategoryDetails) error {
	layout, err := layoutOf(d)
	if err != nil {
		return err
	}

	stmt := `INSERT INTO ` + postgres.Ident(layout.table) +
		` (item_id, ` + strings.Join(layout.cols, ", ") + `) VALUES (` + placeholderList(len(layout.cols)+1) + `)`

	if _, err := q.db.ExecContext(ctx, stmt, append([]any{itemID}, layout.args()...)...); err != nil {
		return fmt.Errorf("insert %s details: %w", layout.table, err)
	}
	return nil
}

// UpsertDetails inserts the variant row or overwrites every column of the
// existing one.
func (q *queries) UpsertDetails(ctx context.Context, itemID string, d domain.CategoryDetails) error {
	layout, err := layoutOf(d)
	if err != nil {
		return err
	}

	sets := make([]string, len(layout.cols))
	for i, c := range layout.cols {
		sets[i] = c + " = EXCLUDED." + c
	}

	stmt := `INSERT INTO ` + postgres.Ident(layout.table) +
		` (item_id, ` + strings.Join(layout.cols, ", ") + `) VALUES (` + placeholderList(len(layout.cols)+1) + `)` +
		` ON CONFLICT (item_id) DO UPDATE SET ` + strings.Join(sets, ", ")

	if _, err := q.db.ExecContext(ctx, stmt, append([]any{itemID}, layout.args()...)...); err != nil {
		return fmt.Errorf("upsert %s details: %w", layout.table, err)
	}
	return nil
}

func (q *queries) DeleteDetails(ctx context.Context, itemID string, c domain.Category) error {
	table, err := tableFor(c)
	if err != nil {
		return err
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM `+postgres.Ident(table)+` WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("delete %s details: %w", table, err)
	}
	return nil
}

func (q *queries) DeletePickupRequests(ctx context.Context, itemID string) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM pickup_requests WHERE item_id = $1`, itemID); err != nil {
		return fmt.Errorf("delete pickup requests: %w", err)
	}
	return nil
}

func (q *queries) CreatePickupRequest(ctx context.Context, p *domain.PickupRequest) error {
	const stmt = `
		INSERT INTO pickup_requests (id, item_id, user_id, pickup_address, scheduled_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := q.db.QueryRowContext(ctx, stmt,
		p.ID, p.ItemID, p.UserID, p.PickupAddress, p.ScheduledDate, p.Notes,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert pickup request: %w", err)
	}
	return nil
}

func placeholderList(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(ph, ", ")
}
