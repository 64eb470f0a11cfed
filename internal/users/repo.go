package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/reloop-app/reloop-backend/internal/storage/postgres"
)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{db: db}
}

const userColumns = `id, external_id, email, name, phone_number, profile_image, created_at, updated_at`

// GetByExternalID resolves an identity-provider user id to the stored user.
func (r *Repo) GetByExternalID(ctx context.Context, externalID string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE external_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, externalID))
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, q, id))
}

// Create inserts a new user. A duplicate external id yields ErrUserExists.
func (r *Repo) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	const q = `
		INSERT INTO users (id, external_id, email, name, phone_number, profile_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		u.ID, u.ExternalID, u.Email, u.Name, u.PhoneNumber, u.ProfileImage,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Upsert creates the user or refreshes its profile fields, keyed by external id.
func (r *Repo) Upsert(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}

	const q = `
		INSERT INTO users (id, external_id, email, name, phone_number, profile_image)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE
		SET email = EXCLUDED.email,
		    name = EXCLUDED.name,
		    phone_number = EXCLUDED.phone_number,
		    profile_image = EXCLUDED.profile_image,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, q,
		u.ID, u.ExternalID, u.Email, u.Name, u.PhoneNumber, u.ProfileImage,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// DeleteByExternalID removes the user together with everything that
// references it: their listings (and each listing's category row and pickup
// requests), their own pickup requests, and receiver references on other
// listings. All of it happens in one transaction.
func (r *Repo) DeleteByExternalID(ctx context.Context, externalID string) error {
	return postgres.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var userID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE external_id = $1 FOR UPDATE`, externalID).Scan(&userID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		const ownedItems = `SELECT id FROM item_listings WHERE producer_id = $1`

		stmts := []string{
			`DELETE FROM pickup_requests WHERE user_id = $1 OR item_id IN (` + ownedItems + `)`,
		}
		for _, table := range postgres.CategoryTables {
			stmts = append(stmts, `DELETE FROM `+postgres.Ident(table)+` WHERE item_id IN (`+ownedItems+`)`)
		}
		stmts = append(stmts,
			`UPDATE item_listings SET receiver_id = NULL, updated_at = NOW() WHERE receiver_id = $1`,
			`DELETE FROM item_listings WHERE producer_id = $1`,
			`DELETE FROM user_details WHERE user_id = $1`,
			`DELETE FROM users WHERE id = $1`,
		)

		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
				return fmt.Errorf("purge user %s: %w", userID, err)
			}
		}
		return nil
	})
}

// UpsertDetails stores the user's marketplace profile, replacing any earlier one.
func (r *Repo) UpsertDetails(ctx context.Context, d *Details) error {
	docs, err := json.Marshal(d.DocumentURLs)
	if err != nil {
		return fmt.Errorf("encode document urls: %w", err)
	}
	if d.DocumentURLs == nil {
		docs = []byte("[]")
	}

	const q = `
		INSERT INTO user_details (user_id, role, user_type, organization_type, document_urls, document_type)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET role = EXCLUDED.role,
		    user_type = EXCLUDED.user_type,
		    organization_type = EXCLUDED.organization_type,
		    document_urls = EXCLUDED.document_urls,
		    document_type = EXCLUDED.document_type,
		    updated_at = NOW()
		RETURNING updated_at
	`
	err = r.db.QueryRowContext(ctx, q,
		d.UserID, d.Role, d.UserType, d.OrganizationType, string(docs), d.DocumentType,
	).Scan(&d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user details: %w", err)
	}
	return nil
}

func (r *Repo) GetDetails(ctx context.Context, userID string) (*Details, error) {
	const q = `
		SELECT user_id, role, user_type, organization_type, document_urls, document_type, updated_at
		FROM user_details WHERE user_id = $1
	`
	var (
		d       Details
		orgType sql.NullString
		docType sql.NullString
		docsRaw []byte
	)
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&d.UserID, &d.Role, &d.UserType, &orgType, &docsRaw, &docType, &d.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDetailsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user details: %w", err)
	}

	if len(docsRaw) > 0 {
		if err := json.Unmarshal(docsRaw, &d.DocumentURLs); err != nil {
			return nil, fmt.Errorf("decode document urls: %w", err)
		}
	}
	if orgType.Valid {
		t := OrganizationType(orgType.String)
		d.OrganizationType = &t
	}
	if docType.Valid {
		t := DocumentType(docType.String)
		d.DocumentType = &t
	}
	return &d, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	var phone, image sql.NullString

	err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Name, &phone, &image, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	if image.Valid {
		u.ProfileImage = &image.String
	}
	return &u, nil
}
