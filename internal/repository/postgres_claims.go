package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
)

// PostgresClaimBackend is the remote claim store.
type PostgresClaimBackend struct {
	db *sql.DB
}

func NewPostgresClaimBackend(db *sql.DB) *PostgresClaimBackend {
	return &PostgresClaimBackend{db: db}
}

// InitDB creates the claim and order tables.
func InitDB(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS claims_seq START 1000`,
		`CREATE TABLE IF NOT EXISTS claims (
			claim_id VARCHAR(64) PRIMARY KEY DEFAULT ('CLM-' || nextval('claims_seq')),
			order_id BIGINT NOT NULL,
			customer_id BIGINT NOT NULL,
			user_id BIGINT,
			issue_description TEXT NOT NULL,
			requested_resolution VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'pending',
			risk_level VARCHAR(16) NOT NULL DEFAULT 'low',
			ai_decision JSONB,
			admin_notes JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_customer_id ON claims(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_order_id ON claims(order_id)`,
		`CREATE TABLE IF NOT EXISTS order_master (
			order_id BIGINT PRIMARY KEY,
			customer_id BIGINT NOT NULL,
			delivery_status VARCHAR(32) NOT NULL,
			payment_status VARCHAR(32) NOT NULL,
			total_amount NUMERIC(12,2) NOT NULL,
			delivery_date DATE
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL REFERENCES order_master(order_id) ON DELETE CASCADE,
			product_name VARCHAR(255) NOT NULL,
			quantity INT NOT NULL,
			price_per_unit NUMERIC(12,2) NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

const claimColumns = `claim_id, order_id, customer_id, issue_description, requested_resolution,
	status, risk_level, ai_decision, admin_notes, created_at, updated_at`

func (r *PostgresClaimBackend) Insert(ctx context.Context, claim models.Claim) (models.Claim, error) {
	decision, notes, err := encodeClaimBlobs(claim)
	if err != nil {
		return models.Claim{}, err
	}
	if claim.CreatedAt.IsZero() {
		claim.CreatedAt = time.Now().UTC()
	}
	if claim.UpdatedAt.IsZero() {
		claim.UpdatedAt = claim.CreatedAt
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO claims (order_id, customer_id, user_id, issue_description, requested_resolution,
			status, risk_level, ai_decision, admin_notes, created_at, updated_at)
		VALUES ($1, $2, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING claim_id, created_at, updated_at
	`, claim.OrderID, claim.CustomerID, claim.IssueDescription, claim.RequestedResolution,
		claim.Status, claim.RiskLevel, decision, notes, claim.CreatedAt, claim.UpdatedAt,
	).Scan(&claim.ClaimID, &claim.CreatedAt, &claim.UpdatedAt)
	if err != nil {
		return models.Claim{}, err
	}
	return claim.Persistable(), nil
}

func (r *PostgresClaimBackend) Get(ctx context.Context, claimID string) (models.Claim, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE claim_id = $1`, claimID)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Claim{}, models.ErrClaimNotFound
	}
	return claim, err
}

func (r *PostgresClaimBackend) ListAll(ctx context.Context) ([]models.Claim, error) {
	return r.query(ctx, `SELECT `+claimColumns+` FROM claims ORDER BY created_at DESC`)
}

func (r *PostgresClaimBackend) ListByCustomer(ctx context.Context, customerID int64) ([]models.Claim, error) {
	return r.query(ctx, `SELECT `+claimColumns+` FROM claims
		WHERE customer_id = $1 OR user_id = $1 ORDER BY created_at DESC`, customerID)
}

func (r *PostgresClaimBackend) ListByOrder(ctx context.Context, orderID int64) ([]models.Claim, error) {
	return r.query(ctx, `SELECT `+claimColumns+` FROM claims
		WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
}

// Save overwrites the mutable fields of an existing claim. The record's own
// update time is stored so copies held elsewhere can be compared with it.
func (r *PostgresClaimBackend) Save(ctx context.Context, claim models.Claim) error {
	decision, notes, err := encodeClaimBlobs(claim)
	if err != nil {
		return err
	}
	updatedAt := claim.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx, `
		UPDATE claims
		SET status = $2, risk_level = $3, ai_decision = $4, admin_notes = $5, updated_at = $6
		WHERE claim_id = $1
	`, claim.ClaimID, claim.Status, claim.RiskLevel, decision, notes, updatedAt)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrClaimNotFound
	}
	return nil
}

func (r *PostgresClaimBackend) query(ctx context.Context, query string, args ...any) ([]models.Claim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := []models.Claim{}
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (models.Claim, error) {
	var (
		claim    models.Claim
		decision []byte
		notes    []byte
	)
	err := row.Scan(&claim.ClaimID, &claim.OrderID, &claim.CustomerID, &claim.IssueDescription,
		&claim.RequestedResolution, &claim.Status, &claim.RiskLevel, &decision, &notes, &claim.CreatedAt, &claim.UpdatedAt)
	if err != nil {
		return models.Claim{}, err
	}
	if len(decision) > 0 && string(decision) != "null" {
		var d models.Decision
		if err := json.Unmarshal(decision, &d); err != nil {
			return models.Claim{}, fmt.Errorf("decode ai_decision of %s: %w", claim.ClaimID, err)
		}
		claim.AIDecision = &d
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &claim.AdminNotes); err != nil {
			return models.Claim{}, fmt.Errorf("decode admin_notes of %s: %w", claim.ClaimID, err)
		}
	}
	return claim, nil
}

// encodeClaimBlobs renders the JSONB columns as text; lib/pq would send raw
// []byte as bytea.
func encodeClaimBlobs(claim models.Claim) (sql.NullString, string, error) {
	var decision sql.NullString
	if claim.AIDecision != nil {
		b, err := json.Marshal(claim.AIDecision)
		if err != nil {
			return decision, "", err
		}
		decision = sql.NullString{String: string(b), Valid: true}
	}
	adminNotes := claim.AdminNotes
	if adminNotes == nil {
		adminNotes = []models.AdminNote{}
	}
	notes, err := json.Marshal(adminNotes)
	if err != nil {
		return decision, "", err
	}
	return decision, string(notes), nil
}
