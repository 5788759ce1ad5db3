package database

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/galvinus/lead-conversion/internal/entity"
)

type ConversionRepository struct {
	DB *sql.DB
}

func NewConversionRepository(db *sql.DB) *ConversionRepository {
	return &ConversionRepository{DB: db}
}

// Convert flips the lead to CONVERTED and inserts the conversion record in a
// single transaction. A lead that is already CONVERTED (or converted by a
// concurrent request between our status check and this commit) comes back as
// entity.ErrLeadAlreadyConverted; no partial write is ever visible.
func (r *ConversionRepository) Convert(ctx context.Context, leadID, accountID, contactID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE leads
		SET lead_status = $1, updated_at = NOW()
		WHERE id = $2 AND lead_status <> $1
	`, entity.LeadStatusConverted, leadID)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// Either the lead vanished or someone else converted it first.
		var exists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, leadID,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return entity.ErrLeadNotFound
		}
		return entity.ErrLeadAlreadyConverted
	}

	conversion := entity.NewLeadConversion(leadID, accountID, contactID)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO lead_conversions (id, lead_id, account_id, contact_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, conversion.ID, conversion.LeadID, conversion.AccountID, conversion.ContactID, conversion.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entity.ErrLeadAlreadyConverted
		}
		log.Printf("conversion insert failed for lead %s: %v", leadID, err)
		return err
	}

	return tx.Commit()
}

func (r *ConversionRepository) FindByLeadID(ctx context.Context, leadID string) (*entity.LeadConversion, error) {
	query := `
		SELECT id, lead_id, account_id, contact_id, created_at
		FROM lead_conversions
		WHERE lead_id = $1
	`

	var conversion entity.LeadConversion
	err := r.DB.QueryRowContext(ctx, query, leadID).Scan(
		&conversion.ID,
		&conversion.LeadID,
		&conversion.AccountID,
		&conversion.ContactID,
		&conversion.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &conversion, nil
}
