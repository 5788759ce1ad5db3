package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/galvinus/lead-conversion/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT id, lead_id, company, website,
		       first_name, last_name, email, phone_number,
		       address_line1, address_line2, city, state, country, postal_code,
		       lead_status, created_at, updated_at
		FROM leads
		WHERE id = $1
	`

	var lead entity.Lead
	var company, website, firstName, lastName, email, phone sql.NullString
	var addr1, addr2, city, state, country, zip sql.NullString

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.LeadID,
		&company,
		&website,
		&firstName,
		&lastName,
		&email,
		&phone,
		&addr1,
		&addr2,
		&city,
		&state,
		&country,
		&zip,
		&lead.LeadStatus,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, err
	}

	// Every column a lead is allowed to omit scans to the empty string, so a
	// half-filled lead reaches convertibility validation instead of erroring.
	lead.Company = company.String
	lead.Website = website.String
	lead.FirstName = firstName.String
	lead.LastName = lastName.String
	lead.Email = email.String
	lead.PhoneNumber = phone.String
	lead.AddressLine1 = addr1.String
	lead.AddressLine2 = addr2.String
	lead.City = city.String
	lead.State = state.String
	lead.Country = country.String
	lead.PostalCode = zip.String

	return &lead, nil
}
