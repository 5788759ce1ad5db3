package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrConversionNotFound = errors.New("conversion not found")

// LeadConversion links a converted lead to the remote account and contact
// that were resolved for it. There is exactly one per converted lead; the
// unique constraint on lead_id enforces that.
type LeadConversion struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"leadId"`
	AccountID string    `json:"accountId"`
	ContactID string    `json:"contactId"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewLeadConversion(leadID, accountID, contactID string) *LeadConversion {
	return &LeadConversion{
		ID:        uuid.New().String(),
		LeadID:    leadID,
		AccountID: accountID,
		ContactID: contactID,
		CreatedAt: time.Now(),
	}
}
