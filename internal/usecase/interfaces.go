package usecase

import (
	"context"

	"github.com/galvinus/lead-conversion/internal/entity"
	"github.com/galvinus/lead-conversion/internal/infra/integration/accounts"
	"github.com/galvinus/lead-conversion/internal/infra/queue"
)

// AccountContactGateway is the remote Accounts & Contacts service boundary.
// The deletes exist only as compensation and must treat "already gone" as
// success.
type AccountContactGateway interface {
	FindAccountByName(ctx context.Context, name string) (accountID string, found bool, err error)
	CreateAccount(ctx context.Context, input accounts.CreateAccountInput) (string, error)
	CreateContact(ctx context.Context, input accounts.CreateContactInput) (string, error)
	DeleteAccount(ctx context.Context, accountID string) error
	DeleteContact(ctx context.Context, contactID string) error
}

type LeadRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
}

// ConversionRepositoryInterface owns all writes to lead_status and
// lead_conversions. Convert is atomic: either the lead is CONVERTED and the
// record exists, or neither.
type ConversionRepositoryInterface interface {
	Convert(ctx context.Context, leadID, accountID, contactID string) error
}

// ConversionFinderInterface is the read side of the conversion store, used
// by the lookup endpoint and ops tooling.
type ConversionFinderInterface interface {
	FindByLeadID(ctx context.Context, leadID string) (*entity.LeadConversion, error)
}

type EventProducerInterface interface {
	PublishLeadConverted(ctx context.Context, payload queue.LeadConvertedPayload) error
	OrphanReporter
}

type EmailService interface {
	SendConversionNotice(to, firstName, company, accountID string) error
}

type ConvertLeadOutput struct {
	AccountID string `json:"accountId"`
	ContactID string `json:"contactId"`
}
