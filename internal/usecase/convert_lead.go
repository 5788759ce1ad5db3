package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/galvinus/lead-conversion/internal/entity"
	"github.com/galvinus/lead-conversion/internal/infra/integration/accounts"
	"github.com/galvinus/lead-conversion/internal/infra/queue"
)

const defaultSagaTimeout = 30 * time.Second

// ConvertLeadUseCase runs the lead conversion saga: resolve (or create) the
// remote account, create the remote contact, then commit the conversion
// locally. Any failure after a remote create compensates in reverse order
// and surfaces the original error.
type ConvertLeadUseCase struct {
	LeadRepo       LeadRepositoryInterface
	ConversionRepo ConversionRepositoryInterface
	Gateway        AccountContactGateway
	Queue          EventProducerInterface
	EmailService   EmailService

	locks   *leadLocks
	timeout time.Duration
}

func NewConvertLeadUseCase(
	leadRepo LeadRepositoryInterface,
	conversionRepo ConversionRepositoryInterface,
	gateway AccountContactGateway,
	producer EventProducerInterface,
	emailService EmailService,
) *ConvertLeadUseCase {
	return &ConvertLeadUseCase{
		LeadRepo:       leadRepo,
		ConversionRepo: conversionRepo,
		Gateway:        gateway,
		Queue:          producer,
		EmailService:   emailService,
		locks:          newLeadLocks(),
		timeout:        defaultSagaTimeout,
	}
}

func (uc *ConvertLeadUseCase) Execute(ctx context.Context, leadID string) (*ConvertLeadOutput, error) {
	// Exclusivity first: held until the saga reaches a terminal state so two
	// concurrent requests cannot both pass the CONVERTED check.
	release := uc.locks.Acquire(leadID)
	defer release()

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	lead, err := uc.LeadRepo.FindByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, conversionError(KindLeadNotFound, err)
		}
		return nil, conversionError(KindLocalCommitFailure, fmt.Errorf("load lead: %w", err))
	}

	// Idempotent rejection: no side effects yet, nothing to compensate.
	if lead.IsConverted() {
		return nil, conversionError(KindAlreadyConverted, entity.ErrLeadAlreadyConverted)
	}

	if validationErrors := ValidateConvertible(lead); len(validationErrors) > 0 {
		msg := "lead is not convertible:"
		for _, e := range validationErrors {
			msg += " " + e.Error() + ";"
		}
		return nil, conversionError(KindValidation, errors.New(msg))
	}

	saga := NewSaga(leadID, uc.Queue)

	accountID, err := uc.resolveAccount(ctx, saga, lead)
	if err != nil {
		// Nothing owned yet; no compensation to run.
		return nil, conversionError(KindRemoteCreateFailure, err)
	}
	saga.Advance(PhaseAccountResolved)

	contactID, err := uc.Gateway.CreateContact(ctx, accounts.CreateContactInput{
		AccountID:   accountID,
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Email:       lead.Email,
		PhoneNumber: lead.PhoneNumber,
	})
	if err != nil {
		saga.Compensate(ctx)
		return nil, conversionError(KindRemoteCreateFailure, fmt.Errorf("create contact: %w", err))
	}
	saga.Own("contact", contactID, PhaseCompensatingContact, func(c context.Context) error {
		return uc.Gateway.DeleteContact(c, contactID)
	})
	saga.Advance(PhaseContactCreated)

	if err := uc.ConversionRepo.Convert(ctx, lead.ID, accountID, contactID); err != nil {
		saga.Compensate(ctx)
		if errors.Is(err, entity.ErrLeadAlreadyConverted) {
			return nil, conversionError(KindAlreadyConverted, err)
		}
		return nil, conversionError(KindLocalCommitFailure, fmt.Errorf("commit conversion: %w", err))
	}
	saga.Advance(PhaseLocalCommitted)

	uc.notifyConverted(ctx, lead, accountID, contactID)

	return &ConvertLeadOutput{AccountID: accountID, ContactID: contactID}, nil
}

// resolveAccount reuses an existing remote account when one matches the
// lead's company, otherwise creates one. Only a created account is
// registered for compensation; a reused account is not ours to delete.
func (uc *ConvertLeadUseCase) resolveAccount(ctx context.Context, saga *Saga, lead *entity.Lead) (string, error) {
	accountID, found, err := uc.Gateway.FindAccountByName(ctx, lead.Company)
	if err != nil {
		return "", fmt.Errorf("find account by name: %w", err)
	}
	if found {
		log.Printf("reusing account %s for lead %s (company %q)", accountID, lead.ID, lead.Company)
		return accountID, nil
	}

	accountID, err = uc.Gateway.CreateAccount(ctx, accounts.CreateAccountInput{
		Name:         lead.Company,
		Website:      lead.Website,
		AddressLine1: lead.AddressLine1,
		AddressLine2: lead.AddressLine2,
		City:         lead.City,
		State:        lead.State,
		Country:      lead.Country,
		ZipCode:      lead.PostalCode,
	})
	if err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}

	saga.Own("account", accountID, PhaseCompensatingAccount, func(c context.Context) error {
		return uc.Gateway.DeleteAccount(c, accountID)
	})
	return accountID, nil
}

// notifyConverted runs the post-commit side effects. The saga already
// succeeded; failures here are logged, never surfaced.
func (uc *ConvertLeadUseCase) notifyConverted(ctx context.Context, lead *entity.Lead, accountID, contactID string) {
	if uc.Queue != nil {
		err := uc.Queue.PublishLeadConverted(ctx, queue.LeadConvertedPayload{
			LeadID:    lead.ID,
			AccountID: accountID,
			ContactID: contactID,
			Company:   lead.Company,
			Email:     lead.Email,
		})
		if err != nil {
			log.Printf("WARNING: lead %s converted but event publish failed: %v", lead.ID, err)
		}
	}

	if uc.EmailService != nil && lead.Email != "" {
		go func() {
			if err := uc.EmailService.SendConversionNotice(lead.Email, lead.FirstName, lead.Company, accountID); err != nil {
				log.Printf("conversion notice email failed for lead %s: %v", lead.ID, err)
			}
		}()
	}
}
