package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/galvinus/lead-conversion/internal/entity"
	"github.com/galvinus/lead-conversion/internal/infra/integration/accounts"
	"github.com/galvinus/lead-conversion/internal/infra/queue"
	"github.com/galvinus/lead-conversion/internal/usecase"
)

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

// MockConversionRepository
type MockConversionRepository struct {
	mock.Mock
}

func (m *MockConversionRepository) Convert(ctx context.Context, leadID, accountID, contactID string) error {
	args := m.Called(ctx, leadID, accountID, contactID)
	return args.Error(0)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) FindAccountByName(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockGateway) CreateAccount(ctx context.Context, input accounts.CreateAccountInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreateContact(ctx context.Context, input accounts.CreateContactInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) DeleteAccount(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockGateway) DeleteContact(ctx context.Context, contactID string) error {
	args := m.Called(ctx, contactID)
	return args.Error(0)
}

// MockProducer
type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) PublishLeadConverted(ctx context.Context, payload queue.LeadConvertedPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockProducer) ReportOrphan(ctx context.Context, orphan queue.OrphanPayload) {
	m.Called(ctx, orphan)
}

func openLead() *entity.Lead {
	return &entity.Lead{
		ID:          "L1",
		LeadID:      "L000001",
		Company:     "Acme",
		Website:     "https://acme.example",
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       "jane@acme.example",
		PhoneNumber: "+1 555 0100",
		City:        "Springfield",
		Country:     "US",
		PostalCode:  "12345",
		LeadStatus:  entity.LeadStatusOpen,
	}
}

func newUseCase(leadRepo *MockLeadRepository, convRepo *MockConversionRepository, gateway *MockGateway, producer *MockProducer) *usecase.ConvertLeadUseCase {
	return usecase.NewConvertLeadUseCase(leadRepo, convRepo, gateway, producer, nil)
}

func TestConvertLeadCreatesAccountAndContact(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	convRepo := new(MockConversionRepository)
	gateway := new(MockGateway)
	producer := new(MockProducer)

	leadRepo.On("FindByID", mock.Anything, "L1").Return(openLead(), nil)
	gateway.On("FindAccountByName", mock.Anything, "Acme").Return("", false, nil)
	gateway.On("CreateAccount", mock.Anything, mock.Anything).Return("A1", nil)
	gateway.On("CreateContact", mock.Anything, mock.Anything).Return("C1", nil)
	convRepo.On("Convert", mock.Anything, "L1", "A1", "C1").Return(nil)
	producer.On("PublishLeadConverted", mock.Anything, mock.Anything).Return(nil)

	uc := newUseCase(leadRepo, convRepo, gateway, producer)

	output, err := uc.Execute(ctx, "L1")

	assert.NoError(t, err)
	assert.Equal(t, "A1", output.AccountID)
	assert.Equal(t, "C1", output.ContactID)

	gateway.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "DeleteContact", mock.Anything, mock.Anything)
	convRepo.AssertCalled(t, "Convert", mock.Anything, "L1", "A1", "C1")
	producer.AssertCalled(t, "PublishLeadConverted", mock.Anything, mock.Anything)
}

func TestConvertLeadReusesExistingAccount(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	convRepo := new(MockConversionRepository)
	gateway := new(MockGateway)
	producer := new(MockProducer)

	leadRepo.On("FindByID", mock.Anything, "L2").Return(&entity.Lead{
		ID: "L2", LeadID: "L000002", Company: "Acme",
		FirstName: "John", LastName: "Roe", Email: "john@acme.example",
		LeadStatus: entity.LeadStatusOpen,
	}, nil)
	gateway.On("FindAccountByName", mock.Anything, "Acme").Return("A1", true, nil)
	gateway.On("CreateContact", mock.Anything, mock.Anything).Return("C2", nil)
	convRepo.On("Convert", mock.Anything, "L2", "A1", "C2").Return(nil)
	producer.On("PublishLeadConverted", mock.Anything, mock.Anything).Return(nil)

	uc := newUseCase(leadRepo, convRepo, gateway, producer)

	output, err := uc.Execute(ctx, "L2")

	assert.NoError(t, err)
	assert.Equal(t, "A1", output.AccountID)
	gateway.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
}

func TestAlreadyConvertedLeadMakesNoRemoteCalls(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	convRepo := new(MockConversionRepository)
	gateway := new(MockGateway)
	producer := new(MockProducer)

	converted := openLead()
	converted.LeadStatus = entity.LeadStatusConverted
	leadRepo.On("FindByID", mock.Anything, "L1").Return(converted, nil)

	uc := newUseCase(leadRepo, convRepo, gateway, producer)

	output, err := uc.Execute(ctx, "L1")

	assert.Nil(t, output)
	kind, ok := usecase.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.KindAlreadyConverted, kind)

	gateway.AssertNotCalled(t, "FindAccountByName", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything)
	gateway.AssertNotCalled(t, "CreateContact", mock.Anything, mock.Anything)
	convRepo.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLeadNotFound(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	leadRepo.On("FindByID", mock.Anything, "missing").Return(nil, entity.ErrLeadNotFound)

	uc := newUseCase(leadRepo, new(MockConversionRepository), new(MockGateway), new(MockProducer))

	output, err := uc.Execute(ctx, "missing")

	assert.Nil(t, output)
	kind, ok := usecase.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.KindLeadNotFound, kind)
}

func TestUnconvertibleLeadIsRejectedBeforeRemoteCalls(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	gateway := new(MockGateway)

	lead := openLead()
	lead.Company = ""
	leadRepo.On("FindByID", mock.Anything, "L1").Return(lead, nil)

	uc := newUseCase(leadRepo, new(MockConversionRepository), gateway, new(MockProducer))

	_, err := uc.Execute(ctx, "L1")

	kind, ok := usecase.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.KindValidation, kind)
	gateway.AssertNotCalled(t, "FindAccountByName", mock.Anything, mock.Anything)
}

func TestContactFailureCompensatesCreatedAccount(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	convRepo := new(MockConversionRepository)
	gateway := new(MockGateway)
	producer := new(MockProducer)

	contactErr := &accounts.APIError{Kind: accounts.KindTransient, StatusCode: 503, Op: "create contact", Message: "upstream down"}

	leadRepo.On("FindByID", mock.Anything, "L1").Return(openLead(), nil)
	gateway.On("FindAccountByName", mock.Anything, "Acme").Return("", false, nil)
	gateway.On("CreateAccount", mock.Anything, mock.Anything).Return("A1", nil)
	gateway.On("CreateContact", mock.Anything, mock.Anything).Return("", contactErr)
	gateway.On("DeleteAccount", mock.Anything, "A1").Return(nil)

	uc := newUseCase(leadRepo, convRepo, gateway, producer)

	output, err := uc.Execute(ctx, "L1")

	assert.Nil(t, output)
	kind, ok := usecase.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.KindRemoteCreateFailure, kind)
	// The surfaced error is the contact-creation failure, not a
	// compensation error.
	assert.ErrorIs(t, err, contactErr)

	gateway.AssertNumberOfCalls(t, "DeleteAccount", 1)
	gateway.AssertNotCalled(t, "DeleteContact", mock.Anything, mock.Anything)
	convRepo.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContactFailureDoesNotDeleteReusedAccount(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	gateway := new(MockGateway)

	leadRepo.On("FindByID", mock.Anything, "L1").Return(openLead(), nil)
	gateway.On("FindAccountByName", mock.Anything, "Acme").Return("A1", true, nil)
	gateway.On("CreateContact", mock.Anything, mock.Anything).Return("", errors.New("boom"))

	uc := newUseCase(leadRepo, new(MockConversionRepository), gateway, new(MockProducer))

	_, err := uc.Execute(ctx, "L1")

	assert.Error(t, err)
	// The account was found, not created by this run: never compensated.
	gateway.AssertNotCalled(t, "DeleteAccount", mock.Anything, mock.Anything)
}

func TestLocalCommitFailureCompensatesContactThenAccount(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	convRepo := new(MockConversionRepository)
	gateway := new(MockGateway)
	producer := new(MockProducer)

	commitErr := errors.New("connection refused")
	var deleteOrder []string

	leadRepo.On("FindByID", mock.Anything, "L1").Return(openLead(), nil)
	gateway.On("FindAccountByName", mock.Anything, "Acme").Return("", false, nil)
	gateway.On("CreateAccount", mock.Anything, mock.Anything).Return("A1", nil)
	gateway.On("CreateContact", mock.Anything, mock.Anything).Return("C1", nil)
	convRepo.On("Convert", mock.Anything, "L1", "A1", "C1").Return(commitErr)
	gateway.On("DeleteContact", mock.Anything, "C1").Run(func(args mock.Arguments) {
		deleteOrder = append(deleteOrder, "contact")
	}).Return(nil)
	gateway.On("DeleteAccount", mock.Anything, "A1").Run(func(args mock.Arguments) {
		deleteOrder = append(deleteOrder, "account")
	}).Return(nil)

	uc := newUseCase(leadRepo, convRepo, gateway, producer)

	output, err := uc.Execute(ctx, "L1")

	assert.Nil(t, output)
	kind, ok := usecase.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, usecase.KindLocalCommitFailure, kind)
	assert.ErrorIs(t, err, commitErr)

	// Strict reverse order: the contact goes before its account.
	assert.Equal(t, []string{"contact", "account"}, deleteOrder)
}

func TestCompensationFailureDoesNotMaskPrimaryError(t *testing.T) {
	ctx := context.Background()

	leadRepo := new(MockLeadRepository)
	convRepo := new(MockConversionRepository)
	gateway := new(MockGateway)
	producer := new(MockProducer)

	contactErr := errors.New("contact rejected")

	leadRepo.On("FindByID", mock.Anything, "L1").Return(openLead(), nil)
	gateway.On("FindAccountByName", mock.Anything, "Acme").Return("", false, nil)
	gateway.On("CreateAccount", mock.Anything, mock.Anything).Return("A1", nil)
	gateway.On("CreateContact", mock.Anything, mock.Anything).Return("", contactErr)
	gateway.On("DeleteAccount", mock.Anything, "A1").Return(errors.New("delete also failed"))
	producer.On("ReportOrphan", mock.Anything, mock.Anything).Return()

	uc := newUseCase(leadRepo, convRepo, gateway, producer)

	_, err := uc.Execute(ctx, "L1")

	// Primary error wins; the compensation failure only produces an orphan
	// report.
	assert.ErrorIs(t, err, contactErr)
	producer.AssertCalled(t, "ReportOrphan", mock.Anything, queue.OrphanPayload{
		LeadID:   "L1",
		Resource: "account",
		RemoteID: "A1",
		Reason:   "delete also failed",
	})
}

// Stateful fakes for the concurrency test: mocks with canned returns cannot
// model the status flipping between the two runs.

type concurrentLeadStore struct {
	mu        sync.Mutex
	converted bool
}

type concurrentLeadRepo struct {
	store *concurrentLeadStore
}

func (r *concurrentLeadRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	lead := openLead()
	lead.ID = id
	if r.store.converted {
		lead.LeadStatus = entity.LeadStatusConverted
	}
	return lead, nil
}

type concurrentConvRepo struct {
	store *concurrentLeadStore
}

func (r *concurrentConvRepo) Convert(ctx context.Context, leadID, accountID, contactID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.converted {
		return entity.ErrLeadAlreadyConverted
	}
	r.store.converted = true
	return nil
}

type countingGateway struct {
	mu              sync.Mutex
	accountsCreated int
	contactsCreated int
	deletes         int
}

func (g *countingGateway) FindAccountByName(ctx context.Context, name string) (string, bool, error) {
	return "", false, nil
}

func (g *countingGateway) CreateAccount(ctx context.Context, input accounts.CreateAccountInput) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accountsCreated++
	return "A1", nil
}

func (g *countingGateway) CreateContact(ctx context.Context, input accounts.CreateContactInput) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contactsCreated++
	return "C1", nil
}

func (g *countingGateway) DeleteAccount(ctx context.Context, accountID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes++
	return nil
}

func (g *countingGateway) DeleteContact(ctx context.Context, contactID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes++
	return nil
}

func TestConcurrentConversionsOfSameLeadAreSerialized(t *testing.T) {
	store := &concurrentLeadStore{}
	gateway := &countingGateway{}
	producer := new(MockProducer)
	producer.On("PublishLeadConverted", mock.Anything, mock.Anything).Return(nil)

	uc := usecase.NewConvertLeadUseCase(
		&concurrentLeadRepo{store: store},
		&concurrentConvRepo{store: store},
		gateway,
		producer,
		nil,
	)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), "L1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, rejections int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		kind, ok := usecase.KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, usecase.KindAlreadyConverted, kind)
		rejections++
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, rejections)
	assert.Equal(t, 1, gateway.accountsCreated)
	assert.Equal(t, 1, gateway.contactsCreated)
	assert.Equal(t, 0, gateway.deletes)
}
