package usecase

import (
	"context"
	"log"
	"time"

	"github.com/galvinus/lead-conversion/internal/infra/http/middleware"
	"github.com/galvinus/lead-conversion/internal/infra/queue"
)

// Phase is the explicit state of one conversion attempt. It only moves
// forward: Start → AccountResolved → ContactCreated → LocalCommitted, or
// through the compensating phases down to Failed.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseAccountResolved
	PhaseContactCreated
	PhaseLocalCommitted
	PhaseCompensatingContact
	PhaseCompensatingAccount
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "START"
	case PhaseAccountResolved:
		return "ACCOUNT_RESOLVED"
	case PhaseContactCreated:
		return "CONTACT_CREATED"
	case PhaseLocalCommitted:
		return "LOCAL_COMMITTED"
	case PhaseCompensatingContact:
		return "COMPENSATING_CONTACT"
	case PhaseCompensatingAccount:
		return "COMPENSATING_ACCOUNT"
	case PhaseFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// OrphanReporter receives resources that survived a failed compensation.
type OrphanReporter interface {
	ReportOrphan(ctx context.Context, orphan queue.OrphanPayload)
}

type compensation struct {
	resource string
	remoteID string
	phase    Phase
	fn       func(context.Context) error
}

// Saga tracks one conversion attempt: its current phase and the
// compensations for the remote resources this run created. Compensations
// run in strict reverse order of registration, so a contact is always
// deleted before its account.
type Saga struct {
	leadID        string
	phase         Phase
	compensations []compensation
	reporter      OrphanReporter
}

func NewSaga(leadID string, reporter OrphanReporter) *Saga {
	return &Saga{
		leadID:   leadID,
		phase:    PhaseStart,
		reporter: reporter,
	}
}

func (s *Saga) Phase() Phase {
	return s.phase
}

func (s *Saga) Advance(p Phase) {
	s.phase = p
}

// Own registers a compensation for a resource created by this run. Reused
// resources (found, not created) must never be registered.
func (s *Saga) Own(resource, remoteID string, phase Phase, fn func(context.Context) error) {
	s.compensations = append(s.compensations, compensation{
		resource: resource,
		remoteID: remoteID,
		phase:    phase,
		fn:       fn,
	})
}

const compensationTimeout = 30 * time.Second

// Compensate undoes every owned resource, newest first, and leaves the saga
// in PhaseFailed. It runs on a context detached from the caller: a caller
// that gave up must not be able to abort a rollback halfway. Failures are
// logged and reported for out-of-band reconciliation; they never bubble up,
// since the primary error already determines the outcome.
func (s *Saga) Compensate(ctx context.Context) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for i := len(s.compensations) - 1; i >= 0; i-- {
		comp := s.compensations[i]
		s.phase = comp.phase
		middleware.RecordCompensation(comp.resource)

		if err := comp.fn(detached); err != nil {
			log.Printf("WARNING: compensation failed, %s %s is orphaned (lead %s): %v",
				comp.resource, comp.remoteID, s.leadID, err)
			if s.reporter != nil {
				s.reporter.ReportOrphan(detached, queue.OrphanPayload{
					LeadID:   s.leadID,
					Resource: comp.resource,
					RemoteID: comp.remoteID,
					Reason:   err.Error(),
				})
			}
			continue
		}

		log.Printf("compensated %s %s for lead %s", comp.resource, comp.remoteID, s.leadID)
	}

	s.compensations = nil
	s.phase = PhaseFailed
}
