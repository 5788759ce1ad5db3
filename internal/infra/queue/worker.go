package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/galvinus/lead-conversion/internal/infra/http/middleware"
)

// RemoteDeleter is the slice of the accounts gateway the reconciliation
// worker needs. Deletes are idempotent: already-gone resources count as
// cleaned up.
type RemoteDeleter interface {
	DeleteAccount(ctx context.Context, accountID string) error
	DeleteContact(ctx context.Context, contactID string) error
}

// ReconciliationWorker drains the orphaned-resources queue and retries the
// delete the original compensation could not complete. Messages that still
// fail are dead-lettered for manual cleanup.
type ReconciliationWorker struct {
	Channel *amqp.Channel
	Gateway RemoteDeleter
}

func NewReconciliationWorker(ch *amqp.Channel, gateway RemoteDeleter) *ReconciliationWorker {
	return &ReconciliationWorker{
		Channel: ch,
		Gateway: gateway,
	}
}

func (w *ReconciliationWorker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatalf("register reconciliation consumer: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var orphan OrphanPayload
			if err := json.Unmarshal(d.Body, &orphan); err != nil {
				log.Printf("[RECONCILER] malformed message, rejecting: %s", err)
				d.Nack(false, false)
				continue
			}

			log.Printf("[RECONCILER] retrying delete of %s %s (lead %s)",
				orphan.Resource, orphan.RemoteID, orphan.LeadID)

			if err := w.cleanup(context.Background(), orphan); err != nil {
				log.Printf("[RECONCILER] delete failed, dead-lettering: %s", err)
				middleware.RecordOrphanCleanup(orphan.Resource, "failed")
				d.Nack(false, false)
			} else {
				log.Printf("[RECONCILER] %s %s cleaned up", orphan.Resource, orphan.RemoteID)
				middleware.RecordOrphanCleanup(orphan.Resource, "cleaned")
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Reconciliation worker waiting on queue '%s'", queueName)
	<-forever
}

func (w *ReconciliationWorker) cleanup(ctx context.Context, orphan OrphanPayload) error {
	switch orphan.Resource {
	case "account":
		return w.Gateway.DeleteAccount(ctx, orphan.RemoteID)
	case "contact":
		return w.Gateway.DeleteContact(ctx, orphan.RemoteID)
	default:
		// Unknown resource type: nothing we can do, drop it from the queue.
		log.Printf("[RECONCILER] unknown resource type %q, dropping", orphan.Resource)
		return nil
	}
}
