package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadConvertedPayload is published after a successful conversion.
type LeadConvertedPayload struct {
	LeadID    string `json:"lead_id"`
	AccountID string `json:"account_id"`
	ContactID string `json:"contact_id"`
	Company   string `json:"company"`
	Email     string `json:"email"`
}

// OrphanPayload describes a remote resource a failed compensation left
// behind. The reconciliation worker retries the delete; operators watch the
// DLQ for the ones that never succeed.
type OrphanPayload struct {
	LeadID   string `json:"lead_id"`
	Resource string `json:"resource"` // "account" or "contact"
	RemoteID string `json:"remote_id"`
	Reason   string `json:"reason"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishLeadConverted(ctx context.Context, payload LeadConvertedPayload) error {
	return p.publish(ctx, ConvertedRoutingKey, payload)
}

// ReportOrphan enqueues an orphaned resource for reconciliation. Best
// effort: if the broker is down too, the log line is all that remains,
// which is why compensation failures are always logged with full IDs first.
func (p *RabbitMQProducer) ReportOrphan(ctx context.Context, orphan OrphanPayload) {
	if err := p.publish(ctx, OrphanRoutingKey, orphan); err != nil {
		log.Printf("CRITICAL: could not enqueue orphaned %s %s (lead %s) for reconciliation: %v",
			orphan.Resource, orphan.RemoteID, orphan.LeadID, err)
	}
}

func (p *RabbitMQProducer) publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to RabbitMQ: %w", err)
	}

	return nil
}
