package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.conversions"
	DLXName      = "ex.conversions.dlx"

	ConvertedQueueName = "q.lead-converted"
	OrphanQueueName    = "q.orphaned-resources"
	OrphanDLQName      = "q.orphaned-resources.dlq"

	ConvertedRoutingKey = "k.converted"
	OrphanRoutingKey    = "k.orphan"
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(user, pass, host, port string) (*RabbitMQ, error) {
	dsn := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

func setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}

	if _, err := ch.QueueDeclare(OrphanDLQName, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(OrphanDLQName, OrphanRoutingKey, DLXName, false, nil); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(ExchangeName, "direct", true, false, false, false, nil); err != nil {
		return err
	}

	// Conversion events for downstream consumers (analytics, workflow).
	if _, err := ch.QueueDeclare(ConvertedQueueName, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(ConvertedQueueName, ConvertedRoutingKey, ExchangeName, false, nil); err != nil {
		return err
	}

	// Orphaned remote resources awaiting cleanup. Messages the worker keeps
	// failing on land in the DLQ for manual reconciliation.
	orphanArgs := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": OrphanRoutingKey,
	}
	if _, err := ch.QueueDeclare(OrphanQueueName, true, false, false, false, orphanArgs); err != nil {
		return err
	}
	if err := ch.QueueBind(OrphanQueueName, OrphanRoutingKey, ExchangeName, false, nil); err != nil {
		return err
	}

	return nil
}
