package queues

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// LedgerRepairMessage carries a chain-confirmed mint whose record insert
// failed. The on-chain side is irreversible at this point, so the record is
// replayed from the queue instead of re-submitting anything.
type LedgerRepairMessage struct {
	PoapID          uuid.UUID `json:"poap_id"`
	UserID          uuid.UUID `json:"user_id"`
	ProjectID       uuid.UUID `json:"project_id"`
	TransactionHash string    `json:"transaction_hash"`
	MetadataURI     string    `json:"metadata_uri"`
	TokenID         string    `json:"token_id"`
	ContractAddress string    `json:"contract_address"`
	IsSimulated     bool      `json:"is_simulated"`
	CreatedAt       time.Time `json:"created_at"`
}

type RabbitPublisher struct {
	Conn       *amqp.Connection
	Channel    *amqp.Channel
	Exchange   string
	Queue      string
	RoutingKey string
}

func NewRabbitPublisher(amqpURL, exchange, queue, routingKey string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Exchange/queue setup (must match the consumer side). A repair message
	// is the only surviving trace of an unrecorded mint, so everything here
	// is durable and declare failures are fatal to startup.
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("bind queue %s to %s: %w", queue, exchange, err)
	}

	return &RabbitPublisher{
		Conn:       conn,
		Channel:    ch,
		Exchange:   exchange,
		Queue:      queue,
		RoutingKey: routingKey,
	}, nil
}

func (r *RabbitPublisher) PublishLedgerRepair(msg LedgerRepairMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return r.Channel.Publish(
		r.Exchange,
		r.RoutingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (r *RabbitPublisher) Close() {
	r.Channel.Close()
	r.Conn.Close()
}
