package queues

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gitarch/poap-service/internal/utils"
)

// RabbitConsumer feeds ledger repair deliveries to a handler with manual
// acknowledgement: a delivery leaves the queue only after its handler
// succeeds, so a crash mid-repair redelivers instead of losing the record.
type RabbitConsumer struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
}

func NewRabbitConsumer(conn *amqp.Connection, queueName string) (*RabbitConsumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	return &RabbitConsumer{conn: conn, channel: ch, queueName: queueName}, nil
}

// StartConsume dispatches deliveries until the channel closes. A nil handler
// error acks the delivery; an error nacks with requeue so the repair runs
// again. Handlers must therefore treat poison messages (unparseable bodies)
// as handled, not as errors.
func (c *RabbitConsumer) StartConsume(handler func(amqp.Delivery) error) error {
	msgs, err := c.channel.Consume(c.queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	go func() {
		for d := range msgs {
			if hErr := handler(d); hErr != nil {
				utils.Logger.WithError(hErr).Warnf("Requeueing delivery from %s", c.queueName)
				if nErr := d.Nack(false, true); nErr != nil {
					utils.Logger.WithError(nErr).Errorf("Failed to nack delivery from %s", c.queueName)
				}
				continue
			}
			if aErr := d.Ack(false); aErr != nil {
				utils.Logger.WithError(aErr).Errorf("Failed to ack delivery from %s", c.queueName)
			}
		}
	}()
	return nil
}
