package driven

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumeOptions are the queue settings used when subscribing.
type ConsumeOptions struct {
	Prefetch     int
	AutoAck      bool
	QueueDurable bool
}

// IBroker is the message broker used for telemetry and inbound commands.
type IBroker interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, msg any) error
	Consume(ctx context.Context, queueName, bindingKey string, opts ConsumeOptions) (<-chan amqp.Delivery, error)
	IsAlive() bool
	Close() error
}
