package consume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ride-sim/internal/mylogger"
	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/myerrors"
	"ride-sim/internal/ride-sim/core/ports/driven"
	"ride-sim/internal/ride-sim/core/ports/driver"
	"ride-sim/internal/ride-sim/core/services"

	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultPrefetch = 10

// CommandConsumer feeds broker commands into the session controller. Commands
// are applied one at a time in delivery order.
type CommandConsumer struct {
	ctx     context.Context
	log     mylogger.Logger
	broker  driven.IBroker
	session driver.ISessionController

	mu sync.Mutex
	wg sync.WaitGroup
}

func NewCommandConsumer(ctx context.Context, broker driven.IBroker, session driver.ISessionController, log mylogger.Logger) *CommandConsumer {
	return &CommandConsumer{
		ctx:     ctx,
		log:     log.WithGroup("commands"),
		broker:  broker,
		session: session,
	}
}

func (c *CommandConsumer) Run() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	l := c.log.Action("command-consumer-run")

	msgs, err := c.broker.Consume(
		c.ctx,
		messagebrokerdto.CommandQueue,
		messagebrokerdto.CommandBinding,
		driven.ConsumeOptions{Prefetch: defaultPrefetch, AutoAck: false, QueueDurable: true},
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", messagebrokerdto.CommandQueue, err)
	}

	c.wg.Add(1)
	go c.loop(msgs, c.processCommand)

	l.Action("consumer_started").Info("command consumer started",
		"queue", messagebrokerdto.CommandQueue, "binding", messagebrokerdto.CommandBinding, "prefetch", defaultPrefetch)
	return nil
}

// Stop waits for the consume loop to exit. The loop ends when ctx is done or
// the delivery channel closes.
func (c *CommandConsumer) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.log.Action("shutdown").Info("graceful shutdown started")
	c.wg.Wait()
	c.log.Action("shutdown_done").Info("graceful shutdown done")
	return nil
}

func (c *CommandConsumer) loop(
	dlv <-chan amqp.Delivery,
	processor func(amqp.Delivery) (requeue bool, err error),
) {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			c.log.Info("stop consumer: context done")
			return
		case m, ok := <-dlv:
			if !ok {
				c.log.Info("stop consumer: channel closed")
				return
			}
			requeue, err := processor(m)
			if err != nil {
				c.log.Error("process error", err, "routing_key", m.RoutingKey, "requeue", requeue)
				_ = m.Nack(false, requeue)
				continue
			}
			_ = m.Ack(false)
		}
	}
}

func (c *CommandConsumer) processCommand(msg amqp.Delivery) (bool, error) {
	var cmd messagebrokerdto.Command
	if err := json.Unmarshal(msg.Body, &cmd); err != nil {
		return false, fmt.Errorf("decode command: %w", err)
	}
	if cmd.Type == "" {
		// sim.command.<type>
		cmd.Type = strings.TrimPrefix(msg.RoutingKey, "sim.command.")
	}

	c.log.Action("command_received").Debug("applying command", "type", cmd.Type)

	if err := services.HandleCommand(c.ctx, c.session, cmd, time.Now()); err != nil {
		requeue := errors.Is(err, myerrors.ErrControllerStopped)
		return requeue, fmt.Errorf("apply %s: %w", cmd.Type, err)
	}
	return false, nil
}
