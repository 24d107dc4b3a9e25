package telemetry

import (
	"context"
	"sync"

	"ride-sim/internal/mylogger"
	messagebrokerdto "ride-sim/internal/ride-sim/core/domain/message_broker_dto"
	"ride-sim/internal/ride-sim/core/ports/driven"
)

// LogSink writes every event to the structured log.
type LogSink struct {
	mylog mylogger.Logger
}

func NewLogSink(log mylogger.Logger) *LogSink {
	return &LogSink{mylog: log.WithGroup("telemetry")}
}

func (s *LogSink) Report(_ context.Context, e messagebrokerdto.Event) {
	log := s.mylog.Action(string(e.Kind)).With("event_id", e.ID, "session_id", e.SessionID)
	if len(e.Payload) > 0 {
		log = log.With("payload", e.Payload)
	}
	if e.Error != "" {
		log.Warn(e.Message, "error", e.Error)
		return
	}
	log.Info(e.Message)
}

// BrokerSink publishes events on the simulator exchange.
type BrokerSink struct {
	broker driven.IBroker
	mylog  mylogger.Logger
}

func NewBrokerSink(broker driven.IBroker, log mylogger.Logger) *BrokerSink {
	return &BrokerSink{broker: broker, mylog: log}
}

func (s *BrokerSink) Report(ctx context.Context, e messagebrokerdto.Event) {
	key := messagebrokerdto.EventRoutingKey(e.Kind)
	if err := s.broker.PublishJSON(ctx, messagebrokerdto.Exchange, key, e); err != nil {
		s.mylog.Action("publish_event").Error("failed to publish event", err, "routing_key", key)
	}
}

// DBSink appends events to the event log table.
type DBSink struct {
	repo  driven.IEventRepo
	mylog mylogger.Logger
}

func NewDBSink(repo driven.IEventRepo, log mylogger.Logger) *DBSink {
	return &DBSink{repo: repo, mylog: log}
}

func (s *DBSink) Report(ctx context.Context, e messagebrokerdto.Event) {
	if err := s.repo.Insert(ctx, e); err != nil {
		s.mylog.Action("store_event").Error("failed to store event", err, "kind", e.Kind)
	}
}

// Fanout reports to every sink in order.
type Fanout []driven.ITelemetry

func (f Fanout) Report(ctx context.Context, e messagebrokerdto.Event) {
	for _, s := range f {
		s.Report(ctx, e)
	}
}

// Async moves delivery to a worker goroutine so slow sinks never hold up the
// caller. Events are dropped with a warning when the buffer is full.
type Async struct {
	next  driven.ITelemetry
	mylog mylogger.Logger
	queue chan messagebrokerdto.Event
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewAsync(ctx context.Context, next driven.ITelemetry, buffer int, log mylogger.Logger) *Async {
	if buffer < 1 {
		buffer = 1
	}
	a := &Async{
		next:  next,
		mylog: log,
		queue: make(chan messagebrokerdto.Event, buffer),
	}
	a.wg.Add(1)
	go a.run(ctx)
	return a
}

func (a *Async) Report(_ context.Context, e messagebrokerdto.Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.queue <- e:
	default:
		a.mylog.Action("telemetry_dropped").Warn("telemetry buffer full, dropping event", "kind", e.Kind)
	}
}

// Close stops accepting events and waits until the queue is drained.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *Async) run(ctx context.Context) {
	defer a.wg.Done()
	for e := range a.queue {
		a.next.Report(context.WithoutCancel(ctx), e)
	}
}
