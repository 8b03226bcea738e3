// Package audit persists one history event per routing decision for
// operator-facing views. Recording is fire-and-forget: the engine never
// blocks on the sink.
package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
	"github.com/buildledger/ledgerroute/internal/service"
)

// eventWriter is the slice of the persistence layer the sink needs.
type eventWriter interface {
	SaveRoutingEvent(ctx context.Context, event *model.RoutingEvent) error
}

// Sink buffers routing decisions and writes them in the background.
type Sink struct {
	store  eventWriter
	events chan model.RoutingDecision
	done   chan struct{}
	once   sync.Once
}

// NewSink creates and starts an audit sink with the given buffer size.
func NewSink(store eventWriter, buffer int) *Sink {
	if buffer <= 0 {
		buffer = 256
	}
	s := &Sink{
		store:  store,
		events: make(chan model.RoutingDecision, buffer),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

// Record enqueues a decision without blocking. If the buffer is full the
// event is dropped with a warning; history is advisory, routing is not.
func (s *Sink) Record(decision model.RoutingDecision) {
	select {
	case s.events <- decision:
	default:
		slog.Warn("Audit buffer full, dropping event",
			"transaction_id", decision.TransactionID,
			"outcome", decision.Outcome)
	}
}

// Close stops accepting events and drains the buffer.
func (s *Sink) Close() {
	s.once.Do(func() {
		close(s.events)
	})
	<-s.done
}

func (s *Sink) run() {
	defer close(s.done)

	for decision := range s.events {
		event := &model.RoutingEvent{
			TransactionID: decision.TransactionID,
			Outcome:       decision.Outcome,
			ProjectID:     decision.ProjectID,
			RuleID:        decision.RuleID,
			Confidence:    decision.Confidence,
		}
		// The writer runs off the hot path, so transient storage errors are
		// worth a couple of retries before giving up on the event.
		err := common.WithRetry(context.Background(), func() error {
			return s.store.SaveRoutingEvent(context.Background(), event)
		}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 50 * time.Millisecond})
		if err != nil {
			slog.Warn("Failed to save routing event",
				"transaction_id", decision.TransactionID,
				"error", err)
		}
	}
}
