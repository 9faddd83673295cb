package events

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/websitedesigna/tastygrill/models"
)

// Sink forwards events to another instance or system (Kafka, SNS).
type Sink interface {
	Name() string
	Send(ctx context.Context, evt models.OrderEvent) error
}

// Fanout publishes to the local bus synchronously and to every sink in the
// background. Sink failures are logged, never returned.
type Fanout struct {
	local   *Bus
	sinks   []Sink
	source  string
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

func NewFanout(local *Bus, source string, log *zap.Logger, sinks ...Sink) *Fanout {
	return &Fanout{
		local:   local,
		sinks:   sinks,
		source:  source,
		timeout: 5 * time.Second,
		log:     log,
	}
}

func (f *Fanout) Publish(ctx context.Context, evt models.OrderEvent) {
	if evt.Source == "" {
		evt.Source = f.source
	}
	f.local.Publish(ctx, evt)

	// sends outlive the request that produced the event
	base := context.WithoutCancel(ctx)
	for _, sink := range f.sinks {
		f.wg.Add(1)
		go func(s Sink) {
			defer f.wg.Done()
			sendCtx, cancel := context.WithTimeout(base, f.timeout)
			defer cancel()
			if err := s.Send(sendCtx, evt); err != nil {
				f.log.Warn("order event fan-out failed",
					zap.String("sink", s.Name()),
					zap.String("event_type", string(evt.Type)),
					zap.String("order_id", evt.OrderID.String()),
					zap.Error(err),
				)
			}
		}(sink)
	}
}

// Wait blocks until in-flight sink sends have finished.
func (f *Fanout) Wait() {
	f.wg.Wait()
}
