package events

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/websitedesigna/tastygrill/models"
	awspkg "github.com/websitedesigna/tastygrill/pkg/aws"
)

// Relay hands events produced by other instances to the local bus. Events
// this instance produced are skipped since the bus already saw them.
type Relay struct {
	bus     *Bus
	source  string
	metrics *awspkg.MetricsClient
	log     *zap.Logger
}

func NewRelay(bus *Bus, source string, metrics *awspkg.MetricsClient, log *zap.Logger) *Relay {
	return &Relay{bus: bus, source: source, metrics: metrics, log: log}
}

func (r *Relay) Deliver(ctx context.Context, evt models.OrderEvent) error {
	if evt.Source == r.source {
		return nil
	}
	r.bus.Publish(ctx, evt)
	_ = r.metrics.RecordCount(ctx, awspkg.MetricEventsReceived, map[string]string{"type": string(evt.Type)})
	r.log.Debug("relayed order event",
		zap.String("event_type", string(evt.Type)),
		zap.String("order_id", evt.OrderID.String()),
		zap.String("source", evt.Source),
	)
	return nil
}

// snsEnvelope is how SNS wraps a message delivered to an SQS subscription.
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// HandleSQSMessage accepts either a raw event body or an SNS notification
// wrapping one.
func (r *Relay) HandleSQSMessage(ctx context.Context, body string) error {
	payload := []byte(body)

	var env snsEnvelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Type == "Notification" && env.Message != "" {
		payload = []byte(env.Message)
	}

	var evt models.OrderEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	if evt.Type == "" {
		// not an order event; ack so it does not redeliver forever
		r.log.Warn("ignoring sqs message without event type")
		return nil
	}
	return r.Deliver(ctx, evt)
}
