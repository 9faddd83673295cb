package events

import (
	"context"
	"encoding/json"

	"github.com/websitedesigna/tastygrill/models"
	awspkg "github.com/websitedesigna/tastygrill/pkg/aws"
)

// SNSSink publishes order events to an SNS topic.
type SNSSink struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSSink(client awspkg.SNSPublisher, topicArn string) *SNSSink {
	return &SNSSink{client: client, topicArn: topicArn}
}

func (s *SNSSink) Name() string { return "sns" }

func (s *SNSSink) Send(ctx context.Context, evt models.OrderEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	attrs := map[string]string{"event_type": string(evt.Type)}
	if evt.Source != "" {
		attrs["source"] = evt.Source
	}
	return s.client.Publish(ctx, s.topicArn, data, attrs)
}
