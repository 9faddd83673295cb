package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/websitedesigna/tastygrill/models"
)

func statusEvent(before, after models.OrderStatus) models.OrderEvent {
	o := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: after}
	return models.NewStatusChangedEvent(o, before)
}

func receive(t *testing.T, ch <-chan models.OrderEvent) models.OrderEvent {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return models.OrderEvent{}
}

func TestBus_DeliversToEverySubscriber(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	a, unsubA := bus.Subscribe()
	b, unsubB := bus.Subscribe()
	defer unsubA()
	defer unsubB()

	evt := statusEvent(models.StatusPending, models.StatusConfirmed)
	bus.Publish(context.Background(), evt)

	assert.Equal(t, evt.OrderID, receive(t, a).OrderID)
	assert.Equal(t, evt.OrderID, receive(t, b).OrderID)
}

func TestBus_UnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(1, zap.NewNop())
	ch, unsub := bus.Subscribe()
	assert.Equal(t, 1, bus.SubscriberCount())

	unsub()
	unsub()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestBus_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewBus(1, zap.NewNop())
	ch, unsub := bus.Subscribe()
	defer unsub()

	first := statusEvent(models.StatusPending, models.StatusConfirmed)
	bus.Publish(context.Background(), first)
	bus.Publish(context.Background(), statusEvent(models.StatusConfirmed, models.StatusPreparing))

	assert.Equal(t, first.ID, receive(t, ch).ID)
	select {
	case <-ch:
		t.Fatal("second event should have been dropped")
	default:
	}
}

type recordingSink struct {
	mu   sync.Mutex
	name string
	got  []models.OrderEvent
	err  error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, evt models.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, evt)
	return s.err
}

func TestFanout_StampsSourceAndReachesSinks(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	ch, unsub := bus.Subscribe()
	defer unsub()

	ok := &recordingSink{name: "kafka"}
	failing := &recordingSink{name: "sns", err: errors.New("throttled")}
	fanout := NewFanout(bus, "instance-a", zap.NewNop(), ok, failing)

	fanout.Publish(context.Background(), statusEvent(models.StatusReady, models.StatusCompleted))
	fanout.Wait()

	local := receive(t, ch)
	assert.Equal(t, "instance-a", local.Source)
	require.Len(t, ok.got, 1)
	assert.Equal(t, "instance-a", ok.got[0].Source)
	assert.Len(t, failing.got, 1)
}

func TestRelay_SkipsOwnEvents(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	ch, unsub := bus.Subscribe()
	defer unsub()
	relay := NewRelay(bus, "instance-a", nil, zap.NewNop())

	own := statusEvent(models.StatusPending, models.StatusConfirmed)
	own.Source = "instance-a"
	require.NoError(t, relay.Deliver(context.Background(), own))

	other := statusEvent(models.StatusPending, models.StatusCancelled)
	other.Source = "instance-b"
	require.NoError(t, relay.Deliver(context.Background(), other))

	assert.Equal(t, other.ID, receive(t, ch).ID)
	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s", evt.ID)
	default:
	}
}

func TestRelay_HandleSQSMessage(t *testing.T) {
	bus := NewBus(4, zap.NewNop())
	ch, unsub := bus.Subscribe()
	defer unsub()
	relay := NewRelay(bus, "instance-a", nil, zap.NewNop())

	evt := statusEvent(models.StatusConfirmed, models.StatusPreparing)
	evt.Source = "instance-b"
	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	t.Run("sns envelope", func(t *testing.T) {
		env, _ := json.Marshal(map[string]string{"Type": "Notification", "Message": string(raw)})
		require.NoError(t, relay.HandleSQSMessage(context.Background(), string(env)))
		got := receive(t, ch)
		assert.Equal(t, evt.OrderID, got.OrderID)
		require.NotNil(t, got.Before)
		assert.Equal(t, models.StatusConfirmed, *got.Before)
		assert.Equal(t, models.StatusPreparing, got.After)
	})

	t.Run("raw body", func(t *testing.T) {
		require.NoError(t, relay.HandleSQSMessage(context.Background(), string(raw)))
		assert.Equal(t, evt.ID, receive(t, ch).ID)
	})

	t.Run("garbage", func(t *testing.T) {
		assert.Error(t, relay.HandleSQSMessage(context.Background(), "not json"))
	})
}

type fakeSNS struct {
	topic string
	body  []byte
	attrs map[string]string
}

func (f *fakeSNS) Publish(_ context.Context, topicArn string, message []byte, attributes map[string]string) error {
	f.topic, f.body, f.attrs = topicArn, message, attributes
	return nil
}

func TestSNSSink_Send(t *testing.T) {
	client := &fakeSNS{}
	sink := NewSNSSink(client, "arn:aws:sns:eu-west-2:000000000000:order-events")

	evt := statusEvent(models.StatusPending, models.StatusConfirmed)
	evt.Source = "instance-a"
	require.NoError(t, sink.Send(context.Background(), evt))

	assert.Equal(t, "arn:aws:sns:eu-west-2:000000000000:order-events", client.topic)
	assert.Equal(t, "order.status_changed", client.attrs["event_type"])
	var decoded models.OrderEvent
	require.NoError(t, json.Unmarshal(client.body, &decoded))
	assert.Equal(t, evt.OrderID, decoded.OrderID)
}
