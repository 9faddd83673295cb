package events

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/websitedesigna/tastygrill/models"
)

// Publisher accepts order change events.
type Publisher interface {
	Publish(ctx context.Context, evt models.OrderEvent)
}

// Bus is an in-process pub/sub for order events. Each subscriber gets a
// buffered channel; a subscriber that falls behind loses events and is
// expected to resync from a fresh snapshot.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan models.OrderEvent
	nextID int
	buffer int
	log    *zap.Logger
}

func NewBus(buffer int, log *zap.Logger) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[int]chan models.OrderEvent),
		buffer: buffer,
		log:    log,
	}
}

// Subscribe registers a listener. Call the returned function to
// unsubscribe; it closes the channel.
func (b *Bus) Subscribe() (<-chan models.OrderEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan models.OrderEvent, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *Bus) Publish(_ context.Context, evt models.OrderEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.log.Warn("dropping order event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("event_type", string(evt.Type)),
				zap.String("order_id", evt.OrderID.String()),
			)
		}
	}
}

func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
