package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	apperrors "github.com/websitedesigna/tastygrill/common/errors"
	"github.com/websitedesigna/tastygrill/models"
	"github.com/websitedesigna/tastygrill/services"
)

const (
	MessageSnapshot = "snapshot"
	MessageDelta    = "delta"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBuffer     = 16
	maxMessageSize = 1024
)

// Message is what the live dashboard receives. A snapshot carries the full
// filtered view; a delta carries one changed order plus fresh counts.
type Message struct {
	Type   string                     `json:"type"`
	View   *services.DashboardView    `json:"view,omitempty"`
	Order  *services.DashboardOrder   `json:"order,omitempty"`
	Counts map[models.OrderStatus]int `json:"counts,omitempty"`
	Event  *models.OrderEvent         `json:"event,omitempty"`
}

// PageLoader loads the newest page of orders for the board.
type PageLoader interface {
	LoadPage(ctx context.Context) ([]services.DashboardOrder, error)
}

// EventSource is the in-process order event bus.
type EventSource interface {
	Subscribe() (<-chan models.OrderEvent, func())
}

type client struct {
	conn   *websocket.Conn
	send   chan Message
	mu     sync.Mutex
	filter *models.OrderStatus
}

func (c *client) currentFilter() *models.OrderStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *client) setFilter(f *models.OrderStatus) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

// DashboardHub keeps one board per process and pushes it to every connected
// staff client.
type DashboardHub struct {
	loader   PageLoader
	source   EventSource
	board    *services.Board
	interval time.Duration
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewDashboardHub(loader PageLoader, source EventSource, interval time.Duration, allowedOrigins []string, log *zap.Logger) *DashboardHub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DashboardHub{
		loader:   loader,
		source:   source,
		board:    services.NewBoard(nil),
		interval: interval,
		upgrader: websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)},
		log:      log,
		clients:  make(map[*client]struct{}),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Start loads the first page and subscribes to the bus before returning, so
// no event published after Start is missed. A failed first load leaves the
// board empty until the next poll. The hub stops when ctx ends.
func (h *DashboardHub) Start(ctx context.Context) {
	if err := h.reload(ctx); err != nil {
		h.log.Warn("initial dashboard load failed", zap.Error(err))
	}
	events, unsubscribe := h.source.Subscribe()
	go h.run(ctx, events, unsubscribe)
}

func (h *DashboardHub) run(ctx context.Context, events <-chan models.OrderEvent, unsubscribe func()) {
	defer unsubscribe()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case evt, ok := <-events:
			if !ok {
				h.closeAll()
				return
			}
			h.handleEvent(ctx, evt)
		case <-ticker.C:
			if err := h.reload(ctx); err != nil {
				h.log.Warn("dashboard poll failed", zap.Error(err))
				continue
			}
			h.broadcastSnapshots()
		}
	}
}

func (h *DashboardHub) handleEvent(ctx context.Context, evt models.OrderEvent) {
	if h.board.Apply(evt) {
		if err := h.reload(ctx); err != nil {
			h.log.Warn("dashboard reload failed", zap.String("order_id", evt.OrderID.String()), zap.Error(err))
			return
		}
		h.broadcastSnapshots()
		return
	}

	order, ok := h.board.Order(evt.OrderID)
	if !ok {
		return
	}
	counts := h.board.View(nil).Counts
	h.broadcast(func(*client) Message {
		return Message{Type: MessageDelta, Order: &order, Counts: counts, Event: &evt}
	})
}

func (h *DashboardHub) reload(ctx context.Context) error {
	page, err := h.loader.LoadPage(ctx)
	if err != nil {
		return err
	}
	h.board.Replace(page)
	return nil
}

func (h *DashboardHub) snapshot(filter *models.OrderStatus) Message {
	view := h.board.View(filter)
	return Message{Type: MessageSnapshot, View: &view}
}

func (h *DashboardHub) broadcastSnapshots() {
	h.broadcast(func(c *client) Message { return h.snapshot(c.currentFilter()) })
}

// broadcast never blocks on a slow client; one whose buffer is full is
// dropped and must reconnect.
func (h *DashboardHub) broadcast(build func(*client) Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- build(c):
		default:
			h.log.Warn("dashboard client too slow, disconnecting")
			h.removeLocked(c)
		}
	}
}

// register adds c and queues its first snapshot under the broadcast lock,
// so every later delta reaches c after the snapshot it applies to.
func (h *DashboardHub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	c.send <- h.snapshot(c.currentFilter())
}

func (h *DashboardHub) unregister(c *client) {
	h.mu.Lock()
	h.removeLocked(c)
	h.mu.Unlock()
}

func (h *DashboardHub) removeLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *DashboardHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// ClientCount reports connected clients.
func (h *DashboardHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWebSocket serves GET /dashboard/live?status=<filter>.
func (h *DashboardHub) HandleWebSocket(c *gin.Context) {
	filter, err := services.ParseStatusFilter(c.Query("status"))
	if err != nil {
		apperrors.Abort(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, send: make(chan Message, sendBuffer), filter: filter}
	h.register(cl)

	go h.writePump(cl)
	go h.readPump(cl)
}

// readPump handles filter changes sent as {"status": "<filter>"} and
// detects disconnects.
func (h *DashboardHub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		filter, err := services.ParseStatusFilter(req.Status)
		if err != nil {
			continue
		}
		c.setFilter(filter)

		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			select {
			case c.send <- h.snapshot(filter):
			default:
			}
		}
		h.mu.Unlock()
	}
}

func (h *DashboardHub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				h.log.Debug("websocket write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
