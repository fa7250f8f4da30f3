package desk

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trustpooler/pool-engine/internal/metrics"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
	wsQueueSize  = 16
)

// WSMessage is a JSON message sent to WebSocket clients.
type WSMessage struct {
	Type         string `json:"type"`
	SettlementID string `json:"settlement_id,omitempty"`
	PoolID       string `json:"pool_id"`
	Kind         string `json:"kind"`
	Level        string `json:"level"`
	TotalPool    string `json:"total_pool,omitempty"`
	TotalPayout  string `json:"total_payout,omitempty"`
}

// subscriber is one connected client. The hub owns send: only the hub's
// event loop closes it.
type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// WSHub fans settlement events out to subscribers. Each subscriber has its
// own bounded queue drained by a dedicated writer; a subscriber whose queue
// is full is disconnected instead of stalling the others.
type WSHub struct {
	subs       map[*subscriber]struct{}
	events     chan []byte
	join       chan *subscriber
	leave      chan *subscriber
	done       chan struct{}
	subscribed atomic.Int64
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		subs:   make(map[*subscriber]struct{}),
		events: make(chan []byte, 256),
		join:   make(chan *subscriber),
		leave:  make(chan *subscriber),
		done:   make(chan struct{}),
	}
}

// Run owns the subscriber set until ctx is cancelled, then disconnects
// every subscriber. Must be called in a goroutine.
func (h *WSHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for sub := range h.subs {
				h.drop(sub)
			}
			return

		case sub := <-h.join:
			h.subs[sub] = struct{}{}
			h.recount()
			slog.Info("ws subscriber joined", "total", len(h.subs))

		case sub := <-h.leave:
			if _, ok := h.subs[sub]; ok {
				h.drop(sub)
			}

		case msg := <-h.events:
			for sub := range h.subs {
				select {
				case sub.send <- msg:
				default:
					slog.Warn("ws subscriber too slow, disconnecting")
					h.drop(sub)
				}
			}
		}
	}
}

func (h *WSHub) drop(sub *subscriber) {
	delete(h.subs, sub)
	close(sub.send)
	h.recount()
}

func (h *WSHub) recount() {
	h.subscribed.Store(int64(len(h.subs)))
	metrics.WebSocketClients.Set(float64(len(h.subs)))
}

// ClientCount returns the number of connected subscribers.
func (h *WSHub) ClientCount() int {
	return int(h.subscribed.Load())
}

// Broadcast queues msg for every subscriber. It never blocks: when the hub
// is backed up the message is dropped.
func (h *WSHub) Broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case h.events <- data:
	default:
		slog.Warn("ws broadcast dropped", "type", msg.Type, "pool", msg.PoolID)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// HandleWS handles WebSocket upgrade requests at GET /api/v1/ws.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "err", err)
		return
	}

	sub := &subscriber{conn: conn, send: make(chan []byte, wsQueueSize)}
	select {
	case h.join <- sub:
	case <-h.done:
		conn.Close()
		return
	}

	go sub.writeLoop()
	go h.readLoop(sub)
}

// writeLoop delivers queued events and keepalive pings until the hub closes
// the queue or a write fails.
func (sub *subscriber) writeLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			sub.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				sub.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames and reports the subscriber gone once the
// connection fails or stops answering pings.
func (h *WSHub) readLoop(sub *subscriber) {
	defer func() {
		select {
		case h.leave <- sub:
		case <-h.done:
		}
	}()

	sub.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}
