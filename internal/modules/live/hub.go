package live

import (
	"encoding/json"
	"sync"

	"courtbook/internal/domain"
	"courtbook/internal/modules/booking"

	"go.uber.org/zap"
)

const sendBuffer = 16

// client is one calendar viewer. An empty date receives every event.
type client struct {
	userID int64
	date   domain.DateStamp
	send   chan []byte
}

// Hub fans booking events out to connected calendar viewers. It implements
// booking.EventPublisher.
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.RWMutex
	log     *zap.Logger
}

var _ booking.EventPublisher = (*Hub)(nil)

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log,
	}
}

func (h *Hub) register(userID int64, date domain.DateStamp) *client {
	c := &client{userID: userID, date: date, send: make(chan []byte, sendBuffer)}

	h.mutex.Lock()
	h.clients[c] = struct{}{}
	h.mutex.Unlock()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Publish never blocks; a viewer whose buffer is full is dropped and will
// reload its snapshot when it reconnects.
func (h *Hub) Publish(evt booking.Event) {
	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("marshal calendar event", zap.Error(err))
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for c := range h.clients {
		if c.date != "" && c.date != evt.Date {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.log.Warn("calendar viewer too slow, dropping", zap.Int64("user_id", c.userID))
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// DisconnectUser closes every stream of userID and returns how many there were.
func (h *Hub) DisconnectUser(userID int64) int {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	n := 0
	for c := range h.clients {
		if c.userID == userID {
			delete(h.clients, c)
			close(c.send)
			n++
		}
	}
	return n
}

func (h *Hub) GetOnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
