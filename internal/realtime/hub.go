package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	defaultWriteWait   = 10 * time.Second
	defaultOutboundCap = 16
)

// Conn is the part of a websocket connection the hub needs.
// Close must be safe to call while a write is in flight.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type viewer struct {
	id        uuid.UUID
	conn      Conn
	outbound  chan models.AlertEvent
	done      chan struct{}
	closeOnce sync.Once
}

func (v *viewer) close() {
	v.closeOnce.Do(func() {
		close(v.done)
		_ = v.conn.Close()
	})
}

// Hub keeps the set of live viewers and pushes alert events to them.
// Every viewer has its own buffered queue and writer goroutine, so a slow
// viewer never holds up a broadcast.
type Hub struct {
	mu      sync.Mutex
	viewers map[uuid.UUID]*viewer

	writeWait   time.Duration
	outboundCap int

	// OnCountChange is called with the viewer count after every change
	OnCountChange func(n int)
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		viewers:     make(map[uuid.UUID]*viewer),
		writeWait:   defaultWriteWait,
		outboundCap: defaultOutboundCap,
	}
}

// Register adds a viewer, starts its writer and returns its id
func (h *Hub) Register(conn Conn) uuid.UUID {
	v := &viewer{
		id:       uuid.New(),
		conn:     conn,
		outbound: make(chan models.AlertEvent, h.outboundCap),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	h.viewers[v.id] = v
	n := len(h.viewers)
	h.mu.Unlock()

	go h.writeLoop(v)

	logrus.WithFields(logrus.Fields{"viewer": v.id, "viewers": n}).Debug("Viewer connected")
	h.countChanged(n)
	return v.id
}

// Unregister removes a viewer and closes its connection. Unknown ids are ignored.
func (h *Hub) Unregister(id uuid.UUID) {
	h.mu.Lock()
	v, ok := h.viewers[id]
	if ok {
		delete(h.viewers, id)
	}
	n := len(h.viewers)
	h.mu.Unlock()

	if !ok {
		return
	}
	v.close()
	logrus.WithFields(logrus.Fields{"viewer": id, "viewers": n}).Debug("Viewer disconnected")
	h.countChanged(n)
}

// Broadcast queues the event for every viewer without blocking. A viewer
// whose queue is full has stopped reading and is dropped.
// Returns the number of viewers the event was queued for.
func (h *Hub) Broadcast(event models.AlertEvent) int {
	h.mu.Lock()
	queued := 0
	var dropped []*viewer
	for id, v := range h.viewers {
		select {
		case v.outbound <- event:
			queued++
		default:
			delete(h.viewers, id)
			dropped = append(dropped, v)
		}
	}
	n := len(h.viewers)
	h.mu.Unlock()

	for _, v := range dropped {
		logrus.WithField("viewer", v.id).Warn("Dropping live viewer with a full outbound queue")
		v.close()
	}
	if len(dropped) > 0 {
		h.countChanged(n)
	}
	return queued
}

// Count returns the number of connected viewers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// CloseAll disconnects every viewer
func (h *Hub) CloseAll() {
	h.mu.Lock()
	viewers := make([]*viewer, 0, len(h.viewers))
	for id, v := range h.viewers {
		viewers = append(viewers, v)
		delete(h.viewers, id)
	}
	h.mu.Unlock()

	for _, v := range viewers {
		v.close()
	}
	h.countChanged(0)
}

func (h *Hub) writeLoop(v *viewer) {
	for {
		select {
		case <-v.done:
			return
		case event := <-v.outbound:
			_ = v.conn.SetWriteDeadline(time.Now().Add(h.writeWait))
			if err := v.conn.WriteJSON(event); err != nil {
				logrus.WithError(err).WithField("viewer", v.id).Warn("Dropping live viewer after failed write")
				h.Unregister(v.id)
				return
			}
		}
	}
}

func (h *Hub) countChanged(n int) {
	if h.OnCountChange != nil {
		h.OnCountChange(n)
	}
}
