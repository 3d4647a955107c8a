package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/rackbook-api/internal/models"
)

// Kiosk event types.
const (
	KioskEventInit   = "init"
	KioskEventUpdate = "update"
)

// KioskEvent is one message on the live dashboard stream.
type KioskEvent struct {
	Type    string            `json:"type"`
	Payload models.KioskState `json:"payload"`
}

// KioskHub is the registry of live dashboard subscribers.
// Broadcast never blocks: a subscriber whose buffer is full misses that update.
type KioskHub struct {
	mu      sync.Mutex
	subs    map[uint64]chan KioskEvent
	nextID  uint64
	buffer  int
	metrics *MetricsService
	logger  *zap.Logger
}

// NewKioskHub constructs an empty registry.
func NewKioskHub(buffer int, metrics *MetricsService, logger *zap.Logger) *KioskHub {
	if buffer <= 0 {
		buffer = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KioskHub{subs: make(map[uint64]chan KioskEvent), buffer: buffer, metrics: metrics, logger: logger}
}

// Register adds a subscriber and returns its id and receive channel.
func (h *KioskHub) Register() (uint64, <-chan KioskEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	ch := make(chan KioskEvent, h.buffer)
	h.subs[h.nextID] = ch
	h.metrics.SetKioskSubscribers(len(h.subs))
	return h.nextID, ch
}

// Unregister removes the subscriber and closes its channel. Unknown ids are ignored.
func (h *KioskHub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	close(ch)
	h.metrics.SetKioskSubscribers(len(h.subs))
}

// Broadcast offers the event to every subscriber and returns how many accepted it.
func (h *KioskHub) Broadcast(event KioskEvent) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for id, ch := range h.subs {
		select {
		case ch <- event:
			delivered++
		default:
			h.metrics.RecordKioskDrop()
			h.logger.Debug("kiosk update dropped", zap.Uint64("subscriber", id))
		}
	}
	return delivered
}

// Len reports the number of live subscribers.
func (h *KioskHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
