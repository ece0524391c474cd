package viz

import (
	"sync"
	"time"

	"github.com/teranos/QVIZ/logger"
)

// closeRequestBuffer bounds each subscriber's pending close requests. A
// panel mid-transition that cannot drain in time just misses duplicates;
// requests are idempotent.
const closeRequestBuffer = 4

// CloseRequest asks a mutually exclusive sibling panel to begin its own
// close sequence. Delivery is advisory: each panel owns its close, a
// request never forces one.
type CloseRequest struct {
	From string
	At   time.Time
}

// Bus carries cooperative close requests between panels sharing the same
// screen region. Sends never block: a subscriber with a full buffer misses
// the request rather than stalling the opener.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]chan CloseRequest
}

// NewBus creates an empty close-request bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]chan CloseRequest)}
}

// Subscribe registers a panel and returns its request channel. Subscribing
// twice under the same id replaces the previous channel.
func (b *Bus) Subscribe(id string) <-chan CloseRequest {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan CloseRequest, closeRequestBuffer)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a panel from the bus. The channel is not closed;
// teardown of the owning subtree abandons it.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// RequestClose broadcasts a close request to every panel except the sender.
// Returns the number of panels that accepted the request.
func (b *Bus) RequestClose(from string) int {
	b.mu.RLock()
	targets := make([]chan CloseRequest, 0, len(b.subs))
	for id, ch := range b.subs {
		if id == from {
			continue
		}
		targets = append(targets, ch)
	}
	b.mu.RUnlock()

	req := CloseRequest{From: from, At: time.Now()}
	sent := 0
	for _, ch := range targets {
		select {
		case ch <- req:
			sent++
		default:
			// Subscriber buffer full - skip
		}
	}

	if sent > 0 {
		logger.PanelDebugw("Broadcast close request",
			"from", from,
			logger.FieldCount, sent,
		)
	}
	return sent
}
