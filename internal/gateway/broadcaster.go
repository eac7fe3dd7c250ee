package gateway

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Broadcaster fans SSEEvent values out to all active GET /events subscribers.
// Slow clients are skipped (non-blocking channel send with per-client buffer).
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func newBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan []byte]struct{})}
}

// subscribe registers a client and returns its frame channel together with
// the func that removes it. Call cancel when the HTTP connection closes.
func (b *Broadcaster) subscribe() (frames <-chan []byte, cancel func()) {
	ch := make(chan []byte, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}
}

// count reports how many clients are listening.
func (b *Broadcaster) count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// send serialises evt and fans the SSE frame to every subscriber.
func (b *Broadcaster) send(evt SSEEvent) {
	raw, err := json.Marshal(evt)
	if err != nil {
		slog.Warn("gateway: failed to marshal SSE event", "type", evt.Type, "error", err)
		return
	}
	frame := sseFrame(raw)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- frame:
		default:
			// slow subscriber, drop
		}
	}
}

// sseFrame wraps a JSON payload in the "data: <json>\n\n" wire format.
func sseFrame(raw []byte) []byte {
	frame := make([]byte, 0, len(raw)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, raw...)
	return append(frame, '\n', '\n')
}
