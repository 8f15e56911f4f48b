package realtime

import (
	"context"
	"sync"

	"leadflow/internal/models"
)

const subscriberBuffer = 32

// Hub fans activity out to in-process subscribers, keyed by workspace.
// Used when no Redis is configured; a slow subscriber drops events rather
// than blocking the publisher.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan models.Activity]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan models.Activity]struct{})}
}

func (h *Hub) Publish(_ context.Context, a models.Activity) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[a.WorkspaceID] {
		select {
		case ch <- a:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel that is closed once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, workspaceID string) (<-chan models.Activity, error) {
	ch := make(chan models.Activity, subscriberBuffer)

	h.mu.Lock()
	if h.subs[workspaceID] == nil {
		h.subs[workspaceID] = make(map[chan models.Activity]struct{})
	}
	h.subs[workspaceID][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		if conns, ok := h.subs[workspaceID]; ok {
			delete(conns, ch)
			if len(conns) == 0 {
				delete(h.subs, workspaceID)
			}
		}
		close(ch)
	}()
	return ch, nil
}
