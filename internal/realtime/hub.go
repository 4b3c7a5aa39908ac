package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"oink_ledger/internal/domain"
	"oink_ledger/internal/logger"
)

// Broker carries events between instances. Every instance's hub receives
// what any instance publishes.
type Broker interface {
	Publish(ctx context.Context, ev domain.BalanceEvent) error
}

// Message is the frame pushed to subscribers.
type Message struct {
	Type string `json:"type"`
	domain.BalanceEvent
}

// Hub fans balance events out to the websocket clients subscribed to a fid.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Client]struct{}
	broker Broker
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Client]struct{})}
}

// SetBroker routes Publish through b instead of local fan-out.
func (h *Hub) SetBroker(b Broker) {
	h.mu.Lock()
	h.broker = b
	h.mu.Unlock()
}

func (h *Hub) Subscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[c.FID]
	if !ok {
		set = make(map[*Client]struct{})
		h.subs[c.FID] = set
	}
	set[c] = struct{}{}
	subscribersGauge.Inc()
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[c.FID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.subs, c.FID)
	}
	subscribersGauge.Dec()
}

// Subscribers returns the number of local clients watching fid.
func (h *Hub) Subscribers(fid string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[fid])
}

// Publish implements service.EventPublisher. It never blocks on slow clients
// and never returns an error to the mutation that produced ev.
func (h *Hub) Publish(ctx context.Context, ev domain.BalanceEvent) {
	h.mu.RLock()
	broker := h.broker
	h.mu.RUnlock()

	if broker != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		err := broker.Publish(pubCtx, ev)
		cancel()
		if err == nil {
			return
		}
		logger.WithContext(ctx).Warn("balance event broker failed, delivering locally", "fid", ev.FID, "error", err)
	}
	h.Broadcast(ev)
}

// Broadcast delivers ev to local subscribers of ev.FID.
func (h *Hub) Broadcast(ev domain.BalanceEvent) {
	msg, err := json.Marshal(Message{Type: "balance", BalanceEvent: ev})
	if err != nil {
		logger.Error("marshal balance event", "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.subs[ev.FID]))
	for c := range h.subs[ev.FID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(msg) {
			droppedEvents.Inc()
			logger.Debug("slow subscriber, event dropped", "fid", ev.FID)
		}
	}
	deliveredEvents.Add(float64(len(clients)))
}
