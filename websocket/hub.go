package websocket

import (
	"sync"
	"time"

	"hera/logger"
	"hera/types"
)

// Hub interface defines the methods for managing WebSocket connections
type Hub interface {
	Run()
	Broadcast(event types.JobEvent)
	RegisterClient(client *Client)
	UnregisterClient(client *Client)
}

// hub fans job and library events out to subscribed clients. Clients
// subscribe to a single channel: a job ID, types.LibraryChannel, or
// types.AllChannel for everything.
type hub struct {
	subscribers map[string]map[*Client]bool

	events chan types.JobEvent
	joins  chan *Client
	leaves chan *Client

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() Hub {
	return &hub{
		subscribers: make(map[string]map[*Client]bool),
		events:      make(chan types.JobEvent),
		joins:       make(chan *Client),
		leaves:      make(chan *Client),
	}
}

// Run starts the hub's main event loop
func (h *hub) Run() {
	for {
		select {
		case client := <-h.joins:
			h.subscribe(client)
		case client := <-h.leaves:
			h.drop(client)
		case event := <-h.events:
			h.fanout(event)
		}
	}
}

func (h *hub) subscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.subscribers[client.channel]
	if set == nil {
		set = make(map[*Client]bool)
		h.subscribers[client.channel] = set
	}
	set[client] = true
	logger.Debug("websocket client connected", logger.String("channel", client.channel))
}

func (h *hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[client.channel]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.subscribers, client.channel)
	}
	logger.Debug("websocket client disconnected", logger.String("channel", client.channel))
}

// fanout delivers an event to its own channel's subscribers and to the
// firehose channel.
func (h *hub) fanout(event types.JobEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliver(event.JobID, event)
	if event.JobID != types.AllChannel {
		h.deliver(types.AllChannel, event)
	}
}

// deliver sends to every subscriber of one channel. A client whose send
// buffer is full is disconnected rather than allowed to stall the hub.
func (h *hub) deliver(channel string, event types.JobEvent) {
	set, ok := h.subscribers[channel]
	if !ok {
		return
	}
	for client := range set {
		select {
		case client.send <- event:
		default:
			close(client.send)
			delete(set, client)
		}
	}
	if len(set) == 0 {
		delete(h.subscribers, channel)
	}
}

// Broadcast queues an event for delivery to its channel's subscribers.
// Drops the event rather than blocking when the hub is saturated.
func (h *hub) Broadcast(event types.JobEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case h.events <- event:
	default:
		logger.Warn("websocket broadcast channel full, dropping event",
			logger.String("jobId", event.JobID))
	}
}

// RegisterClient registers a new client with the hub
func (h *hub) RegisterClient(client *Client) {
	h.joins <- client
}

// UnregisterClient unregisters a client from the hub
func (h *hub) UnregisterClient(client *Client) {
	h.leaves <- client
}
