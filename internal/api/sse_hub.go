// Package api streams batch progress to clients over Server-Sent Events.
package api

import (
	"io"
	"log"
	"sync"

	"github.com/gin-gonic/gin"

	"sheetwise/domain/core"
	"sheetwise/ports"
)

// SSEClient represents a connected SSE client
type SSEClient struct {
	BatchID core.BatchID
	Channel chan ports.ProgressEvent
}

// SSEHub fans progress events out to every client watching a batch.
// Publish never blocks a worker: full client channels drop events.
type SSEHub struct {
	clients    map[core.BatchID]map[chan ports.ProgressEvent]bool
	clientsMu  sync.RWMutex
	register   chan SSEClient
	unregister chan SSEClient
	broadcast  chan ports.ProgressEvent
}

// NewSSEHub creates and starts a hub
func NewSSEHub() *SSEHub {
	hub := &SSEHub{
		clients:    make(map[core.BatchID]map[chan ports.ProgressEvent]bool),
		register:   make(chan SSEClient, 10),
		unregister: make(chan SSEClient, 10),
		broadcast:  make(chan ports.ProgressEvent, 100),
	}
	go hub.run()
	return hub
}

// Publish implements ports.ProgressSink. Safe to call from any worker.
func (h *SSEHub) Publish(event ports.ProgressEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("[SSE] broadcast buffer full, dropping %s event for sheet %q", event.State, event.SheetName)
	}
}

func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			if h.clients[client.BatchID] == nil {
				h.clients[client.BatchID] = make(map[chan ports.ProgressEvent]bool)
			}
			h.clients[client.BatchID][client.Channel] = true
			log.Printf("[SSE] client registered for batch %s (total clients: %d)",
				client.BatchID, len(h.clients[client.BatchID]))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if clients, exists := h.clients[client.BatchID]; exists {
				delete(clients, client.Channel)
				close(client.Channel)
				if len(clients) == 0 {
					delete(h.clients, client.BatchID)
				}
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for ch := range h.clients[event.BatchID] {
				select {
				case ch <- event:
				default:
					// Slow client, skip this event
				}
			}
			h.clientsMu.RUnlock()
		}
	}
}

// StreamBatch is the gin handler that tails one batch's events
func (h *SSEHub) StreamBatch(c *gin.Context) {
	batchID := core.BatchID(c.Param("batchID"))
	client := SSEClient{
		BatchID: batchID,
		Channel: make(chan ports.ProgressEvent, 32),
	}
	h.register <- client
	defer func() { h.unregister <- client }()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-client.Channel:
			if !ok {
				return false
			}
			c.SSEvent("progress", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
