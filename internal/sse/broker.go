// Package sse implements a Server-Sent Events broker for catalog updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types sent to clients.
const (
	EventCatalogLoaded = "catalog.loaded"
	EventCatalogFailed = "catalog.failed"
	EventViewRefresh   = "view.refresh"
)

// Event is a single SSE message.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// CatalogLoaded is the payload of a catalog.loaded event.
type CatalogLoaded struct {
	Count    int    `json:"count"`
	Checksum string `json:"checksum"`
	Schema   string `json:"schema"`
}

// CatalogFailed is the payload of a catalog.failed event.
type CatalogFailed struct {
	Error string `json:"error"`
}

type catalogEventReq struct {
	loaded *CatalogLoaded
	failed *CatalogFailed
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients and the refresh throttle). Public methods communicate with this
// loop through channels, so no mutexes are required.
type Broker struct {
	refreshMin time.Duration

	subscribeCh    chan chan []byte
	unsubscribeCh  chan chan []byte
	catalogEventCh chan catalogEventReq
	countReqCh     chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. view.refresh is sent at most once per
// refreshThrottle; a catalog.loaded suppressed by the throttle gets one
// refresh when the window closes.
func NewBroker(refreshThrottle time.Duration) *Broker {
	if refreshThrottle <= 0 {
		refreshThrottle = 2 * time.Second
	}

	b := &Broker{
		refreshMin:     refreshThrottle,
		subscribeCh:    make(chan chan []byte),
		unsubscribeCh:  make(chan chan []byte),
		catalogEventCh: make(chan catalogEventReq, 256),
		countReqCh:     make(chan chan int),
		stopCh:         make(chan struct{}),
		stopped:        make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	var lastRefresh time.Time
	var trailing *time.Timer
	var trailingC <-chan time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			if trailing != nil {
				trailing.Stop()
			}
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case req := <-b.catalogEventCh:
			if req.failed != nil {
				broadcast(Event{Type: EventCatalogFailed, Data: req.failed})
				continue
			}
			broadcast(Event{Type: EventCatalogLoaded, Data: req.loaded})

			now := time.Now()
			if wait := b.refreshMin - now.Sub(lastRefresh); wait > 0 {
				if trailingC == nil {
					trailing = time.NewTimer(wait)
					trailingC = trailing.C
				}
				continue
			}
			if trailing != nil {
				trailing.Stop()
				trailing, trailingC = nil, nil
			}
			lastRefresh = now
			broadcast(Event{Type: EventViewRefresh, Data: map[string]string{}})

		case <-trailingC:
			trailing, trailingC = nil, nil
			lastRefresh = time.Now()
			broadcast(Event{Type: EventViewRefresh, Data: map[string]string{}})

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// PublishLoaded announces a published catalog version, followed by a
// throttled view.refresh.
func (b *Broker) PublishLoaded(count int, checksum, schema string) {
	b.publishCatalog(catalogEventReq{loaded: &CatalogLoaded{Count: count, Checksum: checksum, Schema: schema}})
}

// PublishFailed announces a failed load or reload.
func (b *Broker) PublishFailed(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	b.publishCatalog(catalogEventReq{failed: &CatalogFailed{Error: msg}})
}

func (b *Broker) publishCatalog(req catalogEventReq) {
	if b.closed.Load() {
		return
	}
	select {
	case b.catalogEventCh <- req:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
