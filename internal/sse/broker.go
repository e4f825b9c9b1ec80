// Package sse implements a Server-Sent Events broker for real-time updates
// to the reading canvas.
//
// Every frame carries a monotonically increasing id. A reconnecting client
// that sends Last-Event-ID gets the frames it missed from a bounded history.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

// Event types.
const (
	EventNoteCreated    = "note.created"
	EventNoteSaved      = "note.saved"
	EventNoteIndexStale = "note.index_stale"
	EventBookCreated    = "book.created"
	EventBookMoved      = "book.moved"
	EventGraphUpdated   = "graph.updated"
)

const (
	clientBuffer   = 64
	defaultHistory = 256
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NoteEvent describes a change to one note.
type NoteEvent struct {
	Type     string `json:"-"`
	NoteID   int64  `json:"noteId"`
	BookID   string `json:"bookId"`
	Checksum string `json:"checksum,omitempty"`
	Warning  string `json:"warning,omitempty"`
	// GraphChanged asks for a throttled graph.updated after the note event.
	GraphChanged bool `json:"-"`
}

// Options tunes a Broker. Zero values pick defaults.
type Options struct {
	// GraphThrottle is the minimum gap between graph.updated frames.
	// Changes inside the gap are coalesced into one trailing frame.
	GraphThrottle time.Duration
	// KeepAlive is the interval of comment lines on idle streams.
	KeepAlive time.Duration
	// History is how many frames are kept for Last-Event-ID replay.
	History int
}

type frame struct {
	id  uint64
	raw []byte
}

type subscription struct {
	ch     chan []byte
	lastID uint64
}

// Broker manages SSE client connections and broadcasts events.
//
// A single internal event loop owns mutable state (clients, history, the
// frame sequence and the graph throttle). Public methods talk to the loop
// over channels.
type Broker struct {
	opts Options

	subscribeCh   chan subscription
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteEventCh   chan NoteEvent
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker and starts its loop.
func NewBroker(opts Options) *Broker {
	if opts.GraphThrottle <= 0 {
		opts.GraphThrottle = 2 * time.Second
	}
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = 30 * time.Second
	}
	if opts.History <= 0 {
		opts.History = defaultHistory
	}

	b := &Broker{
		opts:          opts,
		subscribeCh:   make(chan subscription),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		noteEventCh:   make(chan NoteEvent, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// loop is the state owned by run.
type loop struct {
	clients map[chan []byte]struct{}
	history []frame
	seq     uint64
	max     int
}

func (l *loop) broadcast(event Event) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return
	}
	l.seq++
	f := frame{id: l.seq, raw: []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", l.seq, event.Type, payload))}

	l.history = append(l.history, f)
	if len(l.history) > l.max {
		l.history = l.history[len(l.history)-l.max:]
	}

	for ch := range l.clients {
		select {
		case ch <- f.raw:
		default:
			// Client buffer full; drop rather than block the loop.
		}
	}
}

// replay sends the frames after lastID that still fit in the client buffer.
func (l *loop) replay(ch chan []byte, lastID uint64) {
	for _, f := range l.history {
		if f.id <= lastID {
			continue
		}
		select {
		case ch <- f.raw:
		default:
			return
		}
	}
}

func (b *Broker) run() {
	defer close(b.stopped)

	l := &loop{clients: make(map[chan []byte]struct{}), max: b.opts.History}

	var (
		lastGraph    time.Time
		pendingGraph *int64
		graphTimer   *time.Timer
		graphFire    <-chan time.Time
	)
	emitGraph := func(noteID int64) {
		lastGraph = time.Now()
		l.broadcast(Event{Type: EventGraphUpdated, Data: map[string]int64{"noteId": noteID}})
	}
	defer func() {
		if graphTimer != nil {
			graphTimer.Stop()
		}
	}()

	for {
		select {
		case <-b.stopCh:
			for ch := range l.clients {
				close(ch)
			}
			return

		case sub := <-b.subscribeCh:
			l.clients[sub.ch] = struct{}{}
			if sub.lastID > 0 {
				l.replay(sub.ch, sub.lastID)
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := l.clients[ch]; ok {
				delete(l.clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			l.broadcast(event)

		case ev := <-b.noteEventCh:
			l.broadcast(Event{Type: ev.Type, Data: ev})
			if !ev.GraphChanged {
				continue
			}
			if wait := b.opts.GraphThrottle - time.Since(lastGraph); wait > 0 {
				id := ev.NoteID
				pendingGraph = &id
				if graphFire == nil {
					graphTimer = time.NewTimer(wait)
					graphFire = graphTimer.C
				}
				continue
			}
			emitGraph(ev.NoteID)

		case <-graphFire:
			graphFire = nil
			if pendingGraph != nil {
				emitGraph(*pendingGraph)
				pendingGraph = nil
			}

		case resp := <-b.countReqCh:
			resp <- len(l.clients)
		}
	}
}

// Close gracefully stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel. Frames with an id
// above lastEventID that are still in history are queued first; pass 0 for
// live frames only.
func (b *Broker) Subscribe(lastEventID uint64) chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscription{ch: ch, lastID: lastEventID}:
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

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishNote sends a note event, followed by a throttled graph.updated
// when ev.GraphChanged is set.
func (b *Broker) PublishNote(ev NoteEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteEventCh <- ev:
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

	// A malformed id means a fresh stream.
	lastID, _ := strconv.ParseUint(r.Header.Get("Last-Event-ID"), 10, 64)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(lastID)
	defer b.Unsubscribe(ch)

	ticker := time.NewTicker(b.opts.KeepAlive)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.Write([]byte(": keep-alive\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
