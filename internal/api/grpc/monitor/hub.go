package monitor

import (
	"context"
	"sync"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
	"github.com/oshokin/zone-intrusion/internal/logger"
)

// SubscriberBuffer is the number of verdicts queued per stream before frames are dropped.
const SubscriberBuffer = 16

// Hub is a verdict sink that keeps the latest verdict and fans verdicts out to subscribers.
// Publish never blocks: a subscriber whose buffer is full misses the frame.
type Hub struct {
	// sessionID is reported before the first frame arrives.
	sessionID string

	// mu guards the fields below.
	mu sync.Mutex
	// latest is the most recent verdict message.
	latest *structpb.Struct
	// subscribers are the open stream channels.
	subscribers map[chan *structpb.Struct]struct{}
	// dropped counts verdicts not delivered to slow subscribers.
	dropped int
	// closed is set once Close has run.
	closed bool
}

// NewHub creates an empty hub for the session.
func NewHub(sessionID string) *Hub {
	return &Hub{
		sessionID:   sessionID,
		subscribers: make(map[chan *structpb.Struct]struct{}),
	}
}

// Publish stores the verdict and offers it to every subscriber.
func (h *Hub) Publish(ctx context.Context, frame *verdict.Frame) error {
	msg := ToProto(frame)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	h.latest = msg

	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			h.dropped++
			logger.DebugKV(ctx, "Verdict dropped for slow subscriber", "frame", frame.Index, "dropped", h.dropped)
		}
	}

	return nil
}

// Latest returns the most recent verdict, or an empty one before the first frame.
func (h *Hub) Latest() *structpb.Struct {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.latestLocked()
}

// latestLocked returns the latest verdict. The caller holds mu.
func (h *Hub) latestLocked() *structpb.Struct {
	if h.latest == nil {
		return emptySnapshot(h.sessionID)
	}

	return h.latest
}

// Subscribe registers a subscriber. The channel is closed when the hub closes
// or the returned cancel function is called.
func (h *Hub) Subscribe() (<-chan *structpb.Struct, func()) {
	_, ch, cancel := h.SubscribeFromLatest()

	return ch, cancel
}

// SubscribeFromLatest registers a subscriber and returns the latest verdict as of
// the registration. The channel carries only verdicts published after it.
func (h *Hub) SubscribeFromLatest() (*structpb.Struct, <-chan *structpb.Struct, func()) {
	ch := make(chan *structpb.Struct, SubscriberBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	latest := h.latestLocked()

	if h.closed {
		close(ch)

		return latest, ch, func() {}
	}

	h.subscribers[ch] = struct{}{}

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()

			if _, ok := h.subscribers[ch]; ok {
				delete(h.subscribers, ch)
				close(ch)
			}
		})
	}

	return latest, ch, cancel
}

// Subscribers returns the number of open subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// Close ends every subscription. Later publishes are ignored.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}

	h.closed = true

	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}

	return nil
}
