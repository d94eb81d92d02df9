package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/pixelbattle/pixel-battle-backend/internal/store"
)

// Event is what subscribers receive, already shaped for the wire.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func NewPixelEvent(p *store.Pixel) Event {
	return Event{Type: "new_pixel", Data: p}
}

func WidgetUpdateEvent(counts []store.TeamCount) Event {
	return Event{Type: "widget_update", Data: counts}
}

type Msg interface{ isHubMsg() }

type Subscribe struct {
	ID     string
	Outbox chan Event // where this subscriber wants events delivered
}

type Unsubscribe struct{ ID string }

type PublishMsg struct{ Event Event }

type ShutdownHub struct{}

// test-only: reflect internal state without data races
type GetView struct {
	Reply chan View
}

type View struct {
	NumSubscribers int
}

func (Subscribe) isHubMsg()   {}
func (Unsubscribe) isHubMsg() {}
func (PublishMsg) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}
func (GetView) isHubMsg()     {}

// Hub fans events out to every live subscriber. All state lives inside
// the loop goroutine; callers talk to it through the inbox.
type Hub struct {
	inbox  chan Msg
	subs   map[string]chan Event
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan Msg, 64),
		subs:   make(map[string]chan Event),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

// Publish queues an event for delivery to every current subscriber.
// Best-effort: a slow subscriber gets dropped, it never blocks the
// publisher or the other subscribers.
func (h *Hub) Publish(e Event) {
	select {
	case h.inbox <- PublishMsg{Event: e}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				h.subs[msg.ID] = msg.Outbox

			case Unsubscribe:
				// Tolerate an already-removed ID (disconnect race).
				if ch, ok := h.subs[msg.ID]; ok {
					close(ch)
					delete(h.subs, msg.ID)
				}

			case PublishMsg:
				h.broadcast(msg.Event)

			case GetView:
				msg.Reply <- View{NumSubscribers: len(h.subs)}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) broadcast(e Event) {
	for id, ch := range h.subs {
		select {
		case ch <- e:
			// ok
		default:
			// Subscriber is slow/full - drop them.
			h.log.Warn("dropping slow subscriber", zap.String("subscriber_id", id))
			close(ch)
			delete(h.subs, id)
		}
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	h.cancel()
}
