package directory

import (
	"sync"

	"github.com/mlhuang/critterchat/internal/domain"
)

type EventType string

const (
	EventIdentityUpdated EventType = "identity_updated"
	EventIdentityCreated EventType = "identity_created"
	EventMessageCreated  EventType = "message_created"
	EventChannelCreated  EventType = "channel_created"
	EventConfigUpdated   EventType = "config_updated"
)

// Event is one change notification fanned out to subscribers. Exactly one
// of the record fields is set, matching Type.
type Event struct {
	Type     EventType
	Identity *domain.Identity
	Message  *domain.ChatMessage
	Channel  *domain.Channel
	Config   *domain.SystemConfig
}

// Unsubscribe tears down a subscription. Safe to call more than once.
type Unsubscribe func()

const subscriberBuffer = 16

// Notifier fans out change events: per-identity-key feeds for session
// watchers, and a global feed for roster/channel/message consumers.
// Delivery per subscriber is in publish order; a subscriber that falls
// behind loses its oldest pending event, never the stream.
type Notifier struct {
	mu       sync.Mutex
	nextID   int
	identity map[string]map[int]chan *domain.Identity
	events   map[int]chan Event
	closed   bool
}

func NewNotifier() *Notifier {
	return &Notifier{
		identity: make(map[string]map[int]chan *domain.Identity),
		events:   make(map[int]chan Event),
	}
}

// SubscribeIdentity delivers every write to one identity key.
func (n *Notifier) SubscribeIdentity(key string) (<-chan *domain.Identity, Unsubscribe) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan *domain.Identity, subscriberBuffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++

	subs, ok := n.identity[key]
	if !ok {
		subs = make(map[int]chan *domain.Identity)
		n.identity[key] = subs
	}
	subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if subs, ok := n.identity[key]; ok {
				if ch, ok := subs[id]; ok {
					delete(subs, id)
					close(ch)
				}
				if len(subs) == 0 {
					delete(n.identity, key)
				}
			}
		})
	}
}

// Subscribe delivers every event in the store: identity, channel, message
// and config writes alike.
func (n *Notifier) Subscribe() (<-chan Event, Unsubscribe) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	n.events[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if ch, ok := n.events[id]; ok {
				delete(n.events, id)
				close(ch)
			}
		})
	}
}

func (n *Notifier) publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	if ev.Identity != nil {
		for _, ch := range n.identity[ev.Identity.Key] {
			sendIdentity(ch, ev.Identity)
		}
	}
	for _, ch := range n.events {
		sendEvent(ch, ev)
	}
}

func sendIdentity(ch chan *domain.Identity, identity *domain.Identity) {
	select {
	case ch <- identity:
	default:
		// Full: drop the oldest snapshot so the latest always lands.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- identity:
		default:
		}
	}
}

func sendEvent(ch chan Event, ev Event) {
	select {
	case ch <- ev:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close drops all subscribers. Events published afterwards go nowhere.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true

	for key, subs := range n.identity {
		for id, ch := range subs {
			delete(subs, id)
			close(ch)
		}
		delete(n.identity, key)
	}
	for id, ch := range n.events {
		delete(n.events, id)
		close(ch)
	}
}
