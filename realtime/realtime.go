/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package realtime implements the broadcast transport the games ride on:
// named rooms with presence tracking and best-effort message fan-out.
//
// Delivery guarantees are deliberately weak. Messages from one subscriber
// arrive at the others in the order they were sent, but a slow consumer may
// drop messages rather than stall the room. The game layers are built to
// tolerate this: position sync is periodically re-broadcast and input state
// is a last-value-wins merge.
package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrRoomFull is returned when a room already holds its maximum number
	// of subscribers. Extra participants are rejected outright instead of
	// lingering in presence without a role.
	ErrRoomFull = errors.New("room is full")

	// ErrClosed is returned when operating on an unsubscribed subscription.
	ErrClosed = errors.New("subscription closed")
)

const (
	eventBuffer    = 64
	presenceBuffer = 8
)

// PresenceMeta is the record a subscriber announces about itself. It is the
// only identity the transport knows; player ids are opaque random strings
// scoped to one room occupancy.
type PresenceMeta struct {
	PlayerID string `json:"playerId"`
	JoinedAt string `json:"joinedAt"`
}

// Event is a broadcast message as seen by a receiver.
type Event struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Observer receives bus-level statistics. May be nil.
type Observer interface {
	SetRooms(n int)
	SetSubscribers(n int)
	EventRelayed()
}

// Bus owns all rooms. A room exists exactly as long as it has at least one
// subscriber (plus an idle grace handled by the reaper); there is no
// persistent room record anywhere.
type Bus struct {
	mu       sync.Mutex
	rooms    map[string]*room
	subCount int
	capacity int
	obs      Observer
	log      *zap.SugaredLogger
	done     chan struct{}
}

type room struct {
	name       string
	subs       []*Subscription
	lastActive time.Time
}

// Subscription is one participant's handle on a room. Events and presence
// snapshots are consumed from the two channels; both are closed on
// Unsubscribe (or when the room is reaped), which consumers treat as a
// terminal disconnect.
type Subscription struct {
	ID   string
	Room string

	bus      *Bus
	meta     *PresenceMeta
	events   chan Event
	presence chan []PresenceMeta
	closed   bool
}

// NewBus creates a bus whose rooms hold at most capacity subscribers each
// (0 disables the limit). If idleTimeout is positive, rooms that see no
// traffic for that long are torn down.
func NewBus(capacity int, idleTimeout time.Duration, obs Observer, log *zap.SugaredLogger) *Bus {
	b := &Bus{
		rooms:    make(map[string]*room),
		capacity: capacity,
		obs:      obs,
		log:      log,
		done:     make(chan struct{}),
	}
	if idleTimeout > 0 {
		go b.reap(idleTimeout)
	}
	return b
}

// Close stops the reaper and unsubscribes everyone.
func (b *Bus) Close() {
	close(b.done)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rm := range b.rooms {
		for _, s := range rm.subs {
			s.closeLocked()
		}
	}
	b.rooms = make(map[string]*room)
	b.subCount = 0
	b.observeLocked()
}

// Subscribe joins a room, creating it on first use. The caller is not yet
// visible in presence until it calls Track.
func (b *Bus) Subscribe(roomName string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return nil, ErrClosed
	default:
	}

	rm, ok := b.rooms[roomName]
	if !ok {
		rm = &room{name: roomName}
		b.rooms[roomName] = rm
	}

	if b.capacity > 0 && len(rm.subs) >= b.capacity {
		if !ok {
			delete(b.rooms, roomName)
		}
		return nil, ErrRoomFull
	}

	s := &Subscription{
		ID:       uuid.NewString(),
		Room:     roomName,
		bus:      b,
		events:   make(chan Event, eventBuffer),
		presence: make(chan []PresenceMeta, presenceBuffer),
	}
	rm.subs = append(rm.subs, s)
	rm.lastActive = time.Now()
	b.subCount++
	b.observeLocked()

	return s, nil
}

// RoomActive reports whether a room currently has any subscribers. Used by
// the HTTP layer to generate collision-free room codes.
func (b *Bus) RoomActive(roomName string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.rooms[roomName]
	return ok
}

// Events returns the stream of broadcasts from other subscribers.
func (s *Subscription) Events() <-chan Event { return s.events }

// Presence returns membership snapshots. A new snapshot is delivered to
// every subscriber whenever anyone tracks or leaves.
func (s *Subscription) Presence() <-chan []PresenceMeta { return s.presence }

// Track announces this subscriber's presence record and triggers a
// presence snapshot for the whole room, the announcer included.
func (s *Subscription) Track(meta PresenceMeta) error {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	rm, ok := b.rooms[s.Room]
	if !ok {
		return ErrClosed
	}

	m := meta
	s.meta = &m
	rm.lastActive = time.Now()
	b.syncPresenceLocked(rm)
	return nil
}

// Broadcast sends an event to every other subscriber of the room. The
// sender never receives its own broadcasts.
func (s *Subscription) Broadcast(event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	rm, ok := b.rooms[s.Room]
	if !ok {
		return ErrClosed
	}
	rm.lastActive = time.Now()

	ev := Event{Name: event, Payload: raw}
	for _, other := range rm.subs {
		if other == s {
			continue
		}
		select {
		case other.events <- ev:
			if b.obs != nil {
				b.obs.EventRelayed()
			}
		default:
			// Slow consumer. Drop rather than stall the room; the game
			// protocols self-heal from lost messages.
			if b.log != nil {
				b.log.Debugw("dropped event for slow subscriber",
					"room", rm.name, "event", event)
			}
		}
	}
	return nil
}

// Unsubscribe leaves the room and closes both channels. Remaining
// subscribers get a fresh presence snapshot; the room vanishes with its
// last subscriber.
func (s *Subscription) Unsubscribe() {
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.closed {
		return
	}
	rm, ok := b.rooms[s.Room]
	if !ok {
		s.closeLocked()
		return
	}

	for i, other := range rm.subs {
		if other == s {
			rm.subs = append(rm.subs[:i], rm.subs[i+1:]...)
			break
		}
	}
	s.closeLocked()
	b.subCount--

	if len(rm.subs) == 0 {
		delete(b.rooms, s.Room)
	} else {
		rm.lastActive = time.Now()
		b.syncPresenceLocked(rm)
	}
	b.observeLocked()
}

func (s *Subscription) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
	close(s.presence)
}

// syncPresenceLocked delivers the current membership (tracked subscribers
// only, in join order) to every subscriber of the room.
func (b *Bus) syncPresenceLocked(rm *room) {
	metas := make([]PresenceMeta, 0, len(rm.subs))
	for _, sub := range rm.subs {
		if sub.meta != nil {
			metas = append(metas, *sub.meta)
		}
	}

	for _, sub := range rm.subs {
		snapshot := make([]PresenceMeta, len(metas))
		copy(snapshot, metas)
		select {
		case sub.presence <- snapshot:
		default:
			if b.log != nil {
				b.log.Debugw("dropped presence snapshot for slow subscriber",
					"room", rm.name)
			}
		}
	}
}

func (b *Bus) observeLocked() {
	if b.obs == nil {
		return
	}
	b.obs.SetRooms(len(b.rooms))
	b.obs.SetSubscribers(b.subCount)
}

// reap closes out rooms that have been idle longer than timeout.
func (b *Bus) reap(timeout time.Duration) {
	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-timeout)

			b.mu.Lock()
			for name, rm := range b.rooms {
				if rm.lastActive.After(cutoff) {
					continue
				}
				if b.log != nil {
					b.log.Infow("reaping idle room", "room", name)
				}
				for _, s := range rm.subs {
					s.closeLocked()
					b.subCount--
				}
				delete(b.rooms, name)
			}
			b.observeLocked()
			b.mu.Unlock()
		}
	}
}
