/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package session holds the state shared by both minigames: the per-peer
// game session lifecycle, deterministic role assignment from presence, and
// the countdown clock.
package session

import (
	"crypto/rand"
	"sort"
)

// Status is the lifecycle of one peer's game session.
type Status int

const (
	Connecting Status = iota
	Waiting
	Playing
	Won
	Lost
	Disconnected
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Waiting:
		return "WAITING"
	case Playing:
		return "PLAYING"
	case Won:
		return "WON"
	case Lost:
		return "LOST"
	case Disconnected:
		return "DISCONNECTED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the session has ended with an outcome. A stale
// presence snapshot or timer tick arriving after a win must never drag the
// session back to PLAYING, so terminal states are one-way.
func (s Status) Terminal() bool {
	return s == Won || s == Lost || s == Disconnected
}

// Machine is the session state machine. It is owned by a single peer
// goroutine and needs no locking.
type Machine struct {
	status Status
}

// NewMachine starts in CONNECTING.
func NewMachine() *Machine {
	return &Machine{status: Connecting}
}

// Status returns the current state.
func (m *Machine) Status() Status { return m.status }

// Set transitions to next and reports whether the transition took effect.
// Once terminal, the status never changes again.
func (m *Machine) Set(next Status) bool {
	if m.status.Terminal() {
		return false
	}
	m.status = next
	return true
}

// ApplyPresence drives the early transitions from a presence snapshot:
// one participant means WAITING, two or more means PLAYING. Terminal
// states are left untouched. Returns the (possibly unchanged) status.
func (m *Machine) ApplyPresence(participants int) Status {
	if m.status.Terminal() {
		return m.status
	}
	switch {
	case participants >= 2:
		m.status = Playing
	case participants == 1:
		m.status = Waiting
	}
	return m.status
}

const playerIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewPlayerID generates the opaque 8-character identity a peer uses for
// one room occupancy. It is never persisted.
func NewPlayerID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = playerIDAlphabet[int(b)%len(playerIDAlphabet)]
	}
	return string(out)
}

// RoleIndex assigns roles deterministically: sort every connected player id
// lexicographically and take the index of self. Both peers compute the same
// answer from the same membership regardless of arrival order. Returns -1
// if self is not in the list or fewer than two players are present.
func RoleIndex(playerIDs []string, self string) int {
	if len(playerIDs) < 2 {
		return -1
	}
	sorted := make([]string, len(playerIDs))
	copy(sorted, playerIDs)
	sort.Strings(sorted)

	for i, id := range sorted {
		if id == self {
			if i > 1 {
				return -1
			}
			return i
		}
	}
	return -1
}

// Countdown is the shared game clock. Each peer runs its own copy; only the
// resulting outcome is synchronized, never the remaining time itself.
type Countdown struct {
	remaining int
}

// NewCountdown starts a countdown at secs.
func NewCountdown(secs int) *Countdown {
	return &Countdown{remaining: secs}
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int { return c.remaining }

// Tick decrements one second and reports whether the clock just hit zero.
// Further ticks after zero return false, so expiry fires exactly once.
func (c *Countdown) Tick() bool {
	if c.remaining <= 0 {
		return false
	}
	c.remaining--
	return c.remaining == 0
}

// Penalize removes secs from the clock, clamping at zero. Reports whether
// the penalty exhausted the clock.
func (c *Countdown) Penalize(secs int) bool {
	if c.remaining <= 0 {
		return false
	}
	c.remaining -= secs
	if c.remaining <= 0 {
		c.remaining = 0
		return true
	}
	return false
}
