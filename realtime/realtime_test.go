/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package realtime

import (
	"encoding/json"
	"testing"
	"time"
)

func drainPresence(t *testing.T, s *Subscription) []PresenceMeta {
	t.Helper()

	var latest []PresenceMeta
	deadline := time.After(time.Second)

	select {
	case latest = <-s.Presence():
	case <-deadline:
		t.Fatal("timed out waiting for presence snapshot")
	}

	for {
		select {
		case next, ok := <-s.Presence():
			if !ok {
				return latest
			}
			latest = next
		default:
			return latest
		}
	}
}

func TestPresenceSyncDeliveredToAllSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(2, 0, nil, nil)
	defer bus.Close()

	a, err := bus.Subscribe("ABC123")
	if err != nil {
		t.Fatalf("subscribe a: %v", err)
	}
	b, err := bus.Subscribe("ABC123")
	if err != nil {
		t.Fatalf("subscribe b: %v", err)
	}

	if err := a.Track(PresenceMeta{PlayerID: "p-a", JoinedAt: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("track a: %v", err)
	}
	if err := b.Track(PresenceMeta{PlayerID: "p-b", JoinedAt: "2026-01-01T00:00:01Z"}); err != nil {
		t.Fatalf("track b: %v", err)
	}

	for name, sub := range map[string]*Subscription{"a": a, "b": b} {
		metas := drainPresence(t, sub)
		if len(metas) != 2 {
			t.Fatalf("subscriber %s saw %d members, want 2", name, len(metas))
		}
	}
}

func TestThirdSubscriberRejected(t *testing.T) {
	t.Parallel()

	bus := NewBus(2, 0, nil, nil)
	defer bus.Close()

	if _, err := bus.Subscribe("FULL01"); err != nil {
		t.Fatalf("first subscribe: %v", err)
	}
	if _, err := bus.Subscribe("FULL01"); err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	if _, err := bus.Subscribe("FULL01"); err != ErrRoomFull {
		t.Fatalf("third subscribe: got %v, want ErrRoomFull", err)
	}
}

func TestBroadcastSkipsSenderAndPreservesOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus(2, 0, nil, nil)
	defer bus.Close()

	a, _ := bus.Subscribe("ORDERD")
	b, _ := bus.Subscribe("ORDERD")

	for i := 0; i < 10; i++ {
		if err := a.Broadcast("seq", map[string]int{"n": i}); err != nil {
			t.Fatalf("broadcast %d: %v", i, err)
		}
	}

	select {
	case <-a.Events():
		t.Fatal("sender received its own broadcast")
	default:
	}

	for i := 0; i < 10; i++ {
		select {
		case ev := <-b.Events():
			var body struct {
				N int `json:"n"`
			}
			if err := json.Unmarshal(ev.Payload, &body); err != nil {
				t.Fatalf("unmarshal event %d: %v", i, err)
			}
			if body.N != i {
				t.Fatalf("event %d arrived out of order: got n=%d", i, body.N)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestUnsubscribeClosesChannelsAndFreesRoom(t *testing.T) {
	t.Parallel()

	bus := NewBus(2, 0, nil, nil)
	defer bus.Close()

	a, _ := bus.Subscribe("GONE99")
	b, _ := bus.Subscribe("GONE99")
	_ = a.Track(PresenceMeta{PlayerID: "p-a"})
	_ = b.Track(PresenceMeta{PlayerID: "p-b"})
	drainPresence(t, a)

	b.Unsubscribe()

	metas := drainPresence(t, a)
	if len(metas) != 1 || metas[0].PlayerID != "p-a" {
		t.Fatalf("after partner left, presence = %+v, want only p-a", metas)
	}

	a.Unsubscribe()
	if bus.RoomActive("GONE99") {
		t.Fatal("room still active after last subscriber left")
	}

	if _, ok := <-a.events; ok {
		t.Fatal("events channel not closed after unsubscribe")
	}
}

func TestSlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()

	bus := NewBus(2, 0, nil, nil)
	defer bus.Close()

	a, _ := bus.Subscribe("SLOW42")
	_, _ = bus.Subscribe("SLOW42")

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Far more than the receive buffer; nobody is reading.
		for i := 0; i < eventBuffer*3; i++ {
			_ = a.Broadcast("flood", map[string]int{"n": i})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a slow consumer")
	}
}

func TestIdleRoomReaped(t *testing.T) {
	t.Parallel()

	bus := NewBus(2, 50*time.Millisecond, nil, nil)
	defer bus.Close()

	a, _ := bus.Subscribe("IDLE00")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-a.Events():
			if !ok {
				if bus.RoomActive("IDLE00") {
					t.Fatal("room still listed after reap")
				}
				return
			}
		case <-deadline:
			t.Fatal("idle room was never reaped")
		}
	}
}
