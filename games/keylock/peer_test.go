/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package keylock

import (
	"testing"
	"time"

	"github.com/dyadgames/duetbox/realtime"
	"github.com/dyadgames/duetbox/session"
)

func newTestBus() *realtime.Bus {
	return realtime.NewBus(2, 0, nil, nil)
}

// waitView consumes views until cond holds or the deadline passes.
func waitView(t *testing.T, p *Peer, what string, cond func(View) bool) View {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case v, ok := <-p.Views():
			if !ok {
				t.Fatalf("view stream closed waiting for %s", what)
			}
			if cond(v) {
				return v
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func startPeer(t *testing.T, bus *realtime.Bus, room string, onResult ResultFunc) *Peer {
	t.Helper()

	p, err := Join(bus, room, nil, onResult)
	if err != nil {
		t.Fatalf("join %s: %v", room, err)
	}
	t.Cleanup(p.Close)
	go p.Run()
	return p
}

func TestTwoPlayersConvergeOnDistinctRoles(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	defer bus.Close()

	p1 := startPeer(t, bus, "ABC123", nil)
	p2 := startPeer(t, bus, "ABC123", nil)

	v1 := waitView(t, p1, "p1 to start playing", func(v View) bool {
		return v.Status == "PLAYING" && v.Role != ""
	})
	v2 := waitView(t, p2, "p2 to start playing", func(v View) bool {
		return v.Status == "PLAYING" && v.Role != ""
	})

	if v1.Role == v2.Role {
		t.Fatalf("both peers got role %s", v1.Role)
	}
	roles := map[string]bool{v1.Role: true, v2.Role: true}
	if !roles["KEY_FINDER"] || !roles["NAVIGATOR"] {
		t.Fatalf("roles = %v, want exactly {KEY_FINDER, NAVIGATOR}", roles)
	}
}

func TestSinglePlayerWaits(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	defer bus.Close()

	p := startPeer(t, bus, "LONELY", nil)
	waitView(t, p, "waiting state", func(v View) bool {
		return v.Status == "WAITING" && v.Players == 1
	})
}

func TestThirdPlayerRejected(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	defer bus.Close()

	startPeer(t, bus, "CROWD1", nil)
	startPeer(t, bus, "CROWD1", nil)

	if _, err := Join(bus, "CROWD1", nil, nil); err != realtime.ErrRoomFull {
		t.Fatalf("third join: got %v, want ErrRoomFull", err)
	}
}

// keyFinderOf returns whichever peer was assigned KEY_FINDER, plus the
// other one, once both are playing.
func keyFinderOf(t *testing.T, p1, p2 *Peer) (finder, navigator *Peer) {
	t.Helper()

	v1 := waitView(t, p1, "p1 role", func(v View) bool { return v.Role != "" })
	waitView(t, p2, "p2 role", func(v View) bool { return v.Role != "" })

	if v1.Role == "KEY_FINDER" {
		return p1, p2
	}
	return p2, p1
}

func TestInstantDeathEndsBothSessions(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	defer bus.Close()

	deathTrap := func() *Level {
		return &Level{
			layout: []string{
				"#####",
				"#   #",
				"#####",
			},
			Entities: []*Entity{
				{ID: "h1", Type: EntityHazard, Hazard: HazardInstantDeath, Pos: Position{X: 2, Y: 1}},
			},
		}
	}

	results := make(chan session.Status, 1)
	p1, err := Join(bus, "DOOMED", nil, func(outcome session.Status, _ string, _ int) {
		results <- outcome
	})
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	p1.newLevel = deathTrap
	t.Cleanup(p1.Close)
	go p1.Run()

	p2, err := Join(bus, "DOOMED", nil, nil)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	p2.newLevel = deathTrap
	t.Cleanup(p2.Close)
	go p2.Run()

	finder, navigator := keyFinderOf(t, p1, p2)

	finder.Commands() <- Command{Type: "key", Key: "right"}

	waitView(t, finder, "finder loss", func(v View) bool { return v.Status == "LOST" })
	waitView(t, navigator, "navigator loss", func(v View) bool { return v.Status == "LOST" })

	if finder == p1 {
		select {
		case outcome := <-results:
			if outcome != session.Lost {
				t.Fatalf("result hook got %v, want LOST", outcome)
			}
		case <-time.After(time.Second):
			t.Fatal("result hook never fired")
		}
	}
}

func TestMoveReplicatedToPartner(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	defer bus.Close()

	p1 := startPeer(t, bus, "MOVERS", nil)
	p2 := startPeer(t, bus, "MOVERS", nil)
	finder, navigator := keyFinderOf(t, p1, p2)

	// Spawn is (1,1); down is open in the real maze.
	finder.Commands() <- Command{Type: "key", Key: "down"}

	waitView(t, navigator, "partner position update", func(v View) bool {
		return v.Partner != nil && *v.Partner == (Position{X: 1, Y: 2})
	})
}

func TestKeyPickupOpensDoorForBothPeers(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	defer bus.Close()

	keyed := func() *Level {
		return &Level{
			layout: []string{
				"######",
				"#    #",
				"######",
			},
			Entities: []*Entity{
				{ID: "k1", Type: EntityKey, Pos: Position{X: 2, Y: 1}, PairID: "d1"},
				{ID: "d1", Type: EntityDoor, Pos: Position{X: 4, Y: 1}, PairID: "k1"},
			},
		}
	}

	p1, err := Join(bus, "KEYED1", nil, nil)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	p1.newLevel = keyed
	t.Cleanup(p1.Close)
	go p1.Run()

	p2, err := Join(bus, "KEYED1", nil, nil)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	p2.newLevel = keyed
	t.Cleanup(p2.Close)
	go p2.Run()

	finder, navigator := keyFinderOf(t, p1, p2)

	finder.Commands() <- Command{Type: "key", Key: "right"}

	// The navigator's replicated door opens even though the pickup
	// happened on the other peer's level copy.
	waitView(t, navigator, "door to open", func(v View) bool {
		for _, ent := range v.Entities {
			if ent.ID == "d1" && ent.Opened {
				return true
			}
		}
		return false
	})
}

func TestTimeoutBroadcastsLossToPartner(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	defer bus.Close()

	p1, err := Join(bus, "TIMEUP", nil, nil)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	p1.clock = session.NewCountdown(1)
	t.Cleanup(p1.Close)
	go p1.Run()

	p2 := startPeer(t, bus, "TIMEUP", nil)

	waitView(t, p1, "local timeout", func(v View) bool { return v.Status == "LOST" })
	// p2's own clock still has 300s; only the broadcast outcome converges it.
	waitView(t, p2, "remote timeout", func(v View) bool { return v.Status == "LOST" })
}

func TestSignalReachesOnlyPartner(t *testing.T) {
	t.Parallel()

	bus := newTestBus()
	defer bus.Close()

	p1 := startPeer(t, bus, "SIGNLS", nil)
	p2 := startPeer(t, bus, "SIGNLS", nil)

	waitView(t, p1, "p1 playing", func(v View) bool { return v.Status == "PLAYING" })
	waitView(t, p2, "p2 playing", func(v View) bool { return v.Status == "PLAYING" })

	p1.Commands() <- Command{Type: "signal", Name: "STOP"}

	waitView(t, p2, "signal delivery", func(v View) bool { return v.Signal == "STOP" })
}
