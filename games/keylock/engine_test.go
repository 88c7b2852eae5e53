/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package keylock

import "testing"

// openArena is a small bordered grid with nothing in it, for tests that
// need full control over entity placement.
func openArena(entities ...*Entity) *Level {
	return &Level{
		layout: []string{
			"##########",
			"#        #",
			"#        #",
			"#        #",
			"#        #",
			"#        #",
			"##########",
		},
		Entities: entities,
	}
}

func TestMoveRejectedByWallsInEveryDirection(t *testing.T) {
	t.Parallel()

	// Cell (1,1) of the real maze has walls above and to the left.
	e := NewEngine(KeyFinder, NewLevel())
	for _, dir := range []Direction{Up, Left} {
		res := e.Move(dir)
		if res.Moved {
			t.Fatalf("move %v from spawn succeeded into a wall", dir)
		}
		if e.Pos() != StartPos {
			t.Fatalf("rejected move changed position to %+v", e.Pos())
		}
	}

	// Box the avatar in completely and check all four directions.
	boxed := &Level{layout: []string{
		"###",
		"# #",
		"###",
	}}
	b := NewEngine(Navigator, boxed)
	for _, dir := range []Direction{Up, Down, Left, Right} {
		if res := b.Move(dir); res.Moved {
			t.Fatalf("move %v escaped a sealed cell", dir)
		}
	}
}

func TestMoveRejectedByGridBounds(t *testing.T) {
	t.Parallel()

	open := &Level{layout: []string{
		"  ",
		"  ",
	}}
	e := NewEngine(KeyFinder, open)
	e.pos = Position{X: 0, Y: 0}

	if res := e.Move(Up); res.Moved {
		t.Fatal("moved above the grid")
	}
	if res := e.Move(Left); res.Moved {
		t.Fatal("moved left of the grid")
	}
}

func TestClosedDoorBlocksBothRoles(t *testing.T) {
	t.Parallel()

	for _, role := range []Role{KeyFinder, Navigator} {
		door := &Entity{ID: "d1", Type: EntityDoor, Pos: Position{X: 2, Y: 1}}
		e := NewEngine(role, openArena(door))

		if res := e.Move(Right); res.Moved {
			t.Fatalf("%v walked through a closed door", role)
		}

		door.Opened = true
		if res := e.Move(Right); !res.Moved {
			t.Fatalf("%v blocked by an opened door", role)
		}
	}
}

func TestHazardTriggersOnlyForKeyFinder(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		role        Role
		wantTrigger bool
	}{
		{KeyFinder, true},
		{Navigator, false},
	} {
		hazard := &Entity{ID: "h1", Type: EntityHazard, Hazard: HazardTimePenalty, Pos: Position{X: 2, Y: 1}}
		e := NewEngine(tc.role, openArena(hazard))

		res := e.Move(Right)
		if !res.Moved {
			t.Fatalf("%v could not step onto a hazard cell", tc.role)
		}
		if got := res.HazardHit != nil; got != tc.wantTrigger {
			t.Fatalf("%v hazard trigger = %v, want %v", tc.role, got, tc.wantTrigger)
		}
		if hazard.Triggered != tc.wantTrigger {
			t.Fatalf("%v left hazard.Triggered = %v, want %v", tc.role, hazard.Triggered, tc.wantTrigger)
		}
	}
}

func TestTriggeredHazardDoesNotFireTwice(t *testing.T) {
	t.Parallel()

	hazard := &Entity{ID: "h1", Type: EntityHazard, Hazard: HazardInstantDeath, Pos: Position{X: 2, Y: 1}}
	e := NewEngine(KeyFinder, openArena(hazard))

	if res := e.Move(Right); res.HazardHit == nil {
		t.Fatal("first step did not trigger the hazard")
	}
	e.Move(Left)
	if res := e.Move(Right); res.HazardHit != nil {
		t.Fatal("stepping on a spent hazard triggered it again")
	}
}

func TestKeyFinderCollectsKeyAndOpensPairedDoor(t *testing.T) {
	t.Parallel()

	key := &Entity{ID: "k1", Type: EntityKey, Pos: Position{X: 2, Y: 1}, PairID: "d1"}
	door := &Entity{ID: "d1", Type: EntityDoor, Pos: Position{X: 5, Y: 1}, PairID: "k1"}
	e := NewEngine(KeyFinder, openArena(key, door))

	res := e.Move(Right)
	if res.CollectedKey == nil || res.CollectedKey.ID != "k1" {
		t.Fatalf("key finder did not collect the key: %+v", res)
	}
	if !door.Opened {
		t.Fatal("collecting the key did not open its paired door")
	}
}

func TestNavigatorDoesNotCollectKeys(t *testing.T) {
	t.Parallel()

	key := &Entity{ID: "k1", Type: EntityKey, Pos: Position{X: 2, Y: 1}, PairID: "d1"}
	door := &Entity{ID: "d1", Type: EntityDoor, Pos: Position{X: 5, Y: 1}, PairID: "k1"}
	e := NewEngine(Navigator, openArena(key, door))

	res := e.Move(Right)
	if !res.Moved {
		t.Fatal("navigator could not cross a key cell")
	}
	if res.CollectedKey != nil || key.Collected || door.Opened {
		t.Fatal("navigator collected a key it cannot see")
	}
}

func TestGoalReached(t *testing.T) {
	t.Parallel()

	goal := &Entity{ID: "g1", Type: EntityGoal, Pos: Position{X: 2, Y: 1}}
	e := NewEngine(Navigator, openArena(goal))

	res := e.Move(Right)
	if !res.Moved || !res.ReachedGoal {
		t.Fatalf("stepping onto the goal gave %+v", res)
	}
}

func TestInstantDeathScenario(t *testing.T) {
	t.Parallel()

	// Key Finder at (5,4) steps right onto an untriggered INSTANT_DEATH
	// hazard at (6,4) with no wall between.
	hazard := &Entity{ID: "h1", Type: EntityHazard, Hazard: HazardInstantDeath, Pos: Position{X: 6, Y: 4}}
	level := &Level{
		layout: []string{
			"##########",
			"#        #",
			"#        #",
			"#        #",
			"#        #",
			"#        #",
			"##########",
		},
		Entities: []*Entity{hazard},
	}
	e := NewEngine(KeyFinder, level)
	e.pos = Position{X: 5, Y: 4}

	res := e.Move(Right)
	if !res.Moved {
		t.Fatal("step onto the hazard cell was rejected")
	}
	if res.HazardHit == nil || res.HazardHit.Hazard != HazardInstantDeath {
		t.Fatalf("expected an instant-death hit, got %+v", res)
	}
}

func entityIDs(entities []*Entity) map[string]bool {
	ids := make(map[string]bool, len(entities))
	for _, e := range entities {
		ids[e.ID] = true
	}
	return ids
}

func TestVisibilityAsymmetryFreshLevel(t *testing.T) {
	t.Parallel()

	finder := NewEngine(KeyFinder, NewLevel())
	nav := NewEngine(Navigator, NewLevel())

	// Key Finder: keys and the goal, no doors (closed), no hazards.
	got := entityIDs(finder.VisibleEntities())
	want := map[string]bool{"k1": true, "k2": true, "g1": true}
	if len(got) != len(want) {
		t.Fatalf("key finder sees %v, want %v", got, want)
	}
	for id := range want {
		if !got[id] {
			t.Fatalf("key finder is missing %s", id)
		}
	}

	// Navigator: doors, hazards and the goal, no keys.
	got = entityIDs(nav.VisibleEntities())
	want = map[string]bool{"d1": true, "d2": true, "h1": true, "h2": true, "h3": true, "g1": true}
	if len(got) != len(want) {
		t.Fatalf("navigator sees %v, want %v", got, want)
	}
	for id := range want {
		if !got[id] {
			t.Fatalf("navigator is missing %s", id)
		}
	}
}

func TestVisibilityAfterFlagFlips(t *testing.T) {
	t.Parallel()

	e := NewEngine(KeyFinder, NewLevel())
	lvl := e.Level()

	// Collected keys disappear for the Key Finder; their door appears.
	lvl.EntityByID("k1").Collected = true
	lvl.EntityByID("d1").Opened = true
	got := entityIDs(e.VisibleEntities())
	if got["k1"] {
		t.Fatal("collected key still visible to key finder")
	}
	if !got["d1"] {
		t.Fatal("opened door not visible to key finder")
	}

	// Triggered hazards disappear for the Navigator.
	nav := NewEngine(Navigator, NewLevel())
	nav.Level().EntityByID("h1").Triggered = true
	got = entityIDs(nav.VisibleEntities())
	if got["h1"] {
		t.Fatal("triggered hazard still visible to navigator")
	}
}

func TestApplyKeyCollectedIsIdempotent(t *testing.T) {
	t.Parallel()

	e := NewEngine(Navigator, NewLevel())
	e.ApplyKeyCollected("k2")
	e.ApplyKeyCollected("k2")

	lvl := e.Level()
	if !lvl.EntityByID("k2").Collected {
		t.Fatal("replicated key pickup not applied")
	}
	if !lvl.EntityByID("d2").Opened {
		t.Fatal("replicated key pickup did not open the paired door")
	}

	// Unknown or non-key ids are ignored.
	e.ApplyKeyCollected("d1")
	e.ApplyKeyCollected("nope")
	if lvl.EntityByID("d1").Type != EntityDoor {
		t.Fatal("entity table corrupted by bogus replication")
	}
}
