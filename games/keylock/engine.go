/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package keylock

// Role is one of the two control/information partitions. The Key Finder
// sees keys but not hazards; the Navigator sees doors and hazards but not
// keys. That asymmetry is the entire game.
type Role int

const (
	KeyFinder Role = iota
	Navigator
)

func (r Role) String() string {
	if r == KeyFinder {
		return "KEY_FINDER"
	}
	return "NAVIGATOR"
}

// RoleFromIndex maps a presence-sorted index to a role: the
// lexicographically first player id becomes the Key Finder.
func RoleFromIndex(i int) Role {
	if i == 0 {
		return KeyFinder
	}
	return Navigator
}

// roleRules collects every role-dependent behaviour in one place, so a new
// branch cannot be forgotten in one of the call sites.
type roleRules interface {
	sees(e *Entity) bool
	triggersHazards() bool
	collectsKeys() bool
}

func rulesFor(r Role) roleRules {
	if r == KeyFinder {
		return keyFinderRules{}
	}
	return navigatorRules{}
}

type keyFinderRules struct{}

func (keyFinderRules) sees(e *Entity) bool {
	if e.Triggered {
		return false
	}
	switch e.Type {
	case EntityKey:
		return !e.Collected
	case EntityDoor:
		// Closed doors are invisible to the Key Finder; they appear only
		// once opened.
		return e.Opened
	case EntityHazard:
		return false
	case EntityGoal:
		return true
	}
	return false
}

func (keyFinderRules) triggersHazards() bool { return true }
func (keyFinderRules) collectsKeys() bool    { return true }

type navigatorRules struct{}

func (navigatorRules) sees(e *Entity) bool {
	if e.Triggered {
		return false
	}
	switch e.Type {
	case EntityKey:
		return false
	case EntityDoor:
		return true
	case EntityHazard:
		return true
	case EntityGoal:
		return true
	}
	return false
}

func (navigatorRules) triggersHazards() bool { return false }
func (navigatorRules) collectsKeys() bool    { return false }

// Direction is a unit movement step.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) delta() (int, int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	default:
		return 1, 0
	}
}

// MoveResult reports what a single movement step did. A rejected move
// (wall, bounds, closed door) leaves everything zero-valued.
type MoveResult struct {
	Moved        bool
	Pos          Position
	HazardHit    *Entity // untriggered hazard stepped on by a Key Finder
	CollectedKey *Entity
	ReachedGoal  bool
}

// Engine runs one peer's avatar through the maze. It owns the local copy of
// the level and mutates entity flags in place; the peer loop replicates
// those flips to the partner over the transport.
type Engine struct {
	role  Role
	rules roleRules
	level *Level
	pos   Position
}

// NewEngine places the avatar at the spawn cell.
func NewEngine(role Role, level *Level) *Engine {
	return &Engine{
		role:  role,
		rules: rulesFor(role),
		level: level,
		pos:   StartPos,
	}
}

// Pos returns the avatar's current cell.
func (e *Engine) Pos() Position { return e.pos }

// Role returns the engine's role.
func (e *Engine) Role() Role { return e.role }

// Level exposes the engine's level copy.
func (e *Engine) Level() *Level { return e.level }

// Move attempts one step. Walls, grid bounds and closed doors reject the
// move outright; hazards, keys and the goal take effect as the avatar
// enters their cell. None of these outcomes is an error, they are the game.
func (e *Engine) Move(dir Direction) MoveResult {
	dx, dy := dir.delta()
	next := Position{X: e.pos.X + dx, Y: e.pos.Y + dy}

	if e.level.Wall(next) {
		return MoveResult{}
	}

	var res MoveResult
	if ent := e.level.EntityAt(next); ent != nil {
		switch {
		case ent.Type == EntityDoor && !ent.Opened:
			// Closed doors block everyone, seen or not.
			return MoveResult{}

		case ent.Type == EntityHazard && !ent.Triggered:
			// Only the Key Finder springs traps; it cannot see them, so
			// stepping on one is the surprise the Navigator is meant to
			// warn about.
			if e.rules.triggersHazards() {
				ent.Triggered = true
				res.HazardHit = ent
			}

		case ent.Type == EntityKey && !ent.Collected:
			if e.rules.collectsKeys() {
				ent.Collected = true
				if door := e.level.EntityByID(ent.PairID); door != nil {
					door.Opened = true
				}
				res.CollectedKey = ent
			}

		case ent.Type == EntityGoal:
			res.ReachedGoal = true
		}
	}

	e.pos = next
	res.Moved = true
	res.Pos = next
	return res
}

// ApplyKeyCollected replicates a partner's key pickup: mark the key
// collected and open its paired door. Applying the same pickup twice is a
// no-op.
func (e *Engine) ApplyKeyCollected(entityID string) {
	key := e.level.EntityByID(entityID)
	if key == nil || key.Type != EntityKey {
		return
	}
	key.Collected = true
	if door := e.level.EntityByID(key.PairID); door != nil {
		door.Opened = true
	}
}

// VisibleEntities filters the level through this role's information rules.
// Rendering asymmetry lives here and nowhere else.
func (e *Engine) VisibleEntities() []*Entity {
	out := make([]*Entity, 0, len(e.level.Entities))
	for _, ent := range e.level.Entities {
		if e.rules.sees(ent) {
			out = append(out, ent)
		}
	}
	return out
}
