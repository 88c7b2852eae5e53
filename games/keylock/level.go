/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package keylock implements the Key & Lock cooperative maze: two players,
// two partial views of the same level, one exit. Each role sees only a
// subset of the entities, so progress depends on talking to each other.
package keylock

// EntityType classifies the non-wall objects placed in the maze.
type EntityType int

const (
	EntityKey EntityType = iota
	EntityDoor
	EntityHazard
	EntityGoal
)

func (t EntityType) String() string {
	switch t {
	case EntityKey:
		return "KEY"
	case EntityDoor:
		return "DOOR"
	case EntityHazard:
		return "HAZARD"
	case EntityGoal:
		return "GOAL"
	default:
		return "UNKNOWN"
	}
}

// HazardClass distinguishes the two trap effects.
type HazardClass int

const (
	HazardNone HazardClass = iota
	HazardTimePenalty
	HazardInstantDeath
)

func (h HazardClass) String() string {
	switch h {
	case HazardTimePenalty:
		return "TIME_PENALTY"
	case HazardInstantDeath:
		return "INSTANT_DEATH"
	default:
		return ""
	}
}

// Position is a grid cell.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Entity is one static maze object. Level authoring fixes position and
// type; during play only the boolean flags ever change.
type Entity struct {
	ID        string
	Type      EntityType
	Hazard    HazardClass
	Pos       Position
	Color     string
	PairID    string // key ↔ door pairing; collecting a key opens its door
	Collected bool
	Opened    bool
	Triggered bool
}

// Level is the static maze: wall layout plus entities. Each peer holds its
// own copy; flag flips are replicated through broadcasts, never shared
// memory.
type Level struct {
	layout   []string
	Entities []*Entity
}

const (
	wallGlyph = '#'

	// TimePenaltySeconds is docked from the clock by a TIME_PENALTY trap.
	TimePenaltySeconds = 30

	// GameSeconds is the countdown both peers start from.
	GameSeconds = 300
)

// StartPos is where both avatars spawn.
var StartPos = Position{X: 1, Y: 1}

var mazeLayout = []string{
	"####################",
	"#                  #",
	"#  #######  #####  #",
	"#  #     #  #   #  #",
	"#  #  ####  # # #  #",
	"#  #  #     # # #  #",
	"#  #  ####  ### #  #",
	"#  #            #  #",
	"#  #######  #####  #",
	"#        #  #      #",
	"#######  #  #  #####",
	"#     #  #  #      #",
	"#  ####  #  #####  #",
	"#                  #",
	"####################",
}

// NewLevel builds a fresh copy of the fixed level. Entities are freshly
// allocated so one session's flag flips never leak into another.
func NewLevel() *Level {
	return &Level{
		layout: mazeLayout,
		Entities: []*Entity{
			{ID: "k1", Type: EntityKey, Pos: Position{X: 18, Y: 3}, Color: "#3b82f6", PairID: "d1"},
			{ID: "d1", Type: EntityDoor, Pos: Position{X: 10, Y: 7}, Color: "#3b82f6", PairID: "k1"},

			{ID: "h1", Type: EntityHazard, Hazard: HazardTimePenalty, Pos: Position{X: 5, Y: 5}},
			{ID: "h2", Type: EntityHazard, Hazard: HazardInstantDeath, Pos: Position{X: 15, Y: 4}},
			{ID: "h3", Type: EntityHazard, Hazard: HazardTimePenalty, Pos: Position{X: 8, Y: 12}},

			{ID: "k2", Type: EntityKey, Pos: Position{X: 2, Y: 12}, Color: "#ef4444", PairID: "d2"},
			{ID: "d2", Type: EntityDoor, Pos: Position{X: 15, Y: 10}, Color: "#ef4444", PairID: "k2"},
			{ID: "g1", Type: EntityGoal, Pos: Position{X: 18, Y: 13}},
		},
	}
}

// Rows and Cols give the grid dimensions.
func (l *Level) Rows() int { return len(l.layout) }
func (l *Level) Cols() int { return len(l.layout[0]) }

// Layout exposes the wall layout for rendering.
func (l *Level) Layout() []string { return l.layout }

// Wall reports whether the cell is outside the grid or a wall glyph.
func (l *Level) Wall(p Position) bool {
	if p.Y < 0 || p.Y >= l.Rows() || p.X < 0 || p.X >= l.Cols() {
		return true
	}
	return l.layout[p.Y][p.X] == wallGlyph
}

// EntityAt returns the entity occupying the cell, if any.
func (l *Level) EntityAt(p Position) *Entity {
	for _, e := range l.Entities {
		if e.Pos == p {
			return e
		}
	}
	return nil
}

// EntityByID looks an entity up by id.
func (l *Level) EntityByID(id string) *Entity {
	for _, e := range l.Entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}
