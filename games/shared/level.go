/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package shared implements the Shared Control obstacle course: one avatar,
// two players, each steering exactly one axis. Walls, hurdles and low beams
// force the pair to coordinate jumping and crouching out of band.
package shared

// ObstacleType classifies static level geometry.
type ObstacleType int

const (
	Wall ObstacleType = iota
	Hurdle
	LowBeam
)

func (t ObstacleType) String() string {
	switch t {
	case Wall:
		return "WALL"
	case Hurdle:
		return "HURDLE"
	case LowBeam:
		return "LOW_BEAM"
	default:
		return "UNKNOWN"
	}
}

// Rect is an axis-aligned rectangle in world pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Overlaps reports AABB intersection.
func (r Rect) Overlaps(o Rect) bool {
	return r.X+r.W > o.X && r.X < o.X+o.W && r.Y+r.H > o.Y && r.Y < o.Y+o.H
}

// Obstacle is one piece of level geometry. Obstacles never move or change
// during a session.
type Obstacle struct {
	Rect
	Type ObstacleType `json:"type"`
}

// Position is the avatar's top-left corner in world pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

const (
	// WorldWidth and WorldHeight bound the playfield.
	WorldWidth  = 800
	WorldHeight = 500

	// PlayerSize is the avatar's square edge length.
	PlayerSize = 30

	// StepSize is how far one key press moves the avatar along its
	// owner's axis. Movement is discrete steps, not velocity integration.
	StepSize = 10

	// GameSeconds is the countdown both peers start from.
	GameSeconds = 60
)

// StartPos is where the avatar spawns.
var StartPos = Position{X: 60, Y: 60}

// Level is the fixed course. It never mutates, but each peer still gets its
// own copy for symmetry with the maze game.
type Level struct {
	Obstacles []Obstacle
	Goal      Rect
}

// NewLevel builds the fixed course.
func NewLevel() *Level {
	return &Level{
		Obstacles: []Obstacle{
			// Outer walls.
			{Rect{0, 0, 800, 20}, Wall},
			{Rect{0, 480, 800, 20}, Wall},
			{Rect{0, 0, 20, 500}, Wall},
			{Rect{780, 0, 20, 500}, Wall},

			// Maze walls.
			{Rect{150, 20, 20, 300}, Wall},
			{Rect{300, 180, 20, 320}, Wall},
			{Rect{450, 20, 20, 300}, Wall},
			{Rect{600, 180, 20, 320}, Wall},

			// Hurdles, passable while jumping.
			{Rect{170, 200, 130, 20}, Hurdle},
			{Rect{470, 100, 130, 20}, Hurdle},

			// Low beams, passable while crouching.
			{Rect{20, 350, 130, 20}, LowBeam},
			{Rect{620, 300, 160, 20}, LowBeam},
		},
		Goal: Rect{X: 740, Y: 440, W: 40, H: 40},
	}
}
