/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package shared

// Role is one of the two control partitions: one peer steers the avatar
// horizontally, the other vertically. Each peer is the sole writer of its
// axis, which is what makes the whole synchronization scheme conflict-free.
type Role int

const (
	Horizontal Role = iota
	Vertical
)

func (r Role) String() string {
	if r == Horizontal {
		return "HORIZONTAL"
	}
	return "VERTICAL"
}

// RoleFromIndex maps a presence-sorted index to a role: the
// lexicographically first player id steers horizontally.
func RoleFromIndex(i int) Role {
	if i == 0 {
		return Horizontal
	}
	return Vertical
}

// OwnsX reports whether this role is the authoritative writer of the X
// axis.
func (r Role) OwnsX() bool { return r == Horizontal }

// InputState is the full set of control flags. Jump and crouch are global:
// the simulation ORs the local and remote values, so either player can
// hold them for both.
type InputState struct {
	Left   bool `json:"left"`
	Right  bool `json:"right"`
	Up     bool `json:"up"`
	Down   bool `json:"down"`
	Jump   bool `json:"jump"`
	Crouch bool `json:"crouch"`
}

// Partial is a sparse input update: only the flags present are applied.
// Merging is last-value-wins, so replayed or re-ordered updates converge.
type Partial map[string]bool

// Apply merges a partial update into the state. Unknown flags are ignored.
func (s *InputState) Apply(p Partial) {
	for flag, v := range p {
		switch flag {
		case "left":
			s.Left = v
		case "right":
			s.Right = v
		case "up":
			s.Up = v
		case "down":
			s.Down = v
		case "jump":
			s.Jump = v
		case "crouch":
			s.Crouch = v
		}
	}
}

// Engine advances the shared avatar through the course. Each peer runs its
// own engine; the synchronizer keeps the non-owned axis honest.
type Engine struct {
	level *Level
	pos   Position
	won   bool
}

// NewEngine spawns the avatar at the start position.
func NewEngine(level *Level) *Engine {
	return &Engine{level: level, pos: StartPos}
}

// Pos returns the avatar position.
func (e *Engine) Pos() Position { return e.pos }

// Level exposes the course for rendering.
func (e *Engine) Level() *Level { return e.level }

// blocked reports whether the avatar box at (x, y) is stopped by any
// obstacle given the current jump/crouch booleans.
func (e *Engine) blocked(x, y float64, jumping, crouching bool) bool {
	box := Rect{X: x, Y: y, W: PlayerSize, H: PlayerSize}
	for _, obs := range e.level.Obstacles {
		if !box.Overlaps(obs.Rect) {
			continue
		}
		switch obs.Type {
		case Wall:
			return true
		case Hurdle:
			if !jumping {
				return true
			}
		case LowBeam:
			if !crouching {
				return true
			}
		}
	}
	return false
}

// StepX moves one discrete step along X. The Y axis is left untouched, so
// being blocked on one axis never prevents sliding along the other.
// Reports whether the step committed.
func (e *Engine) StepX(dx float64, jumping, crouching bool) bool {
	if e.blocked(e.pos.X+dx, e.pos.Y, jumping, crouching) {
		return false
	}
	e.pos.X += dx
	return true
}

// StepY moves one discrete step along Y.
func (e *Engine) StepY(dy float64, jumping, crouching bool) bool {
	if e.blocked(e.pos.X, e.pos.Y+dy, jumping, crouching) {
		return false
	}
	e.pos.Y += dy
	return true
}

// SetX overwrites the X coordinate with an authoritative remote value.
func (e *Engine) SetX(x float64) { e.pos.X = x }

// SetY overwrites the Y coordinate with an authoritative remote value.
func (e *Engine) SetY(y float64) { e.pos.Y = y }

// AtGoal reports bounding-box overlap with the goal rectangle.
func (e *Engine) AtGoal() bool {
	box := Rect{X: e.pos.X, Y: e.pos.Y, W: PlayerSize, H: PlayerSize}
	return box.Overlaps(e.level.Goal)
}

// WinOnce returns true the first time the avatar reaches the goal and
// never again, so the win callback cannot double-fire.
func (e *Engine) WinOnce() bool {
	if e.won || !e.AtGoal() {
		return false
	}
	e.won = true
	return true
}
