/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package shared

// InputMapper translates raw key names into control flags for one role.
// The horizontal player's arrow keys steer left/right, with the vertical
// arrows repurposed as jump and crouch; the vertical player is the mirror
// image. Space and Shift act as jump and crouch for both roles.
type InputMapper interface {
	// Map returns the control flag a key drives, or "" if the key does
	// nothing for this role.
	Map(key string) string
	// OwnsFlag reports whether this role's steps react to the flag
	// directly (a movement flag) rather than via the shared jump/crouch
	// modifiers.
	OwnsFlag(flag string) bool
}

// MapperForRole returns the key mapping for a role.
func MapperForRole(r Role) InputMapper {
	if r == Horizontal {
		return horizontalMapper{}
	}
	return verticalMapper{}
}

type horizontalMapper struct{}

func (horizontalMapper) Map(key string) string {
	switch key {
	case "ArrowLeft", "a":
		return "left"
	case "ArrowRight", "d":
		return "right"
	case "ArrowUp", "w":
		return "jump"
	case "ArrowDown", "s":
		return "crouch"
	case " ", "Space":
		return "jump"
	case "Shift":
		return "crouch"
	}
	return ""
}

func (horizontalMapper) OwnsFlag(flag string) bool {
	return flag == "left" || flag == "right"
}

type verticalMapper struct{}

func (verticalMapper) Map(key string) string {
	switch key {
	case "ArrowUp", "w":
		return "up"
	case "ArrowDown", "s":
		return "down"
	case "ArrowLeft", "a":
		return "jump"
	case "ArrowRight", "d":
		return "crouch"
	case " ", "Space":
		return "jump"
	case "Shift":
		return "crouch"
	}
	return ""
}

func (verticalMapper) OwnsFlag(flag string) bool {
	return flag == "up" || flag == "down"
}
