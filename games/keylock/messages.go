/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package keylock

// ChannelName derives the transport channel from the human-entered room
// code, so any two clients typing the same code rendezvous on the same
// channel.
func ChannelName(roomCode string) string {
	return "game_" + roomCode
}

// Broadcast event names.
const (
	EventPlayerMove = "player_move"
	EventGameEvent  = "game_event"
)

// game_event payload types.
const (
	GameEventSignal       = "SIGNAL"
	GameEventHazardHit    = "HAZARD_HIT"
	GameEventGameOver     = "GAME_OVER"
	GameEventGameWon      = "GAME_WON"
	GameEventKeyCollected = "KEY_COLLECTED"
)

// MovePayload carries one peer's avatar position after a committed step.
// The receiver treats it as a replicated copy only, never as its own
// position.
type MovePayload struct {
	PlayerID string   `json:"playerId"`
	Pos      Position `json:"pos"`
	Role     string   `json:"role"`
}

// GameEventPayload is the shared envelope for all game_event broadcasts.
// Unknown types and missing fields are ignored by receivers.
type GameEventPayload struct {
	Type          string `json:"type"`
	Message       string `json:"message,omitempty"`
	HazardType    string `json:"hazardType,omitempty"`
	PlayerID      string `json:"playerId,omitempty"`
	EntityID      string `json:"entityId,omitempty"`
	Reason        string `json:"reason,omitempty"`
	TimeRemaining int    `json:"timeRemaining,omitempty"`
}
