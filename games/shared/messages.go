/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package shared

// ChannelName returns the broadcast room for a shared-control session.
func ChannelName(code string) string {
	return "shared_game_" + code
}

// Broadcast event names.
const (
	EventInput     = "input"
	EventSyncPos   = "sync_pos"
	EventGameState = "game_state"
)

// InputPayload replicates a sparse input change to the partner.
type InputPayload struct {
	PlayerID string  `json:"playerId"`
	Input    Partial `json:"input"`
}

// GameStatePayload announces a terminal outcome.
type GameStatePayload struct {
	Type   string `json:"type"`
	Result string `json:"result,omitempty"`
}

const (
	StateGameOver = "GAME_OVER"

	ResultWon  = "WON"
	ResultLost = "LOST"
)
