/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package shared

import (
	"math"
	"time"
)

const (
	// SyncInterval is how often each peer rebroadcasts its owned axis.
	SyncInterval = 100 * time.Millisecond

	// CorrectionThreshold is the divergence, in world units, beyond
	// which a received coordinate snaps the local simulation. Smaller
	// drift is tolerated so in-flight steps don't fight the remote.
	CorrectionThreshold = 5.0
)

// SyncPayload carries one axis coordinate. Only the sender's owned axis
// is ever populated.
type SyncPayload struct {
	PlayerID string   `json:"playerId"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
}

// Reconcile returns the authoritative value if it diverges from the local
// one by more than the correction threshold, and the local value
// otherwise. Applying the same authoritative value repeatedly is a no-op
// after the first snap.
func Reconcile(local, authoritative float64) float64 {
	if math.Abs(local-authoritative) > CorrectionThreshold {
		return authoritative
	}
	return local
}
