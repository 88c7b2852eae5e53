/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package shared

import (
	"math/rand"
	"testing"
)

func TestReconcileSnapsOnlyBeyondThreshold(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name          string
		local         float64
		authoritative float64
		want          float64
	}{
		{"identical", 100, 100, 100},
		{"small drift kept", 100, 104, 100},
		{"threshold exactly kept", 100, 105, 100},
		{"just past threshold snaps", 100, 105.1, 105.1},
		{"full step snaps", 100, 110, 110},
		{"negative drift snaps", 100, 94, 94},
	}
	for _, c := range cases {
		if got := Reconcile(c.local, c.authoritative); got != c.want {
			t.Errorf("%s: Reconcile(%v, %v) = %v, want %v", c.name, c.local, c.authoritative, got, c.want)
		}
	}
}

func TestReconcileIdempotent(t *testing.T) {
	t.Parallel()

	local := Reconcile(100, 120)
	if local != 120 {
		t.Fatalf("first correction = %v, want 120", local)
	}
	if got := Reconcile(local, 120); got != 120 {
		t.Fatalf("repeated correction moved the value to %v", got)
	}
}

// Random walks on one axis always land within threshold after a single
// authoritative update, no matter how far the two simulations drifted.
func TestReconcileConvergesRandomWalks(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		local := 400 + float64(rng.Intn(81)-40)*StepSize
		authoritative := 400 + float64(rng.Intn(81)-40)*StepSize

		got := Reconcile(local, authoritative)
		if diff := got - authoritative; diff > CorrectionThreshold || diff < -CorrectionThreshold {
			t.Fatalf("iteration %d: local %v vs authoritative %v left residual %v", i, local, authoritative, diff)
		}
	}
}
