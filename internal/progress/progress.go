// Package progress reports batch progress and carries the cooperative stop
// signal polled by resolution workers.
package progress

import "github.com/zulandar/classlive/internal/models"

// Tracker opens one progress handle per phase.
type Tracker interface {
	Start(total int64, phase models.Phase) Handle
}

// Handle is the per-phase reporting surface. Implementations must be safe for
// concurrent use; Finish is called exactly once per Start.
type Handle interface {
	// Advance records delta completed units.
	Advance(delta int64)
	// ShouldContinue is polled before each unit of work is dispatched.
	// Once it returns false no new units are started.
	ShouldContinue() bool
	Finish(phase models.Phase)
}

// Nop is a Tracker that reports nothing and never asks to stop.
type Nop struct{}

// Start implements Tracker.
func (Nop) Start(int64, models.Phase) Handle { return nopHandle{} }

type nopHandle struct{}

func (nopHandle) Advance(int64)        {}
func (nopHandle) ShouldContinue() bool { return true }
func (nopHandle) Finish(models.Phase)  {}
