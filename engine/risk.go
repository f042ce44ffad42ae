package engine

import "errors"

// ErrDailyLossLimit is returned by the engine when the governor latches.
var ErrDailyLossLimit = errors.New("daily loss limit breached")

type governorState int

const (
	stateRunning governorState = iota
	stateHalted
)

// Governor tracks the realized-PnL accumulator and latches a halt once it
// falls below the configured loss limit (a negative threshold).
//
// The accumulator has no automatic reset: it grows for the process
// lifetime and only Reset, driven by an explicit external signal such as
// an operator restart decision, returns the governor to running.
type Governor struct {
	limit float64
	pnl   float64
	state governorState
}

// NewGovernor creates a governor with the given loss limit. The limit is
// expected to be negative; trading halts when the accumulator drops
// below it.
func NewGovernor(limit float64) *Governor {
	return &Governor{limit: limit}
}

// Add applies a realized PnL delta and returns the updated accumulator.
// Only realized sells ever change the accumulator.
func (g *Governor) Add(delta float64) float64 {
	g.pnl += delta
	if g.pnl < g.limit {
		g.state = stateHalted
	}
	return g.pnl
}

// PnL returns the current accumulator value.
func (g *Governor) PnL() float64 {
	return g.pnl
}

// Halted reports whether the loss limit has latched. Once latched it
// stays latched regardless of later gains.
func (g *Governor) Halted() bool {
	return g.state == stateHalted
}

// Reset clears the accumulator and the halt latch. Nothing in the engine
// calls this; it exists as the documented recovery transition.
func (g *Governor) Reset() {
	g.pnl = 0
	g.state = stateRunning
}
