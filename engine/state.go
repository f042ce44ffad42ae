package engine

import (
	"time"

	"github.com/rustyeddy/momentum/market"
)

// historySize bounds each symbol's price history.
const historySize = 50

// symbolState holds everything the engine tracks per symbol: the bounded
// price history, the cooldown clock, and the latest observed price.
// Owned exclusively by the decision engine; mutated once per consumed
// event, never shared across goroutines.
type symbolState struct {
	history   *market.History
	lastTrade time.Time
	lastPrice float64
	hasPrice  bool
}

type engineState struct {
	symbols map[string]*symbolState
}

func newEngineState(symbols []string) *engineState {
	s := &engineState{symbols: make(map[string]*symbolState, len(symbols))}
	for _, sym := range symbols {
		s.symbols[sym] = &symbolState{history: market.NewHistory(historySize)}
	}
	return s
}

func (s *engineState) symbol(sym string) *symbolState {
	return s.symbols[sym]
}
