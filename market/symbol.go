// market/symbol.go
package market

import (
	"fmt"
	"strings"
)

// Symbols come in two surface forms: the canonical slash form used for
// quotes and orders ("BTC/USD") and the compact form the brokerage uses
// for position records ("BTCUSD").

// Compact converts a canonical symbol to its compact form.
func Compact(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// AssetMap is the bidirectional mapping between the two symbol forms for
// a configured symbol set. Every configured symbol has exactly one entry
// in each direction.
type AssetMap struct {
	canonical map[string]string // compact -> canonical
	compact   map[string]string // canonical -> compact
}

// NewAssetMap builds the mapping for the given canonical symbols.
func NewAssetMap(symbols []string) (*AssetMap, error) {
	m := &AssetMap{
		canonical: make(map[string]string, len(symbols)),
		compact:   make(map[string]string, len(symbols)),
	}
	for _, s := range symbols {
		c := Compact(s)
		if prev, ok := m.canonical[c]; ok && prev != s {
			return nil, fmt.Errorf("symbols %q and %q collide on compact form %q", prev, s, c)
		}
		m.canonical[c] = s
		m.compact[s] = c
	}
	return m, nil
}

// Canonical resolves a compact position symbol back to its canonical form.
func (m *AssetMap) Canonical(compact string) (string, bool) {
	s, ok := m.canonical[compact]
	return s, ok
}

// Compact resolves a canonical symbol to its compact form.
func (m *AssetMap) Compact(symbol string) (string, bool) {
	c, ok := m.compact[symbol]
	return c, ok
}

// Symbols returns the canonical symbol set.
func (m *AssetMap) Symbols() []string {
	out := make([]string, 0, len(m.compact))
	for s := range m.compact {
		out = append(out, s)
	}
	return out
}
