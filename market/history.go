// market/history.go
package market

// History is a bounded price sequence for one symbol. Appending past
// capacity evicts the oldest sample, so length never exceeds capacity.
type History struct {
	prices []float64
	cap    int
}

// NewHistory creates a History with the given capacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		prices: make([]float64, 0, capacity),
		cap:    capacity,
	}
}

// Append records a price, evicting the oldest sample if full.
func (h *History) Append(price float64) {
	if len(h.prices) == h.cap {
		copy(h.prices, h.prices[1:])
		h.prices = h.prices[:h.cap-1]
	}
	h.prices = append(h.prices, price)
}

// Len returns the number of recorded samples.
func (h *History) Len() int {
	return len(h.prices)
}

// Latest returns the most recent price, if any.
func (h *History) Latest() (float64, bool) {
	if len(h.prices) == 0 {
		return 0, false
	}
	return h.prices[len(h.prices)-1], true
}

// PercentGain returns (latest - previous) / previous. With fewer than two
// samples it returns 0, so a cold start never produces a false signal.
func (h *History) PercentGain() float64 {
	n := len(h.prices)
	if n < 2 {
		return 0
	}
	prev := h.prices[n-2]
	if prev == 0 {
		return 0
	}
	return (h.prices[n-1] - prev) / prev
}
