// market/quote.go
package market

import "time"

// Quote is the best bid/ask for an instrument at a point in time.
type Quote struct {
	Bid  float64
	Ask  float64
	Time time.Time
}

// Mid returns the mid-price, the reference trade price.
func (q Quote) Mid() float64 {
	return (q.Ask + q.Bid) / 2
}

// Spread returns the bid/ask spread.
func (q Quote) Spread() float64 {
	return q.Ask - q.Bid
}

// Bar represents OHLC (Open, High, Low, Close) bar data.
type Bar struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Time   time.Time
}

// PriceEvent is the immutable payload the quote feed producer emits for
// each symbol. Nothing else crosses between producer and consumer.
type PriceEvent struct {
	Symbol string
	Price  float64
	Time   time.Time
}
