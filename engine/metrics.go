package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	metricTicks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "momentum_ticks_processed_total",
		Help: "Price events consumed by the decision engine"})
	metricTickFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "momentum_tick_failures_total",
		Help: "Ticks aborted by a logged failure"})
	metricQuoteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "momentum_quote_fetch_failures_total",
		Help: "Quote feed polling cycles that failed"})
	metricEventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "momentum_events_dropped_total",
		Help: "Price events dropped because the channel was full"})
	metricBuys = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "momentum_buys_total",
		Help: "Market buy orders submitted"})
	metricSells = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "momentum_sells_total",
		Help: "Market sell orders submitted"})
	metricNoBuys = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "momentum_no_buys_total",
		Help: "Qualified momentum rejected by a non-gain guard"})
	metricOrderFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "momentum_order_failures_total",
		Help: "Order submissions rejected by the gateway"})
	metricDailyPnL = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "momentum_daily_pnl",
		Help: "Realized PnL accumulator"})
	metricEngineState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "momentum_engine_state",
		Help: "0=running, 1=halted"})
)

func init() {
	prometheus.MustRegister(
		metricTicks, metricTickFailures, metricQuoteFailures, metricEventsDropped,
		metricBuys, metricSells, metricNoBuys, metricOrderFailures,
		metricDailyPnL, metricEngineState,
	)
}
