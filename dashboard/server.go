// Package dashboard serves trade-ledger aggregates over HTTP: PnL over
// time, net open quantity per symbol, and the most recent no-buy
// reasons. It reads the ledger; it never writes it.
package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/momentum/journal"
)

const recentNoBuyCount = 10

// Server exposes ledger aggregates and prometheus metrics.
type Server struct {
	store  journal.Reader
	log    zerolog.Logger
	router *mux.Router
}

func NewServer(store journal.Reader, log zerolog.Logger) *Server {
	s := &Server{store: store, log: log, router: mux.NewRouter()}

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/api/trades", s.handleTrades).Methods(http.MethodGet)
	s.router.HandleFunc("/api/pnl", s.handlePnL).Methods(http.MethodGet)
	s.router.HandleFunc("/api/positions", s.handlePositions).Methods(http.MethodGet)
	s.router.HandleFunc("/api/nobuy", s.handleNoBuy).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks serving the dashboard on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info().Str("addr", addr).Msg("dashboard listening")
	return http.ListenAndServe(addr, s)
}

func (s *Server) handleTrades(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListTrades()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, recs)
}

func (s *Server) handlePnL(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListTrades()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, map[string]any{
		"series": journal.PnLSeries(recs),
		"latest": journal.LatestPnL(recs),
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListTrades()
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, journal.OpenQuantities(recs))
}

func (s *Server) handleNoBuy(w http.ResponseWriter, r *http.Request) {
	recs, err := s.store.ListTrades()
	if err != nil {
		s.fail(w, err)
		return
	}
	noBuys := journal.RecentNoBuys(recs, recentNoBuyCount)
	if noBuys == nil {
		noBuys = []journal.TradeRecord{}
	}
	s.respond(w, noBuys)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) respond(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("ledger read failed")
	http.Error(w, "ledger read failed", http.StatusInternalServerError)
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>Momentum Bot Dashboard</title></head>
<body>
<h1>Momentum Bot Dashboard</h1>
<ul>
  <li><a href="/api/trades">Trade history</a></li>
  <li><a href="/api/pnl">PnL over time</a></li>
  <li><a href="/api/positions">Open positions</a></li>
  <li><a href="/api/nobuy">Recent no-buy reasons</a></li>
  <li><a href="/metrics">Metrics</a></li>
</ul>
</body>
</html>
`
