package httpserver

import (
	"net/http"

	"voltcity/internal/metrics"
)

// Routes groups handlers.
type Routes struct {
	StartCharge    http.HandlerFunc
	FinishCharge   http.HandlerFunc
	TransactionsMe http.HandlerFunc
	WalletMe       http.HandlerFunc
	WalletTopUp    http.HandlerFunc
	StationsList   http.HandlerFunc
	StationsStats  http.HandlerFunc
	ToggleStation  http.HandlerFunc
	StationFeed    http.HandlerFunc
	Metrics        http.Handler
	Health         http.HandlerFunc
}

// NewRouter registers endpoints.
func NewRouter(routes Routes) http.Handler {
	mux := http.NewServeMux()
	if routes.StartCharge != nil {
		mux.Handle("/charge", method(http.MethodPost, timed("/charge", routes.StartCharge)))
	}
	if routes.FinishCharge != nil {
		mux.Handle("/charge/finish", method(http.MethodPost, timed("/charge/finish", routes.FinishCharge)))
	}
	if routes.TransactionsMe != nil {
		mux.Handle("/transactions/me", method(http.MethodGet, timed("/transactions/me", routes.TransactionsMe)))
	}
	if routes.WalletMe != nil {
		mux.Handle("/wallet/me", method(http.MethodGet, timed("/wallet/me", routes.WalletMe)))
	}
	if routes.WalletTopUp != nil {
		mux.Handle("/wallet/topup", method(http.MethodPost, timed("/wallet/topup", routes.WalletTopUp)))
	}
	if routes.StationsList != nil {
		mux.Handle("/stations", method(http.MethodGet, timed("/stations", routes.StationsList)))
	}
	if routes.StationsStats != nil {
		mux.Handle("/stations/stats", method(http.MethodGet, timed("/stations/stats", routes.StationsStats)))
	}
	if routes.ToggleStation != nil {
		mux.Handle("/stations/toggle", method(http.MethodPost, timed("/stations/toggle", routes.ToggleStation)))
	}
	if routes.StationFeed != nil {
		// Feed connections are long-lived, so the latency histogram skips them.
		mux.Handle("/ws/stations", method(http.MethodGet, routes.StationFeed))
	}
	if routes.Metrics != nil {
		mux.Handle("/metrics", routes.Metrics)
	}
	if routes.Health != nil {
		mux.Handle("/health", method(http.MethodGet, timed("/health", routes.Health)))
	}
	return mux
}

func method(expected string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != expected {
			w.Header().Set("Allow", expected)
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}
}

func timed(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.RequestTimer(r.Method, endpoint)
		defer timer.ObserveDuration()
		handler(w, r)
	}
}
