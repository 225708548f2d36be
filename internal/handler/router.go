package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the prediction function together with health and metrics endpoints
func NewRouter(predict http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/predictLoan", predict)
	mux.Handle("/", predict)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	return RequestID(mux)
}
