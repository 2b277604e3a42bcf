package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Ledger operations are short-lived, so the read
// window stays tight; the write window outlives the router's 30s per-request
// timeout so timeout responses still reach the client.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
