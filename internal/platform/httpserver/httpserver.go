package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. A compliance check can ride out a full
// ordinance fetch plus the single-flight wait bound, so the write timeout
// must cover both with headroom.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
