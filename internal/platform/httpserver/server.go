package httpserver

import (
	"net/http"
	"time"
)

// New constructs an *http.Server with conservative timeouts. Handlers are
// expected to apply their own per-request timeout middleware on top.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
