// Package httpserver builds the API server with timeouts sized for the
// evaluation pipeline.
package httpserver

import (
	"net/http"
	"time"
)

// Write timeout leaves headroom over the ledger's 10s persist deadline
// so a slow write surfaces as a coded timeout, not a dropped connection.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
)

// New builds the HTTP server serving the case evaluation API.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
