package http

import (
	"net/http"
	"time"
)

// NewServer leaves room in WriteTimeout for stages that clone or call
// remote services within a single request.
func NewServer(handler http.Handler, addr string, writeTimeout time.Duration) *http.Server {
	if writeTimeout < 10*time.Second {
		writeTimeout = 10 * time.Second
	}

	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}
