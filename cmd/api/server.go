package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"poupa/internal/infrastructure/postgres/listener"
	"poupa/internal/interfaces/scheduler"
	"poupa/internal/shared/config"
	"poupa/internal/shared/middleware"
)

// Servers holds the API server and, when TLS redirection is on, the plain
// HTTP server on :80 that bounces clients to HTTPS.
type Servers struct {
	api      *http.Server
	redirect *http.Server
	tls      bool
	certPath string
	keyPath  string
}

func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// NewServers builds the servers described by cfg without starting them.
func NewServers(handler http.Handler, cfg *config.Config) *Servers {
	s := &Servers{
		api:      newHTTPServer(cfg.Server.Host+":"+cfg.Server.Port, handler),
		tls:      cfg.TLS.Enabled,
		certPath: cfg.TLS.CertPath,
		keyPath:  cfg.TLS.KeyPath,
	}
	if cfg.TLS.Enabled && cfg.TLS.RedirectHTTP {
		s.redirect = newHTTPServer(":80", middleware.RedirectToHTTPS(cfg.Server.AllowedHosts))
	}
	return s
}

// Start launches the servers in the background. A listener failure is
// reported on the returned channel.
func (s *Servers) Start() <-chan error {
	errs := make(chan error, 2)

	if s.redirect != nil {
		go func() {
			log.Println("HTTP redirect server starting on :80")
			if err := s.redirect.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("redirect server: %w", err)
			}
		}()
	}

	go func() {
		var err error
		if s.tls {
			log.Printf("HTTPS server starting on %s", s.api.Addr)
			err = s.api.ListenAndServeTLS(s.certPath, s.keyPath)
		} else {
			log.Printf("HTTP server starting on %s", s.api.Addr)
			err = s.api.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("api server: %w", err)
		}
	}()

	return errs
}

// Shutdown stops accepting requests, then stops the background workers so no
// in-flight request loses its goal refresh.
func (s *Servers) Shutdown(timeout time.Duration, sched *scheduler.Scheduler, savings *listener.SavingsListener) {
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if s.redirect != nil {
		if err := s.redirect.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down HTTP redirect server: %v", err)
		}
	}
	if err := s.api.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down main server: %v", err)
	}

	if sched != nil {
		sched.Shutdown(timeout)
	}
	if savings != nil {
		savings.Stop()
	}

	log.Println("Server stopped")
}
