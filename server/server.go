// Package server exposes the clerk crawler over HTTP
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"clerkconnect/clerk"
	"clerkconnect/record"
)

// Service is what the handlers need from the crawler
type Service interface {
	Search(ctx context.Context, query string, limit int) ([]clerk.Row, error)
	Record(ctx context.Context, fileNumber string) (*record.Record, error)
	Crawl(ctx context.Context, query string, limit int) (*CrawlResponse, error)
	Status() Status
}

// CrawlResponse is the body of /crawl
type CrawlResponse struct {
	Query   string           `json:"query"`
	Stats   clerk.Stats      `json:"stats"`
	Records []*record.Record `json:"records"`

	// Partial is set when the request timed out before every result was extracted
	Partial bool   `json:"partial,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Status is reported by /health
type Status struct {
	Status    string `json:"status"`
	TabsInUse int    `json:"tabs_in_use"`
	TabsTotal int    `json:"tabs_total"`
	Cache     bool   `json:"cache"`
}

// Router registers every route on a fresh mux router
func Router(svc Service) *mux.Router {
	h := &handler{svc: svc}

	router := mux.NewRouter()
	router.HandleFunc("/search/{query}", h.search).Methods(http.MethodGet)
	router.HandleFunc("/record/{fileNumber}", h.record).Methods(http.MethodGet)
	router.HandleFunc("/crawl/{query}", h.crawl).Methods(http.MethodGet)
	router.HandleFunc("/health", h.health).Methods(http.MethodGet)
	return router
}

// Handler wraps the router with recovery, compression, CORS and access logging
func Handler(svc Service) http.Handler {
	var h http.Handler = Router(svc)
	h = handlers.CompressHandler(h)
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodOptions}),
	)(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)(h)
	return handlers.CustomLoggingHandler(io.Discard, h, accessLog)
}

// New builds the HTTP server listening on addr. Request deadlines are left to
// svc so a timed out crawl can still answer with what it extracted.
func New(addr string, svc Service) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           Handler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func accessLog(_ io.Writer, p handlers.LogFormatterParams) {
	slog.Info("request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"size", p.Size,
		"duration", time.Since(p.TimeStamp),
	)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("panic serving request", "err", fmt.Sprint(v...))
}

// statusFor maps a crawl error to the HTTP status returned to the client
func statusFor(err error) int {
	switch {
	case errors.Is(err, clerk.ErrNoDetail):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
