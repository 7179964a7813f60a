package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa/merchant"
)

// Server is the HTTP bridge exposing merchant operations as JSON.
type Server struct {
	port     int
	merchant *merchant.Client
	logger   *otelzap.Logger
	gatherer prometheus.Gatherer
}

// Config holds server configuration.
type Config struct {
	Port int
	// Gatherer serves /metrics. Nil means the default gatherer.
	Gatherer prometheus.Gatherer
}

// New creates a new server instance.
func New(cfg Config, client *merchant.Client, logger *otelzap.Logger) *Server {
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		port:     cfg.Port,
		merchant: client,
		logger:   logger,
		gatherer: gatherer,
	}
}

// Handler returns the routed handler of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /shipping-methods", s.handleShippingMethods)
	mux.HandleFunc("GET /additional-services", s.handleAdditionalServices)
	mux.HandleFunc("GET /pickup-points", s.handlePickupPoints)
	mux.HandleFunc("GET /shipments/{code}/status", s.handleShipmentStatus)
	mux.HandleFunc("POST /shipments", s.handleCreateShipment)
	mux.HandleFunc("POST /labels", s.handleShippingLabel)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// ============================================================================
// Handlers
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleShippingMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.merchant.ShippingMethods(r.Context(), r.URL.Query().Get("lang"))
	s.respond(w, r, methods, err)
}

func (s *Server) handleAdditionalServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.merchant.AdditionalServices(r.Context(), r.URL.Query().Get("lang"))
	s.respond(w, r, services, err)
}

func (s *Server) handlePickupPoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := merchant.PickupPointQuery{
		PostalCode:      q.Get("postcode"),
		Country:         q.Get("country"),
		StreetAddress:   q.Get("address"),
		ServiceProvider: q.Get("provider"),
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			s.writeError(w, r, pakettikauppa.InvalidField("limit").WithCause(err))
			return
		}
		query.Limit = n
	}

	points, err := s.merchant.SearchPickupPoints(r.Context(), query)
	s.respond(w, r, points, err)
}

func (s *Server) handleShipmentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.merchant.ShipmentStatus(r.Context(), r.PathValue("code"))
	s.respond(w, r, status, err)
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := merchant.ParseShipmentRequest(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.merchant.CreateShipment(r.Context(), req)
	s.respond(w, r, result, err)
}

func (s *Server) handleShippingLabel(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := merchant.ParseLabelRequest(data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.merchant.ShippingLabel(r.Context(), req)
	s.respond(w, r, result, err)
}

// ============================================================================
// Encoding
// ============================================================================

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Field string `json:"field,omitempty"`
}

func decodeBody(r *http.Request) (map[string]any, error) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "invalid JSON body").WithCause(err)
	}
	return data, nil
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var perr *pakettikauppa.Error
	if errors.As(err, &perr) {
		resp.Kind = string(perr.Kind)
		resp.Field = perr.Field
	}

	if status >= http.StatusInternalServerError {
		s.logger.Ctx(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	writeJSON(w, status, resp)
}

// statusFor maps error kinds to HTTP status codes.
func statusFor(err error) int {
	switch pakettikauppa.KindOf(err) {
	case pakettikauppa.KindInput,
		pakettikauppa.KindMissingField,
		pakettikauppa.KindTooFewFields,
		pakettikauppa.KindInvalidField,
		pakettikauppa.KindInvalidCode:
		return http.StatusBadRequest
	case pakettikauppa.KindTransport, pakettikauppa.KindParse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
