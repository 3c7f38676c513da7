// Package server exposes the Shipment Mentor operations over HTTP. Requests
// are validated locally and forwarded through a shipmentmentor.Client.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tournevent/shipmentmentor/internal/telemetry"
	"github.com/tournevent/shipmentmentor/pkg/shipmentmentor"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// ShipmentClient is the subset of *shipmentmentor.Client the server needs.
type ShipmentClient interface {
	SendShipment(ctx context.Context, s *shipmentmentor.Shipment) (json.RawMessage, error)
	UpdateShipment(ctx context.Context, u *shipmentmentor.ShipmentUpdate) (json.RawMessage, error)
	AddTracking(ctx context.Context, t *shipmentmentor.Tracking) (json.RawMessage, error)
}

// Server is the HTTP relay for Shipment Mentor.
type Server struct {
	port     int
	client   ShipmentClient
	logger   *otelzap.Logger
	metrics  *telemetry.Metrics
	registry *prometheus.Registry
}

// Config holds server configuration.
type Config struct {
	Port int
	// Registry receives the server metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// New creates a new server instance.
func New(cfg Config, client ShipmentClient, logger *otelzap.Logger) *Server {
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Server{
		port:     cfg.Port,
		client:   client,
		logger:   logger,
		metrics:  telemetry.NewMetrics(registry),
		registry: registry,
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST "+shipmentmentor.PathShipmentCreate+"{$}",
		relay(s, shipmentmentor.OpSendShipment, shipmentmentor.DecodeShipment, s.client.SendShipment))
	mux.HandleFunc("POST "+shipmentmentor.PathShipmentUpdate+"{$}",
		relay(s, shipmentmentor.OpUpdateShipment, shipmentmentor.DecodeShipmentUpdate, s.client.UpdateShipment))
	mux.HandleFunc("POST "+shipmentmentor.PathTrackingAdd+"{$}",
		relay(s, shipmentmentor.OpAddTracking, shipmentmentor.DecodeTracking, s.client.AddTracking))

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

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// relay decodes the request body strictly, forwards it and writes the
// result using the same envelope format as the remote service.
func relay[T any](
	s *Server,
	op string,
	decode func(io.Reader) (*T, error),
	call func(context.Context, *T) (json.RawMessage, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.New().String()
		w.Header().Set("X-Request-ID", requestID)

		ctx := r.Context()
		log := s.logger.Ctx(ctx)

		result, err := func() (json.RawMessage, error) {
			payload, err := decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				return nil, err
			}
			return call(ctx, payload)
		}()

		elapsed := time.Since(start).Seconds()
		if err != nil {
			kind := shipmentmentor.KindOf(err)
			s.metrics.RecordRequest(op, "error", elapsed)
			s.metrics.RecordError(op, string(kind))
			log.Warn("Relay call failed",
				zap.String("operation", op),
				zap.String("request_id", requestID),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			writeEnvelope(w, statusForKind(kind), shipmentmentor.Envelope{
				Status:  shipmentmentor.StatusFailed,
				Message: errorMessage(err),
			})
			return
		}

		s.metrics.RecordRequest(op, "success", elapsed)
		log.Info("Relay call succeeded",
			zap.String("operation", op),
			zap.String("request_id", requestID),
			zap.Float64("duration_seconds", elapsed),
		)
		writeEnvelope(w, http.StatusOK, shipmentmentor.Envelope{
			Status:  shipmentmentor.StatusSuccess,
			Payload: result,
		})
	}
}

func statusForKind(kind shipmentmentor.Kind) int {
	switch kind {
	case shipmentmentor.KindValidation:
		return http.StatusBadRequest
	case shipmentmentor.KindConfiguration:
		return http.StatusServiceUnavailable
	case shipmentmentor.KindRemote:
		return http.StatusUnprocessableEntity
	case shipmentmentor.KindTransport, shipmentmentor.KindMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage prefers the bare message of a shipmentmentor error so relay
// clients see the same text the remote service produced.
func errorMessage(err error) string {
	var smErr *shipmentmentor.Error
	if errors.As(err, &smErr) && smErr.Message != "" {
		return smErr.Message
	}
	return err.Error()
}

func writeEnvelope(w http.ResponseWriter, status int, env shipmentmentor.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}
