package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tournevent/skynet/internal/telemetry"
	"github.com/tournevent/skynet/pkg/skynet"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Server is the HTTP bridge in front of the Skynet client.
type Server struct {
	port        int
	concurrency int
	client      *skynet.Client
	logger      *otelzap.Logger
	metrics     *telemetry.Metrics
}

// Config holds server configuration.
type Config struct {
	Port int

	// TrackConcurrency bounds parallel tracking calls for batch requests.
	TrackConcurrency int
}

// New creates a new server instance.
func New(cfg Config, client *skynet.Client, logger *otelzap.Logger) *Server {
	return &Server{
		port:        cfg.Port,
		concurrency: cfg.TrackConcurrency,
		client:      client,
		logger:      logger,
		metrics:     telemetry.NewMetrics(),
	}
}

// Metrics returns the server's metrics.
func (s *Server) Metrics() *telemetry.Metrics {
	return s.metrics
}

// Handler returns the bridge routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("POST /v1/validate", s.handleOperation(skynet.OpValidateSuburb, bodyParams))
	mux.HandleFunc("POST /v1/postal-codes", s.handleOperation(skynet.OpPostalCodes, bodyParams))
	mux.HandleFunc("POST /v1/quote", s.handleOperation(skynet.OpQuote, bodyParams))
	mux.HandleFunc("POST /v1/eta", s.handleOperation(skynet.OpDeliveryETA, bodyParams))
	mux.HandleFunc("POST /v1/waybills", s.handleOperation(skynet.OpCreateWaybill, bodyParams))
	mux.HandleFunc("GET /v1/waybills/{number}/pod", s.handleOperation(skynet.OpWaybillPOD, waybillParams))
	mux.HandleFunc("GET /v1/waybills/{number}/tracking", s.handleOperation(skynet.OpTrackWaybill, waybillParams))
	mux.HandleFunc("POST /v1/tracking", s.handleTrackBatch)

	return mux
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting server", zap.Int("port", s.port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
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

type errorResponse struct {
	Error string `json:"error"`
}

// paramsFunc extracts operation parameters from a request.
type paramsFunc func(w http.ResponseWriter, r *http.Request) (skynet.Params, error)

func bodyParams(w http.ResponseWriter, r *http.Request) (skynet.Params, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var p skynet.Params
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if p == nil {
		p = skynet.Params{}
	}
	return p, nil
}

func waybillParams(_ http.ResponseWriter, r *http.Request) (skynet.Params, error) {
	return skynet.Params{"waybill-number": r.PathValue("number")}, nil
}

func (s *Server) handleOperation(op string, params paramsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := params(w, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		start := time.Now()
		resp, err := s.client.Invoke(r.Context(), op, p)
		duration := time.Since(start).Seconds()

		if err != nil {
			status, errType := classifyError(err)
			s.metrics.RecordRequest(op, "error", duration)
			s.metrics.RecordError(op, errType)
			s.logger.Ctx(r.Context()).Warn("Skynet operation failed",
				zap.String("operation", op),
				zap.String("error_type", errType),
				zap.Error(err),
			)
			writeError(w, status, err)
			return
		}

		s.metrics.RecordRequest(op, skynet.StatusClass(resp.Status()), duration)
		relay(w, resp)
	}
}

type trackBatchRequest struct {
	WaybillNumbers []string `json:"waybill-numbers"`
}

type trackBatchResult struct {
	WaybillNumber string          `json:"waybill-number"`
	Status        int             `json:"status,omitempty"`
	Body          json.RawMessage `json:"body,omitempty"`
	Error         string          `json:"error,omitempty"`
}

func (s *Server) handleTrackBatch(w http.ResponseWriter, r *http.Request) {
	var req trackBatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if len(req.WaybillNumbers) == 0 {
		writeError(w, http.StatusBadRequest, &skynet.FieldError{Field: "waybill-numbers"})
		return
	}

	start := time.Now()
	results := s.client.TrackWaybills(r.Context(), req.WaybillNumbers, s.concurrency)
	duration := time.Since(start).Seconds()

	out := make([]trackBatchResult, len(results))
	for i, res := range results {
		out[i] = trackBatchResult{WaybillNumber: res.WaybillNumber}
		if res.Err != nil {
			_, errType := classifyError(res.Err)
			s.metrics.RecordError(skynet.OpTrackWaybill, errType)
			out[i].Error = res.Err.Error()
			continue
		}
		s.metrics.RecordRequest(skynet.OpTrackWaybill, skynet.StatusClass(res.Response.Status()), duration)
		out[i].Status = res.Response.Status()
		out[i].Body = rawJSON(res.Response)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// rawJSON embeds a JSON body verbatim, or quotes a non-JSON body as a string.
func rawJSON(resp *skynet.Response) json.RawMessage {
	body := []byte(resp.Body())
	if json.Valid(body) {
		return body
	}
	quoted, _ := json.Marshal(resp.Body())
	return quoted
}

// relay copies the vendor status, content type and body unchanged.
func relay(w http.ResponseWriter, resp *skynet.Response) {
	if ct := resp.Header("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.Status())
	w.Write([]byte(resp.Body()))
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, skynet.ErrMissingField):
		return http.StatusBadRequest, "missing_field"
	case errors.Is(err, skynet.ErrUnknownOperation):
		return http.StatusNotFound, "unknown_operation"
	case errors.Is(err, skynet.ErrAuthenticationFailed):
		return http.StatusBadGateway, "authentication"
	case errors.Is(err, skynet.ErrTransport):
		return http.StatusBadGateway, "transport"
	default:
		return http.StatusBadGateway, "internal"
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}
