package api

import (
	"encoding/json"
	"net/http"

	"github.com/rzzdr/option-scenario-engine/pkg/metrics"
	apperrors "github.com/rzzdr/option-scenario-engine/pkg/utils/errors"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.metricsMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler(s.gatherer))

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	if s.limiter != nil {
		v1.Use(s.rateLimitMiddleware)
	}
	v1.HandleFunc("/price", s.handlePrice).Methods("POST")
	v1.HandleFunc("/greeks", s.handleGreeks).Methods("POST")
	v1.HandleFunc("/scenario", s.handleScenario).Methods("POST")
	v1.HandleFunc("/strategy-greeks", s.handleStrategyGreeks).Methods("POST")
	v1.HandleFunc("/forward-vol", s.handleForwardVol).Methods("POST")
	v1.HandleFunc("/rates", s.handleRate).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
	// mux answers a path matched with the wrong method with 404 unless told otherwise
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
	v1.MethodNotAllowedHandler = http.HandlerFunc(s.handleMethodNotAllowed)
}

// RespondJSON sends a JSON response
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// RespondError sends an error response
func RespondError(w http.ResponseWriter, code int, message string) {
	RespondJSON(w, code, ErrorResponse{Error: message})
}

// StatusCode maps an error's type to an HTTP status
func StatusCode(err error) int {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeInvalidInput, apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	id := RequestID(r.Context())

	if status >= http.StatusInternalServerError {
		s.log.Errorw("Request failed", "request_id", id, "path", r.URL.Path, "error", err)
	} else {
		s.log.Debugw("Request rejected", "request_id", id, "path", r.URL.Path, "error", err)
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	RespondJSON(w, status, ErrorResponse{
		Error:     message,
		Type:      apperrors.TypeOf(err).String(),
		RequestID: id,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	RespondError(w, http.StatusNotFound, "resource not found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
}
