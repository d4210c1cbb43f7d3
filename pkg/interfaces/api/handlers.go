package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/vsinha/sellerscope/pkg/application/dto"
	"github.com/vsinha/sellerscope/pkg/application/services/orchestration"
	"github.com/vsinha/sellerscope/pkg/domain/entities"
)

const maxRequestBytes = 16 << 20

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "sellerscope",
		"version": s.version,
	})
}

// handleFindings evaluates the posted portfolio and returns the FindingsResult.
// Row problems come back inside a 200 response; batch problems are a 400
// carrying an empty result and the batch error.
func (s *Server) handleFindings(w http.ResponseWriter, r *http.Request) {
	var req dto.FindingsRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		s.writeBatchError(w, fmt.Sprintf("malformed request body: %v", err))
		return
	}

	asOf, err := req.AsOf(s.now())
	if err != nil {
		s.writeBatchError(w, err.Error())
		return
	}

	country := req.Country
	if country == "" {
		country = s.country
	}

	result, err := s.orchestrator.Analyze(r.Context(), req.ToProducts(), orchestration.AnalysisRequest{
		AsOf:    asOf,
		Country: country,
		Config:  s.analysis,
	})
	switch {
	case errors.Is(err, entities.ErrInvalidInput):
		s.writeJSON(w, http.StatusBadRequest, result)
	case err != nil:
		s.log.Error().Err(err).Msg("Evaluation failed")
		s.writeError(w, http.StatusInternalServerError, "evaluation failed")
	default:
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) writeBatchError(w http.ResponseWriter, message string) {
	result := entities.NewFindingsResult()
	result.BatchError = &entities.BatchError{Kind: entities.ErrorKindInvalidInput, Message: message}
	s.writeJSON(w, http.StatusBadRequest, result)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
