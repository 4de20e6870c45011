package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gianmarcomichelini/data-privacy-toolkit/internal/mondrian"
	apperrors "github.com/gianmarcomichelini/data-privacy-toolkit/pkg/errors"
	"github.com/gianmarcomichelini/data-privacy-toolkit/pkg/models"
)

type anonymizeRequest struct {
	K                int                      `json:"k"`
	Columns          []string                 `json:"columns"`
	QuasiIdentifiers []models.QuasiIdentifier `json:"quasi_identifiers"`
	Sensitive        []string                 `json:"sensitive"`
	Records          []map[string]string      `json:"records"`
}

type anonymizeResponse struct {
	Groups     int                       `json:"groups"`
	Degenerate bool                      `json:"degenerate"`
	Records    []models.AnonymizedRecord `json:"records"`
}

type healthStatus struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Uptime     string    `json:"uptime"`
	Goroutines int       `json:"goroutines"`
	Taxonomies int       `json:"taxonomies"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{
		Status:     "healthy",
		Timestamp:  time.Now(),
		Uptime:     time.Since(s.startTime).String(),
		Goroutines: runtime.NumGoroutine(),
		Taxonomies: s.catalog.Attributes(),
	})
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.NewValidationError(apperrors.CodeInvalidFormat,
			"request body is not valid JSON").WithDetails(err.Error()))
		return
	}

	dataset, err := s.buildDataset(&req)
	if err != nil {
		writeError(w, err)
		return
	}

	engine := mondrian.NewEngine(&mondrian.Config{K: req.K}, s.catalog, s.logger)
	engine.UseMetrics(s.metrics)

	result, err := engine.Anonymize(r.Context(), dataset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, anonymizeResponse{
		Groups:     result.Groups(),
		Degenerate: result.Degenerate,
		Records:    result.Records,
	})
}

// buildDataset converts the request payload into the engine's input format.
// Numeric quasi-identifiers must parse as integers in every record; a service
// caller sends structured data, so a bad value is an error, not a dropped row.
func (s *Server) buildDataset(req *anonymizeRequest) (*models.Dataset, error) {
	schema := &models.Schema{
		Columns:          req.Columns,
		QuasiIdentifiers: req.QuasiIdentifiers,
		Sensitive:        req.Sensitive,
	}

	dataset := &models.Dataset{Schema: schema}
	for i, values := range req.Records {
		rec := models.Record{
			OriginalID: i,
			Values:     values,
			Numbers:    make(map[string]int),
		}
		for _, qi := range req.QuasiIdentifiers {
			if qi.Kind != models.AttributeNumeric {
				continue
			}
			v, err := strconv.Atoi(values[qi.Name])
			if err != nil {
				return nil, apperrors.WrapError(apperrors.ErrInvalidNumeric,
					apperrors.ErrorTypeValidation, apperrors.CodeInvalidNumeric,
					"record "+strconv.Itoa(i)+" attribute "+qi.Name)
			}
			rec.Numbers[qi.Name] = v
		}
		dataset.Records = append(dataset.Records, rec)
	}
	return dataset, nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		writeJSON(w, appErr.HTTPStatus, map[string]interface{}{"error": appErr})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error": map[string]string{"message": err.Error()},
	})
}
