package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/wu-history-viewer/internal/adapter/wu"
	"github.com/couchcryptid/wu-history-viewer/internal/domain"
	"github.com/couchcryptid/wu-history-viewer/internal/pipeline"
)

// handleHistory proxies the provider's history/all endpoint. Upstream
// status codes and bodies are forwarded verbatim.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := s.deps.Service.History(r.Context(), q.Get("stationId"), q.Get("date"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client went away
}

// handleObservations normalizes one station-day server-side. date uses the
// form layout YYYY-MM-DD.
func (s *Server) handleObservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, err := domain.CompactDate(q.Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	res, err := s.deps.Service.Observations(r.Context(), q.Get("stationId"), date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeServiceError maps service errors to proxy responses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	var upstream *wu.UpstreamError
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, wu.ErrMissingAPIKey):
		s.logger.Error("history request rejected", "error", err)
		writeError(w, http.StatusInternalServerError, "WU_API_KEY not configured")
	case errors.As(err, &upstream):
		ct := upstream.ContentType
		if ct == "" {
			ct = "application/json"
		}
		w.Header().Set("Content-Type", ct)
		w.WriteHeader(upstream.StatusCode)
		w.Write(upstream.Body) //nolint:errcheck // client went away
	default:
		s.logger.Error("history request failed", "error", err)
		writeError(w, http.StatusBadGateway, "upstream request failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
