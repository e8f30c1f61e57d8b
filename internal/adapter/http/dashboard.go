package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/couchcryptid/wu-history-viewer/internal/domain"
	"github.com/couchcryptid/wu-history-viewer/internal/pipeline"
	"github.com/couchcryptid/wu-history-viewer/internal/report"
)

//go:embed templates/*.html
var templatesFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(templatesFS, "templates/dashboard.html"))

// dashboardData is the view model for dashboard.html.
type dashboardData struct {
	StationID string
	Date      string
	Status    string
	Loading   bool
	Zone      string
	Table     report.Table
}

// handleDashboard renders the form, the table and the KPIs. With both
// stationId and date in the query it runs a load first.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := http.StatusOK

	snap := s.deps.Loader.Snapshot()
	if q.Has("stationId") || q.Has("date") {
		var err error
		snap, err = s.deps.Loader.Load(r.Context(), q.Get("stationId"), q.Get("date"))
		switch {
		case err == nil:
		case errors.Is(err, pipeline.ErrLoadInProgress):
			status = http.StatusConflict
		case errors.Is(err, pipeline.ErrInvalidRequest):
			status = http.StatusBadRequest
		default:
			status = http.StatusBadGateway
		}
	}

	data := dashboardData{
		StationID: snap.StationID,
		Date:      snap.Date,
		Status:    snap.Status,
		Loading:   snap.State == pipeline.StateLoading,
		Zone:      s.deps.DisplayZone,
	}
	var observations []domain.Observation
	if snap.Result != nil {
		observations = snap.Result.Observations
	}
	data.Table = s.deps.Formatter.Build(observations)

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		s.logger.Error("dashboard template render failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}
