package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/trashrake-monitor/internal/dashboard"
	"github.com/couchcryptid/trashrake-monitor/internal/domain"
)

// filterParams are the query parameters of the log endpoints.
var filterParams = []string{"start", "end", "trash", "level"}

// logResponse is the body of GET /api/log.
type logResponse struct {
	Filter domain.Criteria `json:"filter"`
	Count  int             `json:"count"`
	Total  int             `json:"total"`
	Rows   domain.History  `json:"rows"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("day")
	if day == "" {
		day = s.deps.Session.State().SelectedDay
	}
	day, err := dashboard.NormalizeDay(day)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Overviews.Overview(s.deps.Feed.Snapshot(), day))
}

func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	c, err := s.criteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	h := s.deps.Feed.Snapshot().History
	rows := domain.Filter(h, c)
	sharedobs.WriteJSON(w, http.StatusOK, logResponse{
		Filter: c,
		Count:  len(rows),
		Total:  len(h),
		Rows:   rows,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	c, err := s.criteria(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rows := domain.Filter(s.deps.Feed.Snapshot().History, c)
	if len(rows) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", domain.ExportFilename()))
	w.WriteHeader(http.StatusOK)
	if err := domain.WriteExport(w, rows); err != nil {
		s.logger.Warn("write export failed", "error", err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	status := "refresh scheduled"
	if !s.deps.Feed.Refresh() {
		status = "refresh already pending"
	}
	sharedobs.WriteJSON(w, http.StatusAccepted, map[string]string{"status": status})
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.deps.Session.State())
}

func (s *Server) handleApplySession(w http.ResponseWriter, r *http.Request) {
	var a dashboard.Action
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode action: %w", err))
		return
	}
	state, err := s.deps.Session.Apply(a)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, state)
}

// criteria reads the filter from the query string, falling back to the
// session filter when no filter parameter is present.
func (s *Server) criteria(q url.Values) (domain.Criteria, error) {
	for _, p := range filterParams {
		if q.Has(p) {
			return domain.ParseCriteria(q.Get("start"), q.Get("end"), q.Get("trash"), q.Get("level"))
		}
	}
	return s.deps.Session.State().Filter, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
