package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/modi-core/internal/infrastructure/influxdb"
)

const (
	defaultHistoryWindow = time.Hour
	maxHistoryWindow     = 7 * 24 * time.Hour
)

// HistoryResponse is the recorded history of one property.
type HistoryResponse struct {
	Module   uint16                  `json:"module"`
	Property string                  `json:"property"`
	Start    time.Time               `json:"start"`
	End      time.Time               `json:"end"`
	Points   []influxdb.HistoryPoint `json:"points"`
}

// handlePropertyHistory serves recorded values for one property.
//
// The window is either ?since=<duration> ending now, or an explicit
// ?start=&end= pair in RFC 3339. It defaults to the last hour. A composite
// property returns the history of its components, each point naming the
// component it belongs to.
func (s *Server) handlePropertyHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "history not configured")
		return
	}
	m, ok := s.lookupModule(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	d, err := s.modules.Registry().DescriptorFor(m.Kind(), name)
	if err != nil {
		writeModuleError(w, err)
		return
	}
	stored := []string{name}
	if d.Composite() {
		stored = d.Components
	}

	start, end, err := historyWindow(r, time.Now().UTC())
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	id := m.Identity().ID
	points, err := s.history.History(r.Context(), id, stored, start, end)
	switch {
	case errors.Is(err, influxdb.ErrInvalidQuery):
		writeBadRequest(w, err.Error())
		return
	case errors.Is(err, influxdb.ErrNotConnected):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "history store not connected")
		return
	case err != nil:
		s.logger.Error("querying property history", "module", id, "property", name, "error", err)
		writeInternalError(w, "failed to query history")
		return
	}
	if points == nil {
		points = []influxdb.HistoryPoint{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{
		Module:   id,
		Property: name,
		Start:    start,
		End:      end,
		Points:   points,
	})
}

var errHistoryWindow = errors.New("history window must be positive and at most 7 days")

func historyWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()

	if rawStart := q.Get("start"); rawStart != "" {
		start, err := time.Parse(time.RFC3339, rawStart)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("start must be RFC 3339")
		}
		end := now
		if rawEnd := q.Get("end"); rawEnd != "" {
			if end, err = time.Parse(time.RFC3339, rawEnd); err != nil {
				return time.Time{}, time.Time{}, errors.New("end must be RFC 3339")
			}
		}
		if d := end.Sub(start); d <= 0 || d > maxHistoryWindow {
			return time.Time{}, time.Time{}, errHistoryWindow
		}
		return start, end, nil
	}

	window := defaultHistoryWindow
	if raw := q.Get("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("since must be a duration such as 15m or 2h")
		}
		window = d
	}
	if window <= 0 || window > maxHistoryWindow {
		return time.Time{}, time.Time{}, errHistoryWindow
	}
	return now.Add(-window), now, nil
}
