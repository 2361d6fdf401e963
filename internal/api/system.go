package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/nerrad567/modi-core/internal/property"
)

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Modules       int               `json:"modules"`
	Components    map[string]string `json:"components,omitempty"`
}

// handleHealth runs every registered check. Any failure makes the status
// "degraded" and the response 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Modules:       len(s.modules.Modules()),
	}

	if len(s.checks) > 0 {
		resp.Components = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := check.HealthCheck(ctx)
			cancel()
			if err != nil {
				resp.Status = "degraded"
				resp.Components[name] = err.Error()
				continue
			}
			resp.Components[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// KindResponse lists the properties of one module kind.
type KindResponse struct {
	Kind       property.ModuleKind   `json:"kind"`
	Properties []property.Descriptor `json:"properties"`
}

func (s *Server) handleListKinds(w http.ResponseWriter, _ *http.Request) {
	reg := s.modules.Registry()
	kinds := reg.ModuleKinds()
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	out := make([]KindResponse, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, KindResponse{Kind: k, Properties: reg.Descriptors(k)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"kinds": out})
}

func (s *Server) handleListInventory(w http.ResponseWriter, r *http.Request) {
	if s.inventory == nil {
		writeNotFound(w, "inventory not configured")
		return
	}
	records, err := s.inventory.List(r.Context())
	if err != nil {
		s.logger.Error("listing inventory", "error", err)
		writeInternalError(w, "failed to list inventory")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": records, "count": len(records)})
}
