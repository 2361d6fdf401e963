package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/modi-core/internal/module"
	"github.com/nerrad567/modi-core/internal/property"
)

// ModuleResponse is one bound module and its current readings.
type ModuleResponse struct {
	ID         uint16              `json:"id"`
	UUID       uuid.UUID           `json:"uuid"`
	Kind       property.ModuleKind `json:"kind"`
	Properties []module.Reading    `json:"properties"`
}

// PropertyResponse is a property reading with its descriptor.
type PropertyResponse struct {
	module.Reading
	Writable    bool           `json:"writable"`
	Cardinality int            `json:"cardinality"`
	Range       property.Range `json:"range"`
	Components  []string       `json:"components,omitempty"`
}

// SetPropertyRequest is the body of a property write.
type SetPropertyRequest struct {
	Values []float64 `json:"values"`
}

func moduleResponse(m *module.Module) ModuleResponse {
	id := m.Identity()
	return ModuleResponse{
		ID:         id.ID,
		UUID:       id.UUID,
		Kind:       m.Kind(),
		Properties: m.Readings(),
	}
}

func (s *Server) handleListModules(w http.ResponseWriter, _ *http.Request) {
	mods := s.modules.Modules()
	out := make([]ModuleResponse, 0, len(mods))
	for _, m := range mods {
		out = append(out, moduleResponse(m))
	}
	writeJSON(w, http.StatusOK, map[string]any{"modules": out, "count": len(out)})
}

func (s *Server) handleGetModule(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookupModule(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, moduleResponse(m))
}

func (s *Server) handleGetProperty(w http.ResponseWriter, r *http.Request) {
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
	reading, err := m.Get(name)
	if err != nil {
		writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PropertyResponse{
		Reading:     reading,
		Writable:    d.Writable(),
		Cardinality: d.Cardinality,
		Range:       d.Range,
		Components:  d.Components,
	})
}

// handleSetProperty validates and queues a property write. It answers 202
// once the command is queued; the new value shows up in reads only after
// the module reports it.
func (s *Server) handleSetProperty(w http.ResponseWriter, r *http.Request) {
	m, ok := s.lookupModule(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	var req SetPropertyRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			writeModuleError(w, err)
			return
		}
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ctx := r.Context()
	if s.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
	}

	if err := m.Set(ctx, name, req.Values...); err != nil {
		s.logger.Debug("property write rejected",
			"module", m.Identity().ID,
			"property", name,
			"error", err,
		)
		writeModuleError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":    "queued",
		"module":    m.Identity().ID,
		"property":  name,
		"values":    req.Values,
		"queued_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// lookupModule resolves the {id} path parameter, writing the error
// response itself when it fails.
func (s *Server) lookupModule(w http.ResponseWriter, r *http.Request) (*module.Module, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		writeBadRequest(w, "module id must be an integer between 0 and 65535")
		return nil, false
	}
	m, err := s.modules.Module(uint16(id))
	if err != nil {
		writeModuleError(w, err)
		return nil, false
	}
	return m, true
}
