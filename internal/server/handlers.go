package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/orrery/pkg/buildinfo"
	"github.com/matzehuels/orrery/pkg/catalog"
	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// =============================================================================
// Wire types
// =============================================================================

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type modeInfo struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Default     bool   `json:"default,omitempty"`
}

// LayoutRequest is the body of POST /v1/layouts.
type LayoutRequest struct {
	Mode    string             `json:"mode"`
	Objects []celestial.Object `json:"objects"`
	Targets []string           `json:"targets,omitempty"`
	Focus   string             `json:"focus,omitempty"`
}

// LayoutResponse carries a layout and its framing.
type LayoutResponse struct {
	Layout *layout.SystemLayout `json:"layout"`
	View   *pipeline.View       `json:"view"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleModes(w http.ResponseWriter, _ *http.Request) {
	out := make([]modeInfo, 0, len(viewmode.Modes))
	for _, m := range viewmode.Modes {
		out = append(out, modeInfo{ID: string(m), Description: m.Description(), Default: m == viewmode.DefaultMode})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCatalogs(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if list == nil {
		list = []catalog.Info{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCatalogLayout(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	q := r.URL.Query()
	var targets []string
	if t := q.Get("targets"); t != "" {
		targets = strings.Split(t, ",")
	}
	resp, err := s.compute(r.Context(), c.Objects, q.Get("mode"), targets, q.Get("focus"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout request"))
		return
	}
	c := catalog.Catalog{Objects: req.Objects}
	if err := c.Normalize(); err != nil {
		s.writeError(w, err)
		return
	}
	resp, err := s.compute(r.Context(), c.Objects, req.Mode, req.Targets, req.Focus)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	var (
		n   int
		err error
	)
	if mode := r.URL.Query().Get("mode"); mode != "" {
		m, ok := viewmode.ParseMode(mode)
		if !ok {
			s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "unknown view mode %q", mode))
			return
		}
		n, err = s.svc.Cache().InvalidateMode(r.Context(), string(m))
	} else {
		n, err = s.svc.Cache().InvalidateAll(r.Context())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

// compute resolves the mode, runs a full or partial calculation and frames
// the result.
func (s *Server) compute(ctx context.Context, objects []celestial.Object, mode string, targets []string, focus string) (*LayoutResponse, error) {
	m := viewmode.DefaultMode
	if mode != "" {
		var ok bool
		if m, ok = viewmode.ParseMode(mode); !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "unknown view mode %q", mode)
		}
	}
	strategy, err := viewmode.New(m, s.svc.Config(), s.logger)
	if err != nil {
		return nil, err
	}

	var l *layout.SystemLayout
	if len(targets) > 0 {
		l, err = s.svc.CalculatePartialLayout(ctx, objects, targets, strategy)
	} else {
		l, err = s.svc.CalculateSystemLayout(ctx, objects, strategy)
	}
	if err != nil {
		return nil, err
	}
	view, err := pipeline.Frame(l, objects, strategy, focus)
	if err != nil {
		return nil, err
	}
	return &LayoutResponse{Layout: l, View: view}, nil
}

// =============================================================================
// Responses
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errors.UserMessage(err)}})
}

func httpStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeCatalogNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
