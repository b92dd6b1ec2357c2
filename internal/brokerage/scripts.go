package brokerage

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/OceanLab-Technology/masterJGS/internal/api"
	"github.com/OceanLab-Technology/masterJGS/internal/metrics"
	"github.com/OceanLab-Technology/masterJGS/internal/model"
	"github.com/OceanLab-Technology/masterJGS/internal/notify"
	"github.com/OceanLab-Technology/masterJGS/internal/rate"
	"github.com/OceanLab-Technology/masterJGS/internal/search"
)

// BulkDeleteRequest carries the id set for bulk catalog deletes.
type BulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// BulkDeleteResponse reports how many rows a bulk delete removed; absent ids
// are skipped, not errors.
type BulkDeleteResponse struct {
	Deleted int `json:"deleted"`
}

func validateScript(sc *model.Script) error {
	switch {
	case sc.ScriptName == "":
		return model.Invalid("scriptName", "is required")
	case sc.Symbol == "":
		return model.Invalid("symbol", "is required")
	case sc.Segment == "":
		return model.Invalid("segment", "is required")
	case sc.AdminValue.IsNegative():
		return model.Invalid("adminValue", "must be non-negative")
	case sc.MasterValue.IsNegative():
		return model.Invalid("masterValue", "must be non-negative")
	}
	return nil
}

// ListScripts handles GET /api/brokerage/scripts
// The optional ?q= parameter filters with the search-box semantics:
// case-insensitive substring over name, symbol, and segment.
func (s *Service) ListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := s.store.ListScripts(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		filtered := make([]model.Script, 0, len(scripts))
		for _, sc := range scripts {
			if search.Matches(q, sc.ScriptName, sc.Symbol, sc.Segment) {
				filtered = append(filtered, sc)
			}
		}
		scripts = filtered
	}
	if scripts == nil {
		scripts = []model.Script{}
	}
	api.WriteJSON(w, http.StatusOK, scripts)
}

// CreateScript handles POST /api/brokerage/scripts
func (s *Service) CreateScript(w http.ResponseWriter, r *http.Request) {
	var sc model.Script
	if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateScript(&sc); err != nil {
		api.Error(w, err)
		return
	}

	if err := s.store.CreateScript(r.Context(), &sc); err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("script created", "id", sc.ID, "symbol", sc.Symbol)
	s.notifyNow(notify.Event{Type: "script_created", Catalog: "script",
		IDs: []string{strconv.FormatInt(sc.ID, 10)}})
	api.WriteJSON(w, http.StatusCreated, sc)
}

// UpdateScript handles PUT /api/brokerage/scripts/{id}
// Master-value changes pass through the blocking gate: a blocked script
// rejects them with 409 instead of silently succeeding.
func (s *Service) UpdateScript(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, "invalid script id", http.StatusBadRequest)
		return
	}

	var in model.Script
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	in.ID = id
	if err := validateScript(&in); err != nil {
		api.Error(w, err)
		return
	}

	ctx := r.Context()
	existing, err := s.store.GetScript(ctx, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	if !in.MasterValue.Equal(existing.MasterValue) {
		if _, err := rate.ApplyScriptMaster(*existing, in.MasterValue); err != nil {
			metrics.BlockedEditRejections.Inc()
			api.Error(w, err)
			return
		}
		metrics.RateUpdatesTotal.WithLabelValues("script").Inc()
	}
	// Blocking state changes go through the toggle endpoint, not PUT.
	in.IsBlocked = existing.IsBlocked

	if err := s.store.SaveScript(ctx, in); err != nil {
		api.Error(w, err)
		return
	}

	s.notifyLater(notify.Event{Type: "script_updated", Catalog: "script",
		IDs: []string{strconv.FormatInt(id, 10)}})
	api.WriteJSON(w, http.StatusOK, in)
}

// DeleteScript handles DELETE /api/brokerage/scripts/{id}
func (s *Service) DeleteScript(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, "invalid script id", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteScript(r.Context(), id); err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("script deleted", "id", id)
	s.notifyNow(notify.Event{Type: "script_deleted", Catalog: "script",
		IDs: []string{strconv.FormatInt(id, 10)}})
	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteScripts handles POST /api/brokerage/scripts/bulk-delete
// Absent ids are ignored rather than failing the whole batch.
func (s *Service) BulkDeleteScripts(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := s.store.DeleteScripts(r.Context(), req.IDs)
	if err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("scripts bulk deleted", "requested", len(req.IDs), "deleted", n)
	if n > 0 {
		s.notifyNow(notify.Event{Type: "scripts_deleted", Catalog: "script"})
	}
	api.WriteJSON(w, http.StatusOK, BulkDeleteResponse{Deleted: n})
}

// ToggleScriptBlock handles POST /api/brokerage/scripts/{id}/block
func (s *Service) ToggleScriptBlock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, "invalid script id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	sc, err := s.store.GetScript(ctx, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	next := rate.ToggleScriptBlock(*sc)
	if err := s.store.SaveScript(ctx, next); err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("script block toggled", "id", id, "blocked", next.IsBlocked)
	s.notifyNow(notify.Event{Type: "script_block_toggled", Catalog: "script",
		IDs: []string{strconv.FormatInt(id, 10)}})
	api.WriteJSON(w, http.StatusOK, next)
}
