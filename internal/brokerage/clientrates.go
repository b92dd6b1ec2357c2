package brokerage

import (
	"encoding/json"
	"fmt"
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

func validateRateEntry(e *model.RateEntry) error {
	switch e.ApplicationType {
	case model.ScopeGlobal:
	case model.ScopeSegment:
		if e.Segment == "" {
			return model.Invalid("segment", "is required for segment scope")
		}
	case model.ScopeScript:
		if e.ScriptName == "" {
			return model.Invalid("scriptName", "is required for script scope")
		}
	default:
		return model.Invalid("applicationType", "must be global, segment, or script")
	}

	switch {
	case e.ClientID == "":
		return model.Invalid("clientId", "is required")
	case e.BrokerageType != model.KindPercentage && e.BrokerageType != model.KindAmount:
		return model.Invalid("brokerageType", "must be percentage or amount")
	case e.AdminValue.IsNegative():
		return model.Invalid("adminValue", "must be non-negative")
	case e.MasterValue.IsNegative():
		return model.Invalid("masterValue", "must be non-negative")
	}
	return nil
}

// ListClientRates handles GET /api/brokerage/clients/{clientID}/rates
// Supports the search-box ?q= filter over client id, client name, segment,
// and script name.
func (s *Service) ListClientRates(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	entries, err := s.store.ListRateEntries(r.Context(), clientID)
	if err != nil {
		api.Error(w, err)
		return
	}

	if q := r.URL.Query().Get("q"); q != "" {
		filtered := make([]model.RateEntry, 0, len(entries))
		for _, e := range entries {
			if search.Matches(q, e.ClientID, e.ClientName, e.Segment, e.ScriptName) {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	if entries == nil {
		entries = []model.RateEntry{}
	}
	api.WriteJSON(w, http.StatusOK, entries)
}

// CreateClientRate handles POST /api/brokerage/clients/{clientID}/rates
func (s *Service) CreateClientRate(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var e model.RateEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	e.ClientID = clientID
	if err := validateRateEntry(&e); err != nil {
		api.Error(w, err)
		return
	}

	if err := s.store.CreateRateEntry(r.Context(), &e); err != nil {
		api.Error(w, err)
		return
	}

	metrics.RateUpdatesTotal.WithLabelValues("client").Inc()
	slog.Info("client rate created", "id", e.ID, "client", clientID, "scope", e.ApplicationType)
	s.notifyNow(notify.Event{Type: "client_rate_created", Catalog: "client", ClientID: clientID,
		IDs: []string{strconv.FormatInt(e.ID, 10)}})
	api.WriteJSON(w, http.StatusCreated, e)
}

// UpdateClientRate handles PUT /api/brokerage/clients/{clientID}/rates/{id}
// The admin value of an existing entry is read-only: whatever the payload
// carries, the stored admin value is kept. Only the master value and the
// scope-specific fields are editable.
func (s *Service) UpdateClientRate(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, "invalid rate entry id", http.StatusBadRequest)
		return
	}

	var in model.RateEntry
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	in.ID = id
	in.ClientID = clientID

	ctx := r.Context()
	existing, err := s.store.GetRateEntry(ctx, id)
	if err != nil {
		api.Error(w, err)
		return
	}
	// An entry is only reachable under its owner's URL; a foreign id is
	// indistinguishable from an absent one.
	if existing.ClientID != clientID {
		api.Error(w, fmt.Errorf("rate entry %d: %w", id, model.ErrNotFound))
		return
	}
	in.AdminValue = existing.AdminValue

	if err := validateRateEntry(&in); err != nil {
		api.Error(w, err)
		return
	}

	if err := s.store.SaveRateEntry(ctx, in); err != nil {
		api.Error(w, err)
		return
	}

	metrics.RateUpdatesTotal.WithLabelValues("client").Inc()
	s.notifyLater(notify.Event{Type: "client_rate_updated", Catalog: "client", ClientID: clientID,
		IDs: []string{strconv.FormatInt(id, 10)}})
	api.WriteJSON(w, http.StatusOK, in)
}

// DeleteClientRate handles DELETE /api/brokerage/clients/{clientID}/rates/{id}
func (s *Service) DeleteClientRate(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, "invalid rate entry id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	existing, err := s.store.GetRateEntry(ctx, id)
	if err != nil {
		api.Error(w, err)
		return
	}
	if existing.ClientID != clientID {
		api.Error(w, fmt.Errorf("rate entry %d: %w", id, model.ErrNotFound))
		return
	}

	if err := s.store.DeleteRateEntry(ctx, id); err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("client rate deleted", "id", id)
	s.notifyNow(notify.Event{Type: "client_rate_deleted", Catalog: "client",
		IDs: []string{strconv.FormatInt(id, 10)}})
	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteClientRates handles POST /api/brokerage/clients/{clientID}/rates/bulk-delete
// Ids belonging to other clients are skipped like absent ones.
func (s *Service) BulkDeleteClientRates(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var req BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	owned, err := s.store.ListRateEntries(ctx, clientID)
	if err != nil {
		api.Error(w, err)
		return
	}
	ownedIDs := make(map[int64]bool, len(owned))
	for _, e := range owned {
		ownedIDs[e.ID] = true
	}
	ids := make([]int64, 0, len(req.IDs))
	for _, id := range req.IDs {
		if ownedIDs[id] {
			ids = append(ids, id)
		}
	}

	n, err := s.store.DeleteRateEntries(ctx, ids)
	if err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("client rates bulk deleted", "requested", len(req.IDs), "deleted", n)
	if n > 0 {
		s.notifyNow(notify.Event{Type: "client_rates_deleted", Catalog: "client",
			ClientID: clientID})
	}
	api.WriteJSON(w, http.StatusOK, BulkDeleteResponse{Deleted: n})
}

// ResolveRate handles GET /api/brokerage/resolve?client=&segment=&script=
// Returns the entry that governs a transaction for the client plus its
// effective total, so the console can show which level won and whether the
// rate is client-specific or a catalog default.
func (s *Service) ResolveRate(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client")
	segment := r.URL.Query().Get("segment")
	script := r.URL.Query().Get("script")
	if clientID == "" {
		api.WriteError(w, "client is required", http.StatusBadRequest)
		return
	}
	if segment == "" && script == "" {
		api.WriteError(w, "segment or script is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	entries, err := s.store.ListRateEntries(ctx, clientID)
	if err != nil {
		api.Error(w, err)
		return
	}
	segments, err := s.store.ListSegments(ctx)
	if err != nil {
		api.Error(w, err)
		return
	}
	scripts, err := s.store.ListScripts(ctx)
	if err != nil {
		api.Error(w, err)
		return
	}

	res, err := rate.Resolve(clientID, segment, script, entries, segments, scripts)
	if err != nil {
		api.Error(w, err)
		return
	}

	metrics.ResolutionsTotal.WithLabelValues(string(res.Source)).Inc()
	api.WriteJSON(w, http.StatusOK, res)
}
