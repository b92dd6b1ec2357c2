// Package brokerage provides the HTTP handlers and business logic for the
// brokerage rate configuration screens: the segment-wise master table, the
// script-wise (ticker) master catalog, per-client override entries, and rate
// resolution.
package brokerage

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/OceanLab-Technology/masterJGS/internal/api"
	"github.com/OceanLab-Technology/masterJGS/internal/metrics"
	"github.com/OceanLab-Technology/masterJGS/internal/model"
	"github.com/OceanLab-Technology/masterJGS/internal/notify"
	"github.com/OceanLab-Technology/masterJGS/internal/rate"
	"github.com/OceanLab-Technology/masterJGS/internal/search"
	"github.com/OceanLab-Technology/masterJGS/internal/store"
)

// notifyQuiet is the quiet period for coalescing config-change broadcasts:
// a burst of consecutive edits produces one event carrying the last state.
const notifyQuiet = 400 * time.Millisecond

// Service handles brokerage rate configuration.
// Pass nil for hub if WebSocket broadcasting is not needed.
type Service struct {
	store    store.Store
	hub      *notify.Hub
	debounce *search.Debouncer[notify.Event]
}

// NewService creates a new brokerage service.
func NewService(st store.Store, hub *notify.Hub) *Service {
	s := &Service{store: st, hub: hub}
	if hub != nil {
		s.debounce = search.NewDebouncer(notifyQuiet, hub.Broadcast)
	}
	return s
}

// notifyLater coalesces broadcasts across rapid consecutive edits; only the
// last event of a burst goes out.
func (s *Service) notifyLater(ev notify.Event) {
	if s.debounce != nil {
		s.debounce.Trigger(ev)
	}
}

func (s *Service) notifyNow(ev notify.Event) {
	if s.hub != nil {
		s.hub.Broadcast(ev)
	}
}

// --- Request/response types ---

// SegmentMasterUpdate is one element of the PATCH /api/brokerage/segment
// body.
type SegmentMasterUpdate struct {
	ID          int64           `json:"id"`
	MasterValue decimal.Decimal `json:"master_value"`
}

// SegmentBatchResponse is returned from the batch update: entries that were
// blocked or missing are simply absent from Updated, never silently applied.
// On a mid-batch persist failure Updated still lists the rows that landed
// before the failure, with Error set.
type SegmentBatchResponse struct {
	Updated []model.Segment `json:"updated"`
	Error   string          `json:"error,omitempty"`
}

// --- Segment handlers ---

// ListSegments handles GET /api/brokerage/segment
func (s *Service) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := s.store.ListSegments(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	if segments == nil {
		segments = []model.Segment{}
	}
	api.WriteJSON(w, http.StatusOK, segments)
}

// BatchUpdateSegments handles PATCH /api/brokerage/segment
// Applies each master-value update that passes the blocking gate; blocked or
// unknown ids are skipped, so the response's updated list is the authority
// on what actually changed.
func (s *Service) BatchUpdateSegments(w http.ResponseWriter, r *http.Request) {
	var updates []SegmentMasterUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Validation happens before anything is applied: one bad value rejects
	// the whole batch.
	for _, u := range updates {
		if u.MasterValue.IsNegative() {
			api.Error(w, model.Invalid("master_value", "must be non-negative"))
			return
		}
	}

	ctx := r.Context()
	updated := make([]model.Segment, 0, len(updates))

	for _, u := range updates {
		seg, err := s.store.GetSegment(ctx, u.ID)
		if err != nil {
			continue // absent ids are a no-op in bulk operations
		}

		next, err := rate.ApplySegmentMaster(*seg, u.MasterValue)
		if err != nil {
			metrics.BlockedEditRejections.Inc()
			slog.Warn("segment master edit rejected", "id", u.ID, "err", err)
			continue
		}

		if err := s.store.SaveSegment(ctx, next); err != nil {
			// Earlier rows are already persisted; report them so the
			// console knows what actually applied.
			slog.Error("segment batch persist failed", "id", u.ID, "err", err)
			if len(updated) > 0 {
				s.notifyLater(notify.Event{Type: "segments_updated", Catalog: "segment"})
			}
			api.WriteJSON(w, http.StatusInternalServerError,
				SegmentBatchResponse{Updated: updated, Error: err.Error()})
			return
		}
		metrics.RateUpdatesTotal.WithLabelValues("segment").Inc()
		updated = append(updated, next)
	}

	if len(updated) > 0 {
		s.notifyLater(notify.Event{Type: "segments_updated", Catalog: "segment"})
	}

	slog.Info("segment batch update", "requested", len(updates), "applied", len(updated))
	api.WriteJSON(w, http.StatusOK, SegmentBatchResponse{Updated: updated})
}

// ToggleSegmentBlock handles POST /api/brokerage/segment/{id}/block
// Flips the blocking gate. The admin value is untouched; any pending master
// edit for the entity dies with the toggle rather than landing later.
func (s *Service) ToggleSegmentBlock(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, "invalid segment id", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	seg, err := s.store.GetSegment(ctx, id)
	if err != nil {
		api.Error(w, err)
		return
	}

	next := rate.ToggleSegmentBlock(*seg)
	if err := s.store.SaveSegment(ctx, next); err != nil {
		api.Error(w, err)
		return
	}

	slog.Info("segment block toggled", "id", id, "blocked", next.IsBlocked)
	s.notifyNow(notify.Event{Type: "segment_block_toggled", Catalog: "segment",
		IDs: []string{strconv.FormatInt(id, 10)}})
	api.WriteJSON(w, http.StatusOK, next)
}
