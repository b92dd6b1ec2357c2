package position

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/OceanLab-Technology/masterJGS/internal/api"
	"github.com/OceanLab-Technology/masterJGS/internal/metrics"
	"github.com/OceanLab-Technology/masterJGS/internal/model"
	"github.com/OceanLab-Technology/masterJGS/internal/store"
)

// Service handles position and trade-history queries plus the close and
// square-off actions.
type Service struct {
	store store.Store
}

// NewService creates a new position service.
func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// SquareOffRequest is the JSON body for POST /api/positions/square-off.
type SquareOffRequest struct {
	PositionIDs []string `json:"positionIds"`
}

// SquareOffResponse reports how many positions were closed; unknown or
// already-closed ids are skipped.
type SquareOffResponse struct {
	Closed int `json:"closed"`
}

// List handles GET /api/positions
func (s *Service) List(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.ListPositions(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	if positions == nil {
		positions = []model.Position{}
	}
	api.WriteJSON(w, http.StatusOK, positions)
}

// ListDetailed handles GET /api/positions/detailed
func (s *Service) ListDetailed(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.ListDetailedPositions(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	if positions == nil {
		positions = []model.DetailedPosition{}
	}
	api.WriteJSON(w, http.StatusOK, positions)
}

// ListByStock handles GET /api/positions/stock/{stockID}
func (s *Service) ListByStock(w http.ResponseWriter, r *http.Request) {
	stockID := chi.URLParam(r, "stockID")

	positions, err := s.store.ListStockPositions(r.Context(), stockID)
	if err != nil {
		api.Error(w, err)
		return
	}
	if positions == nil {
		positions = []model.ClientPosition{}
	}
	api.WriteJSON(w, http.StatusOK, positions)
}

// Summary handles GET /api/positions/summary
// Rolls the open positions up into the dashboard's portfolio figures.
func (s *Service) Summary(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.ListPositions(r.Context())
	if err != nil {
		api.Error(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, Summarize(positions))
}

// Close handles POST /api/positions/{positionID}/close
func (s *Service) Close(w http.ResponseWriter, r *http.Request) {
	positionID := chi.URLParam(r, "positionID")

	if err := s.store.ClosePosition(r.Context(), positionID); err != nil {
		api.Error(w, err)
		return
	}

	metrics.PositionsClosed.Inc()
	slog.Info("position closed", "id", positionID)
	w.WriteHeader(http.StatusNoContent)
}

// SquareOff handles POST /api/positions/square-off
// Closes every listed position that is still open; absent ids are ignored
// rather than failing the batch.
func (s *Service) SquareOff(w http.ResponseWriter, r *http.Request) {
	var req SquareOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	n, err := s.store.SquareOff(r.Context(), req.PositionIDs)
	if err != nil {
		api.Error(w, err)
		return
	}

	metrics.PositionsClosed.Add(float64(n))
	slog.Info("positions squared off", "requested", len(req.PositionIDs), "closed", n)
	api.WriteJSON(w, http.StatusOK, SquareOffResponse{Closed: n})
}

// ClientTrades handles GET /api/clients/{clientID}/trades
func (s *Service) ClientTrades(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	trades, err := s.store.ListClientTrades(r.Context(), clientID)
	if err != nil {
		api.Error(w, err)
		return
	}
	if trades == nil {
		trades = []model.Trade{}
	}
	api.WriteJSON(w, http.StatusOK, trades)
}

// ClientTradeSummary handles GET /api/clients/{clientID}/trades/summary
func (s *Service) ClientTradeSummary(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	trades, err := s.store.ListClientTrades(r.Context(), clientID)
	if err != nil {
		api.Error(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, SummarizeTrades(trades))
}
