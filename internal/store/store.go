// Package store defines the persistence interface for the brokerage
// operations service. Implementations include PostgreSQL (source of truth),
// Redis (read-through cache), and in-memory (seeded with the console's
// fallback datasets; used for development and testing).
package store

import (
	"context"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer. Catalog mutations are plain
// persistence — validation and blocking-gate checks happen in the service
// layer before anything reaches a Store.
type Store interface {
	// --- Segment master catalog ---

	// ListSegments returns all segment brokerage rows in stable order.
	ListSegments(ctx context.Context) ([]model.Segment, error)

	// GetSegment retrieves one segment row. ErrNotFound if absent.
	GetSegment(ctx context.Context, id int64) (*model.Segment, error)

	// SaveSegment replaces an existing segment row. ErrNotFound if absent.
	SaveSegment(ctx context.Context, s model.Segment) error

	// --- Script master catalog ---

	ListScripts(ctx context.Context) ([]model.Script, error)
	GetScript(ctx context.Context, id int64) (*model.Script, error)

	// CreateScript persists a new script row, assigning its id.
	CreateScript(ctx context.Context, s *model.Script) error

	SaveScript(ctx context.Context, s model.Script) error

	// DeleteScript removes one script row. ErrNotFound if absent.
	DeleteScript(ctx context.Context, id int64) error

	// DeleteScripts removes a set of script rows, ignoring absent ids, and
	// returns how many were removed. Survivor order is preserved.
	DeleteScripts(ctx context.Context, ids []int64) (int, error)

	// --- Client rate entries ---

	// ListRateEntries returns a client's override entries; an empty
	// clientID returns every entry.
	ListRateEntries(ctx context.Context, clientID string) ([]model.RateEntry, error)

	GetRateEntry(ctx context.Context, id int64) (*model.RateEntry, error)
	CreateRateEntry(ctx context.Context, e *model.RateEntry) error
	SaveRateEntry(ctx context.Context, e model.RateEntry) error
	DeleteRateEntry(ctx context.Context, id int64) error
	DeleteRateEntries(ctx context.Context, ids []int64) (int, error)

	// --- Positions and trades ---

	// ListPositions returns open positions only.
	ListPositions(ctx context.Context) ([]model.Position, error)

	ListDetailedPositions(ctx context.Context) ([]model.DetailedPosition, error)

	// ListStockPositions aggregates per-client net positions in one stock.
	ListStockPositions(ctx context.Context, stockID string) ([]model.ClientPosition, error)

	// ListClientTrades returns a client's immutable trade history, oldest
	// first.
	ListClientTrades(ctx context.Context, clientID string) ([]model.Trade, error)

	// ClosePosition marks one open position closed. ErrNotFound if absent
	// or already closed.
	ClosePosition(ctx context.Context, id string) error

	// SquareOff closes a set of positions, ignoring absent or already
	// closed ids, and returns how many were closed.
	SquareOff(ctx context.Context, ids []string) (int, error)

	// --- Users ---

	ListUsers(ctx context.Context) ([]model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)

	// CreateUser persists a new user, assigning its id.
	CreateUser(ctx context.Context, u *model.User) error

	SaveUser(ctx context.Context, u model.User) error
}
