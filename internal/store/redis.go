package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache for the hot config catalogs: segments, scripts, and per-client rate
// entries. Writes go to the primary store and invalidate the affected keys;
// reads check Redis first then fall back to the primary. Position, trade,
// and user queries pass through uncached.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Segments ---

func (s *CachedStore) ListSegments(ctx context.Context) ([]model.Segment, error) {
	data, err := s.rdb.Get(ctx, segmentsKey()).Bytes()
	if err == nil {
		var segments []model.Segment
		if json.Unmarshal(data, &segments) == nil {
			return segments, nil
		}
	}

	segments, err := s.primary.ListSegments(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, segmentsKey(), segments)
	return segments, nil
}

func (s *CachedStore) GetSegment(ctx context.Context, id int64) (*model.Segment, error) {
	return s.primary.GetSegment(ctx, id)
}

func (s *CachedStore) SaveSegment(ctx context.Context, seg model.Segment) error {
	if err := s.primary.SaveSegment(ctx, seg); err != nil {
		return err
	}
	s.rdb.Del(ctx, segmentsKey())
	return nil
}

// --- Scripts ---

func (s *CachedStore) ListScripts(ctx context.Context) ([]model.Script, error) {
	data, err := s.rdb.Get(ctx, scriptsKey()).Bytes()
	if err == nil {
		var scripts []model.Script
		if json.Unmarshal(data, &scripts) == nil {
			return scripts, nil
		}
	}

	scripts, err := s.primary.ListScripts(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, scriptsKey(), scripts)
	return scripts, nil
}

func (s *CachedStore) GetScript(ctx context.Context, id int64) (*model.Script, error) {
	return s.primary.GetScript(ctx, id)
}

func (s *CachedStore) CreateScript(ctx context.Context, sc *model.Script) error {
	if err := s.primary.CreateScript(ctx, sc); err != nil {
		return err
	}
	s.rdb.Del(ctx, scriptsKey())
	return nil
}

func (s *CachedStore) SaveScript(ctx context.Context, sc model.Script) error {
	if err := s.primary.SaveScript(ctx, sc); err != nil {
		return err
	}
	s.rdb.Del(ctx, scriptsKey())
	return nil
}

func (s *CachedStore) DeleteScript(ctx context.Context, id int64) error {
	if err := s.primary.DeleteScript(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, scriptsKey())
	return nil
}

func (s *CachedStore) DeleteScripts(ctx context.Context, ids []int64) (int, error) {
	n, err := s.primary.DeleteScripts(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.rdb.Del(ctx, scriptsKey())
	return n, nil
}

// --- Rate entries ---

func (s *CachedStore) ListRateEntries(ctx context.Context, clientID string) ([]model.RateEntry, error) {
	if clientID == "" {
		// The all-clients listing is an admin view; not worth caching.
		return s.primary.ListRateEntries(ctx, clientID)
	}

	data, err := s.rdb.Get(ctx, ratesKey(clientID)).Bytes()
	if err == nil {
		var entries []model.RateEntry
		if json.Unmarshal(data, &entries) == nil {
			return entries, nil
		}
	}

	entries, err := s.primary.ListRateEntries(ctx, clientID)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, ratesKey(clientID), entries)
	return entries, nil
}

func (s *CachedStore) GetRateEntry(ctx context.Context, id int64) (*model.RateEntry, error) {
	return s.primary.GetRateEntry(ctx, id)
}

func (s *CachedStore) CreateRateEntry(ctx context.Context, e *model.RateEntry) error {
	if err := s.primary.CreateRateEntry(ctx, e); err != nil {
		return err
	}
	s.rdb.Del(ctx, ratesKey(e.ClientID))
	return nil
}

func (s *CachedStore) SaveRateEntry(ctx context.Context, e model.RateEntry) error {
	if err := s.primary.SaveRateEntry(ctx, e); err != nil {
		return err
	}
	s.rdb.Del(ctx, ratesKey(e.ClientID))
	return nil
}

func (s *CachedStore) DeleteRateEntry(ctx context.Context, id int64) error {
	// Look the entry up first so the right client's cache is invalidated.
	e, err := s.primary.GetRateEntry(ctx, id)
	if err != nil {
		return err
	}
	if err := s.primary.DeleteRateEntry(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, ratesKey(e.ClientID))
	return nil
}

func (s *CachedStore) DeleteRateEntries(ctx context.Context, ids []int64) (int, error) {
	n, err := s.primary.DeleteRateEntries(ctx, ids)
	if err != nil {
		return 0, err
	}
	// Bulk deletes can span clients; drop every rate cache key.
	iter := s.rdb.Scan(ctx, 0, ratesKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		s.rdb.Del(ctx, iter.Val())
	}
	return n, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListPositions(ctx context.Context) ([]model.Position, error) {
	return s.primary.ListPositions(ctx)
}

func (s *CachedStore) ListDetailedPositions(ctx context.Context) ([]model.DetailedPosition, error) {
	return s.primary.ListDetailedPositions(ctx)
}

func (s *CachedStore) ListStockPositions(ctx context.Context, stockID string) ([]model.ClientPosition, error) {
	return s.primary.ListStockPositions(ctx, stockID)
}

func (s *CachedStore) ListClientTrades(ctx context.Context, clientID string) ([]model.Trade, error) {
	return s.primary.ListClientTrades(ctx, clientID)
}

func (s *CachedStore) ClosePosition(ctx context.Context, id string) error {
	return s.primary.ClosePosition(ctx, id)
}

func (s *CachedStore) SquareOff(ctx context.Context, ids []string) (int, error) {
	return s.primary.SquareOff(ctx, ids)
}

func (s *CachedStore) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.primary.ListUsers(ctx)
}

func (s *CachedStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.primary.GetUser(ctx, id)
}

func (s *CachedStore) CreateUser(ctx context.Context, u *model.User) error {
	return s.primary.CreateUser(ctx, u)
}

func (s *CachedStore) SaveUser(ctx context.Context, u model.User) error {
	return s.primary.SaveUser(ctx, u)
}

// --- Cache helpers ---

func (s *CachedStore) cacheJSON(ctx context.Context, key string, v interface{}) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func segmentsKey() string          { return "brokerage:segments" }
func scriptsKey() string           { return "brokerage:scripts" }
func ratesKey(clientID string) string { return fmt.Sprintf("brokerage:rates:%s", clientID) }
