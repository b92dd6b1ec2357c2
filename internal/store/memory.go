package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// MemoryStore implements Store with in-memory slices, preserving insertion
// order (bulk deletes keep survivors in place). Used for testing and for
// running without a database; in that mode it is seeded with the same
// fallback datasets the console ships.
type MemoryStore struct {
	mu           sync.RWMutex
	segments     []model.Segment
	scripts      []model.Script
	rateEntries  []model.RateEntry
	positions    []model.Position
	detailed     []model.DetailedPosition
	trades       []model.Trade
	users        []model.User
	nextScriptID int64
	nextRateID   int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextScriptID: 1, nextRateID: 1}
}

// --- Segments ---

func (s *MemoryStore) ListSegments(_ context.Context) ([]model.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Segment, len(s.segments))
	copy(out, s.segments)
	return out, nil
}

func (s *MemoryStore) GetSegment(_ context.Context, id int64) (*model.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, seg := range s.segments {
		if seg.ID == id {
			cp := seg
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("segment %d: %w", id, model.ErrNotFound)
}

func (s *MemoryStore) SaveSegment(_ context.Context, seg model.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.segments {
		if s.segments[i].ID == seg.ID {
			s.segments[i] = seg
			return nil
		}
	}
	return fmt.Errorf("segment %d: %w", seg.ID, model.ErrNotFound)
}

// --- Scripts ---

func (s *MemoryStore) ListScripts(_ context.Context) ([]model.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Script, len(s.scripts))
	copy(out, s.scripts)
	return out, nil
}

func (s *MemoryStore) GetScript(_ context.Context, id int64) (*model.Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sc := range s.scripts {
		if sc.ID == id {
			cp := sc
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("script %d: %w", id, model.ErrNotFound)
}

func (s *MemoryStore) CreateScript(_ context.Context, sc *model.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc.ID = s.nextScriptID
	s.nextScriptID++
	s.scripts = append(s.scripts, *sc)
	return nil
}

func (s *MemoryStore) SaveScript(_ context.Context, sc model.Script) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.scripts {
		if s.scripts[i].ID == sc.ID {
			s.scripts[i] = sc
			return nil
		}
	}
	return fmt.Errorf("script %d: %w", sc.ID, model.ErrNotFound)
}

func (s *MemoryStore) DeleteScript(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.scripts {
		if s.scripts[i].ID == id {
			s.scripts = append(s.scripts[:i], s.scripts[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("script %d: %w", id, model.ErrNotFound)
}

func (s *MemoryStore) DeleteScripts(_ context.Context, ids []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := s.scripts[:0]
	removed := 0
	for _, sc := range s.scripts {
		if drop[sc.ID] {
			removed++
			continue
		}
		kept = append(kept, sc)
	}
	s.scripts = kept
	return removed, nil
}

// --- Rate entries ---

func (s *MemoryStore) ListRateEntries(_ context.Context, clientID string) ([]model.RateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.RateEntry
	for _, e := range s.rateEntries {
		if clientID == "" || e.ClientID == clientID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetRateEntry(_ context.Context, id int64) (*model.RateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.rateEntries {
		if e.ID == id {
			cp := e
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("rate entry %d: %w", id, model.ErrNotFound)
}

func (s *MemoryStore) CreateRateEntry(_ context.Context, e *model.RateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextRateID
	s.nextRateID++
	s.rateEntries = append(s.rateEntries, *e)
	return nil
}

func (s *MemoryStore) SaveRateEntry(_ context.Context, e model.RateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rateEntries {
		if s.rateEntries[i].ID == e.ID {
			s.rateEntries[i] = e
			return nil
		}
	}
	return fmt.Errorf("rate entry %d: %w", e.ID, model.ErrNotFound)
}

func (s *MemoryStore) DeleteRateEntry(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.rateEntries {
		if s.rateEntries[i].ID == id {
			s.rateEntries = append(s.rateEntries[:i], s.rateEntries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rate entry %d: %w", id, model.ErrNotFound)
}

func (s *MemoryStore) DeleteRateEntries(_ context.Context, ids []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := s.rateEntries[:0]
	removed := 0
	for _, e := range s.rateEntries {
		if drop[e.ID] {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.rateEntries = kept
	return removed, nil
}

// --- Positions and trades ---

func (s *MemoryStore) ListPositions(_ context.Context) ([]model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Position
	for _, p := range s.positions {
		if p.Status != "closed" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListDetailedPositions(_ context.Context) ([]model.DetailedPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.DetailedPosition, len(s.detailed))
	copy(out, s.detailed)
	return out, nil
}

// ListStockPositions groups detailed positions for one stock by client and
// nets them: buys add, sells subtract. NetPrice is the value-weighted average
// of the client's fills.
func (s *MemoryStore) ListStockPositions(_ context.Context, stockID string) ([]model.ClientPosition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byClient := make(map[string]*model.ClientPosition)
	var order []string

	for _, d := range s.detailed {
		if !strings.EqualFold(d.Script, stockID) {
			continue
		}
		cp, ok := byClient[d.ClientID]
		if !ok {
			cp = &model.ClientPosition{
				ID:       "SP-" + stockID + "-" + d.ClientID,
				ClientID: d.ClientID,
				Nickname: d.Nickname,
			}
			byClient[d.ClientID] = cp
			order = append(order, d.ClientID)
		}
		qty := d.Qty
		if d.Type == model.TradeSell {
			qty = qty.Neg()
		}
		cp.Qty = cp.Qty.Add(qty)
		cp.Value = cp.Value.Add(qty.Mul(d.Price))
	}

	out := make([]model.ClientPosition, 0, len(order))
	for _, clientID := range order {
		cp := byClient[clientID]
		if !cp.Qty.IsZero() {
			cp.NetPrice = cp.Value.Div(cp.Qty)
		}
		out = append(out, *cp)
	}
	return out, nil
}

func (s *MemoryStore) ListClientTrades(_ context.Context, clientID string) ([]model.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Trade
	for _, t := range s.trades {
		if t.ClientID == clientID {
			out = append(out, t)
		}
	}
	return out, nil
}

// InsertTrade appends an immutable trade record. The recorded value must
// equal qty * price; trades are never corrected after the fact, so an
// inconsistent record is rejected at the door.
func (s *MemoryStore) InsertTrade(_ context.Context, t model.Trade) error {
	if !t.Value.Equal(t.Qty.Mul(t.Price)) {
		return model.Invalid("value", "must equal qty * price")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.trades = append(s.trades, t)
	return nil
}

func (s *MemoryStore) ClosePosition(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.positions {
		if s.positions[i].ID == id && s.positions[i].Status != "closed" {
			s.positions[i].Status = "closed"
			return nil
		}
	}
	return fmt.Errorf("position %s: %w", id, model.ErrNotFound)
}

func (s *MemoryStore) SquareOff(_ context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	closed := 0
	for i := range s.positions {
		if drop[s.positions[i].ID] && s.positions[i].Status != "closed" {
			s.positions[i].Status = "closed"
			closed++
		}
	}
	return closed, nil
}

// --- Users ---

func (s *MemoryStore) ListUsers(_ context.Context) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.User, len(s.users))
	copy(out, s.users)
	return out, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == id {
			cp := u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
}

func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.ID = s.nextUserIDLocked()
	s.users = append(s.users, *u)
	return nil
}

func (s *MemoryStore) SaveUser(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i] = u
			return nil
		}
	}
	return fmt.Errorf("user %s: %w", u.ID, model.ErrNotFound)
}

// nextUserIDLocked generates the next "U%03d" id after the highest existing
// one. Caller must hold the write lock.
func (s *MemoryStore) nextUserIDLocked() string {
	max := 0
	for _, u := range s.users {
		if n, err := strconv.Atoi(strings.TrimPrefix(u.ID, "U")); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("U%03d", max+1)
}
