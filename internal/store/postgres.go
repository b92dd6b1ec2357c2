package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision and
// scanned through their text form.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, model.ErrNotFound)
	}
	return err
}

// --- Segments ---

func (s *PostgresStore) ListSegments(ctx context.Context) ([]model.Segment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, admin_value::TEXT, master_value::TEXT, percentage, is_blocked
		 FROM segments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []model.Segment
	for rows.Next() {
		var seg model.Segment
		var admin, master string
		if err := rows.Scan(&seg.ID, &seg.Title, &admin, &master, &seg.Percentage, &seg.IsBlocked); err != nil {
			return nil, err
		}
		seg.AdminValue, _ = decimal.NewFromString(admin)
		seg.MasterValue, _ = decimal.NewFromString(master)
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func (s *PostgresStore) GetSegment(ctx context.Context, id int64) (*model.Segment, error) {
	var seg model.Segment
	var admin, master string

	err := s.pool.QueryRow(ctx,
		`SELECT id, title, admin_value::TEXT, master_value::TEXT, percentage, is_blocked
		 FROM segments WHERE id = $1`, id).
		Scan(&seg.ID, &seg.Title, &admin, &master, &seg.Percentage, &seg.IsBlocked)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("segment %d", id))
	}

	seg.AdminValue, _ = decimal.NewFromString(admin)
	seg.MasterValue, _ = decimal.NewFromString(master)
	return &seg, nil
}

func (s *PostgresStore) SaveSegment(ctx context.Context, seg model.Segment) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE segments
		 SET title = $2, admin_value = $3::NUMERIC, master_value = $4::NUMERIC,
		     percentage = $5, is_blocked = $6
		 WHERE id = $1`,
		seg.ID, seg.Title, seg.AdminValue.String(), seg.MasterValue.String(),
		seg.Percentage, seg.IsBlocked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("segment %d: %w", seg.ID, model.ErrNotFound)
	}
	return nil
}

// --- Scripts ---

func (s *PostgresStore) ListScripts(ctx context.Context) ([]model.Script, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, script_name, symbol, segment, percentage,
		        admin_value::TEXT, master_value::TEXT, is_blocked
		 FROM scripts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []model.Script
	for rows.Next() {
		sc, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, sc)
	}
	return scripts, rows.Err()
}

func (s *PostgresStore) GetScript(ctx context.Context, id int64) (*model.Script, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, script_name, symbol, segment, percentage,
		        admin_value::TEXT, master_value::TEXT, is_blocked
		 FROM scripts WHERE id = $1`, id)
	sc, err := scanScript(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("script %d", id))
	}
	return &sc, nil
}

func (s *PostgresStore) CreateScript(ctx context.Context, sc *model.Script) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO scripts (script_name, symbol, segment, percentage, admin_value, master_value, is_blocked)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC, $7)
		 RETURNING id`,
		sc.ScriptName, sc.Symbol, sc.Segment, sc.Percentage,
		sc.AdminValue.String(), sc.MasterValue.String(), sc.IsBlocked).
		Scan(&sc.ID)
}

func (s *PostgresStore) SaveScript(ctx context.Context, sc model.Script) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE scripts
		 SET script_name = $2, symbol = $3, segment = $4, percentage = $5,
		     admin_value = $6::NUMERIC, master_value = $7::NUMERIC, is_blocked = $8
		 WHERE id = $1`,
		sc.ID, sc.ScriptName, sc.Symbol, sc.Segment, sc.Percentage,
		sc.AdminValue.String(), sc.MasterValue.String(), sc.IsBlocked)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("script %d: %w", sc.ID, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteScript(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scripts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("script %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteScripts(ctx context.Context, ids []int64) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scripts WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// --- Rate entries ---

func (s *PostgresStore) ListRateEntries(ctx context.Context, clientID string) ([]model.RateEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, client_name, application_type, segment, script_name,
		        brokerage_type, admin_value::TEXT, master_value::TEXT
		 FROM rate_entries
		 WHERE $1 = '' OR client_id = $1
		 ORDER BY id`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.RateEntry
	for rows.Next() {
		e, err := scanRateEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) GetRateEntry(ctx context.Context, id int64) (*model.RateEntry, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, client_id, client_name, application_type, segment, script_name,
		        brokerage_type, admin_value::TEXT, master_value::TEXT
		 FROM rate_entries WHERE id = $1`, id)
	e, err := scanRateEntry(row)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("rate entry %d", id))
	}
	return &e, nil
}

func (s *PostgresStore) CreateRateEntry(ctx context.Context, e *model.RateEntry) error {
	return s.pool.QueryRow(ctx,
		`INSERT INTO rate_entries (client_id, client_name, application_type, segment, script_name,
		                           brokerage_type, admin_value, master_value)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::NUMERIC, $8::NUMERIC)
		 RETURNING id`,
		e.ClientID, e.ClientName, e.ApplicationType, e.Segment, e.ScriptName,
		e.BrokerageType, e.AdminValue.String(), e.MasterValue.String()).
		Scan(&e.ID)
}

func (s *PostgresStore) SaveRateEntry(ctx context.Context, e model.RateEntry) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rate_entries
		 SET client_id = $2, client_name = $3, application_type = $4, segment = $5,
		     script_name = $6, brokerage_type = $7,
		     admin_value = $8::NUMERIC, master_value = $9::NUMERIC
		 WHERE id = $1`,
		e.ID, e.ClientID, e.ClientName, e.ApplicationType, e.Segment,
		e.ScriptName, e.BrokerageType, e.AdminValue.String(), e.MasterValue.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rate entry %d: %w", e.ID, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteRateEntry(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rate_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rate entry %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteRateEntries(ctx context.Context, ids []int64) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM rate_entries WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// --- Positions and trades ---

func (s *PostgresStore) ListPositions(ctx context.Context) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, script, segment, COALESCE(expiry, ''),
		        qty::TEXT, price::TEXT, current_price::TEXT,
		        pnl::TEXT, pnl_percentage::TEXT, status
		 FROM positions WHERE status <> 'closed' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		var qty, price, current, pnl, pct string
		if err := rows.Scan(&p.ID, &p.Script, &p.Segment, &p.Expiry,
			&qty, &price, &current, &pnl, &pct, &p.Status); err != nil {
			return nil, err
		}
		p.Qty, _ = decimal.NewFromString(qty)
		p.Price, _ = decimal.NewFromString(price)
		p.CurrentPrice, _ = decimal.NewFromString(current)
		p.Pnl, _ = decimal.NewFromString(pnl)
		p.PnlPercentage, _ = decimal.NewFromString(pct)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *PostgresStore) ListDetailedPositions(ctx context.Context) ([]model.DetailedPosition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, nickname, script, segment, COALESCE(expiry, ''), type,
		        qty::TEXT, price::TEXT, value::TEXT, current_price::TEXT,
		        pnl::TEXT, pnl_percentage::TEXT, timestamp
		 FROM detailed_positions ORDER BY timestamp`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.DetailedPosition
	for rows.Next() {
		var p model.DetailedPosition
		var qty, price, value, current, pnl, pct string
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Nickname, &p.Script, &p.Segment,
			&p.Expiry, &p.Type, &qty, &price, &value, &current, &pnl, &pct,
			&p.Timestamp); err != nil {
			return nil, err
		}
		p.Qty, _ = decimal.NewFromString(qty)
		p.Price, _ = decimal.NewFromString(price)
		p.Value, _ = decimal.NewFromString(value)
		p.CurrentPrice, _ = decimal.NewFromString(current)
		p.Pnl, _ = decimal.NewFromString(pnl)
		p.PnlPercentage, _ = decimal.NewFromString(pct)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *PostgresStore) ListStockPositions(ctx context.Context, stockID string) ([]model.ClientPosition, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT
			'SP-' || $1 || '-' || client_id,
			client_id,
			nickname,
			COALESCE(SUM(CASE WHEN type = 'BUY' THEN qty ELSE -qty END), 0)::TEXT AS net_qty,
			COALESCE(SUM(CASE WHEN type = 'BUY' THEN qty * price ELSE -(qty * price) END), 0)::TEXT AS net_value
		 FROM detailed_positions
		 WHERE UPPER(script) = UPPER($1)
		 GROUP BY client_id, nickname
		 ORDER BY client_id`, stockID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.ClientPosition
	for rows.Next() {
		var p model.ClientPosition
		var qty, value string
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Nickname, &qty, &value); err != nil {
			return nil, err
		}
		p.Qty, _ = decimal.NewFromString(qty)
		p.Value, _ = decimal.NewFromString(value)
		if !p.Qty.IsZero() {
			p.NetPrice = p.Value.Div(p.Qty)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *PostgresStore) ListClientTrades(ctx context.Context, clientID string) ([]model.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, client_id, type, timestamp, qty::TEXT, price::TEXT, value::TEXT
		 FROM trades WHERE client_id = $1 ORDER BY timestamp`, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var t model.Trade
		var qty, price, value string
		if err := rows.Scan(&t.ID, &t.ClientID, &t.Type, &t.Timestamp, &qty, &price, &value); err != nil {
			return nil, err
		}
		t.Qty, _ = decimal.NewFromString(qty)
		t.Price, _ = decimal.NewFromString(price)
		t.Value, _ = decimal.NewFromString(value)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *PostgresStore) ClosePosition(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE positions SET status = 'closed' WHERE id = $1 AND status <> 'closed'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) SquareOff(ctx context.Context, ids []string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE positions SET status = 'closed' WHERE id = ANY($1) AND status <> 'closed'`, ids)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// --- Users ---

func (s *PostgresStore) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, nickname, type, enabled, locked, password_hash
		 FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Nickname, &u.Type, &u.Enabled, &u.Locked, &u.PasswordHash); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, nickname, type, enabled, locked, password_hash
		 FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Nickname, &u.Type, &u.Enabled, &u.Locked, &u.PasswordHash)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("user %s", id))
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *model.User) error {
	// User ids follow the console's U%03d convention.
	return s.pool.QueryRow(ctx,
		`INSERT INTO users (id, nickname, type, enabled, locked, password_hash)
		 VALUES (
			'U' || LPAD((SELECT COALESCE(MAX(SUBSTRING(id FROM 2)::INT), 0) + 1 FROM users)::TEXT, 3, '0'),
			$1, $2, $3, $4, $5)
		 RETURNING id`,
		u.Nickname, u.Type, u.Enabled, u.Locked, u.PasswordHash).
		Scan(&u.ID)
}

func (s *PostgresStore) SaveUser(ctx context.Context, u model.User) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users
		 SET nickname = $2, type = $3, enabled = $4, locked = $5, password_hash = $6
		 WHERE id = $1`,
		u.ID, u.Nickname, u.Type, u.Enabled, u.Locked, u.PasswordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", u.ID, model.ErrNotFound)
	}
	return nil
}

// --- Row scanning helpers ---

type row interface {
	Scan(dest ...interface{}) error
}

func scanScript(r row) (model.Script, error) {
	var sc model.Script
	var admin, master string
	if err := r.Scan(&sc.ID, &sc.ScriptName, &sc.Symbol, &sc.Segment, &sc.Percentage,
		&admin, &master, &sc.IsBlocked); err != nil {
		return model.Script{}, err
	}
	sc.AdminValue, _ = decimal.NewFromString(admin)
	sc.MasterValue, _ = decimal.NewFromString(master)
	return sc, nil
}

func scanRateEntry(r row) (model.RateEntry, error) {
	var e model.RateEntry
	var admin, master string
	if err := r.Scan(&e.ID, &e.ClientID, &e.ClientName, &e.ApplicationType, &e.Segment,
		&e.ScriptName, &e.BrokerageType, &admin, &master); err != nil {
		return model.RateEntry{}, err
	}
	e.AdminValue, _ = decimal.NewFromString(admin)
	e.MasterValue, _ = decimal.NewFromString(master)
	return e, nil
}
