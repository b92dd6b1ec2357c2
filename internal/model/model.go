// Package model defines the core domain types shared across the brokerage
// operations service. All monetary values use shopspring/decimal — never
// float64 for money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateKind distinguishes percentage brokerage from fixed-amount brokerage.
type RateKind string

const (
	KindPercentage RateKind = "percentage"
	KindAmount     RateKind = "amount"
)

// RateValue is a tagged brokerage rate. AdminValue is set by a higher
// authority and is read-only to the entity being configured; MasterValue is
// the broker's markup. The effective total is always derived, never stored.
type RateValue struct {
	Kind        RateKind        `json:"kind"`
	AdminValue  decimal.Decimal `json:"adminValue"`
	MasterValue decimal.Decimal `json:"masterValue"`
}

// Total returns adminValue + masterValue in the unit implied by Kind.
func (v RateValue) Total() decimal.Decimal {
	return v.AdminValue.Add(v.MasterValue)
}

// ScopeKind selects which level a client rate entry applies at.
type ScopeKind string

const (
	ScopeGlobal  ScopeKind = "global"
	ScopeSegment ScopeKind = "segment"
	ScopeScript  ScopeKind = "script"
)

// TradeType is the side of a trade.
type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// Segment is one row of the segment-wise brokerage master table.
// JSON shape matches the console contract: {id, title, admin_value,
// master_value, percentage, is_blocked}.
type Segment struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	AdminValue  decimal.Decimal `json:"admin_value"`
	MasterValue decimal.Decimal `json:"master_value"`
	Percentage  bool            `json:"percentage"`
	IsBlocked   bool            `json:"is_blocked"`
}

// Rate returns the segment's brokerage values as a RateValue.
func (s Segment) Rate() RateValue {
	kind := KindAmount
	if s.Percentage {
		kind = KindPercentage
	}
	return RateValue{Kind: kind, AdminValue: s.AdminValue, MasterValue: s.MasterValue}
}

// Script is one row of the script-wise (ticker) brokerage master table.
type Script struct {
	ID          int64           `json:"id"`
	ScriptName  string          `json:"scriptName"`
	Symbol      string          `json:"symbol"`
	Segment     string          `json:"segment"`
	Percentage  bool            `json:"percentage"`
	AdminValue  decimal.Decimal `json:"adminValue"`
	MasterValue decimal.Decimal `json:"masterValue"`
	IsBlocked   bool            `json:"isBlocked"`
}

// Rate returns the script's brokerage values as a RateValue.
func (s Script) Rate() RateValue {
	kind := KindAmount
	if s.Percentage {
		kind = KindPercentage
	}
	return RateValue{Kind: kind, AdminValue: s.AdminValue, MasterValue: s.MasterValue}
}

// RateEntry is a client-specific brokerage override. Exactly one scope level
// applies: global, one segment, or one script.
type RateEntry struct {
	ID              int64           `json:"id"`
	ClientID        string          `json:"clientId"`
	ClientName      string          `json:"clientName,omitempty"`
	ApplicationType ScopeKind       `json:"applicationType"`
	Segment         string          `json:"segment,omitempty"`
	ScriptName      string          `json:"scriptName,omitempty"`
	BrokerageType   RateKind        `json:"brokerageType"`
	AdminValue      decimal.Decimal `json:"adminValue"`
	MasterValue     decimal.Decimal `json:"masterValue"`
}

// Rate returns the entry's brokerage values as a RateValue.
func (e RateEntry) Rate() RateValue {
	return RateValue{Kind: e.BrokerageType, AdminValue: e.AdminValue, MasterValue: e.MasterValue}
}

// Position is an open position as shown on the positions dashboard.
type Position struct {
	ID            string          `json:"id"`
	Script        string          `json:"script"`
	Segment       string          `json:"segment"`
	Expiry        string          `json:"expiry,omitempty"`
	Qty           decimal.Decimal `json:"qty"` // signed: positive = long, negative = short
	Price         decimal.Decimal `json:"price"`
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	Pnl           decimal.Decimal `json:"pnl"`
	PnlPercentage decimal.Decimal `json:"pnlPercentage"`
	Status        string          `json:"status,omitempty"` // "open" or "closed"
}

// DetailedPosition is a position joined with its owning client.
type DetailedPosition struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"clientId"`
	Nickname      string          `json:"nickname"`
	Script        string          `json:"script"`
	Segment       string          `json:"segment"`
	Expiry        string          `json:"expiry,omitempty"`
	Type          TradeType       `json:"type"`
	Qty           decimal.Decimal `json:"qty"`
	Price         decimal.Decimal `json:"price"`
	Value         decimal.Decimal `json:"value"` // qty * price at time of recording
	CurrentPrice  decimal.Decimal `json:"currentPrice"`
	Pnl           decimal.Decimal `json:"pnl"`
	PnlPercentage decimal.Decimal `json:"pnlPercentage"`
	Timestamp     time.Time       `json:"timestamp"`
}

// ClientPosition is one client's net position in a single stock.
type ClientPosition struct {
	ID       string          `json:"id"`
	ClientID string          `json:"clientId"`
	Nickname string          `json:"nickname"`
	NetPrice decimal.Decimal `json:"netPrice"`
	Qty      decimal.Decimal `json:"qty"`
	Value    decimal.Decimal `json:"value"`
}

// Trade is an immutable record of one execution for a client.
// Once recorded, trades are never modified or deleted.
type Trade struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"clientId"`
	Type      TradeType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Qty       decimal.Decimal `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Value     decimal.Decimal `json:"value"` // qty * price
}

// User is a console-managed client account. The password hash never leaves
// the service.
type User struct {
	ID           string `json:"id"`
	Nickname     string `json:"nickname"`
	Type         string `json:"type"` // always "Client"
	Enabled      bool   `json:"enabled"`
	Locked       bool   `json:"locked"`
	PasswordHash string `json:"-"`
}
