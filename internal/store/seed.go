package store

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// NewSeededMemoryStore returns a memory store pre-populated with the same
// fixed datasets the console falls back to when the backend is unreachable.
// Running the service without DATABASE_URL serves exactly this data.
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()

	s.segments = []model.Segment{
		{ID: 1, Title: "NSE", AdminValue: dec(0.25), MasterValue: dec(0.10), Percentage: true},
		{ID: 2, Title: "BSE", AdminValue: dec(0.25), MasterValue: dec(0.12), Percentage: true},
		{ID: 3, Title: "F&O", AdminValue: dec(20), MasterValue: dec(10), Percentage: false},
		{ID: 4, Title: "MCX", AdminValue: dec(0.02), MasterValue: dec(0.01), Percentage: true},
		{ID: 5, Title: "NCDEX", AdminValue: dec(0.03), MasterValue: dec(0.01), Percentage: true, IsBlocked: true},
	}

	s.scripts = []model.Script{
		{ID: 1, ScriptName: "Reliance Industries", Symbol: "RELIANCE", Segment: "NSE", Percentage: true, AdminValue: dec(0.20), MasterValue: dec(0.05)},
		{ID: 2, ScriptName: "Tata Consultancy Services", Symbol: "TCS", Segment: "NSE", Percentage: true, AdminValue: dec(0.20), MasterValue: dec(0.08)},
		{ID: 3, ScriptName: "Infosys", Symbol: "INFY", Segment: "NSE", Percentage: true, AdminValue: dec(0.20), MasterValue: dec(0.06)},
		{ID: 4, ScriptName: "HDFC Bank", Symbol: "HDFCBANK", Segment: "BSE", Percentage: true, AdminValue: dec(0.22), MasterValue: dec(0.05)},
		{ID: 5, ScriptName: "Nifty 50 Futures", Symbol: "NIFTY", Segment: "F&O", Percentage: false, AdminValue: dec(25), MasterValue: dec(15), IsBlocked: true},
	}
	s.nextScriptID = 6

	s.rateEntries = []model.RateEntry{
		{ID: 1, ClientID: "CL001", ClientName: "John Doe", ApplicationType: model.ScopeGlobal, BrokerageType: model.KindPercentage, AdminValue: dec(0.30), MasterValue: dec(0.10)},
		{ID: 2, ClientID: "CL001", ClientName: "John Doe", ApplicationType: model.ScopeSegment, Segment: "NSE", BrokerageType: model.KindPercentage, AdminValue: dec(0.25), MasterValue: dec(0.08)},
		{ID: 3, ClientID: "CL001", ClientName: "John Doe", ApplicationType: model.ScopeScript, ScriptName: "RELIANCE", BrokerageType: model.KindPercentage, AdminValue: dec(0.20), MasterValue: dec(0.05)},
		{ID: 4, ClientID: "CL002", ClientName: "Jane Smith", ApplicationType: model.ScopeGlobal, BrokerageType: model.KindAmount, AdminValue: dec(15), MasterValue: dec(5)},
	}
	s.nextRateID = 5

	s.positions = []model.Position{
		{ID: "P001", Script: "RELIANCE", Segment: "Equity", Qty: dec(100), Price: dec(2450.50), CurrentPrice: dec(2465.75), Pnl: dec(1525.00), PnlPercentage: dec(0.62), Status: "open"},
		{ID: "P002", Script: "TCS", Segment: "Equity", Qty: dec(50), Price: dec(3890.25), CurrentPrice: dec(3875.00), Pnl: dec(-762.50), PnlPercentage: dec(-0.39), Status: "open"},
		{ID: "P003", Script: "RELIANCE", Segment: "Futures", Expiry: "2024-03-28", Qty: dec(250), Price: dec(2440.00), CurrentPrice: dec(2465.75), Pnl: dec(6437.50), PnlPercentage: dec(1.05), Status: "open"},
		{ID: "P004", Script: "NIFTY", Segment: "Options", Expiry: "2024-03-21", Qty: dec(75), Price: dec(18450.50), CurrentPrice: dec(18520.25), Pnl: dec(5231.25), PnlPercentage: dec(0.38), Status: "open"},
		{ID: "P005", Script: "INFY", Segment: "Equity", Qty: dec(80), Price: dec(1485.75), CurrentPrice: dec(1475.25), Pnl: dec(-840.00), PnlPercentage: dec(-0.71), Status: "open"},
	}

	s.detailed = []model.DetailedPosition{
		{ID: "DP001", ClientID: "C001", Nickname: "john_doe", Script: "RELIANCE", Segment: "Equity", Type: model.TradeBuy, Qty: dec(100), Price: dec(2450.50), Value: dec(245050), CurrentPrice: dec(2465.75), Pnl: dec(1525.00), PnlPercentage: dec(0.62), Timestamp: ts("2024-03-15T09:30:00Z")},
		{ID: "DP002", ClientID: "C002", Nickname: "jane_smith", Script: "TCS", Segment: "Equity", Type: model.TradeBuy, Qty: dec(50), Price: dec(3890.25), Value: dec(194512.50), CurrentPrice: dec(3875.00), Pnl: dec(-762.50), PnlPercentage: dec(-0.39), Timestamp: ts("2024-03-15T10:15:00Z")},
		{ID: "DP003", ClientID: "C001", Nickname: "john_doe", Script: "RELIANCE", Segment: "Futures", Expiry: "2024-03-28", Type: model.TradeBuy, Qty: dec(250), Price: dec(2440.00), Value: dec(610000), CurrentPrice: dec(2465.75), Pnl: dec(6437.50), PnlPercentage: dec(1.05), Timestamp: ts("2024-03-15T11:20:00Z")},
		{ID: "DP004", ClientID: "C003", Nickname: "mike_wilson", Script: "NIFTY", Segment: "Options", Expiry: "2024-03-21", Type: model.TradeBuy, Qty: dec(75), Price: dec(18450.50), Value: dec(1383787.50), CurrentPrice: dec(18520.25), Pnl: dec(5231.25), PnlPercentage: dec(0.38), Timestamp: ts("2024-03-15T12:05:00Z")},
	}

	s.trades = []model.Trade{
		{ID: "T001", ClientID: "C001", Type: model.TradeBuy, Timestamp: ts("2024-03-15T09:30:00Z"), Qty: dec(100), Price: dec(2450.50), Value: dec(245050)},
		{ID: "T002", ClientID: "C001", Type: model.TradeBuy, Timestamp: ts("2024-03-15T11:20:00Z"), Qty: dec(250), Price: dec(2440.00), Value: dec(610000)},
		{ID: "T003", ClientID: "C001", Type: model.TradeSell, Timestamp: ts("2024-03-16T10:00:00Z"), Qty: dec(50), Price: dec(2470.25), Value: dec(123512.50)},
		{ID: "T004", ClientID: "C002", Type: model.TradeBuy, Timestamp: ts("2024-03-15T10:15:00Z"), Qty: dec(50), Price: dec(3890.25), Value: dec(194512.50)},
	}

	// Seed users share one throwaway password; MinCost keeps startup fast.
	hash, _ := bcrypt.GenerateFromPassword([]byte("changeme"), bcrypt.MinCost)
	s.users = []model.User{
		{ID: "U001", Nickname: "john_doe", Type: "Client", Enabled: true, Locked: false, PasswordHash: string(hash)},
		{ID: "U002", Nickname: "jane_smith", Type: "Client", Enabled: false, Locked: true, PasswordHash: string(hash)},
		{ID: "U003", Nickname: "mike_wilson", Type: "Client", Enabled: true, Locked: false, PasswordHash: string(hash)},
		{ID: "U004", Nickname: "sarah_connor", Type: "Client", Enabled: false, Locked: false, PasswordHash: string(hash)},
		{ID: "U005", Nickname: "alex_morgan", Type: "Client", Enabled: true, Locked: true, PasswordHash: string(hash)},
	}

	return s
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func ts(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
