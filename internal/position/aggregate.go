// Package position provides the positions/trades HTTP service and the pure
// aggregation functions behind the dashboard summary figures.
package position

import (
	"github.com/shopspring/decimal"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

var hundred = decimal.NewFromInt(100)

// PortfolioSummary is the roll-up shown above the positions table.
type PortfolioSummary struct {
	TotalValue         decimal.Decimal `json:"totalValue"`
	TotalPnl           decimal.Decimal `json:"totalPnl"`
	TotalPnlPercentage decimal.Decimal `json:"totalPnlPercentage"`
	TotalPositions     int             `json:"totalPositions"`
}

// TradeSummary is the roll-up shown above a client's trade history.
type TradeSummary struct {
	BuyQty         decimal.Decimal `json:"buyQty"`
	SellQty        decimal.Decimal `json:"sellQty"`
	NetQty         decimal.Decimal `json:"netQty"`
	AvgPrice       decimal.Decimal `json:"avgPrice"`
	TotalTrades    int             `json:"totalTrades"`
	TotalBuyValue  decimal.Decimal `json:"totalBuyValue"`
	TotalSellValue decimal.Decimal `json:"totalSellValue"`
}

// PnL computes qty * (currentPrice - price).
func PnL(qty, price, currentPrice decimal.Decimal) decimal.Decimal {
	return qty.Mul(currentPrice.Sub(price))
}

// PnLPercentage computes pnl / (qty * price) * 100, or zero when the
// denominator is zero.
func PnLPercentage(qty, price, pnl decimal.Decimal) decimal.Decimal {
	basis := qty.Mul(price)
	if basis.IsZero() {
		return decimal.Zero
	}
	return pnl.Div(basis).Mul(hundred)
}

// Summarize rolls a position list up into portfolio totals. Pure: the input
// is never mutated, and an empty list yields all-zero figures rather than a
// division-by-zero.
func Summarize(positions []model.Position) PortfolioSummary {
	totalValue := decimal.Zero
	totalPnl := decimal.Zero
	costBasis := decimal.Zero

	for _, p := range positions {
		totalValue = totalValue.Add(p.Qty.Mul(p.CurrentPrice).Abs())
		totalPnl = totalPnl.Add(p.Pnl)
		costBasis = costBasis.Add(p.Qty.Mul(p.Price).Abs())
	}

	pct := decimal.Zero
	if !costBasis.IsZero() {
		pct = totalPnl.Div(costBasis).Mul(hundred)
	}

	return PortfolioSummary{
		TotalValue:         totalValue,
		TotalPnl:           totalPnl,
		TotalPnlPercentage: pct,
		TotalPositions:     len(positions),
	}
}

// SummarizeTrades rolls a client's trade history up into buy/sell totals.
// AvgPrice is the unweighted mean of trade prices — this mirrors the figure
// the console has always shown, not a volume-weighted average.
func SummarizeTrades(trades []model.Trade) TradeSummary {
	s := TradeSummary{TotalTrades: len(trades)}
	priceSum := decimal.Zero

	for _, t := range trades {
		priceSum = priceSum.Add(t.Price)
		switch t.Type {
		case model.TradeBuy:
			s.BuyQty = s.BuyQty.Add(t.Qty)
			s.TotalBuyValue = s.TotalBuyValue.Add(t.Value)
		case model.TradeSell:
			s.SellQty = s.SellQty.Add(t.Qty)
			s.TotalSellValue = s.TotalSellValue.Add(t.Value)
		}
	}

	s.NetQty = s.BuyQty.Sub(s.SellQty)
	if len(trades) > 0 {
		s.AvgPrice = priceSum.Div(decimal.NewFromInt(int64(len(trades))))
	}
	return s
}
