package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DailySummary aggregates one calendar day's completed sales. Figures are
// summed with decimal arithmetic so per-sale rounding noise does not
// accumulate across a busy day.
type DailySummary struct {
	Date         string  `json:"date"`
	SalesCount   int     `json:"sales_count"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalCost    float64 `json:"total_cost"`
	TotalProfit  float64 `json:"total_profit"`
}

// ReportService produces sales summaries.
type ReportService struct {
	store SaleStore
}

func NewReportService(store SaleStore) *ReportService {
	return &ReportService{store: store}
}

// DailySummary returns totals for all completed sales on the given day,
// interpreted in day's location.
func (s *ReportService) DailySummary(ctx context.Context, day time.Time) (*DailySummary, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.AddDate(0, 0, 1)

	totals, err := s.store.CompletedTotalsBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	revenue, cost, profit := decimal.Zero, decimal.Zero, decimal.Zero
	for _, t := range totals {
		revenue = revenue.Add(decimal.NewFromFloat(t.FinalTotal))
		cost = cost.Add(decimal.NewFromFloat(t.TotalCost))
		profit = profit.Add(decimal.NewFromFloat(t.NetProfit))
	}

	return &DailySummary{
		Date:         from.Format("2006-01-02"),
		SalesCount:   len(totals),
		TotalRevenue: revenue.InexactFloat64(),
		TotalCost:    cost.InexactFloat64(),
		TotalProfit:  profit.InexactFloat64(),
	}, nil
}
