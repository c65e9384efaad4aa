package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

const dateLayout = "2006-01-02"

// Store is the aggregation surface the reporting service reads.
type Store interface {
	SumPurchases(ctx context.Context, window models.DateRange) (models.TransactionTotals, error)
	SumSales(ctx context.Context, window models.DateRange) (models.TransactionTotals, error)
	SumExpenses(ctx context.Context, window models.DateRange) (float64, error)
	PurchasesByCrop(ctx context.Context, window models.DateRange) ([]models.CropTotals, error)
	SalesByCrop(ctx context.Context, window models.DateRange) ([]models.CropTotals, error)
	PurchasesByDay(ctx context.Context, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error)
	SalesByDay(ctx context.Context, window models.DateRange, loc *time.Location) ([]models.DailyTotals, error)
	CountFarmers(ctx context.Context, activeOnly bool) (int64, error)
	CountCrops(ctx context.Context, activeOnly bool) (int64, error)
}

// Cache holds computed dashboard payloads.
type Cache interface {
	GetStats(ctx context.Context, rng models.DateRange) (*models.DashboardStats, bool, error)
	SetStats(ctx context.Context, rng models.DateRange, stats *models.DashboardStats) error
	GetChart(ctx context.Context, chart models.ChartType, rng models.DateRange) (*models.ChartData, bool, error)
	SetChart(ctx context.Context, chart models.ChartType, rng models.DateRange, data *models.ChartData) error
}

// Service computes dashboard analytics and notification summaries.
type Service struct {
	store  Store
	cache  Cache
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new reporting service instance. cache may be nil.
func NewService(store Store, cache Cache, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{store: store, cache: cache, loc: loc, logger: logger, now: time.Now}
}

// ResolveRange fills in missing bounds: start defaults to the first day of
// the current month, end defaults to the last millisecond of the current
// minute so default-range requests share a cache key within that minute.
func (s *Service) ResolveRange(start, end time.Time) models.DateRange {
	now := s.now().In(s.loc)
	if start.IsZero() {
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	}
	if end.IsZero() {
		end = now.Truncate(time.Minute).Add(time.Minute - time.Millisecond)
	}
	return models.DateRange{Start: start, End: end}
}

// Stats returns the dashboard overview and per-crop statistics for rng.
func (s *Service) Stats(ctx context.Context, rng models.DateRange) (*models.DashboardStats, error) {
	if s.cache != nil {
		if cached, found, err := s.cache.GetStats(ctx, rng); err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	purchases, err := s.store.SumPurchases(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("sum purchases: %w", err)
	}
	sales, err := s.store.SumSales(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("sum sales: %w", err)
	}
	expenses, err := s.store.SumExpenses(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("sum expenses: %w", err)
	}
	farmers, err := s.store.CountFarmers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("count farmers: %w", err)
	}
	crops, err := s.store.CountCrops(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("count crops: %w", err)
	}
	cropStats, err := s.cropStats(ctx, rng)
	if err != nil {
		return nil, err
	}

	stats := &models.DashboardStats{
		Overview: models.Overview{
			TotalPurchased: purchases.Quantity,
			TotalSold:      sales.Quantity,
			TotalCost:      purchases.Amount,
			TotalRevenue:   sales.Amount,
			TotalExpenses:  expenses,
			NetProfit:      sales.Amount - purchases.Amount - expenses,
			FarmerCount:    farmers,
			CropCount:      crops,
		},
		CropStats: cropStats,
		DateRange: rng,
	}

	if s.cache != nil {
		if err := s.cache.SetStats(ctx, rng, stats); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// cropStats merges purchase and sale totals per crop. Crops with purchases
// come first in purchase order, sale-only crops follow.
func (s *Service) cropStats(ctx context.Context, rng models.DateRange) ([]models.CropStat, error) {
	bought, err := s.store.PurchasesByCrop(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("purchases by crop: %w", err)
	}
	sold, err := s.store.SalesByCrop(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("sales by crop: %w", err)
	}

	out := make([]models.CropStat, 0, len(bought)+len(sold))
	index := make(map[string]int, len(bought))
	for _, p := range bought {
		index[p.CropID.Hex()] = len(out)
		out = append(out, models.CropStat{
			CropID:         p.CropID,
			CropName:       p.CropName,
			Unit:           p.Unit,
			TotalPurchased: p.Quantity,
			TotalCost:      p.Amount,
			AvgBuyingRate:  p.AvgRate,
			Profit:         -p.Amount,
		})
	}
	for _, sale := range sold {
		i, ok := index[sale.CropID.Hex()]
		if !ok {
			i = len(out)
			out = append(out, models.CropStat{CropID: sale.CropID, CropName: sale.CropName, Unit: sale.Unit})
		}
		stat := &out[i]
		stat.TotalSold = sale.Quantity
		stat.TotalRevenue = sale.Amount
		stat.AvgSellingRate = sale.AvgRate
		stat.Profit = sale.Amount - stat.TotalCost
	}
	return out, nil
}

// Charts returns chart data of the requested type for rng.
func (s *Service) Charts(ctx context.Context, chart models.ChartType, rng models.DateRange) (*models.ChartData, error) {
	if chart == "" {
		chart = models.ChartDaily
	}
	if chart != models.ChartDaily && chart != models.ChartCrop {
		return nil, fmt.Errorf("%w: unknown chart type %q", models.ErrValidation, chart)
	}

	if s.cache != nil {
		if cached, found, err := s.cache.GetChart(ctx, chart, rng); err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if found {
			return cached, nil
		}
	}

	data := &models.ChartData{ChartType: chart, DateRange: rng}
	switch chart {
	case models.ChartDaily:
		points, err := s.dailyPoints(ctx, rng)
		if err != nil {
			return nil, err
		}
		data.Data = points
	case models.ChartCrop:
		totals, err := s.store.PurchasesByCrop(ctx, rng)
		if err != nil {
			return nil, fmt.Errorf("purchases by crop: %w", err)
		}
		points := make([]models.CropChartPoint, 0, len(totals))
		for _, t := range totals {
			points = append(points, models.CropChartPoint{
				CropID:         t.CropID,
				CropName:       t.CropName,
				Unit:           t.Unit,
				TotalPurchased: t.Quantity,
				TotalCost:      t.Amount,
			})
		}
		data.Data = points
	}

	if s.cache != nil {
		if err := s.cache.SetChart(ctx, chart, rng, data); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return data, nil
}

func (s *Service) dailyPoints(ctx context.Context, rng models.DateRange) ([]models.DailyPoint, error) {
	bought, err := s.store.PurchasesByDay(ctx, rng, s.loc)
	if err != nil {
		return nil, fmt.Errorf("purchases by day: %w", err)
	}
	sold, err := s.store.SalesByDay(ctx, rng, s.loc)
	if err != nil {
		return nil, fmt.Errorf("sales by day: %w", err)
	}

	byDay := make(map[string]*models.DailyPoint, len(bought)+len(sold))
	point := func(day string) *models.DailyPoint {
		p, ok := byDay[day]
		if !ok {
			p = &models.DailyPoint{Date: day}
			byDay[day] = p
		}
		return p
	}
	for _, d := range bought {
		p := point(d.Day)
		p.Purchases = d.Quantity
		p.Cost = d.Amount
	}
	for _, d := range sold {
		p := point(d.Day)
		p.Sales = d.Quantity
		p.Revenue = d.Amount
	}

	out := make([]models.DailyPoint, 0, len(byDay))
	for _, p := range byDay {
		p.Profit = p.Revenue - p.Cost
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// DailyStockSummary renders the closing position of every crop for a
// WhatsApp notification.
func (s *Service) DailyStockSummary(day time.Time, statuses []models.StockStatus) string {
	label := day.In(s.loc).Format(dateLayout)
	if len(statuses) == 0 {
		return fmt.Sprintf("Stock summary (%s): no active crops.", label)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stock summary (%s)", label)
	for _, st := range statuses {
		fmt.Fprintf(&b, "\n%s: %.2f %s (in %.2f, out %.2f)",
			st.Crop.CropName, st.ClosingStock, st.Crop.Unit, st.Purchased, st.Sold)
		if st.AvgBuyingRate > 0 {
			fmt.Fprintf(&b, ", buy avg %.2f", st.AvgBuyingRate)
		}
		if st.AvgSellingRate > 0 {
			fmt.Fprintf(&b, ", sell avg %.2f", st.AvgSellingRate)
		}
	}
	return b.String()
}

// WeeklySummary reports trading totals for the seven days ending at now.
func (s *Service) WeeklySummary(ctx context.Context, now time.Time) (string, error) {
	end := now.In(s.loc)
	start := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, -6)
	rng := models.DateRange{Start: start, End: end}

	stats, err := s.Stats(ctx, rng)
	if err != nil {
		return "", fmt.Errorf("weekly stats: %w", err)
	}

	o := stats.Overview
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly report (%s-%s)\n", start.Format(dateLayout), end.Format(dateLayout))
	fmt.Fprintf(&b, "Purchased %.2f for %.2f\n", o.TotalPurchased, o.TotalCost)
	fmt.Fprintf(&b, "Sold %.2f for %.2f\n", o.TotalSold, o.TotalRevenue)
	fmt.Fprintf(&b, "Expenses %.2f\n", o.TotalExpenses)
	fmt.Fprintf(&b, "Net profit %.2f", o.NetProfit)

	for _, c := range stats.CropStats {
		fmt.Fprintf(&b, "\n- %s: profit %.2f", c.CropName, c.Profit)
	}
	return b.String(), nil
}
