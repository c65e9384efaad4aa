package reporting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository/memory"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type seeded struct {
	store *memory.Store
	maize *models.Crop
	wheat *models.Crop
	rice  *models.Crop
}

func seed(t *testing.T) seeded {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	maize := &models.Crop{CropName: "MAIZE", Unit: models.UnitQuintal, IsActive: true}
	wheat := &models.Crop{CropName: "WHEAT", Unit: models.UnitQuintal, IsActive: true}
	rice := &models.Crop{CropName: "RICE", Unit: models.UnitBag, IsActive: true}
	for _, c := range []*models.Crop{maize, wheat, rice} {
		if err := store.InsertCrop(ctx, c); err != nil {
			t.Fatalf("InsertCrop: %v", err)
		}
	}
	farmer := &models.Farmer{Name: "Anil", Village: "Baramati", Contact: "9999999999", IsActive: true}
	_ = store.InsertFarmer(ctx, farmer)

	purchase := func(crop *models.Crop, qty, rate float64, day int) {
		p := &models.Purchase{CropID: crop.ID, FarmerID: farmer.ID, Quantity: qty, Rate: rate, PurchaseDate: time.Date(2025, time.June, day, 10, 0, 0, 0, ist)}
		p.Recalculate()
		_ = store.InsertPurchase(ctx, p)
	}
	sale := func(crop *models.Crop, qty, rate float64, day int) {
		s := &models.Sale{CropID: crop.ID, BuyerName: "Mandi", Quantity: qty, Rate: rate, SaleDate: time.Date(2025, time.June, day, 16, 0, 0, 0, ist)}
		s.Recalculate()
		_ = store.InsertSale(ctx, s)
	}

	purchase(maize, 10, 100, 2)
	purchase(maize, 10, 200, 3)
	purchase(wheat, 50, 20, 3)
	sale(maize, 15, 250, 3)
	sale(rice, 5, 300, 4)
	_ = store.InsertExpense(ctx, &models.Expense{Date: time.Date(2025, time.June, 3, 9, 0, 0, 0, ist), Category: models.ExpenseTransport, Description: "truck", Amount: 500})

	return seeded{store: store, maize: maize, wheat: wheat, rice: rice}
}

func juneRange() models.DateRange {
	return models.DateRange{
		Start: time.Date(2025, time.June, 1, 0, 0, 0, 0, ist),
		End:   time.Date(2025, time.June, 30, 23, 59, 59, 0, ist),
	}
}

func TestStats(t *testing.T) {
	data := seed(t)
	svc := NewService(data.store, nil, ist, nil)

	stats, err := svc.Stats(context.Background(), juneRange())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	o := stats.Overview
	if o.TotalPurchased != 70 || o.TotalCost != 4000 {
		t.Errorf("purchase totals = %v / %v, want 70 / 4000", o.TotalPurchased, o.TotalCost)
	}
	if o.TotalSold != 20 || o.TotalRevenue != 5250 {
		t.Errorf("sale totals = %v / %v, want 20 / 5250", o.TotalSold, o.TotalRevenue)
	}
	if o.TotalExpenses != 500 || o.NetProfit != 750 {
		t.Errorf("expenses = %v netProfit = %v, want 500 / 750", o.TotalExpenses, o.NetProfit)
	}
	if o.CropCount != 3 || o.FarmerCount != 1 {
		t.Errorf("counts = %d crops %d farmers", o.CropCount, o.FarmerCount)
	}

	if len(stats.CropStats) != 3 {
		t.Fatalf("crop stats = %+v", stats.CropStats)
	}
	byName := make(map[string]models.CropStat)
	for _, c := range stats.CropStats {
		byName[c.CropName] = c
	}
	maize := byName["MAIZE"]
	if maize.AvgBuyingRate != 150 || maize.TotalSold != 15 || maize.Profit != 750 {
		t.Errorf("maize = %+v", maize)
	}
	if wheat := byName["WHEAT"]; wheat.Profit != -1000 || wheat.TotalSold != 0 {
		t.Errorf("wheat = %+v", wheat)
	}
	rice := byName["RICE"]
	if rice.TotalPurchased != 0 || rice.Profit != 1500 || rice.Unit != models.UnitBag {
		t.Errorf("rice = %+v", rice)
	}
	if stats.CropStats[2].CropName != "RICE" {
		t.Errorf("sale-only crop not appended last: %+v", stats.CropStats)
	}
}

func TestDailyChart(t *testing.T) {
	data := seed(t)
	svc := NewService(data.store, nil, ist, nil)

	chart, err := svc.Charts(context.Background(), "", juneRange())
	if err != nil {
		t.Fatalf("Charts: %v", err)
	}
	if chart.ChartType != models.ChartDaily {
		t.Errorf("chartType = %s", chart.ChartType)
	}
	points, ok := chart.Data.([]models.DailyPoint)
	if !ok {
		t.Fatalf("data = %T", chart.Data)
	}

	want := []models.DailyPoint{
		{Date: "2025-06-02", Purchases: 10, Cost: 1000, Profit: -1000},
		{Date: "2025-06-03", Purchases: 60, Sales: 15, Cost: 3000, Revenue: 3750, Profit: 750},
		{Date: "2025-06-04", Sales: 5, Revenue: 1500, Profit: 1500},
	}
	if len(points) != len(want) {
		t.Fatalf("points = %+v", points)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, points[i], want[i])
		}
	}
}

func TestCropChartAndUnknownType(t *testing.T) {
	data := seed(t)
	svc := NewService(data.store, nil, ist, nil)
	ctx := context.Background()

	chart, err := svc.Charts(ctx, models.ChartCrop, juneRange())
	if err != nil {
		t.Fatalf("Charts: %v", err)
	}
	points := chart.Data.([]models.CropChartPoint)
	if len(points) != 2 || points[0].CropName != "WHEAT" || points[1].TotalPurchased != 20 {
		t.Errorf("crop chart = %+v", points)
	}
	if points[1].CropID != data.maize.ID || points[1].TotalCost == 0 {
		t.Errorf("crop chart point = %+v", points[1])
	}

	if _, err := svc.Charts(ctx, "pie", juneRange()); !errors.Is(err, models.ErrValidation) {
		t.Errorf("unknown chart error = %v", err)
	}
}

type memoryCache struct {
	stats map[models.DateRange]*models.DashboardStats
	reads int
}

func (m *memoryCache) GetStats(_ context.Context, rng models.DateRange) (*models.DashboardStats, bool, error) {
	m.reads++
	s, ok := m.stats[rng]
	return s, ok, nil
}

func (m *memoryCache) SetStats(_ context.Context, rng models.DateRange, stats *models.DashboardStats) error {
	m.stats[rng] = stats
	return nil
}

func (m *memoryCache) GetChart(context.Context, models.ChartType, models.DateRange) (*models.ChartData, bool, error) {
	return nil, false, nil
}

func (m *memoryCache) SetChart(context.Context, models.ChartType, models.DateRange, *models.ChartData) error {
	return nil
}

func TestStatsUsesCache(t *testing.T) {
	data := seed(t)
	cache := &memoryCache{stats: make(map[models.DateRange]*models.DashboardStats)}
	svc := NewService(data.store, cache, ist, nil)
	ctx := context.Background()

	first, err := svc.Stats(ctx, juneRange())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	second, err := svc.Stats(ctx, juneRange())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if first != second {
		t.Error("second call did not return the cached payload")
	}
	if cache.reads != 2 {
		t.Errorf("cache reads = %d, want 2", cache.reads)
	}
}

func TestResolveRange(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, ist, nil)
	now := time.Date(2025, time.July, 19, 15, 30, 12, 0, ist)
	svc.now = func() time.Time { return now }

	rng := svc.ResolveRange(time.Time{}, time.Time{})
	if !rng.Start.Equal(time.Date(2025, time.July, 1, 0, 0, 0, 0, ist)) {
		t.Errorf("start = %v", rng.Start)
	}
	endOfMinute := time.Date(2025, time.July, 19, 15, 30, 59, int(999*time.Millisecond), ist)
	if !rng.End.Equal(endOfMinute) {
		t.Errorf("end = %v, want %v", rng.End, endOfMinute)
	}

	now = now.Add(40 * time.Second)
	if later := svc.ResolveRange(time.Time{}, time.Time{}); !later.End.Equal(endOfMinute) {
		t.Errorf("end within the same minute = %v, want %v", later.End, endOfMinute)
	}
	now = now.Add(10 * time.Second)
	if next := svc.ResolveRange(time.Time{}, time.Time{}); !next.End.After(endOfMinute) {
		t.Errorf("end in the next minute = %v, want after %v", next.End, endOfMinute)
	}

	explicit := time.Date(2025, time.May, 5, 0, 0, 0, 0, ist)
	if got := svc.ResolveRange(explicit, time.Time{}); !got.Start.Equal(explicit) {
		t.Errorf("explicit start overridden: %v", got.Start)
	}
}

func TestSummaries(t *testing.T) {
	data := seed(t)
	svc := NewService(data.store, nil, ist, nil)

	day := time.Date(2025, time.June, 3, 23, 55, 0, 0, ist)
	text := svc.DailyStockSummary(day, []models.StockStatus{{
		Crop:     data.maize.Ref(),
		StockLog: models.StockLog{Purchased: 10, Sold: 15, ClosingStock: 5, AvgBuyingRate: 200, AvgSellingRate: 250},
	}})
	for _, want := range []string{"2025-06-03", "MAIZE: 5.00 quintal", "buy avg 200.00", "sell avg 250.00"} {
		if !strings.Contains(text, want) {
			t.Errorf("daily summary missing %q:\n%s", want, text)
		}
	}
	if empty := svc.DailyStockSummary(day, nil); !strings.Contains(empty, "no active crops") {
		t.Errorf("empty summary = %q", empty)
	}

	weekly, err := svc.WeeklySummary(context.Background(), time.Date(2025, time.June, 6, 20, 0, 0, 0, ist))
	if err != nil {
		t.Fatalf("WeeklySummary: %v", err)
	}
	for _, want := range []string{"2025-05-31-2025-06-06", "Net profit 750.00", "RICE: profit 1500.00"} {
		if !strings.Contains(weekly, want) {
			t.Errorf("weekly summary missing %q:\n%s", want, weekly)
		}
	}
}
