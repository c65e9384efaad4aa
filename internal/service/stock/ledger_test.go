package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository/memory"
)

var testLoc = time.FixedZone("IST", 5*3600+1800)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, testLoc)
}

type fixture struct {
	ctx    context.Context
	store  *memory.Store
	ledger *Ledger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	return &fixture{ctx: context.Background(), store: store, ledger: NewLedger(store, testLoc, nil)}
}

func (f *fixture) crop(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	crop := &models.Crop{CropName: name, Unit: models.UnitQuintal, MarketRate: 2000, IsActive: true}
	if err := f.store.InsertCrop(f.ctx, crop); err != nil {
		t.Fatalf("InsertCrop: %v", err)
	}
	return crop.ID
}

func (f *fixture) purchase(t *testing.T, cropID primitive.ObjectID, qty, rate float64, at time.Time) *models.Purchase {
	t.Helper()
	p := &models.Purchase{CropID: cropID, Quantity: qty, Rate: rate, PaymentStatus: models.PaymentPending, PurchaseDate: at}
	p.Recalculate()
	if err := f.store.InsertPurchase(f.ctx, p); err != nil {
		t.Fatalf("InsertPurchase: %v", err)
	}
	return p
}

func (f *fixture) sale(t *testing.T, cropID primitive.ObjectID, qty, rate float64, at time.Time) *models.Sale {
	t.Helper()
	s := &models.Sale{CropID: cropID, BuyerName: "Mandi", Quantity: qty, Rate: rate, PaymentStatus: models.PaymentPaid, SaleDate: at}
	s.Recalculate()
	if err := f.store.InsertSale(f.ctx, s); err != nil {
		t.Fatalf("InsertSale: %v", err)
	}
	return s
}

func (f *fixture) compute(t *testing.T, cropID primitive.ObjectID, at time.Time) *models.StockLog {
	t.Helper()
	log, err := f.ledger.ComputeDailyStock(f.ctx, cropID, at)
	if err != nil {
		t.Fatalf("ComputeDailyStock: %v", err)
	}
	return log
}

func assertSnapshot(t *testing.T, got *models.StockLog, opening, purchased, sold, closing, buy, sell float64) {
	t.Helper()
	if got.OpeningStock != opening || got.Purchased != purchased || got.Sold != sold || got.ClosingStock != closing {
		t.Errorf("stock = open %v + in %v - out %v = %v, want %v + %v - %v = %v",
			got.OpeningStock, got.Purchased, got.Sold, got.ClosingStock, opening, purchased, sold, closing)
	}
	if got.AvgBuyingRate != buy || got.AvgSellingRate != sell {
		t.Errorf("rates = buy %v sell %v, want buy %v sell %v", got.AvgBuyingRate, got.AvgSellingRate, buy, sell)
	}
}

func TestComputeDailyStockFirstPurchase(t *testing.T) {
	f := newFixture(t)
	maize := f.crop(t, "MAIZE")
	today := day(2025, 3, 10, 11)
	f.purchase(t, maize, 50, 2400, today)

	got := f.compute(t, maize, today)
	assertSnapshot(t, got, 0, 50, 0, 50, 2400, 0)

	if !got.Date.Equal(day(2025, 3, 10, 0)) {
		t.Errorf("Date = %v, want start of day", got.Date)
	}
}

func TestComputeDailyStockOpensFromPreviousClose(t *testing.T) {
	f := newFixture(t)
	wheat := f.crop(t, "WHEAT")
	yesterday := day(2025, 3, 9, 9)
	today := day(2025, 3, 10, 14)

	f.purchase(t, wheat, 40, 2700, yesterday)
	prev := f.compute(t, wheat, yesterday)
	if prev.ClosingStock != 40 {
		t.Fatalf("yesterday closing = %v, want 40", prev.ClosingStock)
	}

	f.sale(t, wheat, 15, 2900, today)
	got := f.compute(t, wheat, today)
	assertSnapshot(t, got, 40, 0, 15, 25, 0, 2900)
}

func TestComputeDailyStockAveragesRates(t *testing.T) {
	f := newFixture(t)
	crop := f.crop(t, "SOYBEAN")
	today := day(2025, 3, 10, 8)
	f.purchase(t, crop, 10, 100, today)
	f.purchase(t, crop, 30, 200, today.Add(3*time.Hour))

	got := f.compute(t, crop, today)
	if got.AvgBuyingRate != 150 {
		t.Errorf("AvgBuyingRate = %v, want 150", got.AvgBuyingRate)
	}
	if got.AvgSellingRate != 0 {
		t.Errorf("AvgSellingRate = %v, want 0", got.AvgSellingRate)
	}
}

func TestComputeDailyStockIsIdempotent(t *testing.T) {
	f := newFixture(t)
	crop := f.crop(t, "GRAM")
	today := day(2025, 3, 10, 10)
	f.purchase(t, crop, 20, 5000, today)
	f.sale(t, crop, 5, 5600, today)

	first := f.compute(t, crop, today)
	second := f.compute(t, crop, today.Add(5*time.Hour))

	if first.ID != second.ID {
		t.Errorf("snapshot ID changed: %s -> %s", first.ID.Hex(), second.ID.Hex())
	}
	assertSnapshot(t, second, first.OpeningStock, first.Purchased, first.Sold, first.ClosingStock, first.AvgBuyingRate, first.AvgSellingRate)

	logs, _ := f.store.ListStockLogs(f.ctx, models.StockLogFilter{CropID: crop})
	if len(logs) != 1 {
		t.Errorf("stored snapshots = %d, want 1", len(logs))
	}
}

func TestComputeDailyStockDayWindow(t *testing.T) {
	f := newFixture(t)
	crop := f.crop(t, "RICE")
	start := day(2025, 3, 10, 0)

	f.purchase(t, crop, 1, 10, start)
	f.purchase(t, crop, 2, 10, start.Add(24*time.Hour-time.Millisecond))
	f.purchase(t, crop, 100, 10, start.Add(24*time.Hour))
	f.purchase(t, crop, 100, 10, start.Add(-time.Millisecond))

	got := f.compute(t, crop, start.Add(12*time.Hour))
	if got.Purchased != 3 {
		t.Errorf("Purchased = %v, want 3 (only same-day records)", got.Purchased)
	}
}

func TestComputeDailyStockUnknownCrop(t *testing.T) {
	f := newFixture(t)
	_, err := f.ledger.ComputeDailyStock(f.ctx, primitive.NewObjectID(), day(2025, 3, 10, 0))
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestRecomputeAfterTransactionUsesTransactionDay(t *testing.T) {
	f := newFixture(t)
	crop := f.crop(t, "MUSTARD")
	d1 := day(2025, 3, 1, 10)
	d3 := day(2025, 3, 3, 10)

	f.purchase(t, crop, 10, 100, d1)
	f.compute(t, crop, d1)
	f.sale(t, crop, 4, 120, d3)
	later := f.compute(t, crop, d3)
	assertSnapshot(t, later, 10, 0, 4, 6, 0, 120)

	backdated := f.purchase(t, crop, 5, 300, d1.Add(2*time.Hour))
	got, err := f.ledger.RecomputeAfterTransaction(f.ctx, TransactionEvent{
		CropID:        crop,
		Kind:          models.KindPurchase,
		Date:          backdated.PurchaseDate,
		QuantityDelta: backdated.Quantity,
		Rate:          backdated.Rate,
	})
	if err != nil {
		t.Fatalf("RecomputeAfterTransaction: %v", err)
	}
	assertSnapshot(t, got, 0, 15, 0, 15, 200, 0)

	logs, err := f.store.ListStockLogs(f.ctx, models.StockLogFilter{CropID: crop, Ascending: true})
	if err != nil {
		t.Fatalf("ListStockLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("stored snapshots = %d, want 2", len(logs))
	}
	rolled := logs[1]
	if rolled.OpeningStock != 15 || rolled.ClosingStock != 11 {
		t.Errorf("later snapshot = open %v close %v, want 15 and 11", rolled.OpeningStock, rolled.ClosingStock)
	}
}

func TestRecomputeAfterDeletionFallsBackToZeroAverage(t *testing.T) {
	f := newFixture(t)
	crop := f.crop(t, "BAJRA")
	today := day(2025, 3, 10, 9)

	s := f.sale(t, crop, 3, 1500, today)
	if _, err := f.ledger.RecomputeAfterTransaction(f.ctx, TransactionEvent{CropID: crop, Kind: models.KindSale, Date: today}); err != nil {
		t.Fatalf("RecomputeAfterTransaction: %v", err)
	}

	if err := f.store.DeleteSale(f.ctx, s.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	got, err := f.ledger.RecomputeAfterTransaction(f.ctx, TransactionEvent{
		CropID: crop, Kind: models.KindSale, Date: today, QuantityDelta: -s.Quantity, Rate: s.Rate,
	})
	if err != nil {
		t.Fatalf("RecomputeAfterTransaction: %v", err)
	}
	assertSnapshot(t, got, 0, 0, 0, 0, 0, 0)
}

func TestDeriveHoldsLedgerIdentity(t *testing.T) {
	tests := []struct {
		name      string
		opening   float64
		purchases []float64
		sales     []float64
	}{
		{name: "empty day", opening: 12},
		{name: "only purchases", purchases: []float64{5, 7.5}},
		{name: "only sales", opening: 30, sales: []float64{10, 10}},
		{name: "mixed", opening: 8, purchases: []float64{20, 1}, sales: []float64{4, 6, 2}},
		{name: "oversold", opening: 1, sales: []float64{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var purchases []models.Purchase
			var in float64
			for _, q := range tt.purchases {
				purchases = append(purchases, models.Purchase{Quantity: q, Rate: 10})
				in += q
			}
			var sales []models.Sale
			var out float64
			for _, q := range tt.sales {
				sales = append(sales, models.Sale{Quantity: q, Rate: 12})
				out += q
			}

			got := Derive(tt.opening, purchases, sales)
			if got.ClosingStock != got.OpeningStock+got.Purchased-got.Sold {
				t.Errorf("closing %v != opening %v + purchased %v - sold %v", got.ClosingStock, got.OpeningStock, got.Purchased, got.Sold)
			}
			if got.Purchased != in || got.Sold != out {
				t.Errorf("purchased/sold = %v/%v, want %v/%v", got.Purchased, got.Sold, in, out)
			}
			if len(purchases) == 0 && got.AvgBuyingRate != 0 {
				t.Errorf("AvgBuyingRate = %v with no purchases", got.AvgBuyingRate)
			}
			if len(sales) == 0 && got.AvgSellingRate != 0 {
				t.Errorf("AvgSellingRate = %v with no sales", got.AvgSellingRate)
			}
		})
	}
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	f := newFixture(t)
	crop := f.crop(t, "JOWAR")
	for d := 1; d <= 5; d++ {
		at := day(2025, 3, d, 10)
		f.purchase(t, crop, float64(d), 100, at)
		f.compute(t, crop, at)
	}

	got, err := f.ledger.History(f.ctx, crop, day(2025, 3, 2, 0), time.Time{}, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if got.Crop.CropName != "JOWAR" {
		t.Errorf("crop = %q", got.Crop.CropName)
	}
	if len(got.History) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(got.History))
	}
	if !got.History[0].Date.Equal(day(2025, 3, 5, 0)) || !got.History[1].Date.Equal(day(2025, 3, 4, 0)) {
		t.Errorf("History dates = %v, %v", got.History[0].Date, got.History[1].Date)
	}
	if got.History[0].ClosingStock != 15 {
		t.Errorf("latest closing = %v, want 15", got.History[0].ClosingStock)
	}
}

func TestAllStatusSkipsInactiveCrops(t *testing.T) {
	f := newFixture(t)
	active := f.crop(t, "ACTIVE")
	inactive := &models.Crop{CropName: "RETIRED", Unit: models.UnitKg}
	if err := f.store.InsertCrop(f.ctx, inactive); err != nil {
		t.Fatalf("InsertCrop: %v", err)
	}

	got, err := f.ledger.AllStatus(f.ctx, day(2025, 3, 10, 10))
	if err != nil {
		t.Fatalf("AllStatus: %v", err)
	}
	if len(got) != 1 || got[0].Crop.ID != active {
		t.Fatalf("AllStatus = %+v, want only the active crop", got)
	}
}
