package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository/memory"
	"github.com/mamadbah2/agritrade/internal/service/stock"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func TestSeedSample(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	opts := seedOptions{
		AdminUsername: "admin",
		AdminEmail:    "admin@agritrade.com",
		AdminPassword: "admin123",
		Start:         time.Date(2024, time.January, 15, 0, 0, 0, 0, ist),
		Location:      ist,
	}

	summary, err := seedSample(ctx, store, opts, nil)
	if err != nil {
		t.Fatalf("seedSample: %v", err)
	}
	want := seedSummary{Crops: 6, Farmers: 5, Purchases: 5, Sales: 4, Expenses: 5}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}

	admin, err := store.FindUserByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("FindUserByUsername: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("role = %q, want admin", admin.Role)
	}

	maize, err := store.FindCropByName(ctx, "MAIZE")
	if err != nil {
		t.Fatalf("FindCropByName: %v", err)
	}
	ledger := stock.NewLedger(store, ist, nil)
	snapshot, err := ledger.ComputeDailyStock(ctx, maize.ID, time.Date(2024, time.January, 23, 12, 0, 0, 0, ist))
	if err != nil {
		t.Fatalf("ComputeDailyStock: %v", err)
	}
	// 50 + 25 bought, 30 + 20 sold.
	if snapshot.OpeningStock != 45 || snapshot.ClosingStock != 25 {
		t.Errorf("maize snapshot = %+v", snapshot)
	}

	if _, err := seedSample(ctx, store, opts, nil); !errors.Is(err, models.ErrConflict) {
		t.Errorf("second run error = %v, want ErrConflict", err)
	}
}
