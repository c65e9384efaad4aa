package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/agritrade/internal/config"
	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository/memory"
	"github.com/mamadbah2/agritrade/internal/service/reporting"
	"github.com/mamadbah2/agritrade/internal/service/stock"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type captureExporter struct {
	rows []models.StockStatus
	err  error
}

func (c *captureExporter) ExportStockLogs(_ context.Context, statuses []models.StockStatus) error {
	c.rows = append(c.rows, statuses...)
	return c.err
}

type captureMessenger struct{ messages []string }

func (c *captureMessenger) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	c.messages = append(c.messages, req.Message)
	return nil
}

func newTestScheduler(t *testing.T, exporter *captureExporter, messenger *captureMessenger) *Scheduler {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	crop := &models.Crop{CropName: "WHEAT", Unit: models.UnitQuintal, IsActive: true}
	_ = store.InsertCrop(ctx, crop)
	farmer := &models.Farmer{Name: "Kiran", Village: "Satara", Contact: "9000000000", IsActive: true}
	_ = store.InsertFarmer(ctx, farmer)
	p := &models.Purchase{CropID: crop.ID, FarmerID: farmer.ID, Quantity: 100, Rate: 2200, PurchaseDate: time.Date(2025, time.May, 9, 11, 0, 0, 0, ist)}
	p.Recalculate()
	_ = store.InsertPurchase(ctx, p)

	ledger := stock.NewLedger(store, ist, nil)
	reports := reporting.NewService(store, nil, ist, nil)
	cfg := config.ReportingConfig{StockRollupCron: "55 23 * * *", WeeklyReportCron: "0 20 * * 5", Location: ist}

	s := NewScheduler(cfg, ledger, reports, exporter, messenger, nil)
	s.now = func() time.Time { return time.Date(2025, time.May, 9, 23, 55, 0, 0, ist) }
	return s
}

func TestRunStockRollup(t *testing.T) {
	exporter := &captureExporter{}
	messenger := &captureMessenger{}
	s := newTestScheduler(t, exporter, messenger)

	if err := s.RunStockRollup(context.Background()); err != nil {
		t.Fatalf("RunStockRollup: %v", err)
	}
	if len(exporter.rows) != 1 || exporter.rows[0].ClosingStock != 100 {
		t.Fatalf("exported = %+v", exporter.rows)
	}
	if len(messenger.messages) != 1 || !strings.Contains(messenger.messages[0], "WHEAT: 100.00 quintal") {
		t.Errorf("messages = %q", messenger.messages)
	}
}

func TestRunStockRollupExportFailureStillNotifies(t *testing.T) {
	exporter := &captureExporter{err: errors.New("sheets down")}
	messenger := &captureMessenger{}
	s := newTestScheduler(t, exporter, messenger)

	if err := s.RunStockRollup(context.Background()); err != nil {
		t.Fatalf("RunStockRollup: %v", err)
	}
	if len(messenger.messages) != 1 {
		t.Errorf("messages = %d, want 1", len(messenger.messages))
	}
}

func TestSendWeeklyReport(t *testing.T) {
	messenger := &captureMessenger{}
	s := newTestScheduler(t, &captureExporter{}, messenger)

	if err := s.SendWeeklyReport(context.Background()); err != nil {
		t.Fatalf("SendWeeklyReport: %v", err)
	}
	if len(messenger.messages) != 1 || !strings.Contains(messenger.messages[0], "Purchased 100.00 for 220000.00") {
		t.Errorf("messages = %q", messenger.messages)
	}
}

func TestStartRejectsBadCron(t *testing.T) {
	s := NewScheduler(config.ReportingConfig{StockRollupCron: "every day"}, nil, nil, nil, nil, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected error for invalid cron expression")
	}
}
