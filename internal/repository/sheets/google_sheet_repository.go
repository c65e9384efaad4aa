package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/agritrade/internal/config"
	"github.com/mamadbah2/agritrade/internal/domain/models"
)

const (
	stockLogRange = "StockLog!A:J"
	dateLayout    = "2006-01-02"
)

// StockExporter archives daily stock snapshots outside the primary store.
type StockExporter interface {
	ExportStockLogs(ctx context.Context, statuses []models.StockStatus) error
}

// GoogleSheetRepository appends stock snapshots to a spreadsheet using the
// official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	loc           *time.Location
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed exporter from a
// service account credentials file.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, loc *time.Location, logger *zap.Logger) (*GoogleSheetRepository, error) {
	return newRepository(ctx, cfg.SpreadsheetID, loc, logger,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope))
}

func newRepository(ctx context.Context, spreadsheetID string, loc *time.Location, logger *zap.Logger, opts ...option.ClientOption) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: spreadsheetID,
		loc:           loc,
		logger:        logger,
	}, nil
}

// ExportStockLogs appends one row per snapshot to the StockLog sheet.
func (r *GoogleSheetRepository) ExportStockLogs(ctx context.Context, statuses []models.StockStatus) error {
	if len(statuses) == 0 {
		return nil
	}

	payload := &sheetsapi.ValueRange{Values: stockRows(statuses, r.loc)}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, stockLogRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append rows into range %s: %w", stockLogRange, err)
	}

	r.logger.Debug("stock snapshots exported", zap.Int("rows", len(statuses)))
	return nil
}

// ReadStockLogs fetches the exported rows, header included when present.
func (r *GoogleSheetRepository) ReadStockLogs(ctx context.Context) ([][]interface{}, error) {
	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, stockLogRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", stockLogRange, err)
	}
	return resp.Values, nil
}

func stockRows(statuses []models.StockStatus, loc *time.Location) [][]interface{} {
	rows := make([][]interface{}, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, []interface{}{
			st.Date.In(loc).Format(dateLayout),
			st.Crop.CropName,
			string(st.Crop.Unit),
			st.OpeningStock,
			st.Purchased,
			st.Sold,
			st.ClosingStock,
			st.AvgBuyingRate,
			st.AvgSellingRate,
			st.CropID.Hex(),
		})
	}
	return rows
}

// NoopExporter discards snapshots when Sheets export is not configured.
type NoopExporter struct{}

// ExportStockLogs does nothing.
func (NoopExporter) ExportStockLogs(context.Context, []models.StockStatus) error { return nil }
