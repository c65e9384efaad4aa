package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/api/option"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func sampleStatus() models.StockStatus {
	cropID := primitive.NewObjectID()
	return models.StockStatus{
		Crop: models.CropRef{ID: cropID, CropName: "MAIZE", Unit: models.UnitQuintal},
		StockLog: models.StockLog{
			CropID:        cropID,
			Date:          time.Date(2025, time.March, 3, 0, 0, 0, 0, ist),
			OpeningStock:  5,
			Purchased:     10,
			Sold:          4,
			ClosingStock:  11,
			AvgBuyingRate: 2000,
		},
	}
}

func TestStockRows(t *testing.T) {
	rows := stockRows([]models.StockStatus{sampleStatus()}, ist)
	if len(rows) != 1 || len(rows[0]) != 10 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "2025-03-03" || rows[0][1] != "MAIZE" || rows[0][6] != 11.0 {
		t.Errorf("row = %v", rows[0])
	}
}

func TestExportStockLogs(t *testing.T) {
	var body struct {
		Values [][]interface{} `json:"values"`
	}
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if !strings.Contains(r.URL.Path, "/spreadsheets/sheet-1/values/") || !strings.HasSuffix(r.URL.Path, ":append") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("valueInputOption") != "USER_ENTERED" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	repo, err := newRepository(context.Background(), "sheet-1", ist, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("newRepository: %v", err)
	}

	if err := repo.ExportStockLogs(context.Background(), nil); err != nil || calls != 0 {
		t.Fatalf("empty export: err=%v calls=%d", err, calls)
	}
	if err := repo.ExportStockLogs(context.Background(), []models.StockStatus{sampleStatus()}); err != nil {
		t.Fatalf("ExportStockLogs: %v", err)
	}
	if calls != 1 || len(body.Values) != 1 || body.Values[0][1] != "MAIZE" {
		t.Errorf("calls=%d body=%v", calls, body.Values)
	}
}

func TestReadStockLogs(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || !strings.Contains(r.URL.Path, "/spreadsheets/sheet-1/values/") {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"caller does not have permission"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"range":"StockLog!A1:J2","majorDimension":"ROWS","values":[["Date","Crop"],["2025-03-03","MAIZE"]]}`))
	}))
	defer srv.Close()

	repo, err := newRepository(context.Background(), "sheet-1", ist, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("newRepository: %v", err)
	}

	rows, err := repo.ReadStockLogs(context.Background())
	if err != nil {
		t.Fatalf("ReadStockLogs: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "MAIZE" {
		t.Errorf("rows = %v", rows)
	}

	status = http.StatusForbidden
	if _, err := repo.ReadStockLogs(context.Background()); err == nil || !strings.Contains(err.Error(), stockLogRange) {
		t.Errorf("forbidden read error = %v", err)
	}
}
