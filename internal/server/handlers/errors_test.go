package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/agritrade/internal/domain/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantBody string
	}{
		{err: fmt.Errorf("crop x: %w", models.ErrNotFound), wantCode: http.StatusNotFound, wantBody: "crop x: not found"},
		{err: fmt.Errorf("%w: bad", models.ErrValidation), wantCode: http.StatusBadRequest, wantBody: "validation failed: bad"},
		{err: models.ErrConflict, wantCode: http.StatusConflict, wantBody: "conflict"},
		{err: models.ErrUnauthorized, wantCode: http.StatusUnauthorized, wantBody: "unauthorized"},
		{err: errors.New("mongo: connection reset"), wantCode: http.StatusInternalServerError, wantBody: "server error"},
	}
	for _, tt := range tests {
		t.Run(tt.wantBody, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tt.err)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["error"] != tt.wantBody {
				t.Errorf("error = %q, want %q", body["error"], tt.wantBody)
			}
		})
	}
}

func TestDateParser(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	p := NewDateParser(ist)

	day, err := p.Parse("2025-03-04", "date")
	if err != nil || !day.Equal(time.Date(2025, 3, 4, 0, 0, 0, 0, ist)) {
		t.Errorf("Parse date-only = %v, %v", day, err)
	}

	end, err := p.ParseEnd("2025-03-04", "endDate")
	if err != nil || !end.Equal(time.Date(2025, 3, 4, 23, 59, 59, int(999*time.Millisecond), ist)) {
		t.Errorf("ParseEnd date-only = %v, %v", end, err)
	}

	stamp, err := p.ParseEnd("2025-03-04T10:00:00Z", "endDate")
	if err != nil || !stamp.Equal(time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseEnd RFC 3339 = %v, %v", stamp, err)
	}

	if zero, err := p.Parse("", "date"); err != nil || !zero.IsZero() {
		t.Errorf("empty = %v, %v", zero, err)
	}
	if _, err := p.Parse("04/03/2025", "date"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("bad format error = %v", err)
	}
	if ptr, err := p.ParsePtr(nil, "date"); ptr != nil || err != nil {
		t.Errorf("ParsePtr(nil) = %v, %v", ptr, err)
	}
}
