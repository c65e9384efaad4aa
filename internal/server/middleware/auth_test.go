package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository/memory"
	"github.com/mamadbah2/agritrade/internal/service/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuth(t *testing.T) {
	store := memory.NewStore()
	svc := auth.NewService(store, "secret", time.Hour, nil)
	staff := &models.User{Username: "clerk", Role: models.RoleStaff}
	_ = store.InsertUser(context.Background(), staff)
	token, err := svc.IssueToken(staff)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	r := gin.New()
	r.Use(Auth(svc, nil))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c).Hex())
	})
	r.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "missing header", path: "/whoami", want: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/whoami", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", path: "/whoami", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", path: "/whoami", header: "Bearer " + token, want: http.StatusOK},
		{name: "lowercase scheme", path: "/whoami", header: "bearer " + token, want: http.StatusOK},
		{name: "role denied", path: "/admin", header: "Bearer " + token, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK && w.Body.String() != staff.ID.Hex() {
				t.Errorf("user id = %s, want %s", w.Body.String(), staff.ID.Hex())
			}
		})
	}
}
