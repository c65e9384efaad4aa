package expenses

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/agritrade/internal/domain/models"
	"github.com/mamadbah2/agritrade/internal/repository/memory"
)

func TestCreateExpense(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      models.Expense
		wantErr error
	}{
		{
			name: "valid",
			in:   models.Expense{Category: models.ExpenseTransport, Description: " truck hire ", Amount: 1500},
		},
		{
			name:    "unknown category",
			in:      models.Expense{Category: "Fuel", Description: "diesel", Amount: 10},
			wantErr: models.ErrValidation,
		},
		{
			name:    "missing description",
			in:      models.Expense{Category: models.ExpenseLabor, Amount: 10},
			wantErr: models.ErrValidation,
		},
		{
			name:    "negative amount",
			in:      models.Expense{Category: models.ExpenseLabor, Description: "wages", Amount: -5},
			wantErr: models.ErrValidation,
		},
		{
			name:    "unknown crop",
			in:      models.Expense{Category: models.ExpenseStorage, Description: "godown", Amount: 5, CropID: ptr(primitive.NewObjectID())},
			wantErr: models.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Create(ctx, tt.in, primitive.NilObjectID)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if got.Description != "truck hire" || got.Date.IsZero() {
				t.Errorf("expense = %+v", got)
			}
		})
	}
}

func TestExpenseFilterUpdateDelete(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, nil, nil)
	ctx := context.Background()

	crop := &models.Crop{CropName: "WHEAT", Unit: models.UnitQuintal, IsActive: true}
	_ = store.InsertCrop(ctx, crop)

	march := time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC)
	april := time.Date(2025, time.April, 4, 12, 0, 0, 0, time.UTC)
	loading, err := svc.Create(ctx, models.Expense{Date: march, Category: models.ExpenseLoading, Description: "hamali", Amount: 400, CropID: &crop.ID}, primitive.NilObjectID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, models.Expense{Date: april, Category: models.ExpenseOther, Description: "misc", Amount: 50}, primitive.NilObjectID); err != nil {
		t.Fatalf("Create: %v", err)
	}

	byCrop, _ := svc.List(ctx, models.ExpenseFilter{CropID: crop.ID})
	if len(byCrop) != 1 || byCrop[0].ID != loading.ID {
		t.Errorf("crop filter = %+v", byCrop)
	}
	inMarch, _ := svc.List(ctx, models.ExpenseFilter{From: march.AddDate(0, 0, -1), To: march.AddDate(0, 0, 1)})
	if len(inMarch) != 1 {
		t.Errorf("date filter = %d, want 1", len(inMarch))
	}
	all, _ := svc.List(ctx, models.ExpenseFilter{})
	if len(all) != 2 || !all[0].Date.Equal(april) {
		t.Errorf("list order = %+v", all)
	}

	updated, err := svc.Update(ctx, loading.ID, Patch{Amount: ptr(450.0), ClearCrop: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Amount != 450 || updated.CropID != nil {
		t.Errorf("updated = %+v", updated)
	}

	if err := svc.Delete(ctx, loading.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, loading.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("second delete = %v", err)
	}
}

func ptr[T any](v T) *T { return &v }
