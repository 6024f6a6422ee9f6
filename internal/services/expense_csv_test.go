package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"salarydash/internal/core"
	"salarydash/internal/ports"
)

func TestImportCSV(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		csv     string
		want    int
		wantErr error
	}{
		{
			name:    "thousands separator",
			csv:     "cate_id,amount,expense_date\n1,12.50,2025-03-01\n2,\"1,200.00\",2025-03-02\n",
			wantErr: core.ErrInvalidAmount,
		},
		{
			name: "category names with BOM and spacing",
			csv:  "\ufeffCategory, Amount, Expense_Date\n rent ,900,2025-03-01\nFOOD,12.345,2025-03-02\n",
			want: 2,
		},
		{
			name:    "semicolon separated",
			csv:     "cate_id;amount;expense_date\n1;10;2025-01-01\n",
			wantErr: ErrInvalidCSV,
		},
		{
			name:    "empty file",
			csv:     "",
			wantErr: ErrInvalidCSV,
		},
		{
			name:    "header only",
			csv:     "cate_id,amount,expense_date\n",
			wantErr: ErrNoExpenses,
		},
		{
			name:    "missing amount column",
			csv:     "cate_id,expense_date\n1,2025-01-01\n",
			wantErr: ErrInvalidCSV,
		},
		{
			name:    "bad date",
			csv:     "cate_id,amount,expense_date\n1,10,01/02/2025\n",
			wantErr: core.ErrInvalidDate,
		},
		{
			name:    "negative amount",
			csv:     "cate_id,amount,expense_date\n1,-10,2025-01-01\n",
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "unknown category name",
			csv:     "category,amount,expense_date\nPets,10,2025-01-01\n",
			wantErr: ports.ErrUnknownCategory,
		},
		{
			name:    "unknown category id",
			csv:     "cate_id,amount,expense_date\n1,10,2025-01-01\n99,10,2025-01-02\n",
			wantErr: ports.ErrUnknownCategory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, u := newStore(t)
			svc := NewExpenseService(store, NewCategoryService(store, 0), nil)

			got, err := svc.ImportCSV(ctx, u.ID, strings.NewReader(tt.csv))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				stored, _ := store.ListExpenses(ctx, u.ID, 2025, 0)
				if len(stored) != 0 {
					t.Fatalf("failed import stored %d rows", len(stored))
				}
				return
			}
			if err != nil {
				t.Fatalf("ImportCSV: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("expected %d rows, got %d", tt.want, len(got))
			}
		})
	}
}

func TestImportCSV_ResolvesNames(t *testing.T) {
	ctx := context.Background()
	store, u := newStore(t)
	svc := NewExpenseService(store, NewCategoryService(store, 0), nil)

	got, err := svc.ImportCSV(ctx, u.ID, strings.NewReader("category,amount,expense_date\nfuel,40.10,2025-05-03\n"))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if got[0].CategoryName != "Fuel" || got[0].CategoryID != 3 || got[0].Amount.Cents != 4010 || got[0].Date.String() != "2025-05-03" {
		t.Fatalf("unexpected row %+v", got[0])
	}

	if _, err := svc.ImportCSV(ctx, 0, strings.NewReader("")); !errors.Is(err, core.ErrInvalidUser) {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
}
