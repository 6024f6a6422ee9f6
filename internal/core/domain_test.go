package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
		{NewDate(99999, 1, 1), false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want Date
		ok   bool
	}{
		{"2025-01-15", NewDate(2025, 1, 15), true},
		{"2025-03-01T10:30:00Z", NewDate(2025, 3, 1), true},
		{" 2024-02-29 ", NewDate(2024, 2, 29), true},
		{"2025-02-30", Date{}, false},
		{"15/01/2025", Date{}, false},
		{"", Date{}, false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(tc.want.Time) {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestDateScan(t *testing.T) {
	var d Date
	if err := d.Scan(time.Date(2025, 4, 9, 13, 0, 0, 0, time.Local)); err != nil {
		t.Fatalf("scan time: %v", err)
	}
	if d.String() != "2025-04-09" {
		t.Fatalf("unexpected date %s", d)
	}
	if err := d.Scan([]byte("2024-11-30")); err != nil || d.String() != "2024-11-30" {
		t.Fatalf("scan bytes: %v %s", err, d)
	}
	if err := d.Scan(nil); err == nil {
		t.Fatal("expected error scanning NULL")
	}
}

func TestEarningRecordJSON(t *testing.T) {
	var e EarningRecord
	if err := json.Unmarshal([]byte(`{"user_id":3,"amount":"2500.75","earning_date":"2025-06-01"}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.UserID != 3 || e.Amount.Cents != 250075 || e.Date.String() != "2025-06-01" {
		t.Fatalf("unexpected record %+v", e)
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err != nil {
		t.Fatalf("expected zero to be accepted, got %v", err)
	}
	if err := (Money{Cents: -1}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestExpenseRecordValidate(t *testing.T) {
	good := ExpenseRecord{
		UserID:       1,
		CategoryID:   2,
		CategoryName: "Rent",
		Amount:       Money{Cents: 100},
		Date:         NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := good.ValidateInput(); err != nil {
		t.Fatalf("expected ok input, got %v", err)
	}

	bads := []ExpenseRecord{
		{UserID: 0, CategoryName: "c", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},
		{UserID: 1, CategoryName: "c", Amount: Money{Cents: 1}, Date: Date{}},
		{UserID: 1, CategoryName: "c", Amount: Money{Cents: -1}, Date: NewDate(2025, 1, 1)},
		{UserID: 1, CategoryName: " ", Amount: Money{Cents: 1}, Date: NewDate(2025, 1, 1)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	noCategory := good
	noCategory.CategoryID = 0
	if err := noCategory.ValidateInput(); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestUserValidate(t *testing.T) {
	cases := []struct {
		name string
		user User
		err  error
	}{
		{"ok", User{Name: "Asha", Email: "asha@example.com"}, nil},
		{"no email", User{Name: "Asha"}, nil},
		{"empty name", User{Name: "  "}, ErrEmptyName},
		{"bad email", User{Name: "Asha", Email: "nope"}, ErrInvalidEmail},
		{"phone", User{Name: "Asha", Phone: "+39 (02) 555-0100"}, nil},
		{"phone with letters", User{Name: "Asha", Phone: "call me"}, ErrInvalidPhone},
		{"phone too short", User{Name: "Asha", Phone: "12"}, ErrInvalidPhone},
		{"plus in the middle", User{Name: "Asha", Phone: "555+0100"}, ErrInvalidPhone},
		{"phone too long", User{Name: "Asha", Phone: "1234567890123456789012345678901"}, ErrTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.user.Validate()
			if tc.err == nil && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if tc.err != nil && !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}
