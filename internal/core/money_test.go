package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromDecimal_Negative(t *testing.T) {
	_, err := MoneyFromDecimal(decimal.NewFromFloat(-0.5))
	if !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 150050})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "1500.50" {
		t.Fatalf("unexpected encoding %s", b)
	}

	for _, in := range []string{`1500.5`, `"1500.50"`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if m.Cents != 150050 {
			t.Fatalf("unmarshal %s: got %d cents", in, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`-3`), &m); err == nil {
		t.Fatal("expected negative amount to be rejected")
	}
	if err := json.Unmarshal([]byte(`"ten"`), &m); err == nil {
		t.Fatal("expected non-numeric amount to be rejected")
	}
	var rec struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":null}`), &rec); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected null amount to fail with ErrInvalidAmount, got %v", err)
	}
}

func TestMoney_AddOverflow(t *testing.T) {
	big := Money{Cents: 1<<63 - 1}
	if _, ok := big.Add(Money{Cents: 1}); ok {
		t.Fatal("expected overflow")
	}
	sum, ok := Money{Cents: 10}.Add(Money{Cents: 5})
	if !ok || sum.Cents != 15 {
		t.Fatalf("unexpected sum %v ok=%v", sum, ok)
	}
}
