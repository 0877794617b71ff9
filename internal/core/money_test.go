package core

import (
	"encoding/json"
	"testing"
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
		{" 2.50 ", 250, true},
		{"50000", 5000000, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
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

func TestMoneyDecimal(t *testing.T) {
	cases := map[int64]string{
		5000000: "50000",
		1250:    "12.5",
		1205:    "12.05",
		1299:    "12.99",
		-305:    "-3.05",
		0:       "0",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).Decimal(); got != want {
			t.Fatalf("%d cents: expected %q, got %q", cents, want, got)
		}
	}
}

func TestMoneyUnmarshalJSON(t *testing.T) {
	var v struct {
		Amount Money `json:"amount"`
	}
	for in, want := range map[string]int64{
		`{"amount": 45000}`: 4500000,
		`{"amount": 12.34}`: 1234,
		`{"amount": "7,5"}`: 750,
		`{"amount": 1e3}`:   100000,
	} {
		if err := json.Unmarshal([]byte(in), &v); err != nil || v.Amount.Cents != want {
			t.Fatalf("%s expected %d cents, got %d (err=%v)", in, want, v.Amount.Cents, err)
		}
	}
	for _, in := range []string{`{"amount": 0}`, `{"amount": -10}`, `{"amount": null}`, `{"amount": "x"}`} {
		if err := json.Unmarshal([]byte(in), &v); err == nil {
			t.Fatalf("%s expected error", in)
		}
	}
}
