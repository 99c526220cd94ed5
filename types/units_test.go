package types

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
)

func TestPow10(t *testing.T) {
	tests := []struct {
		decimals uint8
		want     string
		wantErr  bool
	}{
		{0, "1", false},
		{6, "1000000", false},
		{18, "1000000000000000000", false},
		{77, "1" + zeros(77), false},
		{78, "", true},
	}

	for _, tt := range tests {
		got, err := Pow10(tt.decimals)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Pow10(%d): expected error", tt.decimals)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Pow10(%d): %v", tt.decimals, err)
		}
		if got.Dec() != tt.want {
			t.Errorf("Pow10(%d) = %s, want %s", tt.decimals, got.Dec(), tt.want)
		}
	}
}

func TestMulDiv(t *testing.T) {
	maxU := new(uint256.Int).SetAllOne()

	tests := []struct {
		name         string
		x, y, d      *uint256.Int
		want         string
		wantOverflow bool
	}{
		{"exact", Units(100), Whole(1, 18), Units(2), "50000000000000000000", false},
		{"floors", Units(10), Units(1), Units(3), "3", false},
		{"wide intermediate", maxU, Units(2), Units(2), maxU.Dec(), false},
		{"quotient overflow", maxU, Units(2), Units(1), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, overflow := MulDiv(tt.x, tt.y, tt.d)
			if overflow != tt.wantOverflow {
				t.Fatalf("overflow = %v, want %v", overflow, tt.wantOverflow)
			}
			if !tt.wantOverflow && got.Dec() != tt.want {
				t.Errorf("got %s, want %s", got.Dec(), tt.want)
			}
		})
	}
}

func TestAddCheckedAndSubFloor(t *testing.T) {
	maxU := new(uint256.Int).SetAllOne()

	if _, overflow := AddChecked(maxU, Units(1)); !overflow {
		t.Error("expected overflow adding to max")
	}
	if sum, overflow := AddChecked(Units(2), Units(3)); overflow || sum.Uint64() != 5 {
		t.Errorf("AddChecked(2,3) = %s, %v", sum.Dec(), overflow)
	}
	if got := SubFloor(Units(3), Units(5)); !got.IsZero() {
		t.Errorf("SubFloor(3,5) = %s, want 0", got.Dec())
	}
	if got := SubFloor(Units(5), Units(3)); got.Uint64() != 2 {
		t.Errorf("SubFloor(5,3) = %s, want 2", got.Dec())
	}
}

func TestFormatUnits(t *testing.T) {
	tests := []struct {
		amount   *uint256.Int
		decimals uint8
		want     string
	}{
		{Units(0), 18, "0"},
		{Units(42), 0, "42"},
		{Whole(1, 18), 18, "1"},
		{Units(1500000), 6, "1.5"},
		{Units(5), 6, "0.000005"},
		{nil, 6, "0"},
	}

	for _, tt := range tests {
		if got := FormatUnits(tt.amount, tt.decimals); got != tt.want {
			t.Errorf("FormatUnits(%v, %d) = %q, want %q", tt.amount, tt.decimals, got, tt.want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{"1", 18, "1000000000000000000", false},
		{"1.5", 6, "1500000", false},
		{"0.000005", 6, "5", false},
		{".5", 1, "5", false},
		{"0", 6, "0", false},
		{"1.0000001", 6, "", true},
		{"1.", 6, "", true},
		{"-1", 6, "", true},
		{"abc", 6, "", true},
		{"", 6, "", true},
	}

	for _, tt := range tests {
		got, err := ParseUnits(tt.in, tt.decimals)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseUnits(%q): expected error, got %s", tt.in, got.Dec())
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUnits(%q): %v", tt.in, err)
			continue
		}
		if got.Dec() != tt.want {
			t.Errorf("ParseUnits(%q) = %s, want %s", tt.in, got.Dec(), tt.want)
		}
	}
}

func TestStoredAmountRoundTrip(t *testing.T) {
	maxU := new(uint256.Int).SetAllOne()
	for _, x := range []*uint256.Int{Units(0), Units(7), maxU} {
		got, err := ParseAmount(FormatAmount(x))
		if err != nil {
			t.Fatalf("ParseAmount: %v", err)
		}
		if !got.Eq(x) {
			t.Errorf("round-trip %s -> %s", x.Dec(), got.Dec())
		}
	}
	if got, err := ParseAmount(""); err != nil || !got.IsZero() {
		t.Errorf("ParseAmount(\"\") = %v, %v", got, err)
	}
}

func TestEntity(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := NewEntity(t0)
	if !e.CreatedAt.Equal(t0) || !e.UpdatedAt.Equal(t0) {
		t.Fatalf("unexpected timestamps: %+v", e)
	}
	e.Touch(t0.Add(time.Hour))
	if !e.UpdatedAt.Equal(t0.Add(time.Hour)) || !e.CreatedAt.Equal(t0) {
		t.Errorf("Touch: %+v", e)
	}
	if (Entity{}).IsZero() != true {
		t.Error("zero Entity should report IsZero")
	}
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
