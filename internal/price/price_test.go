package price

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"75€", "75€"},
		{"€ 75", "75€"},
		{"89.99€", "89.99€"},
		{"89,99 €", "89.99€"},
		{"1.234,50 €", "1234.5€"},
		{"$1,200.50", "1200.5 USD"},
		{"250 PLN", "250 PLN"},
		{"250zł", "250 PLN"},
		{"R$ 3.499,90", "3499.9 BRL"},
		{"  120  ", "120€"},
		{"1 234,50 €", "1234.5€"},
		{"1\u00a0234,50\u00a0€", "1234.5€"},
		{"2\u202f500 PLN", "2500 PLN"},
		{".50€", "0.5€"},
		{"€ ,99", "0.99€"},
		{"Prezzo su richiesta", "Prezzo su richiesta"},
		{"", ""},
	}

	for _, tt := range tests {
		got := Normalize(tt.raw)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizeIsFixedPoint(t *testing.T) {
	inputs := []string{
		"75€", "65 €", "89.99€", "1.234,56€", "$1,200.50", "250 PLN",
		"R$ 3.499,90", "3.000.000", "12,5", "Gratis", "0,99 EUR", "£45",
		"1 234,50 €", "1\u00a0234,50€", ".50€", "€ ,99",
	}

	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize não é idempotente para %q: %q -> %q", raw, once, twice)
		}

		v1, ok1 := Parse(once)
		v2, ok2 := Parse(twice)
		if ok1 != ok2 || !v1.Equal(v2) {
			t.Errorf("Parse diverge para %q: %s/%v vs %s/%v", raw, v1, ok1, v2, ok2)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"75€", "75", true},
		{"89.99€", "89.99", true},
		{"1.234,56 €", "1234.56", true},
		{"3.000.000", "3000000", true},
		{"1 234,56 €", "1234.56", true},
		{",99", "0.99", true},
		{"n/d", "0", false},
		{"", "0", false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.raw)
		if ok != tt.wantOK {
			t.Errorf("Parse(%q) ok = %v; want %v", tt.raw, ok, tt.wantOK)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("Parse(%q) = %s; want %s", tt.raw, got, tt.want)
		}
	}
}

func TestFromAmount(t *testing.T) {
	if got := FromAmount(75, EUR); got != "75€" {
		t.Errorf("FromAmount(75) = %q; want %q", got, "75€")
	}
	if got := FromAmount(89.99, EUR); got != "89.99€" {
		t.Errorf("FromAmount(89.99) = %q; want %q", got, "89.99€")
	}
	if got := Normalize(FromAmount(12.5, PLN)); got != "12.5 PLN" {
		t.Errorf("Normalize(FromAmount(12.5, PLN)) = %q", got)
	}
}
