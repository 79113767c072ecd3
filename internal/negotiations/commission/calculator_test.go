package commission

import (
	"testing"

	"imobcrm_backend/platform/apperr"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculate(t *testing.T) {
	cases := []struct {
		name      string
		saleValue string
		rate      string
		want      string
	}{
		{"five percent of thousand", "1000.00", "5", "50.00"},
		{"rounds half up", "333.33", "7.5", "25.00"},
		{"zero rate", "500000", "0", "0.00"},
		{"full rate", "250.50", "100", "250.50"},
		{"zero sale value", "0", "6", "0.00"},
		{"sub-cent result rounds", "1", "0.4", "0.00"},
		{"half cent rounds up", "1", "0.5", "0.01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Calculate(dec(tc.saleValue), dec(tc.rate))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("Calculate(%s, %s) = %s, want %s", tc.saleValue, tc.rate, got, tc.want)
			}
		})
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	first, err := Calculate(dec("987654.32"), dec("3.25"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Calculate(dec("987654.32"), dec("3.25"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !again.Equal(first) {
			t.Fatalf("calculation is not deterministic: %s != %s", again, first)
		}
	}
}

func TestCalculateRejectsOutOfDomainInput(t *testing.T) {
	cases := []struct {
		name      string
		saleValue string
		rate      string
	}{
		{"negative sale value", "-1", "5"},
		{"negative rate", "1000", "-0.1"},
		{"rate above hundred", "1000", "100.01"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Calculate(dec(tc.saleValue), dec(tc.rate))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected validation kind, got %v", err)
			}
		})
	}
}
