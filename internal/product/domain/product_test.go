package domain

import (
	"math"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestProduct_Validate(t *testing.T) {
	tests := []struct {
		name    string
		p       Product
		wantErr bool
	}{
		{"ok", Product{Name: "Widget", PricePerUnit: 9.5}, false},
		{"free", Product{Name: "Sample", PricePerUnit: 0}, false},
		{"tax bounds", Product{Name: "Widget", PricePerUnit: 1, TaxPercentage: ptr(100.0)}, false},
		{"zero tax", Product{Name: "Widget", PricePerUnit: 1, TaxPercentage: ptr(0.0)}, false},
		{"blank name", Product{Name: "  ", PricePerUnit: 1}, true},
		{"negative price", Product{Name: "Widget", PricePerUnit: -0.01}, true},
		{"NaN price", Product{Name: "Widget", PricePerUnit: math.NaN()}, true},
		{"infinite price", Product{Name: "Widget", PricePerUnit: math.Inf(1)}, true},
		{"negative tax", Product{Name: "Widget", PricePerUnit: 1, TaxPercentage: ptr(-1.0)}, true},
		{"tax over 100", Product{Name: "Widget", PricePerUnit: 1, TaxPercentage: ptr(100.5)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.p.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
