package geo

import (
	"math"
	"testing"
)

func ptr(f float64) *float64 { return &f }

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng *float64
		want     error
	}{
		{"absent", nil, nil, nil},
		{"valid", ptr(52.52), ptr(13.405), nil},
		{"edges", ptr(-90), ptr(180), nil},
		{"only latitude", ptr(1), nil, ErrPartialLocation},
		{"only longitude", nil, ptr(1), ErrPartialLocation},
		{"latitude out of range", ptr(91), ptr(0), ErrInvalidLocation},
		{"longitude out of range", ptr(0), ptr(-181), ErrInvalidLocation},
		{"nan", ptr(math.NaN()), ptr(0), ErrInvalidLocation},
		{"inf", ptr(0), ptr(math.Inf(1)), ErrInvalidLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.lat, tt.lng); err != tt.want {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
