package actuation

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseSlots(t *testing.T) {
	raw := map[string]any{
		"1":   128.0,
		"2":   json.Number("300"),
		"3":   -4.0,
		"4":   "17",
		"512": 12.6,
	}
	slots, err := ParseSlots(raw)
	if err != nil {
		t.Fatalf("ParseSlots() error = %v", err)
	}

	want := map[int]int{1: 128, 2: 255, 3: 0, 4: 17, 512: 13, 100: 0}
	for addr, v := range want {
		if got := slots.At(addr); got != v {
			t.Errorf("At(%d) = %d, want %d", addr, got, v)
		}
	}
}

func TestParseSlotsErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
	}{
		{"non-integer address", map[string]any{"one": 1.0}},
		{"address zero", map[string]any{"0": 1.0}},
		{"address past universe", map[string]any{"513": 1.0}},
		{"boolean value", map[string]any{"1": true}},
		{"text value", map[string]any{"1": "high"}},
		{"null value", map[string]any{"1": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSlots(tt.raw); !errors.Is(err, ErrInvalidSlot) {
				t.Errorf("ParseSlots() error = %v, want ErrInvalidSlot", err)
			}
		})
	}
}

func TestValidateUniverse(t *testing.T) {
	if err := ValidateUniverse(1); err != nil {
		t.Errorf("ValidateUniverse(1) error = %v", err)
	}
	if err := ValidateUniverse(0); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("ValidateUniverse(0) error = %v, want ErrInvalidFrame", err)
	}
}
