package domain

import (
	"testing"
	"time"
)

func TestFromUnixMilli(t *testing.T) {
	tests := []struct {
		name string
		ms   float64
		want time.Time
	}{
		{name: "regular timestamp", ms: 1_700_000_000_000, want: time.UnixMilli(1_700_000_000_000).UTC()},
		{name: "last representable instant", ms: maxUnixMilli, want: time.UnixMilli(maxUnixMilli).UTC()},
		{name: "zero is unset", ms: 0},
		{name: "negative is unset", ms: -5},
		{name: "beyond year 9999 is unset", ms: 1e16},
		{name: "int64 overflow is unset", ms: 1e20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromUnixMilli(tt.ms)
			if !got.Equal(tt.want) {
				t.Errorf("FromUnixMilli(%v) = %v, want %v", tt.ms, got, tt.want)
			}
		})
	}
}
