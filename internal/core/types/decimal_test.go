package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNonNegativeAt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		prec int32
		want bool
	}{
		{"positive", "1.5", 3, true},
		{"zero", "0", 3, true},
		{"negative", "-0.5", 3, false},
		{"negative residue rounds to zero", "-0.0001", 3, true},
		{"negative at higher precision", "-0.0001", 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NonNegativeAt(MustDecimal(tt.in), tt.prec))
		})
	}
}

func TestIsZeroAt(t *testing.T) {
	assert.True(t, IsZeroAt(MustDecimal("0.0004"), 3))
	assert.False(t, IsZeroAt(MustDecimal("0.0005"), 3))
	assert.True(t, IsZeroAt(Zero(), 0))
}

func TestDaysBetween(t *testing.T) {
	d := func(s string) time.Time {
		v, err := time.Parse("2006-01-02 15:04", s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return v
	}

	assert.Equal(t, int64(0), DaysBetween(d("2024-01-10 08:00"), d("2024-01-10 23:59")))
	assert.Equal(t, int64(21), DaysBetween(d("2024-01-10 23:00"), d("2024-01-31 00:00")))
	assert.Equal(t, int64(-1), DaysBetween(d("2024-01-10 00:00"), d("2024-01-09 12:00")))
	assert.Equal(t, int64(366), DaysBetween(d("2024-01-01 00:00"), d("2025-01-01 00:00")))
}

func TestEndOfDay(t *testing.T) {
	v := time.Date(2024, 2, 29, 13, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC), EndOfDay(v))
}
