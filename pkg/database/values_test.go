package database

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestFloat64 covers the coordinate coercions, NULL and blank becoming NaN.
func TestFloat64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      any
		want    float64
		nan     bool
		wantErr bool
	}{
		{name: "nil", in: nil, nan: true},
		{name: "float", in: -70.25, want: -70.25},
		{name: "int64", in: int64(43), want: 43},
		{name: "text", in: " 43.5 ", want: 43.5},
		{name: "bytes", in: []byte("-70"), want: -70},
		{name: "blank", in: "  ", nan: true},
		{name: "garbage", in: "north", wantErr: true},
		{name: "bool", in: true, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Float64(tc.in)
			if tc.wantErr {
				assert.True(t, errors.Is(err, ErrNotNumeric), "got %v", err)
				return
			}
			assert.NoError(t, err)
			if tc.nan {
				assert.True(t, math.IsNaN(got), "got %v", got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{int64(1), true},
		{int64(0), false},
		{true, true},
		{1.0, true},
		{math.NaN(), false},
		{"True", true},
		{"no", false},
		{[]byte("1"), true},
	}
	for _, tc := range tests {
		if got := Bool(tc.in); got != tc.want {
			t.Errorf("Bool(%#v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestKeyNormalisesIdentifiers ensures integer, float and text ids of the
// same value compare equal.
func TestKeyNormalisesIdentifiers(t *testing.T) {
	t.Parallel()

	for _, in := range []any{int64(7), 7, 7.0, "7", []byte(" 7 ")} {
		got, ok := Key(in)
		assert.True(t, ok, "%#v", in)
		assert.Equal(t, "7", got, "%#v", in)
	}
	for _, in := range []any{nil, math.NaN(), "", "  "} {
		_, ok := Key(in)
		assert.False(t, ok, "%#v", in)
	}
	got, ok := Key("IMG_0042")
	assert.True(t, ok)
	assert.Equal(t, "IMG_0042", got)
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	ts := time.Date(2023, 7, 12, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{12.5, "12.5"},
		{0.0, "0"},
		{math.NaN(), "NaN"},
		{int64(3), "3"},
		{"valve", "valve"},
		{ts, "2023-07-12 10:00:00"},
		{ts.Add(250 * time.Millisecond), "2023-07-12 10:00:00.25"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FormatValue(tc.in), "%#v", tc.in)
	}
}
