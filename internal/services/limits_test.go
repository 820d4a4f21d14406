package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLimit(t *testing.T) {
	assert.Nil(t, ResolveLimit(nil, nil, 1, 50))
	assert.Equal(t, 3, *ResolveLimit(nil, intPtr(3), 1, 20))
	assert.Equal(t, 20, *ResolveLimit(intPtr(999), intPtr(3), 1, 20))
	assert.Equal(t, 1, *ResolveLimit(intPtr(0), intPtr(3), 1, 20))
	assert.Equal(t, 1, *ResolveLimit(intPtr(-10), nil, 1, 50))
	assert.Equal(t, 12, *ResolveLimit(intPtr(12), nil, 1, 50))

	fallback := intPtr(3)
	got := ResolveLimit(nil, fallback, 1, 20)
	*got = 9
	assert.Equal(t, 3, *fallback, "fallback is copied")
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{raw: "", want: nil},
		{raw: "   ", want: nil},
		{raw: "abc", want: nil},
		{raw: "NaN", want: nil},
		{raw: "Infinity", want: nil},
		{raw: "-Inf", want: nil},
		{raw: "5", want: intPtr(5)},
		{raw: " 7 ", want: intPtr(7)},
		{raw: "2.9", want: intPtr(2)},
		{raw: "-2.9", want: intPtr(-2)},
		{raw: "0", want: intPtr(0)},
		{raw: "1e3", want: intPtr(1000)},
		{raw: "1e300", want: intPtr(2147483647)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLimit(tt.raw))
		})
	}
}
