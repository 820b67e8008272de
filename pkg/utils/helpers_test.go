package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumeric(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{42, 42, true},
		{int64(7), 7, true},
		{3.25, 3.25, true},
		{float32(2), 2, true},
		{uint(9), 9, true},
		{"nope", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, c := range cases {
		got, ok := Numeric(c.in)
		assert.Equal(t, c.ok, ok, "Numeric(%v)", c.in)
		assert.Equal(t, c.want, got, "Numeric(%v)", c.in)
	}
}

func TestIsIntegral(t *testing.T) {
	assert.True(t, IsIntegral(1500))
	// JSON decoding hands integers over as float64.
	assert.True(t, IsIntegral(1500.0))
	assert.False(t, IsIntegral(1500.5))
	assert.False(t, IsIntegral("1500"))
	assert.False(t, IsIntegral(nil))
}
