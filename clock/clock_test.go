package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRate(t *testing.T) {
	_, ok := NewRate(0)
	assert.False(t, ok)

	_, ok = NewRate(-5)
	assert.False(t, ok)

	r, ok := NewRate(1000)
	require.True(t, ok)
	assert.Equal(t, int64(1000), r.CyclesPerMs())
}

func TestRate_FromMs(t *testing.T) {
	r, _ := NewRate(1000)
	assert.Equal(t, Cycles(3000), r.FromMs(3))
	assert.Equal(t, Cycles(2999), r.FromMs(2.9999))
}

func TestRate_CeilFromMs(t *testing.T) {
	r, _ := NewRate(1000)
	assert.Equal(t, Cycles(3000), r.CeilFromMs(3))
	assert.Equal(t, Cycles(3000), r.CeilFromMs(2.9999))
	assert.Equal(t, Cycles(1), r.CeilFromMs(0.0001))
}

func TestRate_ToMs(t *testing.T) {
	r, _ := NewRate(1000)
	assert.Equal(t, 3.0, r.ToMs(3000))
}

func TestCeilDuration(t *testing.T) {
	assert.Equal(t, Cycles(0), CeilDuration(-10))
	assert.Equal(t, Cycles(0), CeilDuration(0))
	assert.Equal(t, Cycles(5), CeilDuration(5))
}

func TestIsCloseToZero(t *testing.T) {
	assert.True(t, IsCloseToZero(0))
	assert.True(t, IsCloseToZero(-1))
	assert.False(t, IsCloseToZero(1))
}
