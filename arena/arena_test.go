package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlloc_AlignsAndBumps(t *testing.T) {
	a := New(64)
	b1, err := a.Alloc(3, 8)
	require.NoError(t, err)
	assert.Len(t, b1, 3)
	assert.Equal(t, 3, a.Used())

	b2, err := a.Alloc(8, 8)
	require.NoError(t, err)
	assert.Len(t, b2, 8)
	// b2 must start on an 8-byte boundary, i.e. used jumped to 8+8=16.
	assert.Equal(t, 16, a.Used())
}

func TestAlloc_OutOfSpace(t *testing.T) {
	a := New(8)
	_, err := a.Alloc(4, 1)
	require.NoError(t, err)
	_, err = a.Alloc(8, 1)
	assert.Error(t, err)
}

func TestReset_RewindsOffset(t *testing.T) {
	a := New(16)
	_, err := a.Alloc(16, 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.HighWatermark())
	a.Reset()
	assert.Equal(t, 0, a.Used())
	assert.Equal(t, 0.0, a.HighWatermark())
}

func TestAllocFloat32_ReturnsZeroedSlice(t *testing.T) {
	a := New(64)
	f, err := a.AllocFloat32(4)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0}, f)
	assert.Equal(t, 16, a.Used())
}

func TestAllocFloat32_Zero(t *testing.T) {
	a := New(64)
	f, err := a.AllocFloat32(0)
	require.NoError(t, err)
	assert.Nil(t, f)
	assert.Equal(t, 0, a.Used())
}

func TestHighWatermark(t *testing.T) {
	a := New(100)
	_, err := a.Alloc(50, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, a.HighWatermark(), 0.001)
}
