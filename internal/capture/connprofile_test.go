package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileMapObserveAccumulates(t *testing.T) {
	m := NewProfileMap()
	t0 := time.Now()

	m.Observe("10.0.0.1", 10, t0)
	m.Observe("10.0.0.1", 20, t0.Add(time.Second))

	p, ok := m.Get("10.0.0.1")
	require.True(t, ok)
	assert.Equal(t, uint64(30), p.BytesIn)
	assert.Equal(t, uint64(2), p.PacketsIn)
	assert.Equal(t, t0, p.TimestampFirst)
	assert.Equal(t, t0.Add(time.Second), p.TimestampLast)
}

func TestProfileMapSizeAndTotalBytes(t *testing.T) {
	m := NewProfileMap()
	now := time.Now()

	m.Observe("10.0.0.1", 10, now)
	m.Observe("10.0.0.2", 5, now)

	assert.Equal(t, 2, m.Size())
	assert.Equal(t, uint64(15), m.TotalBytes())
}

func TestProfileMapGetUnknownAddr(t *testing.T) {
	m := NewProfileMap()
	_, ok := m.Get("10.0.0.9")
	assert.False(t, ok)
}
