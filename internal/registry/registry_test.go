package registry

import (
	"sync"
	"sync/atomic"
	"testing"

	"crossline/internal/zone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreate(t *testing.T) {
	r := New()

	state := r.GetOrCreate(7, 2)
	assert.Equal(t, TrackState{TrackID: 7, LastClassID: 2}, state)
	assert.Equal(t, 1, r.Len())

	state = r.GetOrCreate(7, 3)
	assert.Equal(t, 3, state.LastClassID)
	assert.False(t, state.Dispatched)
	assert.Equal(t, 1, r.Len())
}

func TestTryClaim_OnlyOnce(t *testing.T) {
	r := New()
	r.GetOrCreate(7, 2)

	assert.True(t, r.TryClaim(7))
	assert.False(t, r.TryClaim(7))
	assert.False(t, r.TryClaim(7))

	state, ok := r.Get(7)
	require.True(t, ok)
	assert.True(t, state.Dispatched)
	assert.Equal(t, 1, state.Attempts)
}

func TestTryClaim_UnknownTrack(t *testing.T) {
	r := New()

	assert.True(t, r.TryClaim(42))
	assert.False(t, r.TryClaim(42))
	assert.Equal(t, 1, r.Len())
}

func TestTryClaim_GetOrCreateDoesNotReset(t *testing.T) {
	r := New()
	require.True(t, r.TryClaim(1))

	state := r.GetOrCreate(1, 5)
	assert.True(t, state.Dispatched)
	assert.False(t, r.TryClaim(1))
}

func TestTryClaim_Concurrent(t *testing.T) {
	r := New()

	var granted int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryClaim(99) {
				atomic.AddInt32(&granted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), granted)
}

func TestRelease(t *testing.T) {
	r := New()
	require.True(t, r.TryClaim(3))

	r.Release(3)
	assert.Equal(t, 0, r.DispatchedCount())

	assert.True(t, r.TryClaim(3))
	state, _ := r.Get(3)
	assert.Equal(t, 2, state.Attempts)

	// releasing an unknown track is a no-op
	r.Release(404)
	assert.Equal(t, 1, r.Len())
}

func TestSnapshot_Ordered(t *testing.T) {
	r := New()
	for _, id := range []int{5, 1, 3} {
		r.GetOrCreate(id, 0)
	}
	r.TryClaim(3)

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{snap[0].TrackID, snap[1].TrackID, snap[2].TrackID})
	assert.True(t, snap[1].Dispatched)
	assert.Equal(t, 1, r.DispatchedCount())
}

func TestCounters_Increment(t *testing.T) {
	c := NewCounters()

	for i := 1; i <= 4; i++ {
		assert.Equal(t, i, c.Increment(2, zone.SideLeft))
	}
	assert.Equal(t, 1, c.Increment(2, zone.SideRight))
	assert.Equal(t, 0, c.Increment(2, zone.SideNone))

	assert.Equal(t, ClassCount{Total: 5, Left: 4, Right: 1}, c.Get(2))
}

func TestCounters_Touch(t *testing.T) {
	c := NewCounters()
	c.Touch(8)
	c.Increment(1, zone.SideRight)
	c.Touch(1)

	snap := c.Snapshot()
	assert.Equal(t, ClassCount{}, snap[8])
	assert.Equal(t, ClassCount{Total: 1, Right: 1}, snap[1])
	assert.Equal(t, ClassCount{}, c.Get(77))
}
