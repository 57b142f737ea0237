// Package registry keeps per-track dispatch state and per-class crossing
// counters for one session. Nothing is ever removed while the session lives.
package registry

import (
	"sort"
	"sync"
)

// TrackState is the dispatch state of one tracked object.
type TrackState struct {
	TrackID     int  `json:"track_id"`
	Dispatched  bool `json:"dispatched"`
	LastClassID int  `json:"last_class_id"`
	Attempts    int  `json:"attempts"`
}

// Registry maps track ids to their dispatch state. It is the only place that
// decides whether a track may still fire.
type Registry struct {
	tracks map[int]*TrackState
	mu     sync.RWMutex
}

func New() *Registry {
	return &Registry{
		tracks: make(map[int]*TrackState),
	}
}

// GetOrCreate returns a copy of the track's state, creating it undispatched on
// first sight. The last seen class id is updated either way.
func (r *Registry) GetOrCreate(trackID, classID int) TrackState {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.tracks[trackID]
	if !exists {
		state = &TrackState{TrackID: trackID}
		r.tracks[trackID] = state
	}
	state.LastClassID = classID

	return *state
}

// Get returns the track's state and whether it exists.
func (r *Registry) Get(trackID int) (TrackState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.tracks[trackID]
	if !exists {
		return TrackState{}, false
	}
	return *state, true
}

// TryClaim marks the track as dispatched and returns true if it was not
// already. Unknown tracks are created and claimed in the same step.
func (r *Registry) TryClaim(trackID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.tracks[trackID]
	if !exists {
		state = &TrackState{TrackID: trackID}
		r.tracks[trackID] = state
	}
	if state.Dispatched {
		return false
	}

	state.Dispatched = true
	state.Attempts++
	return true
}

// Release hands a claim back so the track may fire again. Only used when the
// session is configured to retry failed dispatches.
func (r *Registry) Release(trackID int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, exists := r.tracks[trackID]; exists {
		state.Dispatched = false
	}
}

// Len returns the number of tracks seen so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tracks)
}

// DispatchedCount returns how many tracks currently hold a claim.
func (r *Registry) DispatchedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, state := range r.tracks {
		if state.Dispatched {
			n++
		}
	}
	return n
}

// Snapshot returns all track states ordered by track id.
func (r *Registry) Snapshot() []TrackState {
	r.mu.RLock()
	states := make([]TrackState, 0, len(r.tracks))
	for _, state := range r.tracks {
		states = append(states, *state)
	}
	r.mu.RUnlock()

	sort.Slice(states, func(i, j int) bool {
		return states[i].TrackID < states[j].TrackID
	})
	return states
}
