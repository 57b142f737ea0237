package service

import (
	"crossline/internal/registry"
	"crossline/internal/service/dispatch"
	"crossline/internal/zone"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time view of a session.
type Stats struct {
	SessionID        string                      `json:"session_id"`
	StartedAt        time.Time                   `json:"started_at"`
	Geometry         *zone.Geometry              `json:"geometry,omitempty"`
	FramesProcessed  uint64                      `json:"frames_processed"`
	FramesRejected   uint64                      `json:"frames_rejected"`
	Tracks           int                         `json:"tracks"`
	DispatchedTracks int                         `json:"dispatched_tracks"`
	Succeeded        uint64                      `json:"succeeded"`
	Failed           uint64                      `json:"failed"`
	Counters         map[int]registry.ClassCount `json:"counters"`
	Pool             *dispatch.PoolStats         `json:"pool,omitempty"`
}

func (s *Session) Stats() Stats {
	stats := Stats{
		SessionID:        s.id,
		StartedAt:        s.startedAt,
		FramesProcessed:  atomic.LoadUint64(&s.framesProcessed),
		FramesRejected:   atomic.LoadUint64(&s.framesRejected),
		Tracks:           s.registry.Len(),
		DispatchedTracks: s.registry.DispatchedCount(),
		Succeeded:        atomic.LoadUint64(&s.succeeded),
		Failed:           atomic.LoadUint64(&s.failed),
		Counters:         s.counters.Snapshot(),
	}

	if g, ok := s.Geometry(); ok {
		stats.Geometry = &g
	}
	if s.pool != nil {
		poolStats := s.pool.Stats()
		stats.Pool = &poolStats
	}
	return stats
}

// Tracks returns the dispatch state of every track seen in this session.
func (s *Session) Tracks() []registry.TrackState {
	return s.registry.Snapshot()
}
