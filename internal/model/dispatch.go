package model

import "time"

// DispatchRecord is one dispatch attempt in the audit trail.
type DispatchRecord struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	TrackID    int       `json:"track_id"`
	ClassID    int       `json:"class_id"`
	Side       string    `json:"side"`
	Command    int       `json:"command"`
	Sequence   int       `json:"sequence"`
	FrameSeq   uint64    `json:"frame_seq"`
	Success    bool      `json:"success"`
	StatusCode int       `json:"status_code"`
	Detail     string    `json:"detail"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// DispatchStats aggregates the audit trail.
type DispatchStats struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	PerCode   map[int]int `json:"per_command"`
}
