package dto

import "time"

// DispatchResult is the outcome of one call to the actuation endpoint.
type DispatchResult struct {
	Success    bool          `json:"success"`
	StatusCode int           `json:"status_code,omitempty"`
	Detail     string        `json:"detail,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// DispatchEvent is one dispatch attempt as seen by the audit trail and live viewers.
type DispatchEvent struct {
	SessionID string         `json:"session_id"`
	TrackID   int            `json:"track_id"`
	ClassID   int            `json:"class_id"`
	Side      string         `json:"side"`
	Command   int            `json:"command"`
	Sequence  int            `json:"sequence"`
	FrameSeq  uint64         `json:"frame_seq"`
	Result    DispatchResult `json:"result"`
	Timestamp time.Time      `json:"timestamp"`
}
