package dto

// Frame is a single detector cycle: the frame size and everything detected in it.
type Frame struct {
	Seq        uint64      `json:"seq"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Detections []Detection `json:"detections"`
}

// Trigger describes a detection that was in the band on this frame.
type Trigger struct {
	TrackID  int    `json:"track_id"`
	ClassID  int    `json:"class_id"`
	Side     string `json:"side"`
	Sequence int    `json:"sequence"`
	Claimed  bool   `json:"claimed"`
	Command  int    `json:"command,omitempty"`
}

// FrameReport summarizes what the session did with one frame.
type FrameReport struct {
	Seq        uint64    `json:"seq"`
	Untracked  int       `json:"untracked"`
	OutOfBand  int       `json:"out_of_band"`
	Triggers   []Trigger `json:"triggers"`
	Dispatched int       `json:"dispatched"`
}
