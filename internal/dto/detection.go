package dto

// BBox is an axis-aligned box in frame pixels, corners as reported by the detector.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Center returns the box midpoint. Corners are truncated to whole pixels first,
// then halved with floor division.
func (b BBox) Center() (x, y int) {
	return floorHalf(int(b.X1) + int(b.X2)), floorHalf(int(b.Y1) + int(b.Y2))
}

func floorHalf(v int) int {
	if v < 0 && v%2 != 0 {
		return v/2 - 1
	}
	return v / 2
}

// Detection is one object reported by the detector/tracker for a frame.
// TrackID is nil until the tracker has assigned an identity.
type Detection struct {
	TrackID    *int    `json:"track_id,omitempty"`
	ClassID    int     `json:"class_id"`
	BBox       BBox    `json:"bbox"`
	Confidence float64 `json:"confidence"`
}

// Tracked reports whether the detection carries a track id.
func (d Detection) Tracked() bool {
	return d.TrackID != nil
}
