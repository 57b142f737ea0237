package zone

// Side is where a band crossing happened relative to the split line.
type Side int

const (
	SideNone Side = iota
	SideLeft
	SideRight
)

func (s Side) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	default:
		return "none"
	}
}

// InBand reports whether centerY lies strictly inside the band around the middle line.
func (g Geometry) InBand(centerY int) bool {
	return g.MiddleY-g.BandHalfWidth < centerY && centerY < g.MiddleY+g.BandHalfWidth
}

// Classify returns SideNone when the point is outside the band. Points on the
// split line count as left.
func Classify(centerY, centerX int, g Geometry) Side {
	if !g.InBand(centerY) {
		return SideNone
	}
	if centerX <= g.SplitX {
		return SideLeft
	}
	return SideRight
}
