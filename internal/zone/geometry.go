// Package zone holds the trigger band geometry and decides, per detection
// center, whether an object is inside the band and on which side of the split.
package zone

import (
	"errors"
	"fmt"
)

// DefaultBandHalfWidth is the half height of the trigger band in pixels.
const DefaultBandHalfWidth = 20

var (
	ErrInvalidFrameSize = errors.New("frame dimensions must be positive")
	ErrInvalidBandWidth = errors.New("band half width must not be negative")
)

// Geometry is the horizontal middle line, the vertical split line and the band
// half width, all derived from one frame size. It never changes once built.
type Geometry struct {
	MiddleY       int `json:"middle_y"`
	SplitX        int `json:"split_x"`
	BandHalfWidth int `json:"band_half_width"`
	FrameWidth    int `json:"frame_width"`
	FrameHeight   int `json:"frame_height"`
}

// NewGeometry derives the lines from the frame size using integer division.
func NewGeometry(frameWidth, frameHeight, bandHalfWidth int) (Geometry, error) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return Geometry{}, fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, frameWidth, frameHeight)
	}
	if bandHalfWidth < 0 {
		return Geometry{}, fmt.Errorf("%w: %d", ErrInvalidBandWidth, bandHalfWidth)
	}

	return Geometry{
		MiddleY:       frameHeight / 2,
		SplitX:        frameWidth / 2,
		BandHalfWidth: bandHalfWidth,
		FrameWidth:    frameWidth,
		FrameHeight:   frameHeight,
	}, nil
}

// Matches reports whether the geometry was derived from a frame of this size.
func (g Geometry) Matches(frameWidth, frameHeight int) bool {
	return g.FrameWidth == frameWidth && g.FrameHeight == frameHeight
}

func (g Geometry) String() string {
	return fmt.Sprintf("middle_y=%d split_x=%d band=±%d (%dx%d)",
		g.MiddleY, g.SplitX, g.BandHalfWidth, g.FrameWidth, g.FrameHeight)
}
