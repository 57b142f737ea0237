package zone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeometry(t *testing.T) {
	g, err := NewGeometry(512, 384, DefaultBandHalfWidth)
	require.NoError(t, err)

	assert.Equal(t, 192, g.MiddleY)
	assert.Equal(t, 256, g.SplitX)
	assert.Equal(t, 20, g.BandHalfWidth)
	assert.True(t, g.Matches(512, 384))
	assert.False(t, g.Matches(384, 512))
}

func TestNewGeometry_OddDimensions(t *testing.T) {
	g, err := NewGeometry(301, 201, 20)
	require.NoError(t, err)

	assert.Equal(t, 100, g.MiddleY)
	assert.Equal(t, 150, g.SplitX)
}

func TestNewGeometry_Invalid(t *testing.T) {
	_, err := NewGeometry(0, 100, 20)
	assert.ErrorIs(t, err, ErrInvalidFrameSize)

	_, err = NewGeometry(100, -1, 20)
	assert.ErrorIs(t, err, ErrInvalidFrameSize)

	_, err = NewGeometry(100, 100, -5)
	assert.ErrorIs(t, err, ErrInvalidBandWidth)
}

func TestClassify(t *testing.T) {
	g := Geometry{MiddleY: 100, SplitX: 150, BandHalfWidth: 20}

	tests := []struct {
		name    string
		centerY int
		centerX int
		want    Side
	}{
		{"on middle line, left", 100, 80, SideLeft},
		{"on split line counts as left", 100, 150, SideLeft},
		{"right of split", 100, 151, SideRight},
		{"just inside upper bound", 81, 10, SideLeft},
		{"just inside lower bound", 119, 300, SideRight},
		{"upper bound is open", 80, 10, SideNone},
		{"lower bound is open", 120, 10, SideNone},
		{"far above", 0, 10, SideNone},
		{"far below", 400, 300, SideNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.centerY, tt.centerX, g))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	g := Geometry{MiddleY: 240, SplitX: 320, BandHalfWidth: 20}

	for y := 200; y <= 280; y += 7 {
		for x := 0; x <= 640; x += 31 {
			first := Classify(y, x, g)
			for i := 0; i < 3; i++ {
				if got := Classify(y, x, g); got != first {
					t.Fatalf("Classify(%d, %d) changed from %v to %v", y, x, first, got)
				}
			}
		}
	}
}

func TestClassify_ZeroBandNeverTriggers(t *testing.T) {
	g := Geometry{MiddleY: 100, SplitX: 150, BandHalfWidth: 0}
	assert.Equal(t, SideNone, Classify(100, 10, g))
}

func TestSideString(t *testing.T) {
	assert.Equal(t, "left", SideLeft.String())
	assert.Equal(t, "right", SideRight.String())
	assert.Equal(t, "none", SideNone.String())
}
