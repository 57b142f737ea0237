// Package source adapts external detector/tracker output into frames.
package source

import (
	"context"
	"crossline/internal/dto"
)

// Source yields frames in detector order. Next returns io.EOF once the stream
// has ended and ctx.Err() when ctx is cancelled.
type Source interface {
	Next(ctx context.Context) (dto.Frame, error)
}

// sequencer stamps frames that arrive without a sequence number.
type sequencer struct {
	last uint64
}

func (s *sequencer) stamp(frame *dto.Frame) {
	if frame.Seq == 0 {
		frame.Seq = s.last + 1
	}
	s.last = frame.Seq
}
