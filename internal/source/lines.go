package source

import (
	"bufio"
	"bytes"
	"context"
	"crossline/internal/dto"
	"crossline/internal/logger"
	"encoding/json"
	"fmt"
	"io"
)

// maxLineSize bounds a single JSON frame line.
const maxLineSize = 4 << 20

// LineSource reads newline-delimited JSON frames, for example the stdout of a
// detector process or a recorded session file. Lines that are not JSON objects
// (progress output, FPS prints) are skipped, as are lines that fail to decode.
type LineSource struct {
	scanner *bufio.Scanner
	logger  *logger.Logger
	seq     sequencer
	line    int
	skipped int
}

func NewLineSource(r io.Reader, logger *logger.Logger) *LineSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &LineSource{
		scanner: scanner,
		logger:  logger,
	}
}

func (s *LineSource) Next(ctx context.Context) (dto.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return dto.Frame{}, err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return dto.Frame{}, fmt.Errorf("failed to read frame line %d: %w", s.line+1, err)
			}
			return dto.Frame{}, io.EOF
		}
		s.line++

		text := bytes.TrimSpace(s.scanner.Bytes())
		if len(text) == 0 || text[0] != '{' {
			continue
		}

		var frame dto.Frame
		if err := json.Unmarshal(text, &frame); err != nil {
			s.skipped++
			s.logger.Warning("Skipping line %d: %v", s.line, err)
			continue
		}

		s.seq.stamp(&frame)
		return frame, nil
	}
}

// Skipped returns how many lines looked like frames but failed to decode.
func (s *LineSource) Skipped() int {
	return s.skipped
}
