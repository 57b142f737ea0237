package source

import (
	"context"
	"crossline/internal/dto"
	"crossline/internal/logger"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// pollInterval is how often a blocked read wakes up to check for cancellation.
const pollInterval = 250 * time.Millisecond

// UDPSource receives one JSON frame per datagram from the detector.
type UDPSource struct {
	conn   *net.UDPConn
	logger *logger.Logger
	buffer []byte
	seq    sequencer
}

// ListenUDP binds addr (for example ":9000") and returns a source reading from it.
func ListenUDP(addr string, logger *logger.Logger) (*UDPSource, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP address: %w", err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on UDP %s: %w", addr, err)
	}

	logger.Info("UDP detector source listening on %s", conn.LocalAddr())
	return &UDPSource{
		conn:   conn,
		logger: logger,
		buffer: make([]byte, 64*1024),
	}, nil
}

// Addr returns the bound local address.
func (s *UDPSource) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *UDPSource) Next(ctx context.Context) (dto.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return dto.Frame{}, err
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return dto.Frame{}, fmt.Errorf("failed to set read deadline: %w", err)
		}

		n, remoteAddr, err := s.conn.ReadFromUDP(s.buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return dto.Frame{}, err
			}
			s.logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		var frame dto.Frame
		if err := json.Unmarshal(s.buffer[:n], &frame); err != nil {
			s.logger.Warning("Dropping datagram from %s: %v", remoteAddr, err)
			continue
		}

		s.seq.stamp(&frame)
		return frame, nil
	}
}

func (s *UDPSource) Close() error {
	return s.conn.Close()
}
