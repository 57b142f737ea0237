package service

import (
	"context"
	"crossline/internal/command"
	"crossline/internal/config"
	"crossline/internal/dto"
	"crossline/internal/logger"
	"crossline/internal/model"
	"crossline/internal/registry"
	"crossline/internal/repository"
	"crossline/internal/service/dispatch"
	"crossline/internal/source"
	"crossline/internal/zone"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	ErrGeometryMismatch = errors.New("frame size does not match zone geometry")
	ErrSessionClosed    = errors.New("session closed")
)

// EventSink receives every finished dispatch attempt, e.g. the websocket hub.
type EventSink interface {
	BroadcastJSON(v interface{})
}

// Session owns all state for one run of the line: zone geometry, track
// registry, class counters and the dispatch pool. Frames are processed one at
// a time; dispatches run on the pool so a slow actuator never stalls frames.
type Session struct {
	id        string
	startedAt time.Time
	logger    *logger.Logger

	bandHalfWidth    int
	rederiveOnResize bool
	retryOnFailure   bool

	sender    dispatch.Sender
	pool      *dispatch.Pool // nil = wysyłka synchroniczna
	auditRepo repository.DispatchRepository
	sink      EventSink

	registry *registry.Registry
	counters *registry.Counters

	mu       sync.Mutex // serializuje przetwarzanie klatek
	geometry *zone.Geometry
	closed   bool

	framesProcessed uint64
	framesRejected  uint64
	succeeded       uint64
	failed          uint64
}

// NewSession starts a session. auditRepo and sink may be nil.
func NewSession(config *config.Config, logger *logger.Logger, sender dispatch.Sender,
	auditRepo repository.DispatchRepository, sink EventSink) *Session {
	s := &Session{
		id:               uuid.NewString(),
		startedAt:        time.Now(),
		logger:           logger,
		bandHalfWidth:    config.BandHalfWidth,
		rederiveOnResize: config.RederiveOnResize(),
		retryOnFailure:   config.RetryOnFailure(),
		sender:           sender,
		auditRepo:        auditRepo,
		sink:             sink,
		registry:         registry.New(),
		counters:         registry.NewCounters(),
	}

	if config.DispatchWorkers > 0 {
		s.pool = dispatch.NewPool(sender, config.DispatchWorkers, config.DispatchQueueSize, s.complete, logger)
	}

	s.logger.Info("🎬 Session %s started - band ±%d px, failure policy %s, resize policy %s",
		s.id, s.bandHalfWidth, config.DispatchFailurePolicy, config.GeometryResizePolicy)
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Geometry returns the zone geometry once the first frame has been seen.
func (s *Session) Geometry() (zone.Geometry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.geometry == nil {
		return zone.Geometry{}, false
	}
	return *s.geometry, true
}

// Run processes frames from src until the stream ends or ctx is cancelled.
// End of stream returns nil. Frames the session rejects are logged and skipped.
func (s *Session) Run(ctx context.Context, src source.Source) error {
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("Frame source finished after %d frame(s)", atomic.LoadUint64(&s.framesProcessed))
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("frame source failed: %w", err)
		}

		if _, err := s.ProcessFrame(ctx, frame); err != nil {
			if errors.Is(err, ErrSessionClosed) {
				return err
			}
			s.logger.Warning("Frame %d rejected: %v", frame.Seq, err)
		}
	}
}

// ProcessFrame runs every detection of one frame through the band check and
// the exactly-once claim, handing claimed crossings to the dispatcher.
func (s *Session) ProcessFrame(ctx context.Context, frame dto.Frame) (dto.FrameReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := dto.FrameReport{Seq: frame.Seq}

	if s.closed {
		return report, ErrSessionClosed
	}

	geometry, err := s.ensureGeometry(frame.Width, frame.Height)
	if err != nil {
		atomic.AddUint64(&s.framesRejected, 1)
		return report, err
	}

	for _, det := range frame.Detections {
		if !det.Tracked() {
			report.Untracked++
			continue
		}
		if det.ClassID < 0 {
			s.logger.Warning("Frame %d: ignoring track %d with class id %d", frame.Seq, *det.TrackID, det.ClassID)
			continue
		}

		trackID := *det.TrackID
		s.registry.GetOrCreate(trackID, det.ClassID)
		s.counters.Touch(det.ClassID)

		centerX, centerY := det.BBox.Center()
		side := zone.Classify(centerY, centerX, geometry)
		if side == zone.SideNone {
			report.OutOfBand++
			continue
		}

		trigger := dto.Trigger{
			TrackID:  trackID,
			ClassID:  det.ClassID,
			Side:     side.String(),
			Sequence: s.counters.Increment(det.ClassID, side),
		}

		if s.registry.TryClaim(trackID) {
			code, err := command.Encode(side, det.ClassID)
			if err != nil {
				// Side and class were validated above; keep the claim, nothing is sent.
				s.logger.Error("Track %d: %v", trackID, err)
			} else {
				trigger.Claimed = true
				trigger.Command = int(code)
				report.Dispatched++
				s.handOff(ctx, dispatch.Job{
					TrackID:  trackID,
					ClassID:  det.ClassID,
					Side:     side,
					Code:     code,
					Sequence: trigger.Sequence,
					FrameSeq: frame.Seq,
				})
			}
		}

		report.Triggers = append(report.Triggers, trigger)
	}

	atomic.AddUint64(&s.framesProcessed, 1)
	return report, nil
}

// ensureGeometry derives the geometry on the first frame and checks later
// frames against it. Must be called with s.mu held.
func (s *Session) ensureGeometry(width, height int) (zone.Geometry, error) {
	if s.geometry != nil && s.geometry.Matches(width, height) {
		return *s.geometry, nil
	}

	if s.geometry != nil && !s.rederiveOnResize {
		return zone.Geometry{}, fmt.Errorf("%w: got %dx%d, want %dx%d", ErrGeometryMismatch,
			width, height, s.geometry.FrameWidth, s.geometry.FrameHeight)
	}

	g, err := zone.NewGeometry(width, height, s.bandHalfWidth)
	if err != nil {
		return zone.Geometry{}, err
	}

	if s.geometry == nil {
		s.logger.Info("Zone geometry initialized: %s", g)
	} else {
		s.logger.Warning("Frame size changed, zone geometry re-derived: %s", g)
	}
	s.geometry = &g
	return g, nil
}

// handOff sends a claimed job to the pool, or inline when no pool is configured.
func (s *Session) handOff(ctx context.Context, job dispatch.Job) {
	s.logger.Info("📤 Track %d class %d -> valve %s", job.TrackID, job.ClassID, job.Code)

	if s.pool == nil {
		s.complete(job, s.sender.Send(ctx, job.Code))
		return
	}

	if !s.pool.Submit(job) {
		s.complete(job, dto.DispatchResult{Detail: "dispatch queue full"})
	}
}

// complete records the outcome of one attempt. It runs on pool workers, so it
// must not take s.mu.
func (s *Session) complete(job dispatch.Job, result dto.DispatchResult) {
	if result.Success {
		atomic.AddUint64(&s.succeeded, 1)
	} else {
		atomic.AddUint64(&s.failed, 1)
	}

	s.logger.Audit("Sent as valve %s, class %d, track %d, side %s, half counter %d, success %t, status %d",
		job.Code, job.ClassID, job.TrackID, job.Side, job.Sequence, result.Success, result.StatusCode)

	if !result.Success {
		s.logger.Error("Dispatch of valve %s for track %d failed: %s", job.Code, job.TrackID, result.Detail)
		if s.retryOnFailure {
			s.registry.Release(job.TrackID)
			s.logger.Warning("Claim for track %d released, next crossing may retry", job.TrackID)
		}
	}

	event := dto.DispatchEvent{
		SessionID: s.id,
		TrackID:   job.TrackID,
		ClassID:   job.ClassID,
		Side:      job.Side.String(),
		Command:   int(job.Code),
		Sequence:  job.Sequence,
		FrameSeq:  job.FrameSeq,
		Result:    result,
		Timestamp: time.Now(),
	}

	if s.auditRepo != nil {
		if _, err := s.auditRepo.Insert(recordFromEvent(event)); err != nil {
			s.logger.Error("Failed to store dispatch audit: %v", err)
		}
	}

	if s.sink != nil {
		s.sink.BroadcastJSON(event)
	}
}

func recordFromEvent(e dto.DispatchEvent) *model.DispatchRecord {
	return &model.DispatchRecord{
		SessionID:  e.SessionID,
		TrackID:    e.TrackID,
		ClassID:    e.ClassID,
		Side:       e.Side,
		Command:    e.Command,
		Sequence:   e.Sequence,
		FrameSeq:   e.FrameSeq,
		Success:    e.Result.Success,
		StatusCode: e.Result.StatusCode,
		Detail:     e.Result.Detail,
		DurationMs: e.Result.Duration.Milliseconds(),
		CreatedAt:  e.Timestamp,
	}
}

// Close stops accepting frames and drains the dispatch pool until ctx ends.
// Claims already taken stay taken.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	var err error
	if s.pool != nil {
		err = s.pool.Stop(ctx)
	}

	stats := s.Stats()
	s.logger.Info("🛑 Session %s closed - %d frame(s), %d track(s), %d dispatched, %d ok, %d failed",
		s.id, stats.FramesProcessed, stats.Tracks, stats.DispatchedTracks, stats.Succeeded, stats.Failed)
	return err
}
