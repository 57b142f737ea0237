package handler

import (
	"bytes"
	"context"
	"crossline/internal/config"
	"crossline/internal/dto"
	"crossline/internal/logger"
	"crossline/internal/repository/sqlite"
	"crossline/internal/service"
	"crossline/internal/service/dispatch"
	"crossline/internal/service/websocket"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// Test Setup Helpers
// ========================================

type fixture struct {
	logger  *logger.Logger
	session *service.Session
	repo    *sqlite.DispatchRepository
	hub     *websocket.HubService
}

func setup(t *testing.T) *fixture {
	t.Helper()

	lg := logger.NewWriterLogger(io.Discard)

	db, err := sqlite.New(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := sqlite.NewDispatchRepository(db)
	hub := websocket.NewHubService(lg)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	cfg := &config.Config{BandHalfWidth: 20}
	session := service.NewSession(cfg, lg, dispatch.NewDryRun(lg), repo, hub)

	return &fixture{logger: lg, session: session, repo: repo, hub: hub}
}

func intPtr(v int) *int { return &v }

// frameJSON builds a 300x200 frame (band 80..120, split 150) with one box centered at (x, y).
func frameJSON(t *testing.T, seq uint64, trackID *int, classID, x, y int) []byte {
	t.Helper()

	frame := dto.Frame{
		Seq:    seq,
		Width:  300,
		Height: 200,
		Detections: []dto.Detection{{
			TrackID: trackID,
			ClassID: classID,
			BBox: dto.BBox{
				X1: float64(x - 10), Y1: float64(y - 10),
				X2: float64(x + 10), Y2: float64(y + 10),
			},
			Confidence: 0.9,
		}},
	}
	body, err := json.Marshal(frame)
	require.NoError(t, err)
	return body
}

func postFrame(t *testing.T, f *fixture, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/frames", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	IngestFrameHandler(f.session, f.logger).ServeHTTP(rec, req)
	return rec
}

// ========================================
// Frame Ingest Tests
// ========================================

func TestIngestFrame_DispatchesOnce(t *testing.T) {
	f := setup(t)

	rec := postFrame(t, f, frameJSON(t, 1, intPtr(7), 2, 80, 100))
	require.Equal(t, http.StatusOK, rec.Code)

	var report dto.FrameReport
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 1, report.Dispatched)
	require.Len(t, report.Triggers, 1)
	assert.Equal(t, 33, report.Triggers[0].Command)
	assert.Equal(t, "left", report.Triggers[0].Side)

	rec = postFrame(t, f, frameJSON(t, 2, intPtr(7), 2, 90, 100))
	require.Equal(t, http.StatusOK, rec.Code)

	report = dto.FrameReport{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, 0, report.Dispatched)
	require.Len(t, report.Triggers, 1)
	assert.False(t, report.Triggers[0].Claimed)
}

func TestIngestFrame_InvalidPayload(t *testing.T) {
	f := setup(t)

	rec := postFrame(t, f, []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestFrame_MethodNotAllowed(t *testing.T) {
	f := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/api/frames", nil)
	rec := httptest.NewRecorder()
	IngestFrameHandler(f.session, f.logger).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIngestFrame_GeometryMismatch(t *testing.T) {
	f := setup(t)

	require.Equal(t, http.StatusOK, postFrame(t, f, frameJSON(t, 1, nil, 0, 10, 10)).Code)

	body := []byte(`{"seq":2,"width":640,"height":480,"detections":[]}`)
	rec := postFrame(t, f, body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestIngestFrame_ClosedSession(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.session.Close(context.Background()))

	rec := postFrame(t, f, frameJSON(t, 1, intPtr(1), 0, 10, 10))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

// ========================================
// Stats Tests
// ========================================

func TestGetStats(t *testing.T) {
	f := setup(t)
	postFrame(t, f, frameJSON(t, 1, intPtr(7), 2, 80, 100))
	postFrame(t, f, frameJSON(t, 2, intPtr(8), 4, 200, 10))

	rec := httptest.NewRecorder()
	GetStatsHandler(f.session, f.logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats service.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, f.session.ID(), stats.SessionID)
	assert.Equal(t, uint64(2), stats.FramesProcessed)
	assert.Equal(t, 2, stats.Tracks)
	assert.Equal(t, 1, stats.DispatchedTracks)
	require.NotNil(t, stats.Geometry)
	assert.Equal(t, 100, stats.Geometry.MiddleY)
	assert.Equal(t, 1, stats.Counters[2].Left)
	assert.Equal(t, 0, stats.Counters[4].Total)
}

func TestGetTracks(t *testing.T) {
	f := setup(t)
	postFrame(t, f, frameJSON(t, 1, intPtr(7), 2, 80, 100))

	rec := httptest.NewRecorder()
	GetTracksHandler(f.session, f.logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tracks", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"track_id":7`)
}

// ========================================
// Dispatch Audit Tests
// ========================================

func TestGetDispatches(t *testing.T) {
	f := setup(t)
	postFrame(t, f, frameJSON(t, 1, intPtr(7), 2, 80, 100))
	postFrame(t, f, frameJSON(t, 2, intPtr(9), 0, 250, 100))

	rec := httptest.NewRecorder()
	GetDispatchesHandler(f.repo, f.logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dispatches?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var data DispatchesData
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&data))
	assert.Equal(t, 2, data.Length)
	assert.Equal(t, 2, data.TotalPages)
	require.Len(t, data.Dispatches, 1)
	assert.Equal(t, 9, data.Dispatches[0].TrackID)
	assert.Equal(t, 21, data.Dispatches[0].Command)

	rec = httptest.NewRecorder()
	GetDispatchesHandler(f.repo, f.logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dispatches?track=7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	data = DispatchesData{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&data))
	require.Len(t, data.Dispatches, 1)
	assert.Equal(t, 33, data.Dispatches[0].Command)
	assert.Equal(t, f.session.ID(), data.Dispatches[0].SessionID)
}

func TestGetDispatches_InvalidTrack(t *testing.T) {
	f := setup(t)

	rec := httptest.NewRecorder()
	GetDispatchesHandler(f.repo, f.logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dispatches?track=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDispatches_NoDatabase(t *testing.T) {
	f := setup(t)

	rec := httptest.NewRecorder()
	GetDispatchesHandler(nil, f.logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dispatches", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDispatchStatsAndClear(t *testing.T) {
	f := setup(t)
	postFrame(t, f, frameJSON(t, 1, intPtr(7), 2, 80, 100))

	rec := httptest.NewRecorder()
	GetDispatchStatsHandler(f.repo, f.logger).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dispatches/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"succeeded":1`)

	rec = httptest.NewRecorder()
	ClearDispatchesHandler(f.repo, f.logger).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dispatches/clear", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	count, err := f.repo.GetTotalCount(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// ========================================
// WebSocket Tests
// ========================================

func TestEventsWebsocket_ReceivesDispatch(t *testing.T) {
	f := setup(t)

	server := httptest.NewServer(EventsWebsocketHandler(f.hub, f.logger))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	postFrame(t, f, frameJSON(t, 1, intPtr(7), 2, 80, 100))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event dto.DispatchEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, 7, event.TrackID)
	assert.Equal(t, 33, event.Command)
	assert.True(t, event.Result.Success)
}

// ========================================
// Log Tests
// ========================================

func TestShowLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, logger.InfoFile), []byte("hello\n"), 0644))

	rec := httptest.NewRecorder()
	ShowLogHandler(dir, logger.InfoFile).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/info", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello\n", rec.Body.String())

	rec = httptest.NewRecorder()
	ShowLogHandler(dir, logger.ErrorFile).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logs/error", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearLog(t *testing.T) {
	dir := t.TempDir()
	lg := logger.NewLogger(&config.Config{LogDirectory: dir})
	lg.Warning("something odd")

	rec := httptest.NewRecorder()
	ClearLogHandler(lg, logger.WarningFile).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/logs/warning/clear", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	content, err := os.ReadFile(filepath.Join(dir, logger.WarningFile))
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestAtoiDefault(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, atoiDefault(tt.input, tt.def), "atoiDefault(%q, %d)", tt.input, tt.def)
	}
}
