package route

import (
	"crossline/internal/config"
	"crossline/internal/handler"
	"crossline/internal/logger"
	"crossline/internal/middleware"
	"crossline/internal/repository"
	"crossline/internal/service"
	"crossline/internal/service/websocket"
	"net/http"
)

// SetupRoutes registers the ingest, stats, audit and log endpoints and wraps
// the mux with the API key middleware. dispatchRepo may be nil when the audit
// database is disabled.
func SetupRoutes(session *service.Session, hub *websocket.HubService, cfg *config.Config,
	log *logger.Logger, dispatchRepo repository.DispatchRepository) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// API endpoints
	mux.HandleFunc("/api/frames", handler.IngestFrameHandler(session, log))
	mux.HandleFunc("/api/stats", handler.GetStatsHandler(session, log))
	mux.HandleFunc("/api/tracks", handler.GetTracksHandler(session, log))
	mux.HandleFunc("/api/events", handler.EventsWebsocketHandler(hub, log))

	mux.HandleFunc("/api/dispatches", handler.GetDispatchesHandler(dispatchRepo, log))
	mux.HandleFunc("/api/dispatches/stats", handler.GetDispatchStatsHandler(dispatchRepo, log))
	mux.HandleFunc("/api/dispatches/clear", handler.ClearDispatchesHandler(dispatchRepo, log))

	// Log endpoints
	logDir := cfg.LogDirectory
	mux.HandleFunc("/logs/info", handler.ShowLogHandler(logDir, logger.InfoFile))
	mux.HandleFunc("/logs/warning", handler.ShowLogHandler(logDir, logger.WarningFile))
	mux.HandleFunc("/logs/error", handler.ShowLogHandler(logDir, logger.ErrorFile))
	mux.HandleFunc("/logs/dispatch", handler.ShowLogHandler(logDir, logger.AuditFile))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogHandler(log, logger.InfoFile))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogHandler(log, logger.WarningFile))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogHandler(log, logger.ErrorFile))
	mux.HandleFunc("/logs/dispatch/clear", handler.ClearLogHandler(log, logger.AuditFile))

	return middleware.AuthMiddleware(cfg.APIKey, mux)
}
