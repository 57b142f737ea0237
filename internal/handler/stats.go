package handler

import (
	"crossline/internal/logger"
	"crossline/internal/service"
	"net/http"
)

// GetStatsHandler returns the session's geometry, counters and dispatch totals.
func GetStatsHandler(session *service.Session, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, session.Stats(), logger)
	}
}

// GetTracksHandler returns the dispatch state of every track seen so far.
func GetTracksHandler(session *service.Session, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, session.Tracks(), logger)
	}
}
