package handler

import (
	"crossline/internal/dto"
	"crossline/internal/logger"
	"crossline/internal/service"
	"encoding/json"
	"errors"
	"net/http"
)

// maxFrameBody bounds a single ingested frame.
const maxFrameBody = 1 << 20

// IngestFrameHandler accepts one frame of detections as JSON and returns the FrameReport.
func IngestFrameHandler(session *service.Session, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var frame dto.Frame
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFrameBody))
		if err := decoder.Decode(&frame); err != nil {
			logger.Warning("Invalid frame payload: %v", err)
			http.Error(w, "Invalid frame payload", http.StatusBadRequest)
			return
		}

		report, err := session.ProcessFrame(r.Context(), frame)
		if err != nil {
			status := http.StatusUnprocessableEntity
			if errors.Is(err, service.ErrSessionClosed) {
				status = http.StatusServiceUnavailable
			}
			logger.Warning("Frame %d rejected: %v", frame.Seq, err)
			http.Error(w, err.Error(), status)
			return
		}

		writeJSON(w, http.StatusOK, report, logger)
	}
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v interface{}, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
