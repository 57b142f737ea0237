package handler

import (
	"crossline/internal/dto"
	"crossline/internal/logger"
	"crossline/internal/model"
	"crossline/internal/repository"
	"net/http"
	"strconv"
)

// DispatchesData is a paginated page of the audit trail.
type DispatchesData struct {
	Dispatches  []model.DispatchRecord `json:"dispatches"`
	Length      int                    `json:"length"`
	TotalPages  int                    `json:"totalPages"`
	CurrentPage int                    `json:"currentPage"`
	Limit       int                    `json:"pageSize"`
}

// GetDispatchesHandler lists audit records; supports session, track, failed and pagination filters.
func GetDispatchesHandler(repo repository.DispatchRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			http.Error(w, "Audit database not available", http.StatusServiceUnavailable)
			return
		}

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 50)

		filter := &dto.DispatchFilter{
			SessionID: q.Get("session"),
			OnlyFails: q.Get("failed") == "true",
			Limit:     limit,
			Offset:    (page - 1) * limit,
		}
		if track := q.Get("track"); track != "" {
			id, err := strconv.Atoi(track)
			if err != nil {
				http.Error(w, "Invalid track parameter", http.StatusBadRequest)
				return
			}
			filter.TrackID = &id
		}

		records, err := repo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying dispatches: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalCount, err := repo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting dispatches: %v", err)
			totalCount = len(records)
		}

		if records == nil {
			records = []model.DispatchRecord{}
		}

		writeJSON(w, http.StatusOK, DispatchesData{
			Dispatches:  records,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}, logger)
	}
}

// GetDispatchStatsHandler returns success/failure totals, optionally for one session.
func GetDispatchStatsHandler(repo repository.DispatchRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			http.Error(w, "Audit database not available", http.StatusServiceUnavailable)
			return
		}

		stats, err := repo.GetStats(r.URL.Query().Get("session"))
		if err != nil {
			logger.Error("Failed to get dispatch stats: %v", err)
			http.Error(w, "Failed to retrieve stats", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, stats, logger)
	}
}

// ClearDispatchesHandler empties the audit trail. Session state is not touched.
func ClearDispatchesHandler(repo repository.DispatchRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if repo == nil {
			http.Error(w, "Audit database not available", http.StatusServiceUnavailable)
			return
		}

		if err := repo.DeleteAll(); err != nil {
			logger.Error("Error clearing dispatches: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Dispatch audit trail cleared")
		w.WriteHeader(http.StatusNoContent)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
