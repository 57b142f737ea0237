package repository

import (
	"crossline/internal/dto"
	"crossline/internal/model"
)

// DispatchRepository stores the dispatch audit trail.
type DispatchRepository interface {
	// Create operations
	Insert(rec *model.DispatchRecord) (int64, error)

	// Read operations
	GetAll(filter *dto.DispatchFilter) ([]model.DispatchRecord, error)
	GetTotalCount(filter *dto.DispatchFilter) (int, error)
	GetStats(sessionID string) (*model.DispatchStats, error)

	// Delete operations
	DeleteAll() error
}
