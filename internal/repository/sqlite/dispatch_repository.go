package sqlite

import (
	"fmt"
	"strings"

	"crossline/internal/dto"
	"crossline/internal/model"
)

// DispatchRepository implements repository.DispatchRepository for SQLite.
type DispatchRepository struct {
	db *DB
}

// NewDispatchRepository creates a new SQLite dispatch repository.
func NewDispatchRepository(db *DB) *DispatchRepository {
	return &DispatchRepository{db: db}
}

// Insert adds a dispatch attempt to the audit trail.
func (r *DispatchRepository) Insert(rec *model.DispatchRecord) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO dispatches (session_id, track_id, class_id, side, command, sequence, frame_seq,
			success, status_code, detail, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.SessionID, rec.TrackID, rec.ClassID, rec.Side, rec.Command, rec.Sequence, int64(rec.FrameSeq),
		rec.Success, rec.StatusCode, rec.Detail, rec.DurationMs, rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert dispatch: %w", err)
	}

	return result.LastInsertId()
}

// whereClause builds the shared WHERE part for filtered queries.
func whereClause(filter *dto.DispatchFilter) (string, []interface{}) {
	var sb strings.Builder
	sb.WriteString(" WHERE 1=1")
	args := []interface{}{}

	if filter == nil {
		return sb.String(), args
	}

	if filter.SessionID != "" {
		sb.WriteString(" AND session_id = ?")
		args = append(args, filter.SessionID)
	}

	if filter.TrackID != nil {
		sb.WriteString(" AND track_id = ?")
		args = append(args, *filter.TrackID)
	}

	if filter.OnlyFails {
		sb.WriteString(" AND success = 0")
	}

	return sb.String(), args
}

// GetAll retrieves dispatches matching the filter, newest first.
func (r *DispatchRepository) GetAll(filter *dto.DispatchFilter) ([]model.DispatchRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := `
		SELECT id, session_id, track_id, class_id, side, command, sequence, frame_seq,
			success, status_code, detail, duration_ms, created_at
		FROM dispatches` + where + " ORDER BY id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dispatches: %w", err)
	}
	defer rows.Close()

	var records []model.DispatchRecord
	for rows.Next() {
		var rec model.DispatchRecord
		var frameSeq int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.TrackID, &rec.ClassID, &rec.Side, &rec.Command,
			&rec.Sequence, &frameSeq, &rec.Success, &rec.StatusCode, &rec.Detail, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		rec.FrameSeq = uint64(frameSeq)
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetTotalCount returns how many dispatches match the filter.
func (r *DispatchRepository) GetTotalCount(filter *dto.DispatchFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM dispatches`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count dispatches: %w", err)
	}

	return count, nil
}

// GetStats aggregates the audit trail, optionally for one session.
func (r *DispatchRepository) GetStats(sessionID string) (*model.DispatchStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(&dto.DispatchFilter{SessionID: sessionID})

	stats := &model.DispatchStats{
		PerCode: make(map[int]int),
	}

	if err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(success), 0) FROM dispatches`+where, args...).Scan(&stats.Total, &stats.Succeeded); err != nil {
		return nil, fmt.Errorf("failed to aggregate dispatches: %w", err)
	}
	stats.Failed = stats.Total - stats.Succeeded

	rows, err := r.db.Conn().Query(`SELECT command, COUNT(*) FROM dispatches`+where+` GROUP BY command`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to group dispatches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code, count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, fmt.Errorf("failed to scan command count: %w", err)
		}
		stats.PerCode[code] = count
	}

	return stats, rows.Err()
}

// DeleteAll clears the audit trail.
func (r *DispatchRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM dispatches`); err != nil {
		return fmt.Errorf("failed to delete dispatches: %w", err)
	}
	return nil
}
