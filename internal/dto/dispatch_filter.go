package dto

// DispatchFilter narrows audit trail queries.
type DispatchFilter struct {
	SessionID string
	TrackID   *int
	OnlyFails bool
	Limit     int
	Offset    int
}
