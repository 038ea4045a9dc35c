package repository

import (
	"github.com/vertextoedge/request-tui/internal/domain"
)

// HistoryRepository defines the interface for the download history log
type HistoryRepository interface {
	// RecordFinished appends a retired task to the history
	RecordFinished(entry *domain.FinishedEntry) error

	// ListRecent returns up to limit entries, newest first
	ListRecent(limit int) ([]*domain.FinishedEntry, error)

	// CountByState returns the number of recorded entries per finish state
	CountByState() (map[domain.FinishState]int, error)
}
