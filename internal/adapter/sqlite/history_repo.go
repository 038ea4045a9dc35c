package sqlite

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vertextoedge/request-tui/internal/domain"
)

// RecordFinished appends a retired task to the history
func (s *Store) RecordFinished(entry *domain.FinishedEntry) error {
	query := `
		INSERT INTO download_history (task_id, state, stage, filepath, url, content_length, downloaded, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(
		query,
		entry.TaskID.String(), entry.State.String(), entry.Stage.Key(),
		entry.Filepath, entry.URL, entry.ContentLength, entry.Downloaded, entry.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record history entry: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first
func (s *Store) ListRecent(limit int) ([]*domain.FinishedEntry, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT task_id, state, stage, filepath, url, content_length, downloaded, finished_at
		FROM download_history
		ORDER BY finished_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.FinishedEntry
	for rows.Next() {
		entry := &domain.FinishedEntry{}
		var taskID, state, stage string

		if err := rows.Scan(
			&taskID, &state, &stage, &entry.Filepath, &entry.URL,
			&entry.ContentLength, &entry.Downloaded, &entry.FinishedAt,
		); err != nil {
			return nil, err
		}

		if id, err := uuid.Parse(taskID); err == nil {
			entry.TaskID = id
		}
		entry.State = parseFinishState(state)
		entry.Stage = domain.ParseStage(stage)

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// CountByState returns the number of recorded entries per finish state
func (s *Store) CountByState() (map[domain.FinishState]int, error) {
	rows, err := s.db.Query("SELECT state, COUNT(*) FROM download_history GROUP BY state")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[domain.FinishState]int{
		domain.FinishSuccess: 0,
		domain.FinishFailure: 0,
	}
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		counts[parseFinishState(state)] += count
	}

	return counts, rows.Err()
}

func parseFinishState(s string) domain.FinishState {
	if s == domain.FinishSuccess.String() {
		return domain.FinishSuccess
	}
	return domain.FinishFailure
}
