package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnknownLength marks a content length the server never reported
const UnknownLength int64 = -1

// FinishState tells whether a retired task succeeded
type FinishState int

// Finish states
const (
	FinishFailure FinishState = iota
	FinishSuccess
)

// String returns the finish state name
func (s FinishState) String() string {
	if s == FinishSuccess {
		return "success"
	}
	return "failure"
}

// FinishedEntry is the immutable record of a task that left the active list
type FinishedEntry struct {
	TaskID        uuid.UUID
	State         FinishState
	Stage         Stage
	Filepath      string
	URL           string
	ContentLength int64 // UnknownLength if never reported
	Downloaded    int64
	FinishedAt    time.Time
}

// Success returns true if the entry records a completed download
func (e FinishedEntry) Success() bool {
	return e.State == FinishSuccess
}

// HasContentLength returns true if the total size is known
func (e FinishedEntry) HasContentLength() bool {
	return e.ContentLength >= 0
}
