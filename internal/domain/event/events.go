package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/vertextoedge/request-tui/internal/domain"
)

// Event names
const (
	NameTaskSubmitted = "task.submitted"
	NameTaskResumed   = "task.resumed"
	NameTaskStopped   = "task.stopped"
	NameTaskFinished  = "task.finished"
	NameAll           = "*"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	// EventName returns the name of the event
	EventName() string
	// OccurredAt returns when the event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events
type BaseEvent struct {
	Timestamp time.Time
}

// OccurredAt returns when the event occurred
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// TaskSubmitted is raised when a new URL is queued
type TaskSubmitted struct {
	BaseEvent
	TaskID uuid.UUID
	URL    string
}

// EventName returns the event name
func (e TaskSubmitted) EventName() string {
	return NameTaskSubmitted
}

// NewTaskSubmitted creates a new TaskSubmitted event
func NewTaskSubmitted(taskID uuid.UUID, url string) TaskSubmitted {
	return TaskSubmitted{
		BaseEvent: BaseEvent{Timestamp: time.Now()},
		TaskID:    taskID,
		URL:       url,
	}
}

// TaskResumed is raised when a stopped task starts a new attempt
type TaskResumed struct {
	BaseEvent
	TaskID     uuid.UUID
	Filepath   string
	Downloaded int64
}

// EventName returns the event name
func (e TaskResumed) EventName() string {
	return NameTaskResumed
}

// NewTaskResumed creates a new TaskResumed event
func NewTaskResumed(taskID uuid.UUID, filepath string, downloaded int64) TaskResumed {
	return TaskResumed{
		BaseEvent:  BaseEvent{Timestamp: time.Now()},
		TaskID:     taskID,
		Filepath:   filepath,
		Downloaded: downloaded,
	}
}

// TaskStopped is raised when an attempt ends but the task stays resumable
type TaskStopped struct {
	BaseEvent
	TaskID     uuid.UUID
	Result     domain.Result
	Downloaded int64
}

// EventName returns the event name
func (e TaskStopped) EventName() string {
	return NameTaskStopped
}

// NewTaskStopped creates a new TaskStopped event
func NewTaskStopped(taskID uuid.UUID, result domain.Result, downloaded int64) TaskStopped {
	return TaskStopped{
		BaseEvent:  BaseEvent{Timestamp: time.Now()},
		TaskID:     taskID,
		Result:     result,
		Downloaded: downloaded,
	}
}

// TaskFinished is raised when a task leaves the active list
type TaskFinished struct {
	BaseEvent
	Entry   domain.FinishedEntry
	Message string
}

// EventName returns the event name
func (e TaskFinished) EventName() string {
	return NameTaskFinished
}

// NewTaskFinished creates a new TaskFinished event
func NewTaskFinished(entry domain.FinishedEntry, message string) TaskFinished {
	return TaskFinished{
		BaseEvent: BaseEvent{Timestamp: entry.FinishedAt},
		Entry:     entry,
		Message:   message,
	}
}
