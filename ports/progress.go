package ports

import (
	"sheetwise/domain/batch"
	"sheetwise/domain/core"
)

// ProgressEvent is one step of a sheet task's lifecycle.
type ProgressEvent struct {
	BatchID    core.BatchID    `json:"batch_id"`
	TaskID     core.TaskID     `json:"task_id"`
	SheetIndex int             `json:"sheet_index"`
	SheetName  string          `json:"sheet_name"`
	State      batch.TaskState `json:"state"`
	Message    string          `json:"message,omitempty"`
	At         core.Timestamp  `json:"at"`
}

// ProgressSink receives lifecycle events from worker goroutines.
// Implementations must be safe for concurrent use and must never panic
// into the worker's control flow.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(event ProgressEvent)

// Publish implements ProgressSink
func (f ProgressFunc) Publish(event ProgressEvent) { f(event) }
