package batch

import (
	"sheetwise/domain/core"
	"sheetwise/domain/grid"
	"sheetwise/domain/mapping"
	"sheetwise/domain/profile"
)

// TaskState is the lifecycle state of one sheet's processing task.
type TaskState string

const (
	StatePending    TaskState = "PENDING"
	StateParsing    TaskState = "PARSING"
	StateMapping    TaskState = "MAPPING"
	StatePersisting TaskState = "PERSISTING"
	StateRetrying   TaskState = "RETRYING"
	StateDone       TaskState = "DONE"
	StateFailed     TaskState = "FAILED"
	StateTimedOut   TaskState = "TIMED_OUT"
)

// Terminal reports whether the state is final. Terminal tasks are immutable.
func (s TaskState) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateTimedOut
}

// SheetTask tracks one sheet through the pipeline.
type SheetTask struct {
	ID           core.TaskID    `json:"id"`
	SheetIndex   int            `json:"sheet_index"`
	SheetName    string         `json:"sheet_name"`
	State        TaskState      `json:"state"`
	UploadID     core.UploadID  `json:"upload_id,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	BlobPath     string         `json:"blob_path,omitempty"`
	StartedAt    core.Timestamp `json:"started_at"`
	FinishedAt   core.Timestamp `json:"finished_at"`
}

// Succeeded reports whether the task completed with a persisted upload
func (t *SheetTask) Succeeded() bool {
	return t.State == StateDone && !core.ID(t.UploadID).IsEmpty()
}

// SheetResult is the classified, schema-mapped output of one sheet.
type SheetResult struct {
	SheetIndex  int                     `json:"sheet_index"`
	SheetName   string                  `json:"sheet_name"`
	Layout      grid.HeaderLayout       `json:"layout"`
	Orientation grid.Orientation        `json:"orientation"`
	Transposed  bool                    `json:"transposed"`
	Table       grid.Table              `json:"table"`
	Profiles    []profile.ColumnProfile `json:"profiles"`
	Mappings    []mapping.FieldMapping  `json:"mappings"`
}

// PersistReceipt is the persistence collaborator's answer for one sheet.
type PersistReceipt struct {
	Success    bool          `json:"success"`
	UploadID   core.UploadID `json:"upload_id,omitempty"`
	SavedRows  int           `json:"saved_rows"`
	TotalRows  int           `json:"total_rows"`
	FailedRows int           `json:"failed_rows"`
	Message    string        `json:"message,omitempty"`
}

// BatchJob is the ordered collection of sheet tasks for one workbook upload.
type BatchJob struct {
	ID             core.BatchID   `json:"id"`
	Filename       string         `json:"filename"`
	BlobPath       string         `json:"blob_path,omitempty"`
	Tasks          []*SheetTask   `json:"tasks"`
	TotalProcessed int            `json:"total_processed"`
	SuccessCount   int            `json:"success_count"`
	SkippedCount   int            `json:"skipped_count"`
	FailedCount    int            `json:"failed_count"`
	CreatedAt      core.Timestamp `json:"created_at"`
}

// Recount folds the task states into the derived summary counters
func (b *BatchJob) Recount() {
	b.TotalProcessed = len(b.Tasks)
	b.SuccessCount = 0
	b.SkippedCount = 0
	b.FailedCount = 0
	for _, t := range b.Tasks {
		switch t.State {
		case StateDone:
			b.SuccessCount++
		case StateFailed, StateTimedOut:
			b.FailedCount++
		default:
			b.SkippedCount++
		}
	}
}

// Snapshot returns a deep copy of the job with its tasks copied by value
func (b *BatchJob) Snapshot() *BatchJob {
	c := *b
	c.Tasks = make([]*SheetTask, len(b.Tasks))
	for i, t := range b.Tasks {
		tc := *t
		c.Tasks[i] = &tc
	}
	return &c
}

// TaskByName finds a task by its persisted sheet name
func (b *BatchJob) TaskByName(name string) *SheetTask {
	for _, t := range b.Tasks {
		if t.SheetName == name {
			return t
		}
	}
	return nil
}
