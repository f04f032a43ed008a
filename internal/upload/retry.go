package upload

import (
	"context"
	"fmt"

	"sheetwise/domain/batch"
	"sheetwise/domain/core"
)

// Retry re-runs a single previously failed (or stuck parsing) task from the
// stored raw bytes. The sheet index is re-resolved by name against a fresh
// listing, since the source file may have changed between runs. The task
// keeps its identity; no duplicate task is created, and an upload id from an
// earlier run is kept on success.
func (o *Orchestrator) Retry(ctx context.Context, batchID core.BatchID, taskID core.TaskID) (*batch.SheetTask, error) {
	o.jobsMu.RLock()
	job, ok := o.jobs[batchID]
	o.jobsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: batch %s", core.ErrTaskNotFound, batchID)
	}

	var task *batch.SheetTask
	for _, t := range job.Tasks {
		if t.ID == taskID {
			task = t
			break
		}
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task %s", core.ErrTaskNotFound, taskID)
	}

	// Preconditions are checked without mutating any state
	o.taskMu.Lock()
	state := task.State
	o.taskMu.Unlock()
	if state != batch.StateFailed && state != batch.StateParsing {
		return nil, core.NewRetryPreconditionError(
			fmt.Sprintf("task is %s, only FAILED or PARSING tasks can be retried", state))
	}
	if o.blobs == nil || task.BlobPath == "" {
		return nil, core.NewRetryPreconditionError("no stored workbook bytes for this task")
	}
	exists, err := o.blobs.Exists(ctx, task.BlobPath)
	if err != nil {
		return nil, core.NewRetryPreconditionError(fmt.Sprintf("blob check failed: %v", err))
	}
	if !exists {
		return nil, core.NewRetryPreconditionError("stored workbook bytes are gone")
	}

	data, err := o.blobs.Load(ctx, task.BlobPath)
	if err != nil {
		return nil, core.NewRetryPreconditionError(fmt.Sprintf("blob load failed: %v", err))
	}

	wb, err := o.opener.Open(data)
	if err != nil {
		return nil, core.NewRetryPreconditionError(fmt.Sprintf("stored workbook unreadable: %v", err))
	}
	defer wb.Close()

	// The index may differ from the first run; match by persisted name
	sheetIndex := -1
	for i, name := range wb.SheetNames() {
		if name == task.SheetName {
			sheetIndex = i
			break
		}
	}
	if sheetIndex == -1 {
		return nil, core.NewSheetNotFoundError(task.SheetName)
	}

	o.logger.Info("[UploadOrchestrator] retrying task %s (sheet %q, index %d)",
		task.ID, task.SheetName, sheetIndex)

	// The retry entry transition leaves a FAILED state, which normal
	// transitions treat as terminal, so it is forced here directly.
	o.taskMu.Lock()
	task.State = batch.StateRetrying
	task.SheetIndex = sheetIndex
	task.ErrorMessage = ""
	ev := taskEvent(job, task, "")
	o.taskMu.Unlock()
	o.publish(ev)

	result, err := o.pipeline.Run(ctx, wb, sheetIndex, task.SheetName, 0, func(state batch.TaskState) {
		o.setState(job, task, state, "")
	})
	if err != nil {
		o.failTask(job, task, err)
		o.recount(job)
		return o.taskCopy(task), nil
	}

	receipt, err := o.persistSerialized(ctx, result)
	if err != nil {
		o.failTask(job, task, err)
		o.recount(job)
		return o.taskCopy(task), nil
	}
	if !receipt.Success {
		o.failTask(job, task, fmt.Errorf("%w: %s", core.ErrPersistenceFailed, receipt.Message))
		o.recount(job)
		return o.taskCopy(task), nil
	}

	o.taskMu.Lock()
	if task.UploadID == "" {
		task.UploadID = receipt.UploadID
	}
	task.State = batch.StateDone
	task.FinishedAt = core.Now()
	job.Recount()
	ev = taskEvent(job, task, "")
	o.taskMu.Unlock()

	o.publish(ev)
	return o.taskCopy(task), nil
}

// taskCopy detaches a task for the caller
func (o *Orchestrator) taskCopy(t *batch.SheetTask) *batch.SheetTask {
	o.taskMu.Lock()
	defer o.taskMu.Unlock()
	c := *t
	return &c
}
