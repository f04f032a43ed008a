package upload

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"sheetwise/domain/batch"
	"sheetwise/domain/core"
	"sheetwise/internal"
	"sheetwise/internal/config"
	"sheetwise/ports"
)

// Orchestrator fans the sheet pipeline out over all sheets of a workbook
// with a bounded worker pool, per-sheet wall-clock budgets, partial-failure
// aggregation, and idempotent retry from stored raw bytes.
type Orchestrator struct {
	opener      ports.WorkbookOpener
	pipeline    *Pipeline
	blobs       ports.BlobStore
	persistence ports.Persistence
	progress    ports.ProgressSink
	cfg         config.UploadConfig
	logger      *internal.Logger

	// Persistence writes for the same upload target must not interleave
	persistMu sync.Mutex

	// taskMu guards task state transitions across workers and retry
	taskMu sync.Mutex

	jobsMu sync.RWMutex
	jobs   map[core.BatchID]*batch.BatchJob
}

// NewOrchestrator wires the upload orchestrator
func NewOrchestrator(
	opener ports.WorkbookOpener,
	pipeline *Pipeline,
	blobs ports.BlobStore,
	persistence ports.Persistence,
	progress ports.ProgressSink,
	cfg config.UploadConfig,
	logger *internal.Logger,
) *Orchestrator {
	if progress == nil {
		progress = ports.ProgressFunc(func(ports.ProgressEvent) {})
	}
	return &Orchestrator{
		opener:      opener,
		pipeline:    pipeline,
		blobs:       blobs,
		persistence: persistence,
		progress:    progress,
		cfg:         cfg,
		logger:      logger,
		jobs:        make(map[core.BatchID]*batch.BatchJob),
	}
}

// ProcessWorkbook runs the full batch for one workbook upload. The raw
// bytes are stored first so every task, including later retries, re-reads
// the same buffer. Only unrecoverable workbook conditions fail the batch;
// per-sheet failures are folded into the summary.
func (o *Orchestrator) ProcessWorkbook(ctx context.Context, filename string, data []byte) (*batch.BatchJob, error) {
	blobPath := ""
	if o.blobs != nil {
		path, err := o.blobs.Store(ctx, data)
		if err != nil {
			o.logger.Warn("[UploadOrchestrator] blob store failed, retry disabled for this batch: %v", err)
		} else {
			blobPath = path
		}
	}

	wb, err := o.opener.Open(data)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	names := wb.SheetNames()
	if len(names) == 0 {
		return nil, core.ErrEmptyWorkbook
	}

	job := &batch.BatchJob{
		ID:        core.BatchID(core.NewID()),
		Filename:  filename,
		BlobPath:  blobPath,
		CreatedAt: core.Now(),
	}
	for i, name := range names {
		job.Tasks = append(job.Tasks, &batch.SheetTask{
			ID:         core.TaskID(core.NewID()),
			SheetIndex: i,
			SheetName:  name,
			State:      batch.StatePending,
			BlobPath:   blobPath,
		})
	}

	o.jobsMu.Lock()
	o.jobs[job.ID] = job
	o.jobsMu.Unlock()

	o.logger.Info("[UploadOrchestrator] batch %s: %d sheet(s), %d worker(s)",
		job.ID, len(job.Tasks), o.cfg.Workers)

	sem := semaphore.NewWeighted(int64(o.cfg.Workers))
	var wg sync.WaitGroup
	for _, task := range job.Tasks {
		wg.Add(1)
		go func(t *batch.SheetTask) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				o.failTask(job, t, fmt.Errorf("worker pool unavailable: %w", err))
				return
			}
			defer sem.Release(1)
			o.runWithBudget(ctx, job, t, wb)
		}(task)
	}
	wg.Wait()

	// Completion order is arbitrary; total ordering is restored here only.
	// In observe mode a timed-out sheet's worker may still be running, so
	// the live tasks stay behind taskMu and the caller gets a detached copy.
	o.taskMu.Lock()
	sort.Slice(job.Tasks, func(a, b int) bool {
		return job.Tasks[a].SheetIndex < job.Tasks[b].SheetIndex
	})
	job.Recount()
	snap := job.Snapshot()
	o.taskMu.Unlock()

	o.logger.Info("[UploadOrchestrator] batch %s done: %d ok, %d failed, %d skipped",
		snap.ID, snap.SuccessCount, snap.FailedCount, snap.SkippedCount)
	return snap, nil
}

// runWithBudget enforces the per-sheet wall-clock budget. In observe mode
// the budget only changes what is reported: the underlying work keeps
// running and its side effects (a persistence write, an upload id) may still
// land after the task was already reported TIMED_OUT. In cancel mode the
// context is cancelled and the pipeline is expected to stop.
func (o *Orchestrator) runWithBudget(ctx context.Context, job *batch.BatchJob, t *batch.SheetTask, wb ports.Workbook) {
	workCtx := ctx
	var cancel context.CancelFunc
	if o.cfg.TimeoutMode == config.TimeoutCancel {
		workCtx, cancel = context.WithTimeout(ctx, o.cfg.SheetTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		// A panicking pipeline or collaborator fails this sheet only
		defer func() {
			if r := recover(); r != nil {
				o.failTask(job, t, fmt.Errorf("sheet worker panicked: %v", r))
			}
		}()
		o.runTask(workCtx, job, t, wb)
	}()

	select {
	case <-done:
	case <-time.After(o.cfg.SheetTimeout):
		o.timeoutTask(job, t)
	}
}

// runTask drives one sheet through the task state machine. Any error moves
// the task to FAILED with the message recorded; sibling tasks are unaffected.
func (o *Orchestrator) runTask(ctx context.Context, job *batch.BatchJob, t *batch.SheetTask, wb ports.Workbook) {
	o.taskMu.Lock()
	t.StartedAt = core.Now()
	o.taskMu.Unlock()
	o.setState(job, t, batch.StateParsing, "")

	result, err := o.pipeline.Run(ctx, wb, t.SheetIndex, t.SheetName, 0, func(state batch.TaskState) {
		o.setState(job, t, state, "")
	})
	if err != nil {
		o.failTask(job, t, err)
		return
	}

	o.setState(job, t, batch.StatePersisting, "")
	receipt, err := o.persistSerialized(ctx, result)
	if err != nil {
		o.failTask(job, t, err)
		return
	}
	if !receipt.Success {
		o.failTask(job, t, fmt.Errorf("%w: %s", core.ErrPersistenceFailed, receipt.Message))
		return
	}

	o.taskMu.Lock()
	// A late success after timeout keeps the reported state but records the
	// upload id: TIMED_OUT means unknown outcome, not no effect.
	if t.UploadID == "" {
		t.UploadID = receipt.UploadID
	}
	o.taskMu.Unlock()

	o.setState(job, t, batch.StateDone, "")
}

// persistSerialized is the documented critical section: one persistence
// write at a time per orchestrator, so sheets mapping to the same logical
// dataset never interleave.
func (o *Orchestrator) persistSerialized(ctx context.Context, result *batch.SheetResult) (*batch.PersistReceipt, error) {
	o.persistMu.Lock()
	defer o.persistMu.Unlock()
	return o.persistence.SaveSheet(ctx, result)
}

// setState transitions a task unless it already reached a terminal state.
// Terminal transitions stamp FinishedAt inside the same critical section.
func (o *Orchestrator) setState(job *batch.BatchJob, t *batch.SheetTask, state batch.TaskState, message string) {
	o.taskMu.Lock()
	if t.State.Terminal() {
		o.taskMu.Unlock()
		return
	}
	t.State = state
	if message != "" {
		t.ErrorMessage = message
	}
	if state.Terminal() {
		t.FinishedAt = core.Now()
	}
	ev := taskEvent(job, t, message)
	o.taskMu.Unlock()

	o.logger.Debug("[UploadOrchestrator] sheet %q -> %s", ev.SheetName, ev.State)
	o.publish(ev)
}

func (o *Orchestrator) failTask(job *batch.BatchJob, t *batch.SheetTask, err error) {
	o.logger.Error("[UploadOrchestrator] sheet %q failed: %v", t.SheetName, err)
	o.setState(job, t, batch.StateFailed, err.Error())
}

func (o *Orchestrator) timeoutTask(job *batch.BatchJob, t *batch.SheetTask) {
	o.logger.Warn("[UploadOrchestrator] sheet %q exceeded %s budget", t.SheetName, o.cfg.SheetTimeout)
	o.setState(job, t, batch.StateTimedOut,
		fmt.Sprintf("sheet processing exceeded %s budget", o.cfg.SheetTimeout))
}

// taskEvent reads task fields, so callers must hold taskMu.
func taskEvent(job *batch.BatchJob, t *batch.SheetTask, message string) ports.ProgressEvent {
	return ports.ProgressEvent{
		BatchID:    job.ID,
		TaskID:     t.ID,
		SheetIndex: t.SheetIndex,
		SheetName:  t.SheetName,
		State:      t.State,
		Message:    message,
		At:         core.Now(),
	}
}

// publish forwards a lifecycle event. A panicking sink must never unwind
// into the worker's control flow.
func (o *Orchestrator) publish(ev ports.ProgressEvent) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("[UploadOrchestrator] progress sink panicked: %v", r)
		}
	}()
	o.progress.Publish(ev)
}

// snapshot copies a job under the task lock. Live tasks may still be
// written by an observe-mode worker that outran its budget.
func (o *Orchestrator) snapshot(job *batch.BatchJob) *batch.BatchJob {
	o.taskMu.Lock()
	defer o.taskMu.Unlock()
	return job.Snapshot()
}

func (o *Orchestrator) recount(job *batch.BatchJob) {
	o.taskMu.Lock()
	job.Recount()
	o.taskMu.Unlock()
}

// Job returns a detached copy of a previously processed batch by id
func (o *Orchestrator) Job(id core.BatchID) (*batch.BatchJob, bool) {
	o.jobsMu.RLock()
	job, ok := o.jobs[id]
	o.jobsMu.RUnlock()
	if !ok {
		return nil, false
	}
	return o.snapshot(job), true
}
