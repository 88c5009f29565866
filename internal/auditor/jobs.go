package auditor

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/raysh454/crumb/internal/logging"
	"github.com/raysh454/crumb/internal/model"
)

// ErrJobNotFound is returned for unknown job IDs.
var ErrJobNotFound = errors.New("auditor: job not found")

type JobEventType string

const (
	JobEventStatus   JobEventType = "status"
	JobEventProgress JobEventType = "progress"
	JobEventResult   JobEventType = "result"
)

type JobEvent struct {
	JobID string       `json:"job_id"`
	Type  JobEventType `json:"type"`

	// For status changes
	Status JobStatus `json:"status,omitempty"`
	Error  string    `json:"error,omitempty"`

	// For progress
	Stage     string `json:"stage,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`

	// For results
	Result *ScanResult `json:"result,omitempty"`
}

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobDone     JobStatus = "done"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
)

// Job is a scan running in the background. Values returned by the Auditor
// are copies; Events is shared and closed once the job ends.
type Job struct {
	ID        string        `json:"id"`
	Type      string        `json:"type"`
	Status    JobStatus     `json:"status"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Events    chan JobEvent `json:"-"`

	Result *ScanResult `json:"result,omitempty"`
}

const (
	jobEventBuffer = 16

	// maxFinishedJobs bounds how many ended jobs are remembered.
	maxFinishedJobs = 64
)

// StartScanJob runs a scan in the background. A nil raw acquires from the
// configured source. The job outlives ctx's cancellation but keeps its values;
// use CancelJob to stop it.
func (a *Auditor) StartScanJob(ctx context.Context, raw *model.RawScan) (*Job, error) {
	if raw == nil && a.source == nil {
		return nil, ErrNoSource
	}

	job := &Job{
		ID:        uuid.New().String(),
		Type:      "scan",
		Status:    JobPending,
		StartedAt: time.Now(),
		Events:    make(chan JobEvent, jobEventBuffer),
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	a.jobsMu.Lock()
	a.jobs[job.ID] = job
	a.jobCancels[job.ID] = cancel
	a.pruneJobsLocked()
	snapshot := *job
	a.jobsMu.Unlock()

	a.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobPending})

	go func() {
		defer a.finishJob(job.ID)

		a.setJobStatus(job.ID, JobRunning, "")
		a.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobRunning})

		progress := func(stage string, done, total int) {
			a.emitJobEvent(job.ID, JobEvent{
				JobID:     job.ID,
				Type:      JobEventProgress,
				Stage:     stage,
				Processed: done,
				Total:     total,
			})
		}

		result, err := a.runScan(jobCtx, raw, progress)
		if err != nil && errors.Is(jobCtx.Err(), context.Canceled) {
			a.setJobStatus(job.ID, JobCanceled, "")
			a.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobCanceled})
			return
		}
		if err != nil {
			a.logger.Error("scan job failed",
				logging.Field{Key: "job_id", Value: job.ID},
				logging.Field{Key: "error", Value: err})
			a.setJobStatus(job.ID, JobFailed, err.Error())
			a.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobFailed, Error: err.Error()})
			return
		}

		a.jobsMu.Lock()
		if j, ok := a.jobs[job.ID]; ok {
			j.Result = result
		}
		a.jobsMu.Unlock()

		a.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventResult, Result: result})
		a.setJobStatus(job.ID, JobDone, "")
		a.emitJobEvent(job.ID, JobEvent{JobID: job.ID, Type: JobEventStatus, Status: JobDone})
	}()

	return &snapshot, nil
}

// emitJobEvent never blocks; events are dropped when the buffer is full.
func (a *Auditor) emitJobEvent(jobID string, ev JobEvent) {
	a.jobsMu.Lock()
	defer a.jobsMu.Unlock()
	job, ok := a.jobs[jobID]
	if !ok || job.Events == nil || !job.EndedAt.IsZero() {
		return
	}
	select {
	case job.Events <- ev:
	default:
	}
}

func (a *Auditor) setJobStatus(jobID string, status JobStatus, errMsg string) {
	a.jobsMu.Lock()
	defer a.jobsMu.Unlock()
	if job, ok := a.jobs[jobID]; ok {
		job.Status = status
		job.Error = errMsg
	}
}

func (a *Auditor) finishJob(jobID string) {
	a.jobsMu.Lock()
	defer a.jobsMu.Unlock()
	if cancel, ok := a.jobCancels[jobID]; ok {
		cancel()
		delete(a.jobCancels, jobID)
	}
	if job, ok := a.jobs[jobID]; ok && job.EndedAt.IsZero() {
		job.EndedAt = time.Now()
		close(job.Events)
	}
}

// pruneJobsLocked drops the oldest ended jobs beyond maxFinishedJobs.
func (a *Auditor) pruneJobsLocked() {
	var ended []*Job
	for _, j := range a.jobs {
		if !j.EndedAt.IsZero() {
			ended = append(ended, j)
		}
	}
	if len(ended) <= maxFinishedJobs {
		return
	}
	sort.Slice(ended, func(i, j int) bool { return ended[i].EndedAt.Before(ended[j].EndedAt) })
	for _, j := range ended[:len(ended)-maxFinishedJobs] {
		delete(a.jobs, j.ID)
	}
}

// GetJob returns a copy of the job's current state.
func (a *Auditor) GetJob(jobID string) (*Job, error) {
	a.jobsMu.Lock()
	defer a.jobsMu.Unlock()
	job, ok := a.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

// ListJobs returns copies of all known jobs, oldest first.
func (a *Auditor) ListJobs() []*Job {
	a.jobsMu.Lock()
	out := make([]*Job, 0, len(a.jobs))
	for _, j := range a.jobs {
		cp := *j
		out = append(out, &cp)
	}
	a.jobsMu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// CancelJob stops a running job. Cancelling an ended job is a no-op.
func (a *Auditor) CancelJob(jobID string) error {
	a.jobsMu.Lock()
	_, known := a.jobs[jobID]
	cancel := a.jobCancels[jobID]
	a.jobsMu.Unlock()

	if !known {
		return ErrJobNotFound
	}
	if cancel != nil {
		cancel()
	}
	return nil
}
