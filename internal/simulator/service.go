package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskTypeRender is the asynq task type carrying one queued render job.
const TaskTypeRender = "render:simulate"

// ErrJobCompleted is returned when a cancel arrives after the job reached
// a terminal status.
var ErrJobCompleted = errors.New("job already completed")

const renderQueue = "render"

type renderTaskPayload struct {
	JobID string `json:"jobId"`
}

// Dispatcher hands accepted jobs to whatever executes them, the asynq
// queue when Redis backs the service or a plain goroutine otherwise.
type Dispatcher interface {
	Dispatch(jobID string) error
}

// AsynqDispatcher enqueues render tasks on the asynq queue.
type AsynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) Dispatch(jobID string) error {
	payload, err := json.Marshal(renderTaskPayload{JobID: jobID})
	if err != nil {
		return fmt.Errorf("failed to marshal task payload: %w", err)
	}
	task := asynq.NewTask(TaskTypeRender, payload)
	_, err = d.client.Enqueue(task,
		asynq.Queue(renderQueue),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// JobService accepts, reports and cancels render jobs.
type JobService struct {
	store      Store
	archive    Archive
	dispatcher Dispatcher
}

func NewJobService(store Store, archive Archive, dispatcher Dispatcher) *JobService {
	return &JobService{store: store, archive: archive, dispatcher: dispatcher}
}

// Submit stores the job record, archives the raw submission and dispatches
// the job for simulation.
func (s *JobService) Submit(ctx context.Context, owner string, req *SubmitJobRequest) (*SubmitJobResponse, error) {
	chunks, err := chunkCount(&req.Params)
	if err != nil {
		return nil, err
	}

	job := &RenderJob{
		ID:        uuid.New().String(),
		Owner:     owner,
		JobType:   req.JobType,
		SceneFile: req.SceneFile,
		Params:    req.Params,
		Status:    JobStatusQueued,
		Chunks:    chunks,
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	if err := s.store.SaveProject(ctx, req.Params.ProjName); err != nil {
		return nil, err
	}

	// Archive failures don't fail the submission
	if s.archive != nil {
		if err := s.archive.StoreSubmission(ctx, job.ID, req); err != nil {
			log.Printf("Warning: failed to archive submission %s: %v", job.ID, err)
		}
	}

	if err := s.dispatcher.Dispatch(job.ID); err != nil {
		return nil, err
	}

	log.Printf("Accepted %s job %s from %s (%d chunks)", job.JobType, job.ID, owner, chunks)
	return &SubmitJobResponse{JobID: job.ID, Status: job.Status}, nil
}

// Status reports the job's progress.
func (s *JobService) Status(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return statusResponse(job), nil
}

// Cancel stops a queued or running job. The simulating worker observes the
// canceled status between chunks.
func (s *JobService) Cancel(ctx context.Context, jobID string) (*JobStatusResponse, error) {
	job, err := s.store.UpdateJob(ctx, jobID, func(job *RenderJob) error {
		if job.Status.Finished() {
			return ErrJobCompleted
		}
		now := time.Now()
		job.Status = JobStatusCanceled
		job.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Canceled render job: %s", jobID)
	return statusResponse(job), nil
}

// ProjectNames lists every project that ever received a submission.
func (s *JobService) ProjectNames(ctx context.Context) ([]string, error) {
	return s.store.Projects(ctx)
}
