package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"
)

var (
	errCanceled       = errors.New("job canceled")
	errAlreadyStarted = errors.New("job already started")
)

// RenderWorker simulates render job execution: each chunk takes
// frameDelay per frame, and chunks run concurrently up to the number of
// instances the submission rented.
type RenderWorker struct {
	store      Store
	frameDelay time.Duration
}

func NewRenderWorker(store Store, frameDelay time.Duration) *RenderWorker {
	return &RenderWorker{store: store, frameDelay: frameDelay}
}

// ProcessTask handles one queued render task from asynq.
func (w *RenderWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload renderTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	return w.Simulate(ctx, payload.JobID)
}

// Simulate runs the job to a terminal status. Jobs canceled before or
// during the run finish without error so the task is not retried.
func (w *RenderWorker) Simulate(ctx context.Context, jobID string) error {
	job, err := w.store.UpdateJob(ctx, jobID, func(job *RenderJob) error {
		if job.Status != JobStatusQueued {
			return errAlreadyStarted
		}
		now := time.Now()
		job.Status = JobStatusRunning
		job.StartedAt = &now
		return nil
	})
	if errors.Is(err, errAlreadyStarted) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("Starting render job: %s (%d chunks on %d instances)", job.ID, job.Chunks, job.Params.NumInstances)

	if err := w.renderChunks(ctx, job); err != nil {
		if errors.Is(err, errCanceled) {
			log.Printf("Render job %s canceled", job.ID)
			return nil
		}
		w.failJob(ctx, job.ID, err.Error())
		return err
	}
	return w.completeJob(ctx, job.ID)
}

func (w *RenderWorker) renderChunks(ctx context.Context, job *RenderJob) error {
	if job.Chunks == 0 {
		// Upload-only jobs transfer assets and succeed immediately
		return nil
	}

	chunkTime := time.Duration(job.Params.ChunkSize) * w.frameDelay
	instances := job.Params.NumInstances
	if instances < 1 {
		instances = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(instances)
	for chunk := 0; chunk < job.Chunks; chunk++ {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-time.After(chunkTime):
			}
			_, err := w.store.UpdateJob(gctx, job.ID, func(latest *RenderJob) error {
				if latest.Status == JobStatusCanceled {
					return errCanceled
				}
				latest.DoneChunks++
				return nil
			})
			return err
		})
	}
	return g.Wait()
}

func (w *RenderWorker) completeJob(ctx context.Context, jobID string) error {
	_, err := w.store.UpdateJob(ctx, jobID, func(job *RenderJob) error {
		if job.Status == JobStatusCanceled {
			return errCanceled
		}
		now := time.Now()
		job.Status = JobStatusSucceeded
		job.DoneChunks = job.Chunks
		job.CompletedAt = &now
		return nil
	})
	if errors.Is(err, errCanceled) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("Render job %s completed", jobID)
	return nil
}

func (w *RenderWorker) failJob(ctx context.Context, jobID, message string) {
	_, err := w.store.UpdateJob(ctx, jobID, func(job *RenderJob) error {
		if job.Status == JobStatusCanceled {
			return errCanceled
		}
		now := time.Now()
		job.Status = JobStatusFailed
		job.Error = &message
		job.CompletedAt = &now
		return nil
	})
	if err != nil && !errors.Is(err, errCanceled) {
		log.Printf("Failed to mark job %s as failed: %v", jobID, err)
	}
}

// InlineDispatcher simulates jobs on a goroutine. It backs the service
// when Redis is not available to carry a task queue.
type InlineDispatcher struct {
	worker *RenderWorker
}

func NewInlineDispatcher(worker *RenderWorker) *InlineDispatcher {
	return &InlineDispatcher{worker: worker}
}

func (d *InlineDispatcher) Dispatch(jobID string) error {
	go func() {
		if err := d.worker.Simulate(context.Background(), jobID); err != nil {
			log.Printf("Render job %s failed: %v", jobID, err)
		}
	}()
	return nil
}
