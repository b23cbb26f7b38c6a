// Package simulator implements a Zync-compatible render service used for
// local development. It speaks the wire format the plugin client speaks,
// walking submitted jobs through the render lifecycle instead of renting
// cloud machines.
package simulator

import (
	"time"

	"github.com/zyncrender/max-plugin/internal/model"
)

// JobStatus tracks a render job through its lifecycle.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Finished reports whether the status is terminal.
func (s JobStatus) Finished() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed || s == JobStatusCanceled
}

// RenderJob is the stored record of one submitted job.
type RenderJob struct {
	ID          string                 `json:"id"`
	Owner       string                 `json:"owner"`
	JobType     string                 `json:"job_type"`
	SceneFile   string                 `json:"scene_file"`
	Params      model.SubmissionParams `json:"params"`
	Status      JobStatus              `json:"status"`
	Chunks      int                    `json:"chunks"`
	DoneChunks  int                    `json:"done_chunks"`
	Error       *string                `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	StartedAt   *time.Time             `json:"started_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// chunkCount derives how many chunks a submission renders. Upload-only
// jobs transfer assets without rendering and have no chunks.
func chunkCount(params *model.SubmissionParams) (int, error) {
	if params.UploadOnly != 0 {
		return 0, nil
	}
	frameRange, err := model.ParseFrameRange(params.Frange, params.Step)
	if err != nil {
		return 0, err
	}
	frames := (frameRange.End-frameRange.Start)/frameRange.Step + 1
	if frames < 1 {
		return 0, model.ErrInvalidFrameRange
	}
	return (frames + params.ChunkSize - 1) / params.ChunkSize, nil
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the session token issued for a login
type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// AccountResponse describes the authenticated account
type AccountResponse struct {
	Email string `json:"email"`
}

// Project is one render project on the account
type Project struct {
	Name string `json:"name"`
}

// ProjectsResponse lists the account's projects
type ProjectsResponse struct {
	Projects []Project `json:"projects"`
}

// InstanceTypeInfo is one rentable machine configuration
type InstanceTypeInfo struct {
	Label        string  `json:"label"`
	Code         string  `json:"code"`
	PricePerHour float64 `json:"price_per_hour"`
	Preemptible  bool    `json:"preemptible"`
}

// InstanceTypesResponse lists machine configurations for a renderer
type InstanceTypesResponse struct {
	InstanceTypes []InstanceTypeInfo `json:"instance_types"`
}

// SubmitJobRequest is a render job submission
type SubmitJobRequest struct {
	JobType   string                 `json:"job_type" validate:"required,oneof=3dsmax 3dsmax_arnold 3dsmax_vray"`
	SceneFile string                 `json:"scene_file" validate:"required"`
	Params    model.SubmissionParams `json:"params"`
}

// SubmitJobResponse acknowledges an accepted render job
type SubmitJobResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
}

// JobStatusResponse reports the state of a submitted render job
type JobStatusResponse struct {
	JobID      string    `json:"job_id"`
	Status     JobStatus `json:"status"`
	Renderer   string    `json:"renderer,omitempty"`
	DoneChunks int       `json:"done_chunks"`
	Chunks     int       `json:"chunks"`
}

func statusResponse(job *RenderJob) *JobStatusResponse {
	return &JobStatusResponse{
		JobID:      job.ID,
		Status:     job.Status,
		Renderer:   string(job.Params.Renderer),
		DoneChunks: job.DoneChunks,
		Chunks:     job.Chunks,
	}
}
