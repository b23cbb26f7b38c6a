package simulator

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestMemoryStoreJobRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	created := time.Date(2019, 4, 2, 12, 0, 0, 0, time.UTC)
	job := &RenderJob{
		ID:        "job-1",
		Owner:     "artist@studio.io",
		JobType:   "3dsmax",
		SceneFile: "C:/scenes/test_scene.max",
		Params:    validParams(),
		Status:    JobStatusQueued,
		Chunks:    10,
		CreatedAt: created,
	}
	if err := store.SaveJob(context.Background(), job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	got, err := store.GetJob(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Owner != job.Owner || got.JobType != job.JobType || got.Chunks != job.Chunks {
		t.Errorf("loaded job differs: %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created at = %v, want %v", got.CreatedAt, created)
	}
	if got.Params.Frange != "1-100" {
		t.Errorf("params frange = %q", got.Params.Frange)
	}
}

func TestMemoryStoreGetJobReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	job := &RenderJob{ID: "job-1", Status: JobStatusQueued}
	if err := store.SaveJob(context.Background(), job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	first, _ := store.GetJob(context.Background(), "job-1")
	first.Status = JobStatusFailed
	first.DoneChunks = 99

	second, _ := store.GetJob(context.Background(), "job-1")
	if second.Status != JobStatusQueued || second.DoneChunks != 0 {
		t.Errorf("stored job was mutated through a read copy: %+v", second)
	}
}

func TestMemoryStoreUnknownJob(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.GetJob(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob error = %v, want ErrJobNotFound", err)
	}
	if _, err := store.UpdateJob(context.Background(), "missing", func(*RenderJob) error { return nil }); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("UpdateJob error = %v, want ErrJobNotFound", err)
	}
}

func TestMemoryStoreUpdateJob(t *testing.T) {
	store := NewMemoryStore()
	job := &RenderJob{ID: "job-1", Status: JobStatusQueued, Chunks: 5}
	if err := store.SaveJob(context.Background(), job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	updated, err := store.UpdateJob(context.Background(), "job-1", func(job *RenderJob) error {
		job.Status = JobStatusRunning
		job.DoneChunks = 2
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}
	if updated.Status != JobStatusRunning || updated.DoneChunks != 2 {
		t.Errorf("updated job = %+v", updated)
	}

	got, _ := store.GetJob(context.Background(), "job-1")
	if got.Status != JobStatusRunning || got.DoneChunks != 2 {
		t.Errorf("stored job = %+v", got)
	}
}

func TestMemoryStoreUpdateJobAbandonsOnError(t *testing.T) {
	store := NewMemoryStore()
	job := &RenderJob{ID: "job-1", Status: JobStatusCanceled}
	if err := store.SaveJob(context.Background(), job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	sentinel := errors.New("leave it")
	_, err := store.UpdateJob(context.Background(), "job-1", func(job *RenderJob) error {
		job.Status = JobStatusRunning
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("UpdateJob error = %v, want sentinel", err)
	}

	got, _ := store.GetJob(context.Background(), "job-1")
	if got.Status != JobStatusCanceled {
		t.Errorf("status = %q, abandoned update must not be stored", got.Status)
	}
}

func TestMemoryStoreProjects(t *testing.T) {
	store := NewMemoryStore()
	for _, name := range []string{"vfx_shots", "archviz", "vfx_shots"} {
		if err := store.SaveProject(context.Background(), name); err != nil {
			t.Fatalf("SaveProject failed: %v", err)
		}
	}

	names, err := store.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"archviz", "vfx_shots"}) {
		t.Errorf("projects = %v, want sorted unique names", names)
	}
}
