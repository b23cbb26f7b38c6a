package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrJobNotFound is returned when a job ID is unknown to the store.
var ErrJobNotFound = errors.New("job not found")

// Store persists render jobs and the account's project name set.
type Store interface {
	SaveJob(ctx context.Context, job *RenderJob) error
	GetJob(ctx context.Context, jobID string) (*RenderJob, error)
	// UpdateJob loads the record, applies mutate and stores the result.
	// A mutate error abandons the update and is returned as-is.
	UpdateJob(ctx context.Context, jobID string, mutate func(*RenderJob) error) (*RenderJob, error)
	SaveProject(ctx context.Context, name string) error
	Projects(ctx context.Context) ([]string, error)
}

const (
	jobTTL         = 24 * time.Hour
	projectsSetKey = "projects"
)

// RedisStore keeps jobs in Redis with a 24h retention, matching the task
// queue retention.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SaveJob(ctx context.Context, job *RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	key := fmt.Sprintf("job:%s", job.ID)
	if err := s.client.Set(ctx, key, data, jobTTL).Err(); err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}
	return nil
}

func (s *RedisStore) GetJob(ctx context.Context, jobID string) (*RenderJob, error) {
	key := fmt.Sprintf("job:%s", jobID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	var job RenderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *RedisStore) UpdateJob(ctx context.Context, jobID string, mutate func(*RenderJob) error) (*RenderJob, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := mutate(job); err != nil {
		return nil, err
	}
	if err := s.SaveJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *RedisStore) SaveProject(ctx context.Context, name string) error {
	if err := s.client.SAdd(ctx, projectsSetKey, name).Err(); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (s *RedisStore) Projects(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, projectsSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// MemoryStore is the fallback job store used when Redis is not available.
// Jobs are kept as marshaled records so readers never share memory with
// the simulating worker, and updates serialize under the store lock.
type MemoryStore struct {
	mu       sync.RWMutex
	jobs     map[string][]byte
	projects map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:     make(map[string][]byte),
		projects: make(map[string]bool),
	}
}

func (s *MemoryStore) SaveJob(ctx context.Context, job *RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = data
	return nil
}

func (s *MemoryStore) GetJob(ctx context.Context, jobID string) (*RenderJob, error) {
	s.mu.RLock()
	data, ok := s.jobs[jobID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrJobNotFound
	}
	var job RenderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, jobID string, mutate func(*RenderJob) error) (*RenderJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	var job RenderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if err := mutate(&job); err != nil {
		return nil, err
	}
	updated, err := json.Marshal(&job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}
	s.jobs[jobID] = updated
	return &job, nil
}

func (s *MemoryStore) SaveProject(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[name] = true
	return nil
}

func (s *MemoryStore) Projects(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.projects))
	for name := range s.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
