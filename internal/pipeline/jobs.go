package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"
)

// JobStatus represents the state of an enrichment job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusPlanning   JobStatus = "planning"
	StatusResolving  JobStatus = "resolving"
	StatusInjecting  JobStatus = "injecting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single article enrichment run.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	input  []byte
	result string
	errors []string
}

// Progress tracks slot processing progress.
type Progress struct {
	TotalSlots   int      `json:"total_slots"`
	SlotsApplied int      `json:"slots_applied"`
	SlotsSkipped int      `json:"slots_skipped"`
	Errors       []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns snapshots of all jobs, newest first.
func (s *JobStore) List() []JobSnapshot {
	s.mu.Lock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.mu.Unlock()

	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
	})
	snaps := make([]JobSnapshot, 0, len(jobs))
	for _, j := range jobs {
		snaps = append(snaps, j.Snapshot())
	}
	return snaps
}

// FindCompletedByHash returns a completed job with the same content hash, if
// any, for duplicate-submission short-circuiting.
func (s *JobStore) FindCompletedByHash(hash string) *Job {
	if hash == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		j.mu.Lock()
		match := j.ContentHash == hash &&
			(j.Status == StatusCompleted || j.Status == StatusPartial) &&
			j.result != ""
		j.mu.Unlock()
		if match {
			return j
		}
	}
	return nil
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetTotalSlots records how many slots the plan proposed.
func (j *Job) SetTotalSlots(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalSlots = n
	j.UpdatedAt = time.Now()
}

// AddApplied increments the applied-slot count.
func (j *Job) AddApplied(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SlotsApplied += n
	j.UpdatedAt = time.Now()
}

// AddSkipped increments the skipped-slot count.
func (j *Job) AddSkipped(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SlotsSkipped += n
	j.UpdatedAt = time.Now()
}

// SetContentHash records the input content hash.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
}

// SetInput sets the raw article bytes for processing.
func (j *Job) SetInput(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.input = data
}

// Input returns the raw article bytes.
func (j *Job) Input() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.input
}

// SetResult stores the enhanced article markup.
func (j *Job) SetResult(html string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = html
	j.UpdatedAt = time.Now()
}

// Result returns the enhanced article markup, or "" if not produced yet.
func (j *Job) Result() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// SetTitle records the parsed article title.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		Filename: j.Filename,
		Title:    j.Title,
		Status:   j.Status,
		Phase:    j.Phase,
		Progress: Progress{
			TotalSlots:   j.Progress.TotalSlots,
			SlotsApplied: j.Progress.SlotsApplied,
			SlotsSkipped: j.Progress.SlotsSkipped,
			Errors:       errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
