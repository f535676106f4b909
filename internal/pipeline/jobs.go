package pipeline

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a document job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusFetching   JobStatus = "fetching"
	StatusParsing    JobStatus = "parsing"
	StatusBuilding   JobStatus = "building"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusDupSkipped
}

// Job tracks one document through the pipeline. It carries either an
// uploaded file or the title of a scan to fetch from the wiki.
type Job struct {
	mu sync.Mutex

	ID string `json:"job_id"`

	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename,omitempty"`
	WikiTitle string    `json:"wiki_title,omitempty"`
	Title     string    `json:"title"`
	Force     bool      `json:"force"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress counts what the job produced so far.
type Progress struct {
	Pages    int      `json:"pages"`
	Sections int      `json:"sections"`
	Warnings int      `json:"warnings"`
	Errors   []string `json:"errors"`
}

// NewUploadJob creates a queued job for an uploaded file. title may be empty,
// in which case the file name decides it.
func NewUploadJob(filename, title string, data []byte, force bool) *Job {
	job := newJob(title, force)
	job.Filename = filename
	job.fileData = data
	return job
}

// NewWikiJob creates a queued job that exports one scan from the wiki.
func NewWikiJob(scanTitle string, force bool) *Job {
	job := newJob(scanTitle, force)
	job.WikiTitle = scanTitle
	return job
}

func newJob(title string, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Title:     title,
		Force:     force,
		CreatedAt: now,
		UpdatedAt: now,
	}
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

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs that have not changed within the TTL.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		expired := job.Status.Done() && now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
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

// Fail records err and marks the job failed. It returns the phase the job
// was in.
func (j *Job) Fail(err string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	phase := string(j.Status)
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.Status = StatusFailed
	j.Phase = phase
	j.UpdatedAt = time.Now()
	return phase
}

// SetCounts records the size of the parsed document.
func (j *Job) SetCounts(pages, sections, warnings int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Pages = pages
	j.Progress.Sections = sections
	j.Progress.Warnings = warnings
	j.UpdatedAt = time.Now()
}

// SetTitle records the resolved document title.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
}

// SetContentHash records the source hash used for deduplication.
func (j *Job) SetContentHash(hash string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ContentHash = hash
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename,omitempty"`
	WikiTitle   string    `json:"wiki_title,omitempty"`
	Title       string    `json:"title"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := make([]string, len(j.Progress.Errors))
	copy(errs, j.Progress.Errors)
	return JobSnapshot{
		ID:          j.ID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		WikiTitle:   j.WikiTitle,
		Title:       j.Title,
		ContentHash: j.ContentHash,
		Progress: Progress{
			Pages:    j.Progress.Pages,
			Sections: j.Progress.Sections,
			Warnings: j.Progress.Warnings,
			Errors:   errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// SourceHash hashes a document's raw pages. Pages are joined with a form
// feed so that moving text across a page boundary changes the hash.
func SourceHash(pages []string) string {
	return ContentHashHex([]byte(strings.Join(pages, "\f")))
}
