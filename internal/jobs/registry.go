// Package jobs tracks asynchronous dubbing jobs: submit a source file, poll
// status while a per-job worker goroutine drives the pipeline, fetch artifact
// paths when stages complete. Records live in memory for the process
// lifetime; artifacts live in per-job directories under the workspace.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dubber/internal/config"
	"dubber/internal/logging"
	"dubber/internal/pipeline"
	"dubber/internal/services"
)

// Status and Options are the pipeline's; the registry adds no states of its own.
type (
	Status  = pipeline.Status
	Options = pipeline.Options
)

// Artifact kinds accepted by Result.
const (
	ResultSubtitles           = "subtitles"
	ResultTranslatedSubtitles = "translated_subtitles"
	ResultDubTrack            = "dub"
	ResultVideo               = "video"
	ResultBundle              = "bundle"
)

// Job is a point-in-time snapshot of one submission.
type Job struct {
	ID        string
	Status    Status
	Progress  int
	Message   string
	InputPath string
	Options   Options

	DetectedLanguage       string
	SubtitlePath           string
	TranslatedSubtitlePath string
	DubTrackPath           string
	VideoPath              string
	BundlePath             string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type record struct {
	job    Job
	cancel context.CancelFunc
	done   chan struct{}
}

// PipelineFactory builds the pipeline used for one job. Overridable so tests
// can substitute fake engines.
type PipelineFactory func(opts Options) *pipeline.Pipeline

// Registry owns the job table and the workspace directory.
type Registry struct {
	cfg     *config.Config
	logger  *slog.Logger
	build   PipelineFactory
	jobsDir string
	lock    *flock.Flock

	mu      sync.RWMutex
	records map[string]*record
}

// NewRegistry prepares the workspace and takes the workspace lock so two
// processes never share one job directory tree.
func NewRegistry(cfg *config.Config, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	jobsDir := filepath.Join(cfg.Paths.WorkspaceDir, "jobs")
	if err := os.MkdirAll(jobsDir, 0o755); err != nil {
		return nil, fmt.Errorf("jobs: ensure workspace: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.WorkspaceDir, "dubber.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("jobs: acquire workspace lock: %w", err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "open",
			"workspace already in use by another process", nil)
	}

	r := &Registry{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "jobs"),
		jobsDir: jobsDir,
		lock:    lock,
		records: make(map[string]*record),
	}
	r.build = r.defaultPipeline
	return r, nil
}

// WithPipelineFactory replaces how pipelines are built (for testing).
func (r *Registry) WithPipelineFactory(f PipelineFactory) {
	if r != nil && f != nil {
		r.build = f
	}
}

// Close releases the workspace lock. Running workers are cancelled.
func (r *Registry) Close() error {
	r.mu.Lock()
	for _, rec := range r.records {
		rec.cancel()
	}
	r.mu.Unlock()
	return r.lock.Unlock()
}

func (r *Registry) defaultPipeline(opts Options) *pipeline.Pipeline {
	cfg := *r.cfg
	if opts.ModelSize != "" {
		cfg.Whisper.ModelSize = opts.ModelSize
	}
	if opts.Voice != "" {
		cfg.TTS.Voice = opts.Voice
	}
	return pipeline.New(pipeline.DefaultEngines(&cfg, r.logger), r.logger)
}

// Handle identifies a submitted job and lets the submitter wait for it.
type Handle struct {
	ID string

	registry *Registry
	cancel   context.CancelFunc
	done     chan struct{}
}

// Wait blocks until the job finishes or ctx expires, then returns the final
// snapshot.
func (h *Handle) Wait(ctx context.Context) (Job, error) {
	select {
	case <-ctx.Done():
		return Job{}, ctx.Err()
	case <-h.done:
		return h.registry.Status(h.ID)
	}
}

// Cancel requests cooperative cancellation; the worker stops at the next
// stage boundary.
func (h *Handle) Cancel() {
	h.cancel()
}

// Submit validates the request, registers the job, and starts its worker.
// It never blocks on pipeline work. An empty target language falls back to
// the configured default.
func (r *Registry) Submit(ctx context.Context, input string, opts Options) (*Handle, error) {
	if opts.TargetLanguage == "" && !opts.SubtitlesOnly {
		opts.TargetLanguage = r.cfg.Translation.TargetLanguage
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(input); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "submit", "input media not found", err)
	}

	id := uuid.NewString()
	jobDir := filepath.Join(r.jobsDir, id)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return nil, fmt.Errorf("jobs: create job dir: %w", err)
	}

	now := time.Now()
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rec := &record{
		job: Job{
			ID:        id,
			Status:    pipeline.StatusQueued,
			Message:   "Queued",
			InputPath: input,
			Options:   opts,
			CreatedAt: now,
			UpdatedAt: now,
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.mu.Lock()
	r.records[id] = rec
	r.mu.Unlock()

	r.logger.Info("job submitted",
		logging.String(logging.FieldJobID, id),
		logging.String("input", input))
	go r.runJob(workerCtx, rec, input, jobDir, opts)

	return &Handle{ID: id, registry: r, cancel: cancel, done: rec.done}, nil
}

func (r *Registry) runJob(ctx context.Context, rec *record, input, jobDir string, opts Options) {
	defer close(rec.done)
	ctx = services.WithJobID(ctx, rec.job.ID)

	report := func(status Status, percent int, message string) {
		r.update(rec, func(j *Job) {
			j.Status = status
			if percent > j.Progress {
				j.Progress = percent
			}
			j.Message = message
		})
	}

	result, err := r.build(opts).Run(ctx, input, jobDir, opts, report)
	if err != nil {
		r.update(rec, func(j *Job) {
			j.Status = pipeline.StatusFailed
			j.Message = err.Error()
		})
		r.logger.Error("job failed",
			logging.String(logging.FieldJobID, rec.job.ID),
			logging.Error(err))
		return
	}

	r.update(rec, func(j *Job) {
		j.Status = pipeline.StatusCompleted
		j.Progress = 100
		j.Message = result.Message
		j.DetectedLanguage = result.DetectedLanguage
		j.SubtitlePath = result.SubtitlePath
		j.TranslatedSubtitlePath = result.TranslatedSubtitlePath
		j.DubTrackPath = result.DubTrackPath
		j.VideoPath = result.VideoPath
		j.BundlePath = result.BundlePath
	})
	r.logger.Info("job completed", logging.String(logging.FieldJobID, rec.job.ID))
}

func (r *Registry) update(rec *record, apply func(*Job)) {
	r.mu.Lock()
	apply(&rec.job)
	rec.job.UpdatedAt = time.Now()
	r.mu.Unlock()
}

// Status returns a snapshot of the job, or ErrNotFound.
func (r *Registry) Status(id string) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return Job{}, services.Wrap(services.ErrNotFound, "jobs", "status",
			fmt.Sprintf("unknown job %q", id), nil)
	}
	return rec.job, nil
}

// Result returns the path of a finished artifact. ErrNotReady covers both a
// still-running job and an artifact the run did not produce.
func (r *Registry) Result(id, kind string) (string, error) {
	job, err := r.Status(id)
	if err != nil {
		return "", err
	}

	var path string
	switch kind {
	case ResultSubtitles:
		path = job.SubtitlePath
	case ResultTranslatedSubtitles:
		path = job.TranslatedSubtitlePath
	case ResultDubTrack:
		path = job.DubTrackPath
	case ResultVideo:
		path = job.VideoPath
	case ResultBundle:
		path = job.BundlePath
	default:
		return "", services.Wrap(services.ErrValidation, "jobs", "result",
			fmt.Sprintf("unknown artifact kind %q", kind), nil)
	}
	if path == "" {
		return "", services.Wrap(services.ErrNotReady, "jobs", "result",
			fmt.Sprintf("artifact %q not available for job %s (status %s)", kind, id, job.Status), nil)
	}
	return path, nil
}

// List returns snapshots of all jobs, oldest first.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jobs := make([]Job, 0, len(r.records))
	for _, rec := range r.records {
		jobs = append(jobs, rec.job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	return jobs
}
