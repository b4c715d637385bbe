package rescoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrAlreadyRunning is returned by Start on a running scheduler
var ErrAlreadyRunning = errors.New("rescoring scheduler already running")

// Rescorer re-runs verification over stored submissions
type Rescorer interface {
	Rescore(ctx context.Context, batchSize int) (int, error)
}

// Config configures the re-scoring job
type Config struct {
	// Schedule is a six-field cron expression with seconds
	Schedule  string        `json:"schedule"`
	BatchSize int           `json:"batch_size"`
	Timeout   time.Duration `json:"timeout"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Schedule:  "0 0 2 * * *",
		BatchSize: 100,
		Timeout:   30 * time.Minute,
	}
}

var parser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateSchedule validates a six-field cron expression
func ValidateSchedule(expr string) error {
	_, err := parser.Parse(expr)
	return err
}

// Scheduler runs batch re-scoring on a cron schedule. A run that is still
// in progress when the next one fires causes that tick to be skipped.
type Scheduler struct {
	cron     *cron.Cron
	entry    cron.EntryID
	rescorer Rescorer
	logger   *zap.Logger
	config   Config
	mu       sync.Mutex
	running  bool
}

// NewScheduler creates a new re-scoring scheduler
func NewScheduler(rescorer Rescorer, logger *zap.Logger, config Config) (*Scheduler, error) {
	if err := ValidateSchedule(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid rescoring schedule %q: %w", config.Schedule, err)
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}

	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		rescorer: rescorer,
		logger:   logger,
		config:   config,
	}, nil
}

// Start registers the job and starts the cron scheduler. Runs use ctx as
// their parent context.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	entry, err := s.cron.AddFunc(s.config.Schedule, func() {
		_, _ = s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.entry = entry

	s.logger.Info("Starting rescoring scheduler",
		zap.String("schedule", s.config.Schedule),
		zap.Int("batch_size", s.config.BatchSize))

	s.cron.Start()
	s.running = true
	return nil
}

// Stop stops the scheduler and waits for a running batch to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.logger.Info("Stopping rescoring scheduler")

	done := s.cron.Stop()
	<-done.Done()

	s.cron.Remove(s.entry)
	s.running = false
}

// NextRun returns the next scheduled run, or the zero time when stopped
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// RunOnce re-scores one batch immediately
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	saved, err := s.rescorer.Rescore(ctx, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Rescoring batch failed",
			zap.Int("saved", saved),
			zap.Error(err))
		return saved, err
	}

	s.logger.Info("Rescoring batch completed",
		zap.Int("saved", saved),
		zap.Duration("duration", time.Since(start)))
	return saved, nil
}
