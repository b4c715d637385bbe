package verification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"carbon-scribe/blue-carbon-verifier/internal/notifications"
	"carbon-scribe/blue-carbon-verifier/internal/projects"
)

const defaultListLimit = 20

// Notifier accepts fire-and-forget decision notices
type Notifier interface {
	Enqueue(notice notifications.Notice) bool
}

// StatusRecorder keeps project status in step with verification results
type StatusRecorder interface {
	RecordVerification(ctx context.Context, outcome projects.VerificationOutcome) error
}

// Service wires the engine to its persistence, cache, notification and
// project status collaborators
type Service struct {
	engine   *Engine
	repo     Repository
	cache    ResultCache
	notifier Notifier
	recorder StatusRecorder
	metrics  *Metrics
	logger   *zap.Logger
}

// ServiceOption configures optional collaborators
type ServiceOption func(*Service)

// WithCache sets the result cache
func WithCache(cache ResultCache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

// WithNotifier sets the decision notifier
func WithNotifier(notifier Notifier) ServiceOption {
	return func(s *Service) { s.notifier = notifier }
}

// WithStatusRecorder sets the project status recorder
func WithStatusRecorder(recorder StatusRecorder) ServiceOption {
	return func(s *Service) { s.recorder = recorder }
}

// WithMetrics sets the metrics collectors
func WithMetrics(metrics *Metrics) ServiceOption {
	return func(s *Service) { s.metrics = metrics }
}

// NewService creates a new verification service
func NewService(engine *Engine, repo Repository, logger *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		engine: engine,
		repo:   repo,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Verify normalizes, scores and persists a submission, then notifies the
// project contact. Only a persistence failure is returned as an error.
func (s *Service) Verify(ctx context.Context, raw RawSubmission) (*Result, error) {
	submission := NormalizeSubmission(raw)
	result := s.engine.Verify(submission)

	if err := s.repo.SaveResult(ctx, result, submission); err != nil {
		s.metrics.Failure("repository")
		return nil, fmt.Errorf("failed to persist verification %s: %w", result.VerificationID, err)
	}

	s.afterSave(ctx, result, submission)
	s.notify(result, submission)

	s.logger.Info("Verification completed",
		zap.String("verification_id", result.VerificationID),
		zap.String("project_id", result.ProjectID),
		zap.Float64("overall_score", result.OverallScore),
		zap.String("category", string(result.Category)),
		zap.String("status", string(result.Status)),
		zap.String("fraud_risk", string(result.FraudRisk)))

	return result, nil
}

// Get returns a stored result, consulting the cache first
func (s *Service) Get(ctx context.Context, verificationID string) (*Result, error) {
	if s.cache != nil {
		if result, ok := s.cache.Get(ctx, verificationID); ok {
			return result, nil
		}
	}

	result, err := s.repo.GetResult(ctx, verificationID)
	if err != nil {
		return nil, err
	}

	s.cacheResult(ctx, result)
	return result, nil
}

// ListByProject returns a project's results, newest first
func (s *Service) ListByProject(ctx context.Context, projectID string, limit int) ([]*Result, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultListLimit
	}
	return s.repo.ListByProject(ctx, projectID, limit)
}

// Rescore re-runs verification over the latest stored submission of up to
// batchSize projects and persists the fresh results. Contacts are not
// notified. It returns the number of results saved.
func (s *Service) Rescore(ctx context.Context, batchSize int) (int, error) {
	submissions, err := s.repo.ListLatestSubmissions(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load submissions for rescoring: %w", err)
	}

	saved := 0
	for _, submission := range submissions {
		if err := ctx.Err(); err != nil {
			return saved, err
		}

		result := s.engine.Verify(submission)
		if err := s.repo.SaveResult(ctx, result, submission); err != nil {
			s.metrics.Failure("repository")
			s.logger.Error("Failed to save rescored result",
				zap.String("project_id", submission.ProjectID),
				zap.Error(err))
			continue
		}
		s.afterSave(ctx, result, submission)
		saved++
	}

	return saved, nil
}

func (s *Service) afterSave(ctx context.Context, result *Result, submission *Submission) {
	s.metrics.Observe(result)
	s.cacheResult(ctx, result)

	if s.recorder == nil || result.ProjectID == "" {
		return
	}
	err := s.recorder.RecordVerification(ctx, projects.VerificationOutcome{
		ProjectID:      result.ProjectID,
		ProjectName:    result.ProjectName,
		EcosystemType:  submission.EcosystemType,
		VerificationID: result.VerificationID,
		Status:         string(result.Status),
		Category:       string(result.Category),
		Score:          result.OverallScore,
		Flags:          result.Flags,
	})
	if err != nil {
		s.metrics.Failure("projects")
		s.logger.Warn("Failed to record project status",
			zap.String("project_id", result.ProjectID),
			zap.Error(err))
	}
}

func (s *Service) cacheResult(ctx context.Context, result *Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, result); err != nil {
		s.metrics.Failure("cache")
		s.logger.Warn("Failed to cache verification result",
			zap.String("verification_id", result.VerificationID),
			zap.Error(err))
	}
}

func (s *Service) notify(result *Result, submission *Submission) {
	if s.notifier == nil || submission.ContactEmail == "" {
		return
	}
	ok := s.notifier.Enqueue(notifications.Notice{
		Recipient:      submission.ContactEmail,
		ProjectID:      result.ProjectID,
		ProjectName:    result.ProjectName,
		VerificationID: result.VerificationID,
		Decision:       string(result.Status),
		Category:       string(result.Category),
		Score:          result.OverallScore,
	})
	if !ok {
		s.metrics.Failure("notifications")
	}
}
