package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carbon-scribe/blue-carbon-verifier/pkg/workflows"
)

// Service keeps project status in step with verification results and
// reviewer decisions
type Service struct {
	repo         Repository
	stateMachine *workflows.StateMachine
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a new project service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:         repo,
		stateMachine: workflows.NewStateMachine(),
		logger:       logger,
		now:          time.Now,
	}
}

// RecordVerification stores the latest verification on the project, creating
// it on first sight. Automated outcomes set the status directly, except that a
// rejected project stays rejected.
func (s *Service) RecordVerification(ctx context.Context, outcome VerificationOutcome) error {
	if outcome.ProjectID == "" {
		return errors.New("project id is required")
	}

	flags, err := json.Marshal(outcome.Flags)
	if err != nil {
		return fmt.Errorf("failed to marshal flags: %w", err)
	}

	return s.repo.Transaction(ctx, func(repo Repository) error {
		project, err := repo.GetByID(ctx, outcome.ProjectID)
		if errors.Is(err, ErrProjectNotFound) {
			project = &Project{ID: outcome.ProjectID, Status: workflows.StatusPending, CreatedAt: s.now()}
		} else if err != nil {
			return err
		}

		if outcome.ProjectName != "" {
			project.Name = outcome.ProjectName
		}
		if outcome.EcosystemType != "" {
			project.EcosystemType = outcome.EcosystemType
		}
		project.LatestVerificationID = outcome.VerificationID
		project.LatestScore = outcome.Score
		project.LatestCategory = outcome.Category
		project.LatestFlags = flags
		project.UpdatedAt = s.now()

		from := project.Status
		if from != workflows.StatusRejected && outcome.Status != "" && outcome.Status != from {
			project.Status = outcome.Status
			history := &ProjectStatusHistory{
				ProjectID:      project.ID,
				FromStatus:     from,
				Status:         outcome.Status,
				Source:         SourceVerification,
				VerificationID: outcome.VerificationID,
				ChangedAt:      s.now(),
			}
			if err := repo.AddHistory(ctx, history); err != nil {
				return err
			}
		}

		return repo.Save(ctx, project)
	})
}

// Review applies a reviewer decision through the state machine
func (s *Service) Review(ctx context.Context, projectID string, req ReviewRequest) (*Project, error) {
	if !s.stateMachine.IsKnown(req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, req.Status)
	}

	var reviewed *Project
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		project, err := repo.GetByID(ctx, projectID)
		if err != nil {
			return err
		}

		if !s.stateMachine.CanTransition(project.Status, req.Status) {
			return fmt.Errorf("%w: %s -> %s (allowed: %v)", ErrInvalidTransition,
				project.Status, req.Status, s.stateMachine.GetAllowedTransitions(project.Status))
		}

		history := &ProjectStatusHistory{
			ProjectID:      project.ID,
			FromStatus:     project.Status,
			Status:         req.Status,
			Source:         SourceReview,
			VerificationID: project.LatestVerificationID,
			ChangedBy:      req.Reviewer,
			Notes:          req.Notes,
			ChangedAt:      s.now(),
		}
		if err := repo.AddHistory(ctx, history); err != nil {
			return err
		}

		project.Status = req.Status
		project.ReviewNotes = req.Notes
		project.UpdatedAt = s.now()
		if err := repo.Save(ctx, project); err != nil {
			return err
		}

		reviewed = project
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Project reviewed",
		zap.String("project_id", projectID),
		zap.String("status", req.Status),
		zap.String("reviewer", req.Reviewer))

	return reviewed, nil
}

// GetProject returns a project by id
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.repo.GetByID(ctx, id)
}

// History returns a project's status changes, oldest first
func (s *Service) History(ctx context.Context, id string) ([]ProjectStatusHistory, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, id)
}
