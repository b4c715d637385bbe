package verification

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source used for verification timestamps and
// the submission-hour heuristic.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithIDGenerator overrides verification id generation
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) {
		e.newID = newID
	}
}

// assessmentInput is the immutable input shared by all assessors of one call
type assessmentInput struct {
	submission *Submission
	timeline   timelineAnalysis
	now        time.Time
}

type assessor struct {
	dim Dimension
	run func(in *assessmentInput, out *DetailedScores)
}

// Engine runs every assessor over a submission and aggregates the result.
// It holds no mutable state after construction and is safe for concurrent use.
type Engine struct {
	config    Config
	profiles  *ProfileTable
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
	assessors []assessor
}

// NewEngine validates cfg and builds an engine. Configuration errors wrap
// ErrInvalidConfig.
func NewEngine(cfg Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg = cfg.Clone()

	e := &Engine{
		config:   cfg,
		profiles: NewProfileTable(cfg.Profiles),
		logger:   logger,
		now:      time.Now,
		newID: func() string {
			return "VER-" + uuid.New().String()
		},
	}
	for _, opt := range opts {
		opt(e)
	}

	e.assessors = []assessor{
		{DimensionLocation, func(in *assessmentInput, out *DetailedScores) {
			out.Location = e.assessLocation(in.submission)
		}},
		{DimensionEcosystem, func(in *assessmentInput, out *DetailedScores) {
			out.Ecosystem = e.assessEcosystem(in.submission)
		}},
		{DimensionCarbon, func(in *assessmentInput, out *DetailedScores) {
			out.Carbon = e.assessCarbon(in.submission)
		}},
		{DimensionMedia, func(in *assessmentInput, out *DetailedScores) {
			out.Media = e.assessMedia(in.submission)
		}},
		{DimensionCompleteness, func(in *assessmentInput, out *DetailedScores) {
			out.Completeness = assessCompleteness(in.submission)
		}},
		{DimensionTemporal, func(in *assessmentInput, out *DetailedScores) {
			out.Temporal = assessTemporal(in.submission, in.timeline)
		}},
		{DimensionField, func(in *assessmentInput, out *DetailedScores) {
			out.Field = e.assessMeasurements(in.submission)
		}},
		{DimensionFraud, func(in *assessmentInput, out *DetailedScores) {
			out.Fraud = e.assessFraud(in.submission, in.timeline, in.now)
		}},
	}

	return e, nil
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() Config {
	return e.config.Clone()
}

// VerifyRaw normalizes a raw submission and verifies it.
func (e *Engine) VerifyRaw(raw RawSubmission) *Result {
	return e.Verify(NormalizeSubmission(raw))
}

// Verify scores a normalized submission. It always returns a complete result;
// a failing assessor degrades its own dimension and never aborts the call.
func (e *Engine) Verify(s *Submission) *Result {
	if s == nil {
		s = &Submission{}
	}

	now := e.now()
	result := &Result{
		VerificationID: e.newID(),
		ProjectID:      s.ProjectID,
		ProjectName:    s.ProjectName,
		VerifiedAt:     now,
	}

	in := &assessmentInput{submission: s, now: now}
	e.safely(result.VerificationID, "timeline", func() {
		in.timeline = analyzeTimeline(s)
	})

	// Each assessor writes a distinct field of DetailedScores.
	var g errgroup.Group
	for _, a := range e.assessors {
		g.Go(func() error {
			e.safely(result.VerificationID, string(a.dim), func() {
				a.run(in, &result.DetailedScores)
			}, func() {
				result.DetailedScores.degrade(a.dim)
			})
			return nil
		})
	}
	_ = g.Wait()

	e.aggregate(s, result)
	e.safely(result.VerificationID, "ecosystem_assessment", func() {
		result.EcosystemAssessment = e.ecosystemAssessment(s, result.DetailedScores.Ecosystem)
	})

	return result
}

// safely runs fn, logging and absorbing any panic. onPanic runs after a
// recovered panic.
func (e *Engine) safely(verificationID, stage string, fn func(), onPanic ...func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Verification stage panicked",
				zap.String("verification_id", verificationID),
				zap.String("stage", stage),
				zap.Any("panic", r))
			for _, f := range onPanic {
				f()
			}
		}
	}()
	fn()
}

// degrade replaces a dimension with its floor score after a failure
func (d *DetailedScores) degrade(dim Dimension) {
	sub := newSubScore()
	sub.flag(fmt.Sprintf("%s assessment could not be completed", dim))

	switch dim {
	case DimensionLocation:
		d.Location = LocationAssessment{SubScore: sub, GPSAccuracy: "unknown"}
	case DimensionEcosystem:
		d.Ecosystem = EcosystemSuitability{SubScore: sub, IndicatorsFound: []string{}}
	case DimensionCarbon:
		d.Carbon = CarbonAssessment{SubScore: sub}
	case DimensionMedia:
		d.Media = MediaAssessment{SubScore: sub}
	case DimensionCompleteness:
		d.Completeness = CompletenessAssessment{SubScore: sub, MissingEssential: []string{}, MissingOptional: []string{}}
	case DimensionTemporal:
		d.Temporal = TemporalAssessment{SubScore: sub}
	case DimensionField:
		d.Field = MeasurementAssessment{
			SubScore:          sub,
			DataQuality:       DataQualityMissing,
			UnrealisticValues: []string{},
			InvalidValues:     []string{},
		}
	case DimensionFraud:
		d.Fraud = FraudAssessment{
			SubScore:   sub,
			Multiplier: 0,
			RiskLevel:  RiskTier(0),
			Indicators: []string{},
			Checks:     []FraudCheck{},
		}
	}
}
