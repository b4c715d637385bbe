package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository persists verification results and the submissions they scored
type Repository interface {
	SaveResult(ctx context.Context, result *Result, submission *Submission) error
	GetResult(ctx context.Context, verificationID string) (*Result, error)
	ListByProject(ctx context.Context, projectID string, limit int) ([]*Result, error)
	ListLatestSubmissions(ctx context.Context, limit int) ([]*Submission, error)
}

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type resultRow struct {
	VerificationID string    `db:"verification_id"`
	ProjectID      string    `db:"project_id"`
	OverallScore   float64   `db:"overall_score"`
	Category       string    `db:"category"`
	Status         string    `db:"status"`
	FraudRisk      string    `db:"fraud_risk"`
	Result         []byte    `db:"result"`
	CreatedAt      time.Time `db:"created_at"`
}

func (row resultRow) decode() (*Result, error) {
	var result Result
	if err := json.Unmarshal(row.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result %s: %w", row.VerificationID, err)
	}
	return &result, nil
}

func (r *PostgresRepository) SaveResult(ctx context.Context, result *Result, submission *Submission) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	submissionJSON, err := json.Marshal(submission)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	query := `
		INSERT INTO verification_results (
			verification_id, project_id, overall_score, category, status,
			fraud_risk, result, submission, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err = r.db.ExecContext(ctx, query,
		result.VerificationID, result.ProjectID, result.OverallScore,
		string(result.Category), string(result.Status), string(result.FraudRisk),
		resultJSON, submissionJSON, result.VerifiedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save verification result: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetResult(ctx context.Context, verificationID string) (*Result, error) {
	query := `
		SELECT verification_id, project_id, overall_score, category, status,
			   fraud_risk, result, created_at
		FROM verification_results
		WHERE verification_id = $1
	`

	var row resultRow
	if err := r.db.GetContext(ctx, &row, query, verificationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get verification result: %w", err)
	}

	return row.decode()
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]*Result, error) {
	query := `
		SELECT verification_id, project_id, overall_score, category, status,
			   fraud_risk, result, created_at
		FROM verification_results
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	var rows []resultRow
	if err := r.db.SelectContext(ctx, &rows, query, projectID, limit); err != nil {
		return nil, fmt.Errorf("failed to list verification results: %w", err)
	}

	results := make([]*Result, 0, len(rows))
	for _, row := range rows {
		result, err := row.decode()
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// ListLatestSubmissions returns the latest submission of each project, the
// least recently verified first.
func (r *PostgresRepository) ListLatestSubmissions(ctx context.Context, limit int) ([]*Submission, error) {
	query := `
		SELECT submission FROM (
			SELECT DISTINCT ON (project_id) project_id, submission, created_at
			FROM verification_results
			WHERE project_id <> ''
			ORDER BY project_id, created_at DESC
		) latest
		ORDER BY created_at ASC
		LIMIT $1
	`

	var payloads [][]byte
	if err := r.db.SelectContext(ctx, &payloads, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	submissions := make([]*Submission, 0, len(payloads))
	for _, payload := range payloads {
		var s Submission
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal submission: %w", err)
		}
		submissions = append(submissions, &s)
	}

	return submissions, nil
}
