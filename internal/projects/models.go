package projects

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrProjectNotFound is returned when a project does not exist
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidTransition is returned when a review moves a project to a
	// status its current status does not allow
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status change sources
const (
	SourceVerification = "verification"
	SourceReview       = "review"
)

// Project is the verification view of a submitted restoration project
type Project struct {
	ID                   string         `gorm:"primaryKey" json:"id"`
	Name                 string         `json:"name"`
	EcosystemType        string         `json:"ecosystem_type"`
	Status               string         `gorm:"not null;default:'pending'" json:"status"`
	LatestVerificationID string         `json:"latest_verification_id"`
	LatestScore          float64        `json:"latest_score"`
	LatestCategory       string         `json:"latest_category"`
	LatestFlags          datatypes.JSON `gorm:"type:jsonb" json:"latest_flags"`
	ReviewNotes          string         `json:"review_notes,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// ProjectStatusHistory tracks status changes
type ProjectStatusHistory struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProjectID      string    `gorm:"not null;index" json:"project_id"`
	FromStatus     string    `json:"from_status"`
	Status         string    `gorm:"not null" json:"status"`
	Source         string    `gorm:"not null" json:"source"`
	VerificationID string    `json:"verification_id,omitempty"`
	ChangedBy      string    `json:"changed_by,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

// VerificationOutcome is what the verification service reports per result
type VerificationOutcome struct {
	ProjectID      string
	ProjectName    string
	EcosystemType  string
	VerificationID string
	Status         string
	Category       string
	Score          float64
	Flags          []string
}

// ReviewRequest moves a project through the review workflow
type ReviewRequest struct {
	Status   string `json:"status" binding:"required"`
	Reviewer string `json:"reviewer" binding:"required"`
	Notes    string `json:"notes"`
}
