package projects

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository persists projects and their status history
type Repository interface {
	GetByID(ctx context.Context, id string) (*Project, error)
	Save(ctx context.Context, project *Project) error
	AddHistory(ctx context.Context, history *ProjectStatusHistory) error
	ListHistory(ctx context.Context, projectID string) ([]ProjectStatusHistory, error)
	Transaction(ctx context.Context, fn func(repo Repository) error) error
}

// GormRepository implements Repository with gorm
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new gorm repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the project tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Project{}, &ProjectStatusHistory{}); err != nil {
		return fmt.Errorf("failed to migrate project tables: %w", err)
	}
	return nil
}

func (r *GormRepository) GetByID(ctx context.Context, id string) (*Project, error) {
	var project Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (r *GormRepository) Save(ctx context.Context, project *Project) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (r *GormRepository) AddHistory(ctx context.Context, history *ProjectStatusHistory) error {
	if err := r.db.WithContext(ctx).Create(history).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}

func (r *GormRepository) ListHistory(ctx context.Context, projectID string) ([]ProjectStatusHistory, error) {
	var history []ProjectStatusHistory
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("changed_at ASC").
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}
	return history, nil
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(repo Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}
