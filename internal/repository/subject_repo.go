package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
)

// SubjectRepository subject data access.
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id string) (*model.Subject, error)
	List(ctx context.Context, departmentID string) ([]model.Subject, error)
}

type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo creates a SubjectRepository.
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Preload("Department").
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) List(ctx context.Context, departmentID string) ([]model.Subject, error) {
	var subjects []model.Subject
	db := r.db.WithContext(ctx).Preload("Department")
	if departmentID != "" {
		db = db.Where("department_id = ? OR secondary_department_id = ?", departmentID, departmentID)
	}
	err := db.Order("title ASC").Find(&subjects).Error
	return subjects, err
}
