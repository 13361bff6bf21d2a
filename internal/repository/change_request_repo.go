package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
)

// ChangeRequestRepository defense change request data access.
type ChangeRequestRepository interface {
	Create(ctx context.Context, req *model.DefenseChangeRequest) error
	GetByID(ctx context.Context, id string) (*model.DefenseChangeRequest, error)
	ListByDefense(ctx context.Context, defenseID string) ([]model.DefenseChangeRequest, error)
	ListByStatus(ctx context.Context, status model.ChangeRequestStatus) ([]model.DefenseChangeRequest, error)
	Update(ctx context.Context, req *model.DefenseChangeRequest) error
}

type changeRequestRepo struct {
	db *gorm.DB
}

// NewChangeRequestRepo creates a ChangeRequestRepository.
func NewChangeRequestRepo(db *gorm.DB) ChangeRequestRepository {
	return &changeRequestRepo{db: db}
}

func (r *changeRequestRepo) Create(ctx context.Context, req *model.DefenseChangeRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *changeRequestRepo) GetByID(ctx context.Context, id string) (*model.DefenseChangeRequest, error) {
	var req model.DefenseChangeRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("change_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *changeRequestRepo) ListByDefense(ctx context.Context, defenseID string) ([]model.DefenseChangeRequest, error) {
	var reqs []model.DefenseChangeRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("defense_id = ?", defenseID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *changeRequestRepo) ListByStatus(ctx context.Context, status model.ChangeRequestStatus) ([]model.DefenseChangeRequest, error) {
	var reqs []model.DefenseChangeRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *changeRequestRepo) Update(ctx context.Context, req *model.DefenseChangeRequest) error {
	return r.db.WithContext(ctx).
		Model(&model.DefenseChangeRequest{}).
		Where("change_request_id = ?", req.ChangeRequestID).
		Updates(map[string]interface{}{
			"status":         req.Status,
			"reviewed_by":    req.ReviewedBy,
			"review_comment": req.ReviewComment,
			"reviewed_at":    req.ReviewedAt,
			"updated_by":     req.UpdatedBy,
			"updated_at":     gorm.Expr("NOW()"),
		}).Error
}
