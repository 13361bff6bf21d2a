package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/database"
)

// ── department errors ──

var (
	ErrDepartmentNotFound   = errors.New("department not found")
	ErrDepartmentCodeExists = errors.New("department code already exists")
	ErrDepartmentInUse      = errors.New("department still has users, subjects or rooms attached")
	ErrDepartmentForbidden  = errors.New("you cannot manage this department")
)

// DepartmentService filière management.
type DepartmentService interface {
	Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DepartmentResponse, error)
	List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type departmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDepartmentService creates a DepartmentService.
func NewDepartmentService(repo *repository.Repository, logger *zap.Logger) DepartmentService {
	return &departmentService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *departmentService) Create(ctx context.Context, req *dto.CreateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsGeneralAdmin() {
		return nil, ErrDepartmentForbidden
	}

	code := strings.ToUpper(req.Code)
	if code == model.GeneralDepartmentCode {
		return nil, ErrDepartmentCodeExists
	}
	existing, err := s.repo.Department.GetByCode(ctx, code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("get department failed", zap.Error(err))
		return nil, err
	}
	if existing != nil {
		return nil, ErrDepartmentCodeExists
	}

	dept := &model.Department{
		Code:        code,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	dept.Version = 1
	dept.CreatedBy = &callerID
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Create(ctx, dept); err != nil {
		if database.IsUniqueViolation(err, database.ConstraintDepartmentCode) {
			return nil, ErrDepartmentCodeExists
		}
		s.logger.Error("create department failed", zap.Error(err))
		return nil, err
	}

	return toDepartmentResponse(dept), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *departmentService) GetByID(ctx context.Context, id string) (*dto.DepartmentResponse, error) {
	dept, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDepartmentResponse(dept), nil
}

func (s *departmentService) List(ctx context.Context, req *dto.DepartmentListRequest) ([]dto.DepartmentResponse, error) {
	depts, err := s.repo.Department.List(ctx, req.IncludeInactive)
	if err != nil {
		s.logger.Error("list departments failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		result = append(result, *toDepartmentResponse(&depts[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *departmentService) Update(ctx context.Context, id string, req *dto.UpdateDepartmentRequest, callerID string) (*dto.DepartmentResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}
	dept, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageDepartment(&dept.DepartmentID) {
		return nil, ErrDepartmentForbidden
	}

	if req.Name != nil {
		dept.Name = *req.Name
	}
	if req.Description != nil {
		dept.Description = *req.Description
	}
	if req.IsActive != nil {
		dept.IsActive = *req.IsActive
	}
	dept.UpdatedBy = &callerID

	if err := s.repo.Department.Update(ctx, dept); err != nil {
		s.logger.Error("update department failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toDepartmentResponse(dept), nil
}

// ────────────────────── Delete ──────────────────────

func (s *departmentService) Delete(ctx context.Context, id string, callerID string) error {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return err
	}
	if !caller.IsGeneralAdmin() {
		return ErrDepartmentForbidden
	}
	dept, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.repo.Department.CountReferences(ctx, dept.DepartmentID)
	if err != nil {
		s.logger.Error("count department references failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrDepartmentInUse
	}

	if err := s.repo.Department.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("delete department failed", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("department deleted", zap.String("id", id), zap.String("code", dept.Code))
	return nil
}

// ── helpers ──

func (s *departmentService) get(ctx context.Context, id string) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		s.logger.Error("get department failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return dept, nil
}

func toDepartmentResponse(d *model.Department) *dto.DepartmentResponse {
	return &dto.DepartmentResponse{
		ID:          d.DepartmentID,
		Code:        d.Code,
		Name:        d.Name,
		Description: d.Description,
		IsActive:    d.IsActive,
		CreatedAt:   formatTime(d.CreatedAt),
		UpdatedAt:   formatTime(d.UpdatedAt),
	}
}
