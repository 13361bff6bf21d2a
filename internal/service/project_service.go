package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
)

// ── subject / project errors ──

var (
	ErrSubjectNotFound         = errors.New("subject not found")
	ErrSecondaryDeptRequired   = errors.New("an interdisciplinary subject needs a secondary department")
	ErrSecondaryDeptUnexpected = errors.New("only an interdisciplinary subject has a secondary department")
	ErrSupervisorNotTeacher    = errors.New("supervisors must be teachers")
	ErrStudentNotFound         = errors.New("student not found")
	ErrProjectForbidden        = errors.New("you cannot manage projects of this department")
)

// ProjectService subjects and the projects built on them.
type ProjectService interface {
	CreateSubject(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error)
	ListSubjects(ctx context.Context, req *dto.SubjectListRequest) ([]dto.SubjectResponse, error)
	CreateProject(ctx context.Context, req *dto.CreateProjectRequest, callerID string) (*dto.ProjectResponse, error)
	GetProject(ctx context.Context, id string) (*dto.ProjectResponse, error)
	ListProjects(ctx context.Context, req *dto.ProjectListRequest) ([]dto.ProjectResponse, int64, error)
}

type projectService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewProjectService creates a ProjectService.
func NewProjectService(repo *repository.Repository, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, logger: logger}
}

// ────────────────────── Subjects ──────────────────────

func (s *projectService) CreateSubject(ctx context.Context, req *dto.CreateSubjectRequest, callerID string) (*dto.SubjectResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageDepartment(&req.DepartmentID) {
		return nil, ErrProjectForbidden
	}

	switch {
	case req.IsInterdisciplinary && req.SecondaryDepartmentID == "":
		return nil, ErrSecondaryDeptRequired
	case !req.IsInterdisciplinary && req.SecondaryDepartmentID != "":
		return nil, ErrSecondaryDeptUnexpected
	}

	for _, id := range []string{req.DepartmentID, req.SecondaryDepartmentID} {
		if id == "" {
			continue
		}
		if _, err := s.repo.Department.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDepartmentNotFound
			}
			return nil, err
		}
	}

	supervisors := []string{req.SupervisorID}
	if req.CoSupervisorID != "" {
		supervisors = append(supervisors, req.CoSupervisorID)
	}
	teachers, err := s.repo.User.ListByIDs(ctx, supervisors)
	if err != nil {
		s.logger.Error("load supervisors failed", zap.Error(err))
		return nil, err
	}
	if len(teachers) != len(supervisors) {
		return nil, ErrSupervisorNotTeacher
	}
	for i := range teachers {
		if !teachers[i].CanSitOnJury() {
			return nil, ErrSupervisorNotTeacher
		}
	}

	subject := &model.Subject{
		Title:               req.Title,
		Description:         req.Description,
		DepartmentID:        req.DepartmentID,
		IsInterdisciplinary: req.IsInterdisciplinary,
		SupervisorID:        req.SupervisorID,
	}
	if req.SecondaryDepartmentID != "" {
		subject.SecondaryDepartmentID = &req.SecondaryDepartmentID
	}
	if req.CoSupervisorID != "" {
		subject.CoSupervisorID = &req.CoSupervisorID
	}
	subject.CreatedBy = &callerID
	subject.UpdatedBy = &callerID

	if err := s.repo.Subject.Create(ctx, subject); err != nil {
		s.logger.Error("create subject failed", zap.Error(err))
		return nil, err
	}

	created, err := s.repo.Subject.GetByID(ctx, subject.SubjectID)
	if err != nil {
		return nil, err
	}
	return toSubjectResponse(created), nil
}

func (s *projectService) ListSubjects(ctx context.Context, req *dto.SubjectListRequest) ([]dto.SubjectResponse, error) {
	subjects, err := s.repo.Subject.List(ctx, req.DepartmentID)
	if err != nil {
		s.logger.Error("list subjects failed", zap.Error(err))
		return nil, err
	}
	result := make([]dto.SubjectResponse, 0, len(subjects))
	for i := range subjects {
		result = append(result, *toSubjectResponse(&subjects[i]))
	}
	return result, nil
}

// ────────────────────── Projects ──────────────────────

func (s *projectService) CreateProject(ctx context.Context, req *dto.CreateProjectRequest, callerID string) (*dto.ProjectResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	subject, err := s.repo.Subject.GetByID(ctx, req.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	if !caller.CanManageDepartment(&subject.DepartmentID) {
		return nil, ErrProjectForbidden
	}

	student, err := s.repo.User.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if student.Role != model.RoleStudent {
		return nil, ErrStudentNotFound
	}

	title := req.Title
	if title == "" {
		title = subject.Title
	}
	project := &model.Project{
		SubjectID: subject.SubjectID,
		StudentID: student.UserID,
		Title:     title,
		Status:    model.ProjectStatusInProgress,
	}
	project.CreatedBy = &callerID
	project.UpdatedBy = &callerID

	if err := s.repo.Project.Create(ctx, project); err != nil {
		s.logger.Error("create project failed", zap.Error(err))
		return nil, err
	}
	return s.GetProject(ctx, project.ProjectID)
}

func (s *projectService) GetProject(ctx context.Context, id string) (*dto.ProjectResponse, error) {
	project, err := s.repo.Project.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("get project failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return toProjectResponse(project), nil
}

func (s *projectService) ListProjects(ctx context.Context, req *dto.ProjectListRequest) ([]dto.ProjectResponse, int64, error) {
	projects, total, err := s.repo.Project.List(ctx, req.DepartmentID, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list projects failed", zap.Error(err))
		return nil, 0, err
	}
	result := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		result = append(result, *toProjectResponse(&projects[i]))
	}
	return result, total, nil
}

// ── converters ──

func toSubjectResponse(s *model.Subject) *dto.SubjectResponse {
	resp := &dto.SubjectResponse{
		ID:                  s.SubjectID,
		Title:               s.Title,
		Description:         s.Description,
		Department:          toDepartmentBrief(s.Department),
		IsInterdisciplinary: s.IsInterdisciplinary,
		SupervisorID:        s.SupervisorID,
		CreatedAt:           formatTime(s.CreatedAt),
	}
	if s.SecondaryDepartmentID != nil {
		resp.SecondaryDepartment = *s.SecondaryDepartmentID
	}
	if s.CoSupervisorID != nil {
		resp.CoSupervisorID = *s.CoSupervisorID
	}
	return resp
}

func toProjectResponse(p *model.Project) *dto.ProjectResponse {
	resp := &dto.ProjectResponse{
		ID:                  p.ProjectID,
		Title:               p.Title,
		Status:              p.Status,
		SubjectID:           p.SubjectID,
		DepartmentCode:      p.DepartmentCode(),
		IsInterdisciplinary: p.IsInterdisciplinary(),
		Student:             toUserBrief(p.Student),
		SupervisorIDs:       p.SupervisorIDs(),
		CreatedAt:           formatTime(p.CreatedAt),
	}
	if p.Subject != nil {
		resp.SubjectTitle = p.Subject.Title
	}
	return resp
}
