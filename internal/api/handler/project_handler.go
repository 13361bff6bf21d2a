package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/service"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/response"
)

// ProjectHandler subject and project endpoints.
type ProjectHandler struct {
	projectSvc service.ProjectService
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projectSvc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// CreateSubject POST /api/v1/subjects
func (h *ProjectHandler) CreateSubject(c *gin.Context) {
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	subject, err := h.projectSvc.CreateSubject(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.Created(c, subject)
}

// ListSubjects GET /api/v1/subjects
func (h *ProjectHandler) ListSubjects(c *gin.Context) {
	var req dto.SubjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	subjects, err := h.projectSvc.ListSubjects(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": subjects})
}

// CreateProject POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.CreateProject(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.Created(c, project)
}

// GetProject GET /api/v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.projectSvc.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// ListProjects GET /api/v1/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var req dto.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	projects, total, err := h.projectSvc.ListProjects(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, projects, total, req.GetPage(), req.GetPageSize())
}

func (h *ProjectHandler) handleProjectError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 14001, "project not found")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.FieldError(c, http.StatusBadRequest, 14002, "subject_id", err.Error())
	case errors.Is(err, service.ErrStudentNotFound):
		response.FieldError(c, http.StatusBadRequest, 14003, "student_id", err.Error())
	case errors.Is(err, service.ErrSupervisorNotTeacher):
		response.FieldError(c, http.StatusUnprocessableEntity, 14004, "supervisor_id", err.Error())
	case errors.Is(err, service.ErrSecondaryDeptRequired), errors.Is(err, service.ErrSecondaryDeptUnexpected):
		response.FieldError(c, http.StatusBadRequest, 14005, "secondary_department_id", err.Error())
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.FieldError(c, http.StatusBadRequest, 14006, "department_id", err.Error())
	case errors.Is(err, service.ErrProjectForbidden):
		response.Forbidden(c, 14007, err.Error())
	default:
		response.InternalError(c)
	}
}
