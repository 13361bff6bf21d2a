package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/service"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/response"
)

// JuryHandler jury composition and grading endpoints.
type JuryHandler struct {
	jurySvc service.JuryService
}

// NewJuryHandler creates a JuryHandler.
func NewJuryHandler(jurySvc service.JuryService) *JuryHandler {
	return &JuryHandler{jurySvc: jurySvc}
}

// List GET /api/v1/defenses/:id/jury
func (h *JuryHandler) List(c *gin.Context) {
	jury, err := h.jurySvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleJuryError(c, err)
		return
	}

	response.OK(c, jury)
}

// Add POST /api/v1/defenses/:id/jury
func (h *JuryHandler) Add(c *gin.Context) {
	var req dto.AddJuryMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	member, err := h.jurySvc.AddMember(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleJuryError(c, err)
		return
	}

	response.Created(c, member)
}

// UpdateRole PUT /api/v1/defenses/:id/jury/:memberId
func (h *JuryHandler) UpdateRole(c *gin.Context) {
	var req dto.UpdateJuryMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	member, err := h.jurySvc.UpdateMemberRole(c.Request.Context(), c.Param("id"), c.Param("memberId"), &req, callerID)
	if err != nil {
		h.handleJuryError(c, err)
		return
	}

	response.OK(c, member)
}

// Remove DELETE /api/v1/defenses/:id/jury/:memberId
func (h *JuryHandler) Remove(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.jurySvc.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("memberId"), callerID); err != nil {
		h.handleJuryError(c, err)
		return
	}

	response.OK(c, nil)
}

// SubmitGrade PUT /api/v1/defenses/:id/jury/grade
func (h *JuryHandler) SubmitGrade(c *gin.Context) {
	var req dto.SubmitGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	summary, err := h.jurySvc.SubmitGrade(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleJuryError(c, err)
		return
	}

	response.OK(c, summary)
}

// PresidentAvailability GET /api/v1/jury/presidents/availability
func (h *JuryHandler) PresidentAvailability(c *gin.Context) {
	var req dto.PresidentAvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.jurySvc.PresidentAvailability(c.Request.Context(), &req)
	if err != nil {
		h.handleJuryError(c, err)
		return
	}

	response.OK(c, result)
}

// EligiblePresidents GET /api/v1/jury/presidents/eligible
func (h *JuryHandler) EligiblePresidents(c *gin.Context) {
	var req dto.EligiblePresidentsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.jurySvc.EligiblePresidents(c.Request.Context(), &req)
	if err != nil {
		h.handleJuryError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func (h *JuryHandler) handleJuryError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrDefenseNotFound):
		response.NotFound(c, 17001, "defense not found")
	case errors.Is(err, service.ErrJuryMemberNotFound):
		response.NotFound(c, 17002, "jury member not found")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.FieldError(c, http.StatusBadRequest, 17003, "teacher_id", err.Error())
	case errors.Is(err, service.ErrNotJuryMember):
		response.Forbidden(c, 17004, err.Error())
	case errors.Is(err, service.ErrDefenseForbidden):
		response.Forbidden(c, 17005, err.Error())
	case errors.Is(err, service.ErrGradingNotOpen):
		response.Conflict(c, 17006, err.Error())
	case errors.Is(err, service.ErrInvalidGrade):
		response.FieldError(c, http.StatusBadRequest, 17007, "grade", err.Error())
	case errors.Is(err, service.ErrDefenseAlreadyStarted), errors.Is(err, service.ErrDefenseNotOpen):
		response.Conflict(c, 17008, err.Error())
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.FieldError(c, http.StatusBadRequest, 17009, "department_id", err.Error())
	case errors.Is(err, service.ErrDefenseDepartmentUnknown):
		response.Error(c, http.StatusUnprocessableEntity, 17010, err.Error())
	default:
		response.InternalError(c)
	}
}
