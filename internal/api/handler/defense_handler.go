package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/service"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/response"
)

// DefenseHandler defense scheduling endpoints.
type DefenseHandler struct {
	defenseSvc service.DefenseService
}

// NewDefenseHandler creates a DefenseHandler.
func NewDefenseHandler(defenseSvc service.DefenseService) *DefenseHandler {
	return &DefenseHandler{defenseSvc: defenseSvc}
}

// Schedule POST /api/v1/defenses
func (h *DefenseHandler) Schedule(c *gin.Context) {
	var req dto.ScheduleDefenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	defense, err := h.defenseSvc.Schedule(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleDefenseError(c, err)
		return
	}

	response.Created(c, defense)
}

// List GET /api/v1/defenses
func (h *DefenseHandler) List(c *gin.Context) {
	var req dto.DefenseListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	defenses, total, err := h.defenseSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleDefenseError(c, err)
		return
	}

	response.OKPage(c, defenses, total, req.GetPage(), req.GetPageSize())
}

// Get GET /api/v1/defenses/:id
func (h *DefenseHandler) Get(c *gin.Context) {
	defense, err := h.defenseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDefenseError(c, err)
		return
	}

	response.OK(c, defense)
}

// Reschedule PUT /api/v1/defenses/:id/reschedule
func (h *DefenseHandler) Reschedule(c *gin.Context) {
	var req dto.RescheduleDefenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	defense, err := h.defenseSvc.Reschedule(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDefenseError(c, err)
		return
	}

	response.OK(c, defense)
}

// Cancel POST /api/v1/defenses/:id/cancel
func (h *DefenseHandler) Cancel(c *gin.Context) {
	var req dto.CancelDefenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	defense, err := h.defenseSvc.Cancel(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDefenseError(c, err)
		return
	}

	response.OK(c, defense)
}

// Start POST /api/v1/defenses/:id/start
func (h *DefenseHandler) Start(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	defense, err := h.defenseSvc.Start(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleDefenseError(c, err)
		return
	}

	response.OK(c, defense)
}

// Composition GET /api/v1/defenses/:id/composition
func (h *DefenseHandler) Composition(c *gin.Context) {
	report, err := h.defenseSvc.ValidateComposition(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDefenseError(c, err)
		return
	}

	response.OK(c, report)
}

// Grades GET /api/v1/defenses/:id/grades
func (h *DefenseHandler) Grades(c *gin.Context) {
	summary, err := h.defenseSvc.GradeSummary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDefenseError(c, err)
		return
	}

	response.OK(c, summary)
}

func (h *DefenseHandler) handleDefenseError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrDefenseNotFound):
		response.NotFound(c, 16001, "defense not found")
	case errors.Is(err, service.ErrDefenseAlreadyExists):
		response.FieldError(c, http.StatusConflict, 16002, "project_id", err.Error())
	case errors.Is(err, service.ErrDefenseForbidden):
		response.Forbidden(c, 16003, err.Error())
	case errors.Is(err, service.ErrDefenseNotOpen):
		response.Conflict(c, 16004, err.Error())
	case errors.Is(err, service.ErrDefenseNotStarted):
		response.Conflict(c, 16005, err.Error())
	case errors.Is(err, service.ErrProjectNotFound):
		response.FieldError(c, http.StatusBadRequest, 16006, "project_id", err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		response.FieldError(c, http.StatusBadRequest, 16007, "room_id", err.Error())
	case errors.Is(err, service.ErrRoomRequired):
		response.FieldError(c, http.StatusBadRequest, 16008, "room_id", err.Error())
	case errors.Is(err, service.ErrDefenseDepartmentUnknown):
		response.Error(c, http.StatusUnprocessableEntity, 16009, err.Error())
	default:
		response.InternalError(c)
	}
}
