package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/service"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/response"
)

// ChangeRequestHandler reschedule request endpoints.
type ChangeRequestHandler struct {
	crSvc service.ChangeRequestService
}

// NewChangeRequestHandler creates a ChangeRequestHandler.
func NewChangeRequestHandler(crSvc service.ChangeRequestService) *ChangeRequestHandler {
	return &ChangeRequestHandler{crSvc: crSvc}
}

// Create POST /api/v1/defenses/:id/change-requests
func (h *ChangeRequestHandler) Create(c *gin.Context) {
	var req dto.CreateChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cr, err := h.crSvc.Create(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.Created(c, cr)
}

// ListByDefense GET /api/v1/defenses/:id/change-requests
func (h *ChangeRequestHandler) ListByDefense(c *gin.Context) {
	list, err := h.crSvc.ListByDefense(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListPending GET /api/v1/change-requests/pending
func (h *ChangeRequestHandler) ListPending(c *gin.Context) {
	list, err := h.crSvc.ListPending(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Review POST /api/v1/change-requests/:id/review
func (h *ChangeRequestHandler) Review(c *gin.Context) {
	var req dto.ReviewChangeRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	cr, err := h.crSvc.Review(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleChangeRequestError(c, err)
		return
	}

	response.OK(c, cr)
}

func (h *ChangeRequestHandler) handleChangeRequestError(c *gin.Context, err error) {
	if handleCommonError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrChangeRequestNotFound):
		response.NotFound(c, 18001, "change request not found")
	case errors.Is(err, service.ErrDefenseNotFound):
		response.NotFound(c, 18002, "defense not found")
	case errors.Is(err, service.ErrChangeRequestForbidden), errors.Is(err, service.ErrDefenseForbidden):
		response.Forbidden(c, 18003, err.Error())
	case errors.Is(err, service.ErrChangeRequestReviewed):
		response.Conflict(c, 18004, err.Error())
	case errors.Is(err, service.ErrEmptyProposal):
		response.BadRequest(c, 18005, err.Error())
	case errors.Is(err, service.ErrDefenseNotOpen):
		response.Conflict(c, 18006, err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		response.BadRequest(c, 18007, err.Error())
	default:
		response.InternalError(c)
	}
}
