package handler

import (
	"errors"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/gin-gonic/gin"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/service"
	pkgerrors "github.com/AcMongue/gestion-pfe-sub000/pkg/errors"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/response"
)

// rule error codes, shared by every module
const (
	codeConflict     = 30001
	codeEligibility  = 30002
	codeQuota        = 30003
	codeComposition  = 30004
	codeDuplicate    = 30005
	codeStaleVersion = 30006
	codeRetry        = 30007
	codeRoomClosed   = 30008
)

var translator ut.Translator

// UseTranslator sets the translator used for validation messages.
func UseTranslator(trans ut.Translator) {
	translator = trans
}

// bindError answers 400 with one message per rejected field.
func bindError(c *gin.Context, err error) {
	if fields := dto.ValidationMessages(err, translator); len(fields) > 0 {
		response.ValidationError(c, fields)
		return
	}
	response.BadRequest(c, 10001, "invalid request body")
}

// handleCommonError writes the response for errors every module shares:
// rule rejections, malformed dates, version conflicts and an unknown caller.
// It returns false when err is none of those.
func handleCommonError(c *gin.Context, err error) bool {
	var (
		conflict    *service.ConflictError
		eligibility *service.EligibilityError
		quota       *service.QuotaExceededError
		composition *service.CompositionError
		duplicate   *service.DuplicateMembershipError
	)
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, response.Response{
			Code:    codeConflict,
			Message: conflict.Error(),
			Data:    gin.H{"field": conflict.Field(), "conflicts": conflict.Conflicts},
		})
	case errors.As(err, &eligibility):
		response.FieldError(c, http.StatusUnprocessableEntity, codeEligibility, eligibility.Field(), eligibility.Error())
	case errors.As(err, &quota):
		response.FieldError(c, http.StatusUnprocessableEntity, codeQuota, quota.Field(), quota.Error())
	case errors.As(err, &composition):
		c.JSON(http.StatusUnprocessableEntity, response.Response{
			Code:    codeComposition,
			Message: composition.Error(),
			Data:    gin.H{"field": composition.Field(), "errors": composition.Problems},
		})
	case errors.As(err, &duplicate):
		response.FieldError(c, http.StatusConflict, codeDuplicate, duplicate.Field(), duplicate.Error())
	case errors.Is(err, service.ErrRoomUnavailable):
		response.FieldError(c, http.StatusConflict, codeRoomClosed, "room_id", err.Error())
	case errors.Is(err, model.ErrInvalidDate), errors.Is(err, model.ErrInvalidClock),
		errors.Is(err, model.ErrInvalidDuration), errors.Is(err, model.ErrSlotPastMidnight):
		response.BadRequest(c, 10001, err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeStaleVersion, err.Error())
	case errors.Is(err, pkgerrors.ErrConcurrentUpdate):
		response.Conflict(c, codeRetry, err.Error())
	case errors.Is(err, service.ErrCallerNotFound):
		response.Unauthorized(c, 10002, err.Error())
	default:
		return false
	}
	return true
}
