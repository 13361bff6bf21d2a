package service

import (
	"errors"

	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	pkgerrors "github.com/AcMongue/gestion-pfe-sub000/pkg/errors"
)

// expected errors are business outcomes and are not logged.
var expected = []error{
	ErrCallerNotFound,
	ErrDefenseNotFound, ErrDefenseAlreadyExists, ErrDefenseForbidden, ErrDefenseNotOpen,
	ErrDefenseNotStarted, ErrDefenseDepartmentUnknown, ErrProjectNotFound,
	ErrRoomNotFound, ErrRoomRequired, ErrRoomUnavailable,
	ErrTeacherNotFound, ErrJuryMemberNotFound, ErrNotJuryMember, ErrGradingNotOpen,
	ErrInvalidGrade, ErrDefenseAlreadyStarted,
	ErrChangeRequestNotFound, ErrChangeRequestForbidden, ErrChangeRequestReviewed, ErrEmptyProposal,
	ErrDepartmentNotFound,
	model.ErrInvalidDate, model.ErrInvalidClock, model.ErrInvalidDuration, model.ErrSlotPastMidnight,
	pkgerrors.ErrOptimisticLock, pkgerrors.ErrConcurrentUpdate,
}

func isExpected(err error) bool {
	var rule RuleError
	if errors.As(err, &rule) {
		return true
	}
	for _, e := range expected {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func logUnexpected(logger *zap.Logger, op, id string, err error) {
	if err == nil || isExpected(err) {
		return
	}
	logger.Error(op+" failed", zap.String("id", id), zap.Error(err))
}
