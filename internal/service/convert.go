package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/database"
	pkgerrors "github.com/AcMongue/gestion-pfe-sub000/pkg/errors"
)

const timestampLayout = "2006-01-02T15:04:05Z"

var (
	ErrCallerNotFound = errors.New("current user not found")
)

func loadCaller(ctx context.Context, repo *repository.Repository, callerID string) (*model.User, error) {
	caller, err := repo.User.GetByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCallerNotFound
		}
		return nil, err
	}
	return caller, nil
}

// translateStorageError maps constraint violations raised at commit or insert
// time back to the rule errors the validators would have produced.
func translateStorageError(err error, defense *model.Defense, roomName string) error {
	switch {
	case err == nil:
		return nil
	case database.IsExclusionViolation(err, database.ConstraintRoomNoOverlap):
		slot, _ := defense.Slot()
		return &ConflictError{Resource: "room", Name: roomName, Slot: slot}
	case database.IsUniqueViolation(err, database.ConstraintDefenseProject):
		return ErrDefenseAlreadyExists
	case database.IsSerializationFailure(err):
		return pkgerrors.ErrConcurrentUpdate
	}
	return err
}

func gradeString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.StringFixed(gradePlaces)
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, Name: u.Name, Email: u.Email}
}

func toDepartmentBrief(d *model.Department) *dto.DepartmentBrief {
	if d == nil {
		return nil
	}
	return &dto.DepartmentBrief{ID: d.DepartmentID, Code: d.Code, Name: d.Name}
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:            u.UserID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          string(u.Role),
		AcademicTitle: string(u.AcademicTitle),
		CanPreside:    u.CanPresideJury(),
		Department:    toDepartmentBrief(u.Department),
		CreatedAt:     formatTime(u.CreatedAt),
	}
	if u.AcademicTitle != model.TitleNone {
		resp.TitleLabel = u.AcademicTitle.Label()
	}
	if u.Matricule != nil {
		resp.Matricule = *u.Matricule
	}
	return resp
}

func toJuryMemberResponse(m *model.JuryMember) dto.JuryMemberResponse {
	resp := dto.JuryMemberResponse{
		ID:          m.JuryMemberID,
		DefenseID:   m.DefenseID,
		TeacherID:   m.TeacherID,
		TeacherName: m.TeacherName(),
		Role:        string(m.Role),
		Grade:       gradeString(m.Grade),
		Comments:    m.Comments,
	}
	if m.Teacher != nil {
		resp.AcademicTitle = string(m.Teacher.AcademicTitle)
	}
	if m.GradedAt != nil {
		at := formatTime(*m.GradedAt)
		resp.GradedAt = &at
	}
	return resp
}

func toJuryMemberResponses(members []model.JuryMember) []dto.JuryMemberResponse {
	out := make([]dto.JuryMemberResponse, 0, len(members))
	for i := range members {
		out = append(out, toJuryMemberResponse(&members[i]))
	}
	return out
}

func toDefenseResponse(d *model.Defense) *dto.DefenseResponse {
	resp := &dto.DefenseResponse{
		ID:                  d.DefenseID,
		ProjectID:           d.ProjectID,
		Date:                model.FormatDate(d.Date),
		StartTime:           d.StartTime,
		EndTime:             d.EndTime(),
		DurationMinutes:     d.DurationMinutes,
		RoomID:              d.RoomID,
		RoomName:            d.RoomName(),
		Status:              string(d.Status),
		PresentationMinutes: d.PresentationMinutes,
		QuestionsMinutes:    d.QuestionsMinutes,
		FinalGrade:          gradeString(d.FinalGrade),
		JuryComments:        d.JuryComments,
		CancellationReason:  d.CancellationReason,
		Version:             d.Version,
		CreatedAt:           formatTime(d.CreatedAt),
		UpdatedAt:           formatTime(d.UpdatedAt),
	}
	if p := d.Project; p != nil {
		resp.ProjectTitle = p.Title
		resp.Student = toUserBrief(p.Student)
		resp.DepartmentCode = p.DepartmentCode()
		resp.IsInterdisciplinary = p.IsInterdisciplinary()
	}
	if len(d.JuryMembers) > 0 {
		resp.Jury = toJuryMemberResponses(d.JuryMembers)
	}
	return resp
}

func toBookingResponses(bookings []Booking) []dto.BookingResponse {
	out := make([]dto.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, dto.BookingResponse(b))
	}
	return out
}
