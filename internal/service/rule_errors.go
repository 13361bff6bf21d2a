package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
)

// RuleError is a business-rule rejection attributed to one input field.
// None of them leave any state behind.
type RuleError interface {
	error
	Field() string
}

// Booking an existing defense slot a proposal collides with.
type Booking struct {
	DefenseID string `json:"defense_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Label     string `json:"label,omitempty"`
}

func bookingOf(d *model.Defense) Booking {
	b := Booking{
		DefenseID: d.DefenseID,
		Date:      model.FormatDate(d.Date),
		StartTime: d.StartTime,
		EndTime:   d.EndTime(),
	}
	if d.Project != nil {
		b.Label = d.Project.Title
	}
	return b
}

// ConflictError a room or a jury member is already taken for an
// overlapping slot.
type ConflictError struct {
	// Resource is "room" or "teacher".
	Resource  string
	Name      string
	Slot      model.Slot
	Conflicts []Booking
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, b := range e.Conflicts {
		parts = append(parts, b.StartTime+"-"+b.EndTime)
	}
	if e.Resource == "teacher" {
		return fmt.Sprintf("%s already sits on a jury on %s at %s",
			e.Name, model.FormatDate(e.Slot.Date), strings.Join(parts, ", "))
	}
	return fmt.Sprintf("room %s is already booked on %s at %s",
		e.Name, model.FormatDate(e.Slot.Date), strings.Join(parts, ", "))
}

func (e *ConflictError) Field() string {
	if e.Resource == "teacher" {
		return "teacher_id"
	}
	return "start_time"
}

// EligibilityError the teacher may not take the requested seat.
type EligibilityError struct {
	TeacherName string
	UserRole    model.Role
	Title       model.AcademicTitle
	JuryRole    model.JuryRole
}

func (e *EligibilityError) Error() string {
	if e.UserRole != model.RoleTeacher {
		return fmt.Sprintf("%s is not a teacher (role %s) and cannot sit on a jury", e.TeacherName, e.UserRole)
	}
	return fmt.Sprintf("%s holds the title %s; only a Professeur may preside a jury", e.TeacherName, e.Title.Label())
}

func (e *EligibilityError) Field() string { return "teacher_id" }

// QuotaExceededError the professeur reached the daily presidency cap in the department.
type QuotaExceededError struct {
	TeacherName    string
	Date           time.Time
	DepartmentCode string
	Count          int64
	Limit          int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("Professor %s already presides over %d defenses on %s in department %s",
		e.TeacherName, e.Count, model.FormatDate(e.Date), e.DepartmentCode)
}

func (e *QuotaExceededError) Field() string { return "teacher_id" }

// CompositionError the jury does not match the cardinality rules of the project type.
type CompositionError struct {
	Problems []string
}

func (e *CompositionError) Error() string {
	return "invalid jury composition: " + strings.Join(e.Problems, "; ")
}

func (e *CompositionError) Field() string { return "jury" }

// DuplicateMembershipError the teacher already sits on this jury.
type DuplicateMembershipError struct {
	TeacherName string
	DefenseID   string
}

func (e *DuplicateMembershipError) Error() string {
	return fmt.Sprintf("%s is already a member of this jury", e.TeacherName)
}

func (e *DuplicateMembershipError) Field() string { return "teacher_id" }
