package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
)

// DefaultMaxPresidenciesPerDay presidencies a professeur may hold per day and department.
const DefaultMaxPresidenciesPerDay = 4

var (
	ErrDefenseDepartmentUnknown = errors.New("defense is not attached to a department")
)

// Composition messages.
const (
	msgPresidentRequired     = "president required"
	msgOnePresident          = "only one president allowed"
	msgInterExaminers        = "interdisciplinary project needs 2 examiners, one per department"
	msgInterRapporteurs      = "interdisciplinary project needs 2 rapporteurs, the two supervisors"
	msgStandardExaminers     = "at least 2 examiners required"
	msgStandardOneRapporteur = "exactly 1 rapporteur required, the principal supervisor"
)

// JuryCompositionValidator enforces who may sit on a jury, in which role, and
// what a complete jury looks like.
type JuryCompositionValidator struct {
	jury            repository.JuryMemberRepository
	maxPresidencies int
}

// NewJuryCompositionValidator reads the jury through jury, which may be bound
// to a transaction. A non-positive maxPresidencies uses the default.
func NewJuryCompositionValidator(jury repository.JuryMemberRepository, maxPresidencies int) *JuryCompositionValidator {
	if maxPresidencies <= 0 {
		maxPresidencies = DefaultMaxPresidenciesPerDay
	}
	return &JuryCompositionValidator{jury: jury, maxPresidencies: maxPresidencies}
}

// ────────────────────── ValidateNewMember ──────────────────────

// ValidateNewMember runs, in order: teacher role, president title, presidency
// quota, duplicate membership, then the teacher's time conflicts. defense
// must have Project.Subject loaded.
func (v *JuryCompositionValidator) ValidateNewMember(ctx context.Context, defense *model.Defense, teacher *model.User, role model.JuryRole) error {
	if err := checkEligibility(teacher, role); err != nil {
		return err
	}

	if role == model.JuryPresident {
		if err := v.checkQuota(ctx, defense, defense.Date, teacher, ""); err != nil {
			return err
		}
	}

	_, err := v.jury.GetByDefenseAndTeacher(ctx, defense.DefenseID, teacher.UserID)
	if err == nil {
		return &DuplicateMembershipError{TeacherName: teacher.Name, DefenseID: defense.DefenseID}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	slot, err := defense.Slot()
	if err != nil {
		return err
	}
	return v.CheckTeacherSchedule(ctx, teacher, slot, defense.DefenseID)
}

// ValidateRoleChange re-validates an existing seat for a new role. The seat
// itself is left out of the quota count.
func (v *JuryCompositionValidator) ValidateRoleChange(ctx context.Context, defense *model.Defense, member *model.JuryMember, teacher *model.User, role model.JuryRole) error {
	if err := checkEligibility(teacher, role); err != nil {
		return err
	}
	if role == model.JuryPresident {
		return v.checkQuota(ctx, defense, defense.Date, teacher, member.JuryMemberID)
	}
	return nil
}

func checkEligibility(teacher *model.User, role model.JuryRole) error {
	if !teacher.CanSitOnJury() {
		return &EligibilityError{TeacherName: teacher.Name, UserRole: teacher.Role, Title: teacher.AcademicTitle, JuryRole: role}
	}
	if role == model.JuryPresident && !teacher.CanPresideJury() {
		return &EligibilityError{TeacherName: teacher.Name, UserRole: teacher.Role, Title: teacher.AcademicTitle, JuryRole: role}
	}
	return nil
}

// CheckPresidencyMove re-checks the presidency quota of a seated president
// when defense moves to date.
func (v *JuryCompositionValidator) CheckPresidencyMove(ctx context.Context, defense *model.Defense, member *model.JuryMember, teacher *model.User, date time.Time) error {
	if member.Role != model.JuryPresident {
		return nil
	}
	return v.checkQuota(ctx, defense, date, teacher, member.JuryMemberID)
}

func (v *JuryCompositionValidator) checkQuota(ctx context.Context, defense *model.Defense, date time.Time, teacher *model.User, excludeMemberID string) error {
	if defense.Project == nil || defense.Project.DepartmentID() == "" {
		return ErrDefenseDepartmentUnknown
	}
	count, err := v.jury.CountPresidencies(ctx, teacher.UserID, date, defense.Project.DepartmentID(), excludeMemberID)
	if err != nil {
		return err
	}
	if count >= int64(v.maxPresidencies) {
		return &QuotaExceededError{
			TeacherName:    teacher.Name,
			Date:           date,
			DepartmentCode: defense.Project.DepartmentCode(),
			Count:          count,
			Limit:          v.maxPresidencies,
		}
	}
	return nil
}

// CheckTeacherSchedule rejects a teacher already sitting on another
// non-cancelled defense overlapping slot.
func (v *JuryCompositionValidator) CheckTeacherSchedule(ctx context.Context, teacher *model.User, slot model.Slot, excludeDefenseID string) error {
	seats, err := v.jury.ListByTeacherOnDate(ctx, teacher.UserID, slot.Date)
	if err != nil {
		return err
	}
	var busy []model.Defense
	for _, seat := range seats {
		if seat.Defense == nil || seat.DefenseID == excludeDefenseID {
			continue
		}
		busy = append(busy, *seat.Defense)
	}
	if conflicts := overlapping(slot, busy); len(conflicts) > 0 {
		return newConflictError("teacher", teacher.Name, slot, conflicts)
	}
	return nil
}

// ────────────────────── ValidateComposition ──────────────────────

// ValidateComposition checks role cardinalities: one president, at least two
// examiners, and exactly one rapporteur (standard) or at least two
// (interdisciplinary).
func ValidateComposition(members []model.JuryMember, interdisciplinary bool) (bool, []string) {
	var presidents, examiners, rapporteurs int
	for _, m := range members {
		switch m.Role {
		case model.JuryPresident:
			presidents++
		case model.JuryExaminer:
			examiners++
		case model.JuryRapporteur:
			rapporteurs++
		}
	}

	problems := []string{}
	switch {
	case presidents == 0:
		problems = append(problems, msgPresidentRequired)
	case presidents > 1:
		problems = append(problems, msgOnePresident)
	}

	if interdisciplinary {
		if examiners < 2 {
			problems = append(problems, msgInterExaminers)
		}
		if rapporteurs < 2 {
			problems = append(problems, msgInterRapporteurs)
		}
	} else {
		if examiners < 2 {
			problems = append(problems, msgStandardExaminers)
		}
		if rapporteurs != 1 {
			problems = append(problems, msgStandardOneRapporteur)
		}
	}

	return len(problems) == 0, problems
}

// ValidateDefense loads the jury of defense and runs ValidateComposition.
func (v *JuryCompositionValidator) ValidateDefense(ctx context.Context, defense *model.Defense) (bool, []string, error) {
	members, err := v.jury.ListByDefense(ctx, defense.DefenseID)
	if err != nil {
		return false, nil, err
	}
	interdisciplinary := defense.Project != nil && defense.Project.IsInterdisciplinary()
	ok, problems := ValidateComposition(members, interdisciplinary)
	return ok, problems, nil
}

// ────────────────────── CheckPresidentAvailability ──────────────────────

// PresidentAvailability answer of CheckPresidentAvailability.
type PresidentAvailability struct {
	Available bool
	Count     int64
	Limit     int
	Message   string
}

// CheckPresidentAvailability reports whether teacher can still preside a
// defense of the department on date.
func (v *JuryCompositionValidator) CheckPresidentAvailability(ctx context.Context, teacher *model.User, date time.Time, department *model.Department) (*PresidentAvailability, error) {
	res := &PresidentAvailability{Limit: v.maxPresidencies}
	if !teacher.CanPresideJury() {
		res.Message = (&EligibilityError{
			TeacherName: teacher.Name, UserRole: teacher.Role, Title: teacher.AcademicTitle, JuryRole: model.JuryPresident,
		}).Error()
		return res, nil
	}

	count, err := v.jury.CountPresidencies(ctx, teacher.UserID, date, department.DepartmentID, "")
	if err != nil {
		return nil, err
	}
	res.Count = count
	res.Available = count < int64(v.maxPresidencies)
	if res.Available {
		res.Message = fmt.Sprintf("%d of %d presidencies left on %s in department %s",
			int64(v.maxPresidencies)-count, v.maxPresidencies, model.FormatDate(date), department.Code)
	} else {
		res.Message = (&QuotaExceededError{
			TeacherName: teacher.Name, Date: date, DepartmentCode: department.Code, Count: count, Limit: v.maxPresidencies,
		}).Error()
	}
	return res, nil
}
