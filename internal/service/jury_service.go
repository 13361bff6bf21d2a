package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/config"
	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/event"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/database"
)

// ── jury errors ──

var (
	ErrTeacherNotFound       = errors.New("teacher not found")
	ErrJuryMemberNotFound    = errors.New("jury member not found")
	ErrNotJuryMember         = errors.New("you are not a member of this jury")
	ErrGradingNotOpen        = errors.New("grades can only be submitted once the defense has started")
	ErrInvalidGrade          = errors.New("grade must be between 0 and 20 with at most 2 decimals")
	ErrDefenseAlreadyStarted = errors.New("jury members can only be removed before the defense starts")
)

// JuryService jury building and grading.
type JuryService interface {
	AddMember(ctx context.Context, defenseID string, req *dto.AddJuryMemberRequest, callerID string) (*dto.JuryMemberResponse, error)
	UpdateMemberRole(ctx context.Context, defenseID, memberID string, req *dto.UpdateJuryMemberRequest, callerID string) (*dto.JuryMemberResponse, error)
	RemoveMember(ctx context.Context, defenseID, memberID, callerID string) error
	List(ctx context.Context, defenseID string) (*dto.JuryListResponse, error)
	SubmitGrade(ctx context.Context, defenseID string, req *dto.SubmitGradeRequest, callerID string) (*dto.GradeSummaryResponse, error)
	PresidentAvailability(ctx context.Context, req *dto.PresidentAvailabilityRequest) (*dto.PresidentAvailabilityResponse, error)
	EligiblePresidents(ctx context.Context, req *dto.EligiblePresidentsRequest) ([]dto.EligiblePresidentResponse, error)
}

type juryService struct {
	repo   *repository.Repository
	cfg    *config.DefenseConfig
	events event.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewJuryService creates a JuryService.
func NewJuryService(repo *repository.Repository, cfg *config.DefenseConfig, events event.Publisher, logger *zap.Logger) JuryService {
	return &juryService{repo: repo, cfg: cfg, events: events, logger: logger, now: time.Now}
}

func (s *juryService) validator(repo *repository.Repository) *JuryCompositionValidator {
	return NewJuryCompositionValidator(repo.JuryMember, s.cfg.MaxPresidenciesPerDay)
}

// ────────────────────── AddMember ──────────────────────

func (s *juryService) AddMember(ctx context.Context, defenseID string, req *dto.AddJuryMemberRequest, callerID string) (*dto.JuryMemberResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}
	role := model.JuryRole(req.Role)

	var member *model.JuryMember
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		defense, err := s.lockManagedOpenDefense(ctx, tx, defenseID, caller)
		if err != nil {
			return err
		}

		teacher, err := tx.User.GetByID(ctx, req.TeacherID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeacherNotFound
			}
			return err
		}

		if err := s.validator(tx).ValidateNewMember(ctx, defense, teacher, role); err != nil {
			return err
		}

		member = &model.JuryMember{
			DefenseID: defense.DefenseID,
			TeacherID: teacher.UserID,
			Role:      role,
			Teacher:   teacher,
		}
		member.CreatedBy = &callerID
		member.UpdatedBy = &callerID

		err = tx.JuryMember.Create(ctx, member)
		if database.IsUniqueViolation(err, database.ConstraintJuryUniqueTeacher) {
			return &DuplicateMembershipError{TeacherName: teacher.Name, DefenseID: defense.DefenseID}
		}
		return err
	})
	if err != nil {
		logUnexpected(s.logger, "add jury member", defenseID, err)
		return nil, err
	}

	e := event.New(event.JuryMemberAdded, defenseID, callerID)
	e.TeacherID = member.TeacherID
	e.JuryRole = string(member.Role)
	s.events.Publish(ctx, e)

	resp := toJuryMemberResponse(member)
	return &resp, nil
}

// ────────────────────── UpdateMemberRole ──────────────────────

func (s *juryService) UpdateMemberRole(ctx context.Context, defenseID, memberID string, req *dto.UpdateJuryMemberRequest, callerID string) (*dto.JuryMemberResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}
	role := model.JuryRole(req.Role)

	var member *model.JuryMember
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		defense, err := s.lockManagedOpenDefense(ctx, tx, defenseID, caller)
		if err != nil {
			return err
		}
		member, err = s.memberOf(ctx, tx, defense.DefenseID, memberID)
		if err != nil {
			return err
		}
		if member.Role == role {
			return nil
		}

		teacher := member.Teacher
		if teacher == nil {
			if teacher, err = tx.User.GetByID(ctx, member.TeacherID); err != nil {
				return err
			}
		}
		if err := s.validator(tx).ValidateRoleChange(ctx, defense, member, teacher, role); err != nil {
			return err
		}

		member.Role = role
		member.UpdatedBy = &callerID
		return tx.JuryMember.Update(ctx, member)
	})
	if err != nil {
		logUnexpected(s.logger, "update jury member", memberID, err)
		return nil, err
	}

	resp := toJuryMemberResponse(member)
	return &resp, nil
}

// ────────────────────── RemoveMember ──────────────────────

func (s *juryService) RemoveMember(ctx context.Context, defenseID, memberID, callerID string) error {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return err
	}

	var member *model.JuryMember
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		defense, err := s.lockManagedOpenDefense(ctx, tx, defenseID, caller)
		if err != nil {
			return err
		}
		if defense.CanBeGraded(s.wallClock()) {
			return ErrDefenseAlreadyStarted
		}
		member, err = s.memberOf(ctx, tx, defense.DefenseID, memberID)
		if err != nil {
			return err
		}
		return tx.JuryMember.Delete(ctx, member.JuryMemberID)
	})
	if err != nil {
		logUnexpected(s.logger, "remove jury member", memberID, err)
		return err
	}

	e := event.New(event.JuryMemberRemoved, defenseID, callerID)
	e.TeacherID = member.TeacherID
	e.JuryRole = string(member.Role)
	s.events.Publish(ctx, e)
	return nil
}

// ────────────────────── List ──────────────────────

func (s *juryService) List(ctx context.Context, defenseID string) (*dto.JuryListResponse, error) {
	defense, err := s.repo.Defense.GetByID(ctx, defenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefenseNotFound
		}
		s.logger.Error("get defense failed", zap.String("id", defenseID), zap.Error(err))
		return nil, err
	}

	members, err := s.repo.JuryMember.ListByDefense(ctx, defenseID)
	if err != nil {
		s.logger.Error("list jury failed", zap.String("id", defenseID), zap.Error(err))
		return nil, err
	}

	interdisciplinary := defense.Project != nil && defense.Project.IsInterdisciplinary()
	valid, problems := ValidateComposition(members, interdisciplinary)
	return &dto.JuryListResponse{
		Members: toJuryMemberResponses(members),
		Composition: dto.CompositionResponse{
			DefenseID:           defenseID,
			IsInterdisciplinary: interdisciplinary,
			Valid:               valid,
			Errors:              problems,
		},
	}, nil
}

// ────────────────────── SubmitGrade ──────────────────────

// SubmitGrade records the caller's grade, then recomputes the final grade.
// Grades are only collected from a jury whose composition is valid; a fully
// graded jury finalizes the defense.
func (s *juryService) SubmitGrade(ctx context.Context, defenseID string, req *dto.SubmitGradeRequest, callerID string) (*dto.GradeSummaryResponse, error) {
	if req.Grade == nil || !dto.ValidGrade(*req.Grade) {
		return nil, ErrInvalidGrade
	}
	grade := req.Grade.Round(gradePlaces)

	var (
		defense   *model.Defense
		members   []model.JuryMember
		finalized bool
	)
	wallClock := s.wallClock()
	err := s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		defense, err = lockDefense(ctx, tx, defenseID)
		if err != nil {
			return err
		}
		if defense.Status == model.DefenseCancelled {
			return ErrDefenseNotOpen
		}
		if !defense.CanBeGraded(wallClock) {
			return ErrGradingNotOpen
		}

		member, err := tx.JuryMember.GetByDefenseAndTeacher(ctx, defense.DefenseID, callerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotJuryMember
			}
			return err
		}
		ok, problems, err := s.validator(tx).ValidateDefense(ctx, defense)
		if err != nil {
			return err
		}
		if !ok {
			return &CompositionError{Problems: problems}
		}

		gradedAt := s.now().UTC()
		member.Grade = decimal.NewNullDecimal(grade)
		member.Comments = req.Comments
		member.GradedAt = &gradedAt
		member.UpdatedBy = &callerID
		if err := tx.JuryMember.Update(ctx, member); err != nil {
			return err
		}

		members, err = tx.JuryMember.ListByDefense(ctx, defense.DefenseID)
		if err != nil {
			return err
		}
		final := CalculateFinalGrade(members)
		if !final.Valid {
			return nil
		}
		if defense.FinalGrade.Valid && defense.FinalGrade.Decimal.Equal(final.Decimal) && defense.Status == model.DefenseCompleted {
			return nil
		}
		defense.FinalGrade = final
		defense.Status = model.DefenseCompleted
		defense.UpdatedBy = &callerID
		finalized = true
		return tx.Defense.Update(ctx, defense)
	})
	if err != nil {
		logUnexpected(s.logger, "submit grade", defenseID, err)
		return nil, err
	}

	if finalized {
		e := event.New(event.GradeFinalized, defenseID, callerID)
		e.FinalGrade = defense.FinalGrade.Decimal.StringFixed(gradePlaces)
		s.events.Publish(ctx, e)
	}
	return gradeSummary(defense, members, wallClock), nil
}

// ────────────────────── presidents ──────────────────────

func (s *juryService) PresidentAvailability(ctx context.Context, req *dto.PresidentAvailabilityRequest) (*dto.PresidentAvailabilityResponse, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	teacher, err := s.repo.User.GetByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		return nil, err
	}
	dept, err := s.department(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	res, err := s.validator(s.repo).CheckPresidentAvailability(ctx, teacher, date, dept)
	if err != nil {
		s.logger.Error("count presidencies failed", zap.String("id", teacher.UserID), zap.Error(err))
		return nil, err
	}
	return &dto.PresidentAvailabilityResponse{
		TeacherID:      teacher.UserID,
		Date:           model.FormatDate(date),
		DepartmentCode: dept.Code,
		Available:      res.Available,
		CurrentCount:   res.Count,
		Limit:          res.Limit,
		Message:        res.Message,
	}, nil
}

func (s *juryService) EligiblePresidents(ctx context.Context, req *dto.EligiblePresidentsRequest) ([]dto.EligiblePresidentResponse, error) {
	date, err := model.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	dept, err := s.department(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	professors, _, err := s.repo.User.List(ctx, repository.UserFilter{
		Role:          model.RoleTeacher,
		AcademicTitle: model.TitleProfesseur,
	})
	if err != nil {
		s.logger.Error("list professors failed", zap.Error(err))
		return nil, err
	}

	validator := s.validator(s.repo)
	result := make([]dto.EligiblePresidentResponse, 0, len(professors))
	for i := range professors {
		res, err := validator.CheckPresidentAvailability(ctx, &professors[i], date, dept)
		if err != nil {
			s.logger.Error("count presidencies failed", zap.String("id", professors[i].UserID), zap.Error(err))
			return nil, err
		}
		if !res.Available {
			continue
		}
		result = append(result, dto.EligiblePresidentResponse{
			Teacher:      *toUserBrief(&professors[i]),
			CurrentCount: res.Count,
			Remaining:    int64(res.Limit) - res.Count,
		})
	}
	return result, nil
}

// ── helpers ──

func (s *juryService) wallClock() time.Time {
	return model.WallClock(s.now(), s.cfg.Location())
}

func (s *juryService) department(ctx context.Context, id string) (*model.Department, error) {
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return dept, nil
}

func (s *juryService) lockManagedOpenDefense(ctx context.Context, tx *repository.Repository, id string, caller *model.User) (*model.Defense, error) {
	defense, err := lockDefense(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	deptID := defense.Project.DepartmentID()
	if !caller.CanManageDepartment(&deptID) {
		return nil, ErrDefenseForbidden
	}
	if !defense.IsOpen() {
		return nil, ErrDefenseNotOpen
	}
	return defense, nil
}

func (s *juryService) memberOf(ctx context.Context, tx *repository.Repository, defenseID, memberID string) (*model.JuryMember, error) {
	member, err := tx.JuryMember.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJuryMemberNotFound
		}
		return nil, err
	}
	if member.DefenseID != defenseID {
		return nil, ErrJuryMemberNotFound
	}
	return member, nil
}
