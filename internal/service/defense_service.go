package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/config"
	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/event"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	pkgerrors "github.com/AcMongue/gestion-pfe-sub000/pkg/errors"
)

// ── defense errors ──

var (
	ErrDefenseNotFound      = errors.New("defense not found")
	ErrDefenseAlreadyExists = errors.New("this project already has a defense")
	ErrDefenseForbidden     = errors.New("you cannot manage defenses of this department")
	ErrDefenseNotOpen       = errors.New("defense can no longer be changed")
	ErrDefenseNotStarted    = errors.New("defense start time has not been reached")
	ErrProjectNotFound      = errors.New("project not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrRoomRequired         = errors.New("either room_id or room_label is required")
)

// DefenseService defense scheduling.
type DefenseService interface {
	Schedule(ctx context.Context, req *dto.ScheduleDefenseRequest, callerID string) (*dto.DefenseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.DefenseResponse, error)
	List(ctx context.Context, req *dto.DefenseListRequest) ([]dto.DefenseResponse, int64, error)
	Reschedule(ctx context.Context, id string, req *dto.RescheduleDefenseRequest, callerID string) (*dto.DefenseResponse, error)
	Cancel(ctx context.Context, id string, req *dto.CancelDefenseRequest, callerID string) (*dto.DefenseResponse, error)
	Start(ctx context.Context, id string, callerID string) (*dto.DefenseResponse, error)
	CheckRoomAvailability(ctx context.Context, roomID string, req *dto.RoomAvailabilityRequest) (*dto.RoomAvailabilityResponse, error)
	ValidateComposition(ctx context.Context, id string) (*dto.CompositionResponse, error)
	GradeSummary(ctx context.Context, id string) (*dto.GradeSummaryResponse, error)
}

type defenseService struct {
	repo   *repository.Repository
	cfg    *config.DefenseConfig
	events event.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewDefenseService creates a DefenseService.
func NewDefenseService(repo *repository.Repository, cfg *config.DefenseConfig, events event.Publisher, logger *zap.Logger) DefenseService {
	return &defenseService{repo: repo, cfg: cfg, events: events, logger: logger, now: time.Now}
}

// ────────────────────── Schedule ──────────────────────

func (s *defenseService) Schedule(ctx context.Context, req *dto.ScheduleDefenseRequest, callerID string) (*dto.DefenseResponse, error) {
	slot, err := s.requestSlot(req.Date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	if req.RoomID == "" && req.RoomLabel == "" {
		return nil, ErrRoomRequired
	}

	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	var defense *model.Defense
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		project, err := tx.Project.GetByID(ctx, req.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		deptID := project.DepartmentID()
		if !caller.CanManageDepartment(&deptID) {
			return ErrDefenseForbidden
		}

		if _, err := tx.Defense.GetByProject(ctx, project.ProjectID); err == nil {
			return ErrDefenseAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		defense = &model.Defense{
			ProjectID:           project.ProjectID,
			Status:              model.DefenseScheduled,
			PresentationMinutes: orDefault(req.PresentationMinutes, 15),
			QuestionsMinutes:    orDefault(req.QuestionsMinutes, 15),
			Version:             1,
			Project:             project,
		}
		defense.SetSlot(slot)
		defense.CreatedBy = &callerID
		defense.UpdatedBy = &callerID

		if err := assignRoom(ctx, tx, defense, slot, req.RoomID, req.RoomLabel); err != nil {
			return err
		}

		return translateStorageError(tx.Defense.Create(ctx, defense), defense, defense.RoomName())
	})
	if err != nil {
		return nil, s.storageFailure("schedule defense", req.ProjectID, err)
	}

	s.events.Publish(ctx, event.New(event.DefenseScheduled, defense.DefenseID, callerID))
	return toDefenseResponse(defense), nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *defenseService) GetByID(ctx context.Context, id string) (*dto.DefenseResponse, error) {
	defense, err := s.getDefense(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.JuryMember.ListByDefense(ctx, id)
	if err != nil {
		s.logger.Error("list jury failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	defense.JuryMembers = members
	return toDefenseResponse(defense), nil
}

func (s *defenseService) List(ctx context.Context, req *dto.DefenseListRequest) ([]dto.DefenseResponse, int64, error) {
	filter := repository.DefenseFilter{
		RoomID:       req.RoomID,
		DepartmentID: req.DepartmentID,
		TeacherID:    req.TeacherID,
		Status:       model.DefenseStatus(req.Status),
		Offset:       req.GetOffset(),
		Limit:        req.GetPageSize(),
	}
	if req.DateFrom != "" {
		from, err := model.ParseDate(req.DateFrom)
		if err != nil {
			return nil, 0, err
		}
		filter.From = &from
	}
	if req.DateTo != "" {
		to, err := model.ParseDate(req.DateTo)
		if err != nil {
			return nil, 0, err
		}
		filter.To = &to
	}

	defenses, total, err := s.repo.Defense.List(ctx, filter)
	if err != nil {
		s.logger.Error("list defenses failed", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.DefenseResponse, 0, len(defenses))
	for i := range defenses {
		result = append(result, *toDefenseResponse(&defenses[i]))
	}
	return result, total, nil
}

// ────────────────────── Reschedule ──────────────────────

func (s *defenseService) Reschedule(ctx context.Context, id string, req *dto.RescheduleDefenseRequest, callerID string) (*dto.DefenseResponse, error) {
	slot, err := s.requestSlot(req.Date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	var defense *model.Defense
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		defense, err = s.lockManagedDefense(ctx, tx, id, caller)
		if err != nil {
			return err
		}
		if defense.Version != req.Version {
			return pkgerrors.ErrOptimisticLock
		}
		return moveDefense(ctx, tx, s.cfg, defense, slot, req.RoomID, req.RoomLabel, callerID)
	})
	if err != nil {
		return nil, s.storageFailure("reschedule defense", id, err)
	}

	s.events.Publish(ctx, event.New(event.DefenseRescheduled, defense.DefenseID, callerID))
	return toDefenseResponse(defense), nil
}

// moveDefense re-runs the room and jury checks for slot, then stores the defense as
// rescheduled. An empty roomID and roomLabel keep the current room.
func moveDefense(ctx context.Context, tx *repository.Repository, cfg *config.DefenseConfig, defense *model.Defense, slot model.Slot, roomID, roomLabel, callerID string) error {
	if !defense.IsOpen() {
		return ErrDefenseNotOpen
	}

	if roomID == "" && roomLabel == "" {
		if defense.RoomID != nil {
			roomID = *defense.RoomID
		} else {
			roomLabel = defense.RoomLabel
		}
	}
	if err := assignRoom(ctx, tx, defense, slot, roomID, roomLabel); err != nil {
		return err
	}

	members, err := tx.JuryMember.ListByDefense(ctx, defense.DefenseID)
	if err != nil {
		return err
	}
	validator := NewJuryCompositionValidator(tx.JuryMember, cfg.MaxPresidenciesPerDay)
	for i := range members {
		teacher := members[i].Teacher
		if teacher == nil {
			teacher = &model.User{UserID: members[i].TeacherID, Name: members[i].TeacherID}
		}
		if err := validator.CheckTeacherSchedule(ctx, teacher, slot, defense.DefenseID); err != nil {
			return err
		}
		if !slot.Date.Equal(defense.Date) {
			if err := validator.CheckPresidencyMove(ctx, defense, &members[i], teacher, slot.Date); err != nil {
				return err
			}
		}
	}

	defense.SetSlot(slot)
	defense.Status = model.DefenseRescheduled
	defense.UpdatedBy = &callerID
	return translateStorageError(tx.Defense.Update(ctx, defense), defense, defense.RoomName())
}

// assignRoom attaches the room (after the availability check) or the legacy label.
func assignRoom(ctx context.Context, tx *repository.Repository, defense *model.Defense, slot model.Slot, roomID, roomLabel string) error {
	if roomID == "" {
		defense.RoomID = nil
		defense.Room = nil
		defense.RoomLabel = roomLabel
		return nil
	}

	room, err := tx.Room.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	if err := NewRoomAvailabilityChecker(tx.Defense).Check(ctx, room, slot, defense.DefenseID); err != nil {
		return err
	}
	defense.RoomID = &room.RoomID
	defense.Room = room
	defense.RoomLabel = ""
	return nil
}

// ────────────────────── Cancel / Start ──────────────────────

func (s *defenseService) Cancel(ctx context.Context, id string, req *dto.CancelDefenseRequest, callerID string) (*dto.DefenseResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	var defense *model.Defense
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		defense, err = s.lockManagedDefense(ctx, tx, id, caller)
		if err != nil {
			return err
		}
		if defense.Version != req.Version {
			return pkgerrors.ErrOptimisticLock
		}
		if defense.Status == model.DefenseCancelled || defense.Status == model.DefenseCompleted {
			return ErrDefenseNotOpen
		}
		defense.Status = model.DefenseCancelled
		defense.CancellationReason = req.Reason
		defense.UpdatedBy = &callerID
		return tx.Defense.Update(ctx, defense)
	})
	if err != nil {
		return nil, s.storageFailure("cancel defense", id, err)
	}

	e := event.New(event.DefenseCancelled, defense.DefenseID, callerID)
	e.Reason = req.Reason
	s.events.Publish(ctx, e)
	return toDefenseResponse(defense), nil
}

func (s *defenseService) Start(ctx context.Context, id string, callerID string) (*dto.DefenseResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	var defense *model.Defense
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		defense, err = s.lockManagedDefense(ctx, tx, id, caller)
		if err != nil {
			return err
		}
		if !defense.IsOpen() {
			return ErrDefenseNotOpen
		}
		if !defense.CanBeGraded(s.wallClock()) {
			return ErrDefenseNotStarted
		}
		valid, problems, err := NewJuryCompositionValidator(tx.JuryMember, s.cfg.MaxPresidenciesPerDay).ValidateDefense(ctx, defense)
		if err != nil {
			return err
		}
		if !valid {
			return &CompositionError{Problems: problems}
		}
		defense.Status = model.DefenseInProgress
		defense.UpdatedBy = &callerID
		return tx.Defense.Update(ctx, defense)
	})
	if err != nil {
		return nil, s.storageFailure("start defense", id, err)
	}
	return toDefenseResponse(defense), nil
}

// ────────────────────── read-only checks ──────────────────────

func (s *defenseService) CheckRoomAvailability(ctx context.Context, roomID string, req *dto.RoomAvailabilityRequest) (*dto.RoomAvailabilityResponse, error) {
	slot, err := s.requestSlot(req.Date, req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, err
	}

	room, err := s.repo.Room.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("get room failed", zap.String("id", roomID), zap.Error(err))
		return nil, err
	}

	conflicts, err := NewRoomAvailabilityChecker(s.repo.Defense).Conflicts(ctx, room.RoomID, slot, req.ExcludeDefenseID)
	if err != nil {
		s.logger.Error("list room bookings failed", zap.String("id", roomID), zap.Error(err))
		return nil, err
	}

	resp := &dto.RoomAvailabilityResponse{
		RoomID:    room.RoomID,
		RoomName:  room.Name,
		Available: room.IsAvailable && len(conflicts) == 0,
		Conflicts: []dto.BookingResponse{},
	}
	if !room.IsAvailable {
		resp.Reason = ErrRoomUnavailable.Error()
	}
	if len(conflicts) > 0 {
		ce := newConflictError("room", room.Name, slot, conflicts)
		resp.Reason = ce.Error()
		resp.Conflicts = toBookingResponses(ce.Conflicts)
	}
	return resp, nil
}

func (s *defenseService) ValidateComposition(ctx context.Context, id string) (*dto.CompositionResponse, error) {
	defense, err := s.getDefense(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	valid, problems, err := NewJuryCompositionValidator(s.repo.JuryMember, s.cfg.MaxPresidenciesPerDay).ValidateDefense(ctx, defense)
	if err != nil {
		s.logger.Error("validate composition failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return &dto.CompositionResponse{
		DefenseID:           defense.DefenseID,
		IsInterdisciplinary: defense.Project != nil && defense.Project.IsInterdisciplinary(),
		Valid:               valid,
		Errors:              problems,
	}, nil
}

func (s *defenseService) GradeSummary(ctx context.Context, id string) (*dto.GradeSummaryResponse, error) {
	defense, err := s.getDefense(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.JuryMember.ListByDefense(ctx, id)
	if err != nil {
		s.logger.Error("list jury failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return gradeSummary(defense, members, s.wallClock()), nil
}

func gradeSummary(defense *model.Defense, members []model.JuryMember, wallClock time.Time) *dto.GradeSummaryResponse {
	graded := 0
	for i := range members {
		if members[i].HasGraded() {
			graded++
		}
	}
	final := CalculateFinalGrade(members)
	return &dto.GradeSummaryResponse{
		DefenseID:     defense.DefenseID,
		Members:       toJuryMemberResponses(members),
		GradedCount:   graded,
		MemberCount:   len(members),
		FinalGrade:    gradeString(final),
		IsFullyGraded: final.Valid,
		CanBeGraded:   defense.CanBeGraded(wallClock),
	}
}

// ── helpers ──

func (s *defenseService) requestSlot(date, start string, duration int) (model.Slot, error) {
	return parseSlot(s.cfg, date, start, duration)
}

// parseSlot a zero duration takes the configured default.
func parseSlot(cfg *config.DefenseConfig, date, start string, duration int) (model.Slot, error) {
	d, err := model.ParseDate(date)
	if err != nil {
		return model.Slot{}, err
	}
	return model.NewSlot(d, start, orDefault(duration, cfg.DefaultDurationMinutes))
}

func (s *defenseService) wallClock() time.Time {
	return model.WallClock(s.now(), s.cfg.Location())
}

func (s *defenseService) getDefense(ctx context.Context, repo *repository.Repository, id string) (*model.Defense, error) {
	defense, err := repo.Defense.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefenseNotFound
		}
		s.logger.Error("get defense failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return defense, nil
}

func (s *defenseService) lockManagedDefense(ctx context.Context, tx *repository.Repository, id string, caller *model.User) (*model.Defense, error) {
	defense, err := lockDefense(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	deptID := defense.Project.DepartmentID()
	if !caller.CanManageDepartment(&deptID) {
		return nil, ErrDefenseForbidden
	}
	return defense, nil
}

// lockDefense loads the defense with its row locked until the transaction ends.
func lockDefense(ctx context.Context, tx *repository.Repository, id string) (*model.Defense, error) {
	defense, err := tx.Defense.GetByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefenseNotFound
		}
		return nil, err
	}
	if defense.Project == nil {
		return nil, ErrDefenseDepartmentUnknown
	}
	return defense, nil
}

// storageFailure logs unexpected errors; rule rejections pass through silently.
func (s *defenseService) storageFailure(op, id string, err error) error {
	logUnexpected(s.logger, op, id, err)
	return err
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
