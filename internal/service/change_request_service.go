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
)

// ── change request errors ──

var (
	ErrChangeRequestNotFound  = errors.New("change request not found")
	ErrChangeRequestForbidden = errors.New("only the student or a supervisor of the project may request a change")
	ErrChangeRequestReviewed  = errors.New("change request has already been reviewed")
	ErrEmptyProposal          = errors.New("propose at least a new date, time, duration or room")
)

// ChangeRequestService requests to move a defense and their review.
type ChangeRequestService interface {
	Create(ctx context.Context, defenseID string, req *dto.CreateChangeRequestRequest, callerID string) (*dto.ChangeRequestResponse, error)
	Review(ctx context.Context, id string, req *dto.ReviewChangeRequestRequest, callerID string) (*dto.ChangeRequestResponse, error)
	ListByDefense(ctx context.Context, defenseID string) ([]dto.ChangeRequestResponse, error)
	ListPending(ctx context.Context) ([]dto.ChangeRequestResponse, error)
}

type changeRequestService struct {
	repo   *repository.Repository
	cfg    *config.DefenseConfig
	events event.Publisher
	logger *zap.Logger
	now    func() time.Time
}

// NewChangeRequestService creates a ChangeRequestService.
func NewChangeRequestService(repo *repository.Repository, cfg *config.DefenseConfig, events event.Publisher, logger *zap.Logger) ChangeRequestService {
	return &changeRequestService{repo: repo, cfg: cfg, events: events, logger: logger, now: time.Now}
}

// ────────────────────── Create ──────────────────────

func (s *changeRequestService) Create(ctx context.Context, defenseID string, req *dto.CreateChangeRequestRequest, callerID string) (*dto.ChangeRequestResponse, error) {
	if req.ProposedDate == "" && req.ProposedStartTime == "" && req.ProposedDuration == 0 &&
		req.ProposedRoomID == "" && req.ProposedLocation == "" {
		return nil, ErrEmptyProposal
	}

	defense, err := s.repo.Defense.GetByID(ctx, defenseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDefenseNotFound
		}
		s.logger.Error("get defense failed", zap.String("id", defenseID), zap.Error(err))
		return nil, err
	}
	if !defense.IsOpen() {
		return nil, ErrDefenseNotOpen
	}
	if !isProjectParticipant(defense.Project, callerID) {
		return nil, ErrChangeRequestForbidden
	}

	cr := &model.DefenseChangeRequest{
		DefenseID:        defense.DefenseID,
		RequestedBy:      callerID,
		ProposedLocation: req.ProposedLocation,
		Reason:           req.Reason,
		Status:           model.ChangeRequestPending,
	}
	if req.ProposedDate != "" {
		d, err := model.ParseDate(req.ProposedDate)
		if err != nil {
			return nil, err
		}
		cr.ProposedDate = &d
	}
	if req.ProposedStartTime != "" {
		if _, err := model.ParseClock(req.ProposedStartTime); err != nil {
			return nil, err
		}
		cr.ProposedStartTime = &req.ProposedStartTime
	}
	if req.ProposedDuration > 0 {
		cr.ProposedDuration = &req.ProposedDuration
	}
	if req.ProposedRoomID != "" {
		if _, err := s.repo.Room.GetByID(ctx, req.ProposedRoomID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrRoomNotFound
			}
			return nil, err
		}
		cr.ProposedRoomID = &req.ProposedRoomID
	}
	cr.CreatedBy = &callerID
	cr.UpdatedBy = &callerID

	if err := s.repo.ChangeRequest.Create(ctx, cr); err != nil {
		s.logger.Error("create change request failed", zap.String("id", defenseID), zap.Error(err))
		return nil, err
	}

	e := event.New(event.ChangeRequestCreated, defense.DefenseID, callerID)
	e.ChangeRequestID = cr.ChangeRequestID
	e.RequesterID = callerID
	s.events.Publish(ctx, e)

	return toChangeRequestResponse(cr), nil
}

// ────────────────────── Review ──────────────────────

// Review approval moves the defense through the same checks as a manual
// reschedule; any rule violation aborts the review.
func (s *changeRequestService) Review(ctx context.Context, id string, req *dto.ReviewChangeRequestRequest, callerID string) (*dto.ChangeRequestResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	var cr *model.DefenseChangeRequest
	err = s.repo.InTx(ctx, func(tx *repository.Repository) error {
		var err error
		cr, err = tx.ChangeRequest.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChangeRequestNotFound
			}
			return err
		}
		if cr.Status != model.ChangeRequestPending {
			return ErrChangeRequestReviewed
		}

		defense, err := lockDefense(ctx, tx, cr.DefenseID)
		if err != nil {
			return err
		}
		deptID := defense.Project.DepartmentID()
		if !caller.CanManageDepartment(&deptID) {
			return ErrDefenseForbidden
		}

		if req.Approve {
			if err := s.apply(ctx, tx, defense, cr, callerID); err != nil {
				return err
			}
			cr.Status = model.ChangeRequestApproved
		} else {
			cr.Status = model.ChangeRequestRejected
		}

		reviewedAt := s.now().UTC()
		cr.ReviewedBy = &callerID
		cr.ReviewComment = req.Comment
		cr.ReviewedAt = &reviewedAt
		cr.UpdatedBy = &callerID
		return tx.ChangeRequest.Update(ctx, cr)
	})
	if err != nil {
		logUnexpected(s.logger, "review change request", id, err)
		return nil, err
	}

	e := event.New(event.ChangeRequestReviewed, cr.DefenseID, callerID)
	e.ChangeRequestID = cr.ChangeRequestID
	e.RequesterID = cr.RequestedBy
	e.Approved = cr.Status == model.ChangeRequestApproved
	events := []event.Event{e}
	if e.Approved {
		events = append(events, event.New(event.DefenseRescheduled, cr.DefenseID, callerID))
	}
	s.events.Publish(ctx, events...)

	return toChangeRequestResponse(cr), nil
}

func (s *changeRequestService) apply(ctx context.Context, tx *repository.Repository, defense *model.Defense, cr *model.DefenseChangeRequest, callerID string) error {
	current, err := defense.Slot()
	if err != nil {
		return err
	}
	date := current.Date
	if cr.ProposedDate != nil {
		date = *cr.ProposedDate
	}
	start := current.StartClock()
	if cr.ProposedStartTime != nil {
		start = *cr.ProposedStartTime
	}
	duration := defense.DurationMinutes
	if cr.ProposedDuration != nil {
		duration = *cr.ProposedDuration
	}
	slot, err := model.NewSlot(date, start, duration)
	if err != nil {
		return err
	}

	var roomID, roomLabel string
	if cr.ProposedRoomID != nil {
		roomID = *cr.ProposedRoomID
	} else if cr.ProposedLocation != "" {
		roomLabel = cr.ProposedLocation
	}
	return moveDefense(ctx, tx, s.cfg, defense, slot, roomID, roomLabel, callerID)
}

// ────────────────────── List ──────────────────────

func (s *changeRequestService) ListByDefense(ctx context.Context, defenseID string) ([]dto.ChangeRequestResponse, error) {
	items, err := s.repo.ChangeRequest.ListByDefense(ctx, defenseID)
	if err != nil {
		s.logger.Error("list change requests failed", zap.String("id", defenseID), zap.Error(err))
		return nil, err
	}
	return toChangeRequestResponses(items), nil
}

func (s *changeRequestService) ListPending(ctx context.Context) ([]dto.ChangeRequestResponse, error) {
	items, err := s.repo.ChangeRequest.ListByStatus(ctx, model.ChangeRequestPending)
	if err != nil {
		s.logger.Error("list pending change requests failed", zap.Error(err))
		return nil, err
	}
	return toChangeRequestResponses(items), nil
}

// ── helpers ──

func isProjectParticipant(p *model.Project, userID string) bool {
	if p == nil {
		return false
	}
	if p.StudentID == userID {
		return true
	}
	for _, id := range p.SupervisorIDs() {
		if id == userID {
			return true
		}
	}
	return false
}

func toChangeRequestResponses(items []model.DefenseChangeRequest) []dto.ChangeRequestResponse {
	out := make([]dto.ChangeRequestResponse, 0, len(items))
	for i := range items {
		out = append(out, *toChangeRequestResponse(&items[i]))
	}
	return out
}

func toChangeRequestResponse(cr *model.DefenseChangeRequest) *dto.ChangeRequestResponse {
	resp := &dto.ChangeRequestResponse{
		ID:               cr.ChangeRequestID,
		DefenseID:        cr.DefenseID,
		Requester:        toUserBrief(cr.Requester),
		ProposedLocation: cr.ProposedLocation,
		Reason:           cr.Reason,
		Status:           string(cr.Status),
		ReviewComment:    cr.ReviewComment,
		CreatedAt:        formatTime(cr.CreatedAt),
	}
	if cr.ProposedDate != nil {
		resp.ProposedDate = model.FormatDate(*cr.ProposedDate)
	}
	if cr.ProposedStartTime != nil {
		resp.ProposedStartTime = *cr.ProposedStartTime
	}
	if cr.ProposedDuration != nil {
		resp.ProposedDuration = *cr.ProposedDuration
	}
	if cr.ProposedRoomID != nil {
		resp.ProposedRoomID = *cr.ProposedRoomID
	}
	if cr.ReviewedBy != nil {
		resp.ReviewedBy = *cr.ReviewedBy
	}
	if cr.ReviewedAt != nil {
		resp.ReviewedAt = formatTime(*cr.ReviewedAt)
	}
	return resp
}
