package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/database"
)

// ── room errors ──

var (
	ErrRoomNameExists = errors.New("a room with this name already exists")
	ErrRoomInUse      = errors.New("room is referenced by defenses and cannot be deleted")
	ErrRoomForbidden  = errors.New("you cannot manage rooms of this department")
)

// RoomService room management.
type RoomService interface {
	Create(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error)
	GetByID(ctx context.Context, id string) (*dto.RoomResponse, error)
	List(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
}

type roomService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRoomService creates a RoomService.
func NewRoomService(repo *repository.Repository, logger *zap.Logger) RoomService {
	return &roomService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *roomService) Create(ctx context.Context, req *dto.CreateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}

	deptID, err := s.department(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageDepartment(deptID) {
		return nil, ErrRoomForbidden
	}
	if err := s.checkName(ctx, req.Name); err != nil {
		return nil, err
	}

	room := &model.Room{
		Name:         req.Name,
		DepartmentID: deptID,
		Capacity:     req.Capacity,
		Equipment:    req.Equipment,
		IsAvailable:  true,
	}
	room.CreatedBy = &callerID
	room.UpdatedBy = &callerID

	if err := s.repo.Room.Create(ctx, room); err != nil {
		if database.IsUniqueViolation(err, database.ConstraintRoomName) {
			return nil, ErrRoomNameExists
		}
		s.logger.Error("create room failed", zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, room.RoomID)
}

// ────────────────────── GetByID / List ──────────────────────

func (s *roomService) GetByID(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toRoomResponse(room), nil
}

func (s *roomService) List(ctx context.Context, req *dto.RoomListRequest) ([]dto.RoomResponse, error) {
	rooms, err := s.repo.Room.List(ctx, repository.RoomFilter{
		DepartmentID:       req.DepartmentID,
		IncludeUnavailable: req.IncludeUnavailable,
	})
	if err != nil {
		s.logger.Error("list rooms failed", zap.Error(err))
		return nil, err
	}

	result := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		result = append(result, *toRoomResponse(&rooms[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *roomService) Update(ctx context.Context, id string, req *dto.UpdateRoomRequest, callerID string) (*dto.RoomResponse, error) {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return nil, err
	}
	room, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.CanManageDepartment(room.DepartmentID) {
		return nil, ErrRoomForbidden
	}

	if req.Name != nil && *req.Name != room.Name {
		if err := s.checkName(ctx, *req.Name); err != nil {
			return nil, err
		}
		room.Name = *req.Name
	}
	if req.DepartmentID != nil {
		deptID, err := s.department(ctx, *req.DepartmentID)
		if err != nil {
			return nil, err
		}
		if !caller.CanManageDepartment(deptID) {
			return nil, ErrRoomForbidden
		}
		room.DepartmentID = deptID
		room.Department = nil
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Equipment != nil {
		room.Equipment = *req.Equipment
	}
	if req.IsAvailable != nil {
		room.IsAvailable = *req.IsAvailable
	}
	room.UpdatedBy = &callerID

	if err := s.repo.Room.Update(ctx, room); err != nil {
		if database.IsUniqueViolation(err, database.ConstraintRoomName) {
			return nil, ErrRoomNameExists
		}
		s.logger.Error("update room failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

// Delete refuses while any defense, cancelled ones included, references the room.
func (s *roomService) Delete(ctx context.Context, id string, callerID string) error {
	caller, err := loadCaller(ctx, s.repo, callerID)
	if err != nil {
		return err
	}
	room, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanManageDepartment(room.DepartmentID) {
		return ErrRoomForbidden
	}

	count, err := s.repo.Room.CountDefenses(ctx, id)
	if err != nil {
		s.logger.Error("count room defenses failed", zap.String("id", id), zap.Error(err))
		return err
	}
	if count > 0 {
		return ErrRoomInUse
	}

	if err := s.repo.Room.Delete(ctx, id, callerID); err != nil {
		s.logger.Error("delete room failed", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ── helpers ──

func (s *roomService) get(ctx context.Context, id string) (*model.Room, error) {
	room, err := s.repo.Room.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		s.logger.Error("get room failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return room, nil
}

func (s *roomService) checkName(ctx context.Context, name string) error {
	if _, err := s.repo.Room.GetByName(ctx, name); err == nil {
		return ErrRoomNameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// department resolves an optional department id; empty means GENERAL.
func (s *roomService) department(ctx context.Context, id string) (*string, error) {
	if id == "" {
		return nil, nil
	}
	dept, err := s.repo.Department.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept.DepartmentID, nil
}

func toRoomResponse(r *model.Room) *dto.RoomResponse {
	return &dto.RoomResponse{
		ID:             r.RoomID,
		Name:           r.Name,
		DepartmentID:   r.DepartmentID,
		DepartmentCode: r.DepartmentCode(),
		Capacity:       r.Capacity,
		Equipment:      r.Equipment,
		IsAvailable:    r.IsAvailable,
		CreatedAt:      formatTime(r.CreatedAt),
		UpdatedAt:      formatTime(r.UpdatedAt),
	}
}
