package service

import (
	"context"
	"errors"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
)

var (
	ErrRoomUnavailable = errors.New("room is marked unavailable")
)

// RoomAvailabilityChecker decides whether a room is free for a slot.
type RoomAvailabilityChecker struct {
	defenses repository.DefenseRepository
}

// NewRoomAvailabilityChecker reads bookings through defenses, which may be
// bound to a transaction.
func NewRoomAvailabilityChecker(defenses repository.DefenseRepository) *RoomAvailabilityChecker {
	return &RoomAvailabilityChecker{defenses: defenses}
}

// Conflicts returns the non-cancelled defenses of the room overlapping slot,
// ignoring excludeDefenseID (the booking being edited).
func (c *RoomAvailabilityChecker) Conflicts(ctx context.Context, roomID string, slot model.Slot, excludeDefenseID string) ([]model.Defense, error) {
	bookings, err := c.defenses.ListRoomBookings(ctx, roomID, slot.Date, excludeDefenseID)
	if err != nil {
		return nil, err
	}
	return overlapping(slot, bookings), nil
}

// IsAvailable true when no booking of the room overlaps slot.
func (c *RoomAvailabilityChecker) IsAvailable(ctx context.Context, roomID string, slot model.Slot, excludeDefenseID string) (bool, error) {
	conflicts, err := c.Conflicts(ctx, roomID, slot, excludeDefenseID)
	if err != nil {
		return false, err
	}
	return len(conflicts) == 0, nil
}

// Check returns ErrRoomUnavailable, a *ConflictError, or nil.
func (c *RoomAvailabilityChecker) Check(ctx context.Context, room *model.Room, slot model.Slot, excludeDefenseID string) error {
	if !room.IsAvailable {
		return ErrRoomUnavailable
	}
	conflicts, err := c.Conflicts(ctx, room.RoomID, slot, excludeDefenseID)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	return newConflictError("room", room.Name, slot, conflicts)
}

func newConflictError(resource, name string, slot model.Slot, conflicts []model.Defense) *ConflictError {
	e := &ConflictError{Resource: resource, Name: name, Slot: slot}
	for i := range conflicts {
		e.Conflicts = append(e.Conflicts, bookingOf(&conflicts[i]))
	}
	return e
}

// overlapping keeps the occupying bookings whose slot intersects slot.
// Rows with an unparsable slot cannot collide and are skipped.
func overlapping(slot model.Slot, bookings []model.Defense) []model.Defense {
	var out []model.Defense
	for _, b := range bookings {
		if !b.OccupiesRoom() {
			continue
		}
		other, err := b.Slot()
		if err != nil {
			continue
		}
		if slot.Overlaps(other) {
			out = append(out, b)
		}
	}
	return out
}
