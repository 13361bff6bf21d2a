package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/event"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
)

func setupChangeRequests(t *testing.T) (*world, *changeRequestService, *recordingPublisher, *model.Project, *model.Defense) {
	t.Helper()
	w := newWorld(t)
	events := &recordingPublisher{}
	svc := NewChangeRequestService(w.repo, testDefenseConfig(), events, zap.NewNop()).(*changeRequestService)
	svc.now = func() time.Time { return fixedNow }
	project := w.addProject(t, "Moved on request", w.git, w.maPetit, nil, nil)
	d := w.addDefense(t, project, defenseDay, "09:00", 60, w.roomA101, model.DefenseScheduled)
	return w, svc, events, project, d
}

func TestCreateChangeRequest(t *testing.T) {
	w, svc, events, project, d := setupChangeRequests(t)
	ctx := context.Background()

	resp, err := svc.Create(ctx, d.DefenseID, &dto.CreateChangeRequestRequest{
		ProposedDate:      "2025-06-16",
		ProposedStartTime: "14:00",
		Reason:            "internship abroad until the 15th",
	}, project.StudentID)
	if err != nil {
		t.Fatalf("Create should succeed for the student: %v", err)
	}
	if resp.Status != string(model.ChangeRequestPending) || resp.ProposedDate != "2025-06-16" || resp.ProposedStartTime != "14:00" {
		t.Errorf("unexpected change request %+v", resp)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %v", events.kinds())
	}
	e := events.events[0]
	if e.Kind != event.ChangeRequestCreated || e.ChangeRequestID != resp.ID || e.RequesterID != project.StudentID {
		t.Errorf("unexpected event %+v", e)
	}

	// The supervisor may ask too.
	if _, err := svc.Create(ctx, d.DefenseID, &dto.CreateChangeRequestRequest{ProposedRoomID: w.roomB202.RoomID, Reason: "bigger room"}, w.maPetit.UserID); err != nil {
		t.Errorf("Create should succeed for the supervisor: %v", err)
	}

	pending, err := svc.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 pending requests, got %d", len(pending))
	}
}

func TestCreateChangeRequest_Rejections(t *testing.T) {
	w, svc, _, project, d := setupChangeRequests(t)
	ctx := context.Background()
	done := w.addDefense(t, w.addProject(t, "Done", w.git, w.maPetit, nil, nil), defenseDay, "14:00", 60, w.roomA101, model.DefenseCompleted)

	cases := []struct {
		name    string
		defense string
		req     *dto.CreateChangeRequestRequest
		caller  string
		want    error
	}{
		{"empty proposal", d.DefenseID, &dto.CreateChangeRequestRequest{Reason: "nothing"}, project.StudentID, ErrEmptyProposal},
		{"stranger", d.DefenseID, &dto.CreateChangeRequestRequest{ProposedStartTime: "10:00", Reason: "why not"}, w.mcBernard.UserID, ErrChangeRequestForbidden},
		{"closed defense", done.DefenseID, &dto.CreateChangeRequestRequest{ProposedStartTime: "10:00", Reason: "too late"}, w.maPetit.UserID, ErrDefenseNotOpen},
		{"unknown defense", "missing", &dto.CreateChangeRequestRequest{ProposedStartTime: "10:00", Reason: "missing"}, project.StudentID, ErrDefenseNotFound},
		{"unknown room", d.DefenseID, &dto.CreateChangeRequestRequest{ProposedRoomID: "missing", Reason: "room"}, project.StudentID, ErrRoomNotFound},
		{"bad clock", d.DefenseID, &dto.CreateChangeRequestRequest{ProposedStartTime: "25:00", Reason: "clock"}, project.StudentID, model.ErrInvalidClock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.defense, tc.req, tc.caller); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestReviewChangeRequest_ApproveMovesDefense(t *testing.T) {
	w, svc, events, project, d := setupChangeRequests(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, d.DefenseID, &dto.CreateChangeRequestRequest{
		ProposedStartTime: "14:00",
		ProposedRoomID:    w.roomB202.RoomID,
		Reason:            "afternoon please",
	}, project.StudentID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	resp, err := svc.Review(ctx, created.ID, &dto.ReviewChangeRequestRequest{Approve: true, Comment: "ok"}, w.gitAdmin.UserID)
	if err != nil {
		t.Fatalf("Review should succeed: %v", err)
	}
	if resp.Status != string(model.ChangeRequestApproved) || resp.ReviewedBy != w.gitAdmin.UserID || resp.ReviewedAt == "" {
		t.Errorf("unexpected reviewed request %+v", resp)
	}

	moved := w.loadDefense(t, d.DefenseID)
	if moved.StartTime != "14:00" || moved.DurationMinutes != 60 || moved.RoomName() != "B202" {
		t.Errorf("defense not moved: %s +%d in %s", moved.StartTime, moved.DurationMinutes, moved.RoomName())
	}
	if moved.Status != model.DefenseRescheduled || moved.Version != 2 {
		t.Errorf("expected rescheduled version 2, got %s v%d", moved.Status, moved.Version)
	}

	kinds := events.kinds()
	if len(kinds) != 3 || kinds[1] != event.ChangeRequestReviewed || kinds[2] != event.DefenseRescheduled {
		t.Errorf("expected created, reviewed, rescheduled, got %v", kinds)
	}
	if !events.events[1].Approved || events.events[1].RequesterID != project.StudentID {
		t.Errorf("review event should be approved for the student, got %+v", events.events[1])
	}

	if _, err := svc.Review(ctx, created.ID, &dto.ReviewChangeRequestRequest{Approve: false}, w.gitAdmin.UserID); !errors.Is(err, ErrChangeRequestReviewed) {
		t.Errorf("expected ErrChangeRequestReviewed, got %v", err)
	}
}

func TestReviewChangeRequest_ApprovalHonoursRoomConflicts(t *testing.T) {
	w, svc, _, project, d := setupChangeRequests(t)
	ctx := context.Background()
	w.addDefense(t, w.addProject(t, "Blocker", w.git, w.maPetit, nil, nil), defenseDay, "14:00", 60, w.roomA101, model.DefenseScheduled)

	created, err := svc.Create(ctx, d.DefenseID, &dto.CreateChangeRequestRequest{ProposedStartTime: "14:30", Reason: "afternoon please"}, project.StudentID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err = svc.Review(ctx, created.ID, &dto.ReviewChangeRequestRequest{Approve: true}, w.gitAdmin.UserID)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}

	stored, _ := w.repo.ChangeRequest.GetByID(ctx, created.ID)
	if stored.Status != model.ChangeRequestPending {
		t.Errorf("a failed approval leaves the request pending, got %s", stored.Status)
	}
	if got := w.loadDefense(t, d.DefenseID); got.StartTime != "09:00" {
		t.Errorf("a failed approval leaves the defense in place, got %s", got.StartTime)
	}
}

func TestReviewChangeRequest_RejectAndPermissions(t *testing.T) {
	w, svc, events, project, d := setupChangeRequests(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, d.DefenseID, &dto.CreateChangeRequestRequest{ProposedDate: "2025-06-20", Reason: "exam clash"}, project.StudentID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Review(ctx, created.ID, &dto.ReviewChangeRequestRequest{Approve: true}, w.gesiAdmin.UserID); !errors.Is(err, ErrDefenseForbidden) {
		t.Errorf("expected ErrDefenseForbidden for another department, got %v", err)
	}
	if _, err := svc.Review(ctx, "missing", &dto.ReviewChangeRequestRequest{}, w.gitAdmin.UserID); !errors.Is(err, ErrChangeRequestNotFound) {
		t.Errorf("expected ErrChangeRequestNotFound, got %v", err)
	}

	resp, err := svc.Review(ctx, created.ID, &dto.ReviewChangeRequestRequest{Approve: false, Comment: "keep the date"}, w.gitAdmin.UserID)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if resp.Status != string(model.ChangeRequestRejected) || resp.ReviewComment != "keep the date" {
		t.Errorf("unexpected rejected request %+v", resp)
	}
	if got := w.loadDefense(t, d.DefenseID); model.FormatDate(got.Date) != defenseDay {
		t.Errorf("a rejection must not move the defense, got %s", model.FormatDate(got.Date))
	}
	last := events.events[len(events.events)-1]
	if last.Kind != event.ChangeRequestReviewed || last.Approved {
		t.Errorf("expected a rejected review event, got %+v", last)
	}

	list, err := svc.ListByDefense(ctx, d.DefenseID)
	if err != nil {
		t.Fatalf("ListByDefense: %v", err)
	}
	if len(list) != 1 || list[0].Requester == nil || list[0].Requester.ID != project.StudentID {
		t.Errorf("unexpected history %+v", list)
	}
}
