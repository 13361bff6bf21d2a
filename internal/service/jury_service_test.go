package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AcMongue/gestion-pfe-sub000/internal/dto"
	"github.com/AcMongue/gestion-pfe-sub000/internal/event"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
)

func addMemberRequest(teacher *model.User, role model.JuryRole) *dto.AddJuryMemberRequest {
	return &dto.AddJuryMemberRequest{TeacherID: teacher.UserID, Role: string(role)}
}

func gradeRequest(g string) *dto.SubmitGradeRequest {
	d := decimal.RequireFromString(g)
	return &dto.SubmitGradeRequest{Grade: &d}
}

// ── AddMember ──

func TestAddMember_Success(t *testing.T) {
	w := newWorld(t)
	events := &recordingPublisher{}
	svc := w.juryService(events)
	project := w.addProject(t, "Jury", w.git, w.maPetit, nil, nil)
	d := w.addDefense(t, project, defenseDay, "09:00", 60, w.roomA101, model.DefenseScheduled)

	resp, err := svc.AddMember(context.Background(), d.DefenseID, addMemberRequest(w.profDupont, model.JuryPresident), w.gitAdmin.UserID)
	if err != nil {
		t.Fatalf("AddMember should succeed: %v", err)
	}
	if resp.TeacherName != "Jean Dupont" || resp.Role != string(model.JuryPresident) {
		t.Errorf("unexpected seat %+v", resp)
	}
	if resp.AcademicTitle != string(model.TitleProfesseur) {
		t.Errorf("expected title professeur, got %s", resp.AcademicTitle)
	}
	if resp.Grade != nil {
		t.Errorf("a new seat has no grade, got %v", *resp.Grade)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event, got %v", events.kinds())
	}
	e := events.events[0]
	if e.Kind != event.JuryMemberAdded || e.TeacherID != w.profDupont.UserID || e.JuryRole != string(model.JuryPresident) {
		t.Errorf("unexpected event %+v", e)
	}
}

func TestAddMember_DuplicateLeavesOneRow(t *testing.T) {
	w := newWorld(t)
	events := &recordingPublisher{}
	svc := w.juryService(events)
	ctx := context.Background()
	project := w.addProject(t, "Jury", w.git, w.maPetit, nil, nil)
	d := w.addDefense(t, project, defenseDay, "09:00", 60, w.roomA101, model.DefenseScheduled)

	if _, err := svc.AddMember(ctx, d.DefenseID, addMemberRequest(w.mcBernard, model.JuryExaminer), w.gitAdmin.UserID); err != nil {
		t.Fatalf("first AddMember: %v", err)
	}
	_, err := svc.AddMember(ctx, d.DefenseID, addMemberRequest(w.mcBernard, model.JuryExaminer), w.gitAdmin.UserID)
	var dup *DuplicateMembershipError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateMembershipError, got %v", err)
	}

	members, _ := w.repo.JuryMember.ListByDefense(ctx, d.DefenseID)
	if len(members) != 1 {
		t.Errorf("expected exactly one seat, got %d", len(members))
	}
	if len(events.events) != 1 {
		t.Errorf("the rejected add must not publish, got %v", events.kinds())
	}
}

func TestAddMember_Rejections(t *testing.T) {
	w := newWorld(t)
	svc := w.juryService(&recordingPublisher{})
	ctx := context.Background()
	open := w.addDefense(t, w.addProject(t, "Open", w.git, w.maPetit, nil, nil), defenseDay, "09:00", 60, w.roomA101, model.DefenseScheduled)
	closed := w.addDefense(t, w.addProject(t, "Closed", w.git, w.maPetit, nil, nil), defenseDay, "11:00", 60, w.roomA101, model.DefenseCancelled)
	student := w.addUser(t, "Some Student", model.RoleStudent, model.TitleNone, w.git)

	if _, err := svc.AddMember(ctx, open.DefenseID, addMemberRequest(w.profDupont, model.JuryPresident), w.gesiAdmin.UserID); !errors.Is(err, ErrDefenseForbidden) {
		t.Errorf("expected ErrDefenseForbidden, got %v", err)
	}
	if _, err := svc.AddMember(ctx, closed.DefenseID, addMemberRequest(w.profDupont, model.JuryPresident), w.gitAdmin.UserID); !errors.Is(err, ErrDefenseNotOpen) {
		t.Errorf("expected ErrDefenseNotOpen, got %v", err)
	}
	if _, err := svc.AddMember(ctx, "missing", addMemberRequest(w.profDupont, model.JuryPresident), w.gitAdmin.UserID); !errors.Is(err, ErrDefenseNotFound) {
		t.Errorf("expected ErrDefenseNotFound, got %v", err)
	}
	if _, err := svc.AddMember(ctx, open.DefenseID, &dto.AddJuryMemberRequest{TeacherID: "missing", Role: "examiner"}, w.gitAdmin.UserID); !errors.Is(err, ErrTeacherNotFound) {
		t.Errorf("expected ErrTeacherNotFound, got %v", err)
	}

	var eligibility *EligibilityError
	if _, err := svc.AddMember(ctx, open.DefenseID, addMemberRequest(student, model.JuryExaminer), w.gitAdmin.UserID); !errors.As(err, &eligibility) {
		t.Errorf("a student cannot sit on a jury, got %v", err)
	}
	if _, err := svc.AddMember(ctx, open.DefenseID, addMemberRequest(w.mcBernard, model.JuryPresident), w.gitAdmin.UserID); !errors.As(err, &eligibility) {
		t.Errorf("a maître de conférences cannot preside, got %v", err)
	}
}

func TestAddMember_GeneralAdminManagesEveryDepartment(t *testing.T) {
	w := newWorld(t)
	svc := w.juryService(&recordingPublisher{})
	d := w.addDefense(t, w.addProject(t, "GESI", w.gesi, w.profLeroy, nil, nil), defenseDay, "09:00", 60, w.roomB202, model.DefenseScheduled)

	if _, err := svc.AddMember(context.Background(), d.DefenseID, addMemberRequest(w.maRoux, model.JuryExaminer), w.generalAdmin.UserID); err != nil {
		t.Errorf("general admin should manage GESI: %v", err)
	}
}

// ── UpdateMemberRole ──

func TestUpdateMemberRole(t *testing.T) {
	w := newWorld(t)
	svc := w.juryService(&recordingPublisher{})
	ctx := context.Background()
	d := w.addDefense(t, w.addProject(t, "Roles", w.git, w.maPetit, nil, nil), defenseDay, "09:00", 60, w.roomA101, model.DefenseScheduled)
	martin := w.seat(t, d, w.profMartin, model.JuryExaminer, "")
	bernard := w.seat(t, d, w.mcBernard, model.JuryExaminer, "")

	resp, err := svc.UpdateMemberRole(ctx, d.DefenseID, martin.JuryMemberID, &dto.UpdateJuryMemberRequest{Role: "president"}, w.gitAdmin.UserID)
	if err != nil {
		t.Fatalf("UpdateMemberRole should succeed: %v", err)
	}
	if resp.Role != string(model.JuryPresident) {
		t.Errorf("expected president, got %s", resp.Role)
	}

	_, err = svc.UpdateMemberRole(ctx, d.DefenseID, bernard.JuryMemberID, &dto.UpdateJuryMemberRequest{Role: "president"}, w.gitAdmin.UserID)
	var eligibility *EligibilityError
	if !errors.As(err, &eligibility) {
		t.Errorf("expected EligibilityError, got %v", err)
	}

	other := w.addDefense(t, w.addProject(t, "Other", w.git, w.maPetit, nil, nil), defenseDay, "11:00", 60, w.roomA101, model.DefenseScheduled)
	if _, err := svc.UpdateMemberRole(ctx, other.DefenseID, bernard.JuryMemberID, &dto.UpdateJuryMemberRequest{Role: "rapporteur"}, w.gitAdmin.UserID); !errors.Is(err, ErrJuryMemberNotFound) {
		t.Errorf("a seat of another defense is not found, got %v", err)
	}
}

// ── RemoveMember ──

func TestRemoveMember(t *testing.T) {
	w := newWorld(t)
	events := &recordingPublisher{}
	svc := w.juryService(events)
	ctx := context.Background()
	d := w.addDefense(t, w.addProject(t, "Remove", w.git, w.maPetit, nil, nil), defenseDay, "09:00", 60, w.roomA101, model.DefenseScheduled)
	seat := w.seat(t, d, w.mcBernard, model.JuryExaminer, "")
	kept := w.seat(t, d, w.maRoux, model.JuryExaminer, "")

	if err := svc.RemoveMember(ctx, d.DefenseID, seat.JuryMemberID, w.gitAdmin.UserID); err != nil {
		t.Fatalf("RemoveMember should succeed: %v", err)
	}
	members, _ := w.repo.JuryMember.ListByDefense(ctx, d.DefenseID)
	if len(members) != 1 {
		t.Errorf("expected one remaining seat, got %d", len(members))
	}
	if len(events.events) != 1 || events.events[0].Kind != event.JuryMemberRemoved || events.events[0].TeacherID != w.mcBernard.UserID {
		t.Errorf("expected jury.member_removed for Bernard, got %+v", events.events)
	}

	if err := svc.RemoveMember(ctx, d.DefenseID, seat.JuryMemberID, w.gitAdmin.UserID); !errors.Is(err, ErrJuryMemberNotFound) {
		t.Errorf("expected ErrJuryMemberNotFound, got %v", err)
	}

	svc.now = func() time.Time { return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC) }
	if err := svc.RemoveMember(ctx, d.DefenseID, kept.JuryMemberID, w.gitAdmin.UserID); !errors.Is(err, ErrDefenseAlreadyStarted) {
		t.Errorf("expected ErrDefenseAlreadyStarted once the defense began, got %v", err)
	}
}

// ── List ──

func TestJuryList_ReportsComposition(t *testing.T) {
	w := newWorld(t)
	svc := w.juryService(&recordingPublisher{})
	d := w.addDefense(t, w.addProject(t, "List", w.git, w.maPetit, nil, nil), defenseDay, "09:00", 60, w.roomA101, model.DefenseScheduled)
	w.seat(t, d, w.mcBernard, model.JuryExaminer, "")
	w.seat(t, d, w.profDupont, model.JuryPresident, "")

	resp, err := svc.List(context.Background(), d.DefenseID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Members) != 2 || resp.Members[0].Role != string(model.JuryPresident) {
		t.Errorf("the president should come first: %+v", resp.Members)
	}
	if resp.Composition.Valid {
		t.Error("one examiner and no rapporteur is not a valid jury")
	}
	if len(resp.Composition.Errors) != 2 {
		t.Errorf("expected 2 problems, got %v", resp.Composition.Errors)
	}
}

// ── SubmitGrade ──

func TestSubmitGrade_FinalizesWhenComplete(t *testing.T) {
	w := newWorld(t)
	events := &recordingPublisher{}
	svc := w.juryService(events)
	ctx := context.Background()
	d := w.addDefense(t, w.addProject(t, "Graded", w.git, w.maPetit, nil, nil), defenseDay, "09:00", 60, w.roomA101, model.DefenseInProgress)
	w.seat(t, d, w.profDupont, model.JuryPresident, "")
	w.seat(t, d, w.mcBernard, model.JuryExaminer, "")
	w.seat(t, d, w.maRoux, model.JuryExaminer, "")
	w.seat(t, d, w.maPetit, model.JuryRapporteur, "")

	if _, err := svc.SubmitGrade(ctx, d.DefenseID, gradeRequest("15"), w.profDupont.UserID); !errors.Is(err, ErrGradingNotOpen) {
		t.Fatalf("expected ErrGradingNotOpen before the start, got %v", err)
	}

	svc.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

	summary, err := svc.SubmitGrade(ctx, d.DefenseID, gradeRequest("15"), w.profDupont.UserID)
	if err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}
	if summary.GradedCount != 1 || summary.FinalGrade != nil {
		t.Errorf("expected 1 graded and no final grade, got %d %v", summary.GradedCount, summary.FinalGrade)
	}
	if _, err := svc.SubmitGrade(ctx, d.DefenseID, gradeRequest("17"), w.mcBernard.UserID); err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}
	if len(events.events) != 0 {
		t.Errorf("no event before the jury is complete, got %v", events.kinds())
	}

	if _, err := svc.SubmitGrade(ctx, d.DefenseID, gradeRequest("16"), w.maPetit.UserID); err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}
	if len(events.events) != 0 {
		t.Errorf("no event before the jury is complete, got %v", events.kinds())
	}

	summary, err = svc.SubmitGrade(ctx, d.DefenseID, gradeRequest("16"), w.maRoux.UserID)
	if err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}
	if summary.FinalGrade == nil || *summary.FinalGrade != "16.00" {
		t.Fatalf("expected final grade 16.00, got %v", summary.FinalGrade)
	}
	if len(events.events) != 1 || events.events[0].Kind != event.GradeFinalized || events.events[0].FinalGrade != "16.00" {
		t.Errorf("expected grade.finalized 16.00, got %+v", events.events)
	}
	stored := w.loadDefense(t, d.DefenseID)
	if stored.Status != model.DefenseCompleted {
		t.Errorf("expected completed, got %s", stored.Status)
	}

	// A correction after completion recomputes the grade.
	summary, err = svc.SubmitGrade(ctx, d.DefenseID, gradeRequest("19"), w.maPetit.UserID)
	if err != nil {
		t.Fatalf("SubmitGrade correction: %v", err)
	}
	if *summary.FinalGrade != "16.75" {
		t.Errorf("expected 16.75 after correction, got %s", *summary.FinalGrade)
	}
	if len(events.events) != 2 {
		t.Errorf("the new final grade should be published, got %v", events.kinds())
	}

	// Resubmitting the same grade changes nothing.
	if _, err := svc.SubmitGrade(ctx, d.DefenseID, gradeRequest("19"), w.maPetit.UserID); err != nil {
		t.Fatalf("SubmitGrade: %v", err)
	}
	if len(events.events) != 2 {
		t.Errorf("an unchanged final grade must not be republished, got %v", events.kinds())
	}
}

func TestSubmitGrade_Rejections(t *testing.T) {
	w := newWorld(t)
	svc := w.juryService(&recordingPublisher{})
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	d := w.addDefense(t, w.addProject(t, "Graded", w.git, w.maPetit, nil, nil), defenseDay, "09:00", 60, w.roomA101, model.DefenseInProgress)
	cancelled := w.addDefense(t, w.addProject(t, "Cancelled", w.git, w.maPetit, nil, nil), defenseDay, "08:00", 30, w.roomB202, model.DefenseCancelled)
	w.seat(t, d, w.profDupont, model.JuryPresident, "")
	w.seat(t, cancelled, w.profDupont, model.JuryPresident, "")

	cases := []struct {
		name    string
		defense string
		grade   *dto.SubmitGradeRequest
		caller  string
		want    error
	}{
		{"above 20", d.DefenseID, gradeRequest("20.5"), w.profDupont.UserID, ErrInvalidGrade},
		{"negative", d.DefenseID, gradeRequest("-1"), w.profDupont.UserID, ErrInvalidGrade},
		{"three decimals", d.DefenseID, gradeRequest("15.125"), w.profDupont.UserID, ErrInvalidGrade},
		{"missing", d.DefenseID, &dto.SubmitGradeRequest{}, w.profDupont.UserID, ErrInvalidGrade},
		{"not on the jury", d.DefenseID, gradeRequest("12"), w.mcBernard.UserID, ErrNotJuryMember},
		{"cancelled defense", cancelled.DefenseID, gradeRequest("12"), w.profDupont.UserID, ErrDefenseNotOpen},
		{"unknown defense", "missing", gradeRequest("12"), w.profDupont.UserID, ErrDefenseNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SubmitGrade(ctx, tc.defense, tc.grade, tc.caller); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSubmitGrade_InvalidJuryCollectsNothing(t *testing.T) {
	w := newWorld(t)
	events := &recordingPublisher{}
	svc := w.juryService(events)
	ctx := context.Background()
	d := w.addDefense(t, w.addProject(t, "Lone examiner", w.git, w.maPetit, nil, nil), "2025-06-01", "09:00", 60, w.roomA101, model.DefenseScheduled)
	seat := w.seat(t, d, w.maPetit, model.JuryExaminer, "")

	_, err := svc.SubmitGrade(ctx, d.DefenseID, gradeRequest("12"), w.maPetit.UserID)
	var composition *CompositionError
	if !errors.As(err, &composition) {
		t.Fatalf("expected CompositionError, got %v", err)
	}
	if len(composition.Problems) == 0 {
		t.Error("expected the composition problems to be reported")
	}

	stored := w.loadDefense(t, d.DefenseID)
	if stored.Status != model.DefenseScheduled || stored.FinalGrade.Valid {
		t.Errorf("defense must stay scheduled without a final grade, got %s %v", stored.Status, stored.FinalGrade)
	}
	member, err := w.repo.JuryMember.GetByID(ctx, seat.JuryMemberID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if member.Grade.Valid {
		t.Errorf("grade must not be stored, got %s", member.Grade.Decimal)
	}
	if len(events.events) != 0 {
		t.Errorf("expected no event, got %v", events.kinds())
	}
}

// ── presidents ──

func TestPresidentQueries(t *testing.T) {
	w := newWorld(t)
	svc := w.juryService(&recordingPublisher{})
	ctx := context.Background()

	for _, start := range []string{"08:00", "09:00", "10:00", "11:00"} {
		d := w.addDefense(t, w.addProject(t, "P "+start, w.git, w.maPetit, nil, nil), defenseDay, start, 60, w.roomA101, model.DefenseScheduled)
		w.seat(t, d, w.profDupont, model.JuryPresident, "")
	}
	d := w.addDefense(t, w.addProject(t, "Martin", w.git, w.maPetit, nil, nil), defenseDay, "14:00", 60, w.roomA101, model.DefenseScheduled)
	w.seat(t, d, w.profMartin, model.JuryPresident, "")

	avail, err := svc.PresidentAvailability(ctx, &dto.PresidentAvailabilityRequest{
		TeacherID: w.profDupont.UserID, Date: defenseDay, DepartmentID: w.git.DepartmentID,
	})
	if err != nil {
		t.Fatalf("PresidentAvailability: %v", err)
	}
	if avail.Available || avail.CurrentCount != 4 || avail.Limit != 4 || avail.DepartmentCode != "GIT" {
		t.Errorf("Dupont should be at the cap, got %+v", avail)
	}

	eligible, err := svc.EligiblePresidents(ctx, &dto.EligiblePresidentsRequest{Date: defenseDay, DepartmentID: w.git.DepartmentID})
	if err != nil {
		t.Fatalf("EligiblePresidents: %v", err)
	}
	remaining := map[string]int64{}
	for _, e := range eligible {
		remaining[e.Teacher.Name] = e.Remaining
	}
	if _, ok := remaining["Jean Dupont"]; ok {
		t.Error("Dupont reached the cap and must not be listed")
	}
	if remaining["Claire Martin"] != 3 || remaining["Paul Leroy"] != 4 {
		t.Errorf("unexpected remaining presidencies %v", remaining)
	}
	if _, ok := remaining["Luc Bernard"]; ok {
		t.Error("only professeurs are eligible presidents")
	}

	if _, err := svc.PresidentAvailability(ctx, &dto.PresidentAvailabilityRequest{
		TeacherID: w.profDupont.UserID, Date: defenseDay, DepartmentID: "missing",
	}); !errors.Is(err, ErrDepartmentNotFound) {
		t.Errorf("expected ErrDepartmentNotFound, got %v", err)
	}
}
