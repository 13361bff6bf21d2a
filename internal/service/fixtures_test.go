package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/config"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
)

// fixedNow is 2025-06-10 12:00 UTC; defenses on 2025-06-15 are in the future.
var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

const defenseDay = "2025-06-15"

func testDefenseConfig() *config.DefenseConfig {
	return &config.DefenseConfig{MaxPresidenciesPerDay: 4, DefaultDurationMinutes: 30, Timezone: "UTC"}
}

// world a small school: two departments, their admins, teaching staff of
// every rank, two rooms and a helper to create projects.
type world struct {
	store *memStore
	repo  *repository.Repository

	git, gesi *model.Department

	generalAdmin, gitAdmin, gesiAdmin *model.User

	profDupont, profMartin, profLeroy *model.User
	mcBernard                         *model.User
	maPetit, maRoux                   *model.User

	roomA101, roomB202 *model.Room
}

func newWorld(t *testing.T) *world {
	t.Helper()
	s := newMemStore()
	w := &world{store: s, repo: s.repository()}

	w.git = w.addDepartment(t, "GIT", "Génie Informatique et Télécommunications")
	w.gesi = w.addDepartment(t, "GESI", "Génie Électrique et Systèmes Intelligents")

	w.generalAdmin = w.addUser(t, "Admin General", model.RoleAdmin, model.TitleNone, nil)
	w.gitAdmin = w.addUser(t, "Admin GIT", model.RoleAdmin, model.TitleNone, w.git)
	w.gesiAdmin = w.addUser(t, "Admin GESI", model.RoleAdmin, model.TitleNone, w.gesi)

	w.profDupont = w.addUser(t, "Jean Dupont", model.RoleTeacher, model.TitleProfesseur, w.git)
	w.profMartin = w.addUser(t, "Claire Martin", model.RoleTeacher, model.TitleProfesseur, w.git)
	w.profLeroy = w.addUser(t, "Paul Leroy", model.RoleTeacher, model.TitleProfesseur, w.gesi)
	w.mcBernard = w.addUser(t, "Luc Bernard", model.RoleTeacher, model.TitleMaitreConference, w.git)
	w.maPetit = w.addUser(t, "Anne Petit", model.RoleTeacher, model.TitleMaitreAssistant, w.git)
	w.maRoux = w.addUser(t, "Marc Roux", model.RoleTeacher, model.TitleMaitreAssistant, w.gesi)

	w.roomA101 = w.addRoom(t, "A101", w.git)
	w.roomB202 = w.addRoom(t, "B202", nil)
	return w
}

func (w *world) addDepartment(t *testing.T, code, name string) *model.Department {
	t.Helper()
	d := &model.Department{Code: code, Name: name, IsActive: true}
	d.Version = 1
	if err := w.repo.Department.Create(context.Background(), d); err != nil {
		t.Fatalf("create department %s: %v", code, err)
	}
	return d
}

func (w *world) addUser(t *testing.T, name string, role model.Role, title model.AcademicTitle, dept *model.Department) *model.User {
	t.Helper()
	u := &model.User{
		Name:          name,
		Email:         emailOf(name),
		PasswordHash:  "x",
		Role:          role,
		AcademicTitle: title,
	}
	if dept != nil {
		u.DepartmentID = &dept.DepartmentID
	}
	u.Version = 1
	if err := w.repo.User.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (w *world) addRoom(t *testing.T, name string, dept *model.Department) *model.Room {
	t.Helper()
	r := &model.Room{Name: name, Capacity: 40, IsAvailable: true}
	if dept != nil {
		r.DepartmentID = &dept.DepartmentID
	}
	if err := w.repo.Room.Create(context.Background(), r); err != nil {
		t.Fatalf("create room %s: %v", name, err)
	}
	return r
}

// addProject creates a student, a subject supervised by supervisor and the
// project. A non-nil secondary makes the subject interdisciplinary with
// coSupervisor as second supervisor.
func (w *world) addProject(t *testing.T, title string, dept *model.Department, supervisor *model.User, secondary *model.Department, coSupervisor *model.User) *model.Project {
	t.Helper()
	ctx := context.Background()
	student := w.addUser(t, "Student "+title, model.RoleStudent, model.TitleNone, dept)

	subject := &model.Subject{
		Title:        title,
		DepartmentID: dept.DepartmentID,
		SupervisorID: supervisor.UserID,
	}
	if secondary != nil {
		subject.IsInterdisciplinary = true
		subject.SecondaryDepartmentID = &secondary.DepartmentID
	}
	if coSupervisor != nil {
		subject.CoSupervisorID = &coSupervisor.UserID
	}
	if err := w.repo.Subject.Create(ctx, subject); err != nil {
		t.Fatalf("create subject: %v", err)
	}

	project := &model.Project{SubjectID: subject.SubjectID, StudentID: student.UserID, Title: title, Status: "in_progress"}
	if err := w.repo.Project.Create(ctx, project); err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

// addDefense stores a defense directly, bypassing the scheduling rules.
func (w *world) addDefense(t *testing.T, project *model.Project, date, start string, minutes int, room *model.Room, status model.DefenseStatus) *model.Defense {
	t.Helper()
	d, err := model.ParseDate(date)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	slot, err := model.NewSlot(d, start, minutes)
	if err != nil {
		t.Fatalf("new slot: %v", err)
	}
	defense := &model.Defense{
		ProjectID:           project.ProjectID,
		Status:              status,
		PresentationMinutes: 15,
		QuestionsMinutes:    15,
		Version:             1,
	}
	defense.SetSlot(slot)
	if room != nil {
		defense.RoomID = &room.RoomID
	}
	if err := w.repo.Defense.Create(context.Background(), defense); err != nil {
		t.Fatalf("create defense: %v", err)
	}
	return defense
}

// seat adds a jury member directly; a non-empty grade marks it graded.
func (w *world) seat(t *testing.T, defense *model.Defense, teacher *model.User, role model.JuryRole, grade string) *model.JuryMember {
	t.Helper()
	m := &model.JuryMember{DefenseID: defense.DefenseID, TeacherID: teacher.UserID, Role: role}
	if grade != "" {
		m.Grade = decimal.NewNullDecimal(decimal.RequireFromString(grade))
	}
	if err := w.repo.JuryMember.Create(context.Background(), m); err != nil {
		t.Fatalf("create jury member: %v", err)
	}
	return m
}

// loadDefense returns the stored defense with its relations.
func (w *world) loadDefense(t *testing.T, id string) *model.Defense {
	t.Helper()
	d, err := w.repo.Defense.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load defense %s: %v", id, err)
	}
	return d
}

func (w *world) defenseService(events *recordingPublisher) *defenseService {
	svc := NewDefenseService(w.repo, testDefenseConfig(), events, zap.NewNop()).(*defenseService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func (w *world) juryService(events *recordingPublisher) *juryService {
	svc := NewJuryService(w.repo, testDefenseConfig(), events, zap.NewNop()).(*juryService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func emailOf(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r == ' ':
			out = append(out, '.')
		case r >= 'A' && r <= 'Z':
			out = append(out, r+'a'-'A')
		default:
			out = append(out, r)
		}
	}
	return string(out) + "@enspy.cm"
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %s: %v", s, err)
	}
	return d
}

func mustSlot(t *testing.T, date, start string, minutes int) model.Slot {
	t.Helper()
	s, err := model.NewSlot(mustDate(t, date), start, minutes)
	if err != nil {
		t.Fatalf("new slot: %v", err)
	}
	return s
}
