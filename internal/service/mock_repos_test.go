package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/internal/event"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	pkgerrors "github.com/AcMongue/gestion-pfe-sub000/pkg/errors"
)

// ── in-memory store shared by every mock repository ──
//
// Rows are stored without relations; reads return copies with the relations
// the real repositories preload.

type memStore struct {
	mu             sync.Mutex
	seq            int
	users          map[string]*model.User
	departments    map[string]*model.Department
	subjects       map[string]*model.Subject
	projects       map[string]*model.Project
	rooms          map[string]*model.Room
	defenses       map[string]*model.Defense
	jury           map[string]*model.JuryMember
	changeRequests map[string]*model.DefenseChangeRequest
	notifications  []*model.Notification
}

var storeEpoch = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func newMemStore() *memStore {
	return &memStore{
		users:          make(map[string]*model.User),
		departments:    make(map[string]*model.Department),
		subjects:       make(map[string]*model.Subject),
		projects:       make(map[string]*model.Project),
		rooms:          make(map[string]*model.Room),
		defenses:       make(map[string]*model.Defense),
		jury:           make(map[string]*model.JuryMember),
		changeRequests: make(map[string]*model.DefenseChangeRequest),
	}
}

// stamp returns a fresh id and a strictly increasing creation time.
func (s *memStore) stamp(prefix string) (string, time.Time) {
	s.seq++
	return fmt.Sprintf("%s-%03d", prefix, s.seq), storeEpoch.Add(time.Duration(s.seq) * time.Second)
}

func (s *memStore) repository() *repository.Repository {
	return &repository.Repository{
		User:          &mockUserRepo{s},
		Department:    &mockDeptRepo{s},
		Subject:       &mockSubjectRepo{s},
		Project:       &mockProjectRepo{s},
		Room:          &mockRoomRepo{s},
		Defense:       &mockDefenseRepo{s},
		JuryMember:    &mockJuryRepo{s},
		ChangeRequest: &mockChangeRequestRepo{s},
		Notification:  &mockNotificationRepo{s},
	}
}

// ── hydration (callers hold s.mu) ──

func (s *memStore) user(id string) *model.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	c := *u
	if u.DepartmentID != nil {
		c.Department = s.department(*u.DepartmentID)
	}
	return &c
}

func (s *memStore) department(id string) *model.Department {
	d, ok := s.departments[id]
	if !ok {
		return nil
	}
	c := *d
	return &c
}

func (s *memStore) subject(id string) *model.Subject {
	sub, ok := s.subjects[id]
	if !ok {
		return nil
	}
	c := *sub
	c.Department = s.department(sub.DepartmentID)
	return &c
}

func (s *memStore) project(id string) *model.Project {
	p, ok := s.projects[id]
	if !ok {
		return nil
	}
	c := *p
	c.Subject = s.subject(p.SubjectID)
	c.Student = s.user(p.StudentID)
	return &c
}

func (s *memStore) room(id string) *model.Room {
	r, ok := s.rooms[id]
	if !ok {
		return nil
	}
	c := *r
	if r.DepartmentID != nil {
		c.Department = s.department(*r.DepartmentID)
	}
	return &c
}

func (s *memStore) defense(id string) *model.Defense {
	d, ok := s.defenses[id]
	if !ok {
		return nil
	}
	c := *d
	c.Project = s.project(d.ProjectID)
	c.Room = nil
	if d.RoomID != nil {
		c.Room = s.room(*d.RoomID)
	}
	c.JuryMembers = nil
	return &c
}

func (s *memStore) member(id string) *model.JuryMember {
	m, ok := s.jury[id]
	if !ok {
		return nil
	}
	c := *m
	c.Teacher = s.user(m.TeacherID)
	c.Defense = nil
	return &c
}

func (s *memStore) membersOf(defenseID string) []model.JuryMember {
	var out []model.JuryMember
	for id, m := range s.jury {
		if m.DefenseID == defenseID {
			out = append(out, *s.member(id))
		}
	}
	rank := map[model.JuryRole]int{model.JuryPresident: 0, model.JuryRapporteur: 1, model.JuryExaminer: 2}
	sort.Slice(out, func(i, j int) bool {
		if rank[out[i].Role] != rank[out[j].Role] {
			return rank[out[i].Role] < rank[out[j].Role]
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if user.UserID == "" {
		user.UserID, user.CreatedAt = m.s.stamp("user")
	}
	c := *user
	c.Department = nil
	m.s.users[user.UserID] = &c
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if u := m.s.user(id); u != nil {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, u := range m.s.users {
		if u.Email == email {
			return m.s.user(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u := m.s.user(id); u != nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) List(_ context.Context, f repository.UserFilter) ([]model.User, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.User
	for id, u := range m.s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.AcademicTitle != "" && u.AcademicTitle != f.AcademicTitle {
			continue
		}
		if f.DepartmentID != "" && (u.DepartmentID == nil || *u.DepartmentID != f.DepartmentID) {
			continue
		}
		out = append(out, *m.s.user(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	total := int64(len(out))
	return page(out, f.Offset, f.Limit), total, nil
}

// ── Mock DepartmentRepository ──

type mockDeptRepo struct{ s *memStore }

func (m *mockDeptRepo) Create(_ context.Context, dept *model.Department) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if dept.DepartmentID == "" {
		dept.DepartmentID, dept.CreatedAt = m.s.stamp("dept")
	}
	c := *dept
	m.s.departments[dept.DepartmentID] = &c
	return nil
}

func (m *mockDeptRepo) GetByID(_ context.Context, id string) (*model.Department, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if d := m.s.department(id); d != nil {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) GetByCode(_ context.Context, code string) (*model.Department, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, d := range m.s.departments {
		if d.Code == code {
			return m.s.department(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDeptRepo) List(_ context.Context, includeInactive bool) ([]model.Department, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Department
	for _, d := range m.s.departments {
		if !includeInactive && !d.IsActive {
			continue
		}
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (m *mockDeptRepo) Update(_ context.Context, dept *model.Department) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := *dept
	m.s.departments[dept.DepartmentID] = &c
	return nil
}

func (m *mockDeptRepo) Delete(_ context.Context, id string, _ string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.departments, id)
	return nil
}

func (m *mockDeptRepo) CountReferences(_ context.Context, id string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, u := range m.s.users {
		if u.DepartmentID != nil && *u.DepartmentID == id {
			n++
		}
	}
	for _, sub := range m.s.subjects {
		if sub.DepartmentID == id {
			n++
		}
	}
	for _, r := range m.s.rooms {
		if r.DepartmentID != nil && *r.DepartmentID == id {
			n++
		}
	}
	return n, nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct{ s *memStore }

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if subject.SubjectID == "" {
		subject.SubjectID, subject.CreatedAt = m.s.stamp("subject")
	}
	c := *subject
	c.Department, c.Supervisor, c.CoSupervisor = nil, nil, nil
	m.s.subjects[subject.SubjectID] = &c
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if sub := m.s.subject(id); sub != nil {
		return sub, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) List(_ context.Context, departmentID string) ([]model.Subject, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Subject
	for id, sub := range m.s.subjects {
		if departmentID != "" && sub.DepartmentID != departmentID {
			continue
		}
		out = append(out, *m.s.subject(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct{ s *memStore }

func (m *mockProjectRepo) Create(_ context.Context, project *model.Project) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if project.ProjectID == "" {
		project.ProjectID, project.CreatedAt = m.s.stamp("project")
	}
	c := *project
	c.Subject, c.Student = nil, nil
	m.s.projects[project.ProjectID] = &c
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if p := m.s.project(id); p != nil {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) List(_ context.Context, departmentID string, offset, limit int) ([]model.Project, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Project
	for id := range m.s.projects {
		p := m.s.project(id)
		if departmentID != "" && p.DepartmentID() != departmentID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	total := int64(len(out))
	return page(out, offset, limit), total, nil
}

// ── Mock RoomRepository ──

type mockRoomRepo struct{ s *memStore }

func (m *mockRoomRepo) Create(_ context.Context, room *model.Room) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if room.RoomID == "" {
		room.RoomID, room.CreatedAt = m.s.stamp("room")
	}
	c := *room
	c.Department = nil
	m.s.rooms[room.RoomID] = &c
	return nil
}

func (m *mockRoomRepo) GetByID(_ context.Context, id string) (*model.Room, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if r := m.s.room(id); r != nil {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) GetByName(_ context.Context, name string) (*model.Room, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, r := range m.s.rooms {
		if r.Name == name {
			return m.s.room(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoomRepo) List(_ context.Context, f repository.RoomFilter) ([]model.Room, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Room
	for id, r := range m.s.rooms {
		if !f.IncludeUnavailable && !r.IsAvailable {
			continue
		}
		if f.DepartmentID != "" && r.DepartmentID != nil && *r.DepartmentID != f.DepartmentID {
			continue
		}
		out = append(out, *m.s.room(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRoomRepo) Update(_ context.Context, room *model.Room) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := *room
	c.Department = nil
	m.s.rooms[room.RoomID] = &c
	return nil
}

func (m *mockRoomRepo) Delete(_ context.Context, id string, _ string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.rooms, id)
	return nil
}

func (m *mockRoomRepo) CountDefenses(_ context.Context, roomID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, d := range m.s.defenses {
		if d.RoomID != nil && *d.RoomID == roomID {
			n++
		}
	}
	return n, nil
}

// ── Mock DefenseRepository ──

type mockDefenseRepo struct{ s *memStore }

func (m *mockDefenseRepo) Create(_ context.Context, defense *model.Defense) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if defense.DefenseID == "" {
		defense.DefenseID, defense.CreatedAt = m.s.stamp("defense")
	}
	if defense.Version == 0 {
		defense.Version = 1
	}
	c := *defense
	c.Project, c.Room, c.JuryMembers = nil, nil, nil
	m.s.defenses[defense.DefenseID] = &c
	return nil
}

func (m *mockDefenseRepo) GetByID(_ context.Context, id string) (*model.Defense, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if d := m.s.defense(id); d != nil {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDefenseRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Defense, error) {
	return m.GetByID(ctx, id)
}

func (m *mockDefenseRepo) GetByProject(_ context.Context, projectID string) (*model.Defense, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, d := range m.s.defenses {
		if d.ProjectID == projectID {
			return m.s.defense(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDefenseRepo) List(_ context.Context, f repository.DefenseFilter) ([]model.Defense, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Defense
	for id, d := range m.s.defenses {
		if f.From != nil && d.Date.Before(*f.From) {
			continue
		}
		if f.To != nil && d.Date.After(*f.To) {
			continue
		}
		if f.RoomID != "" && (d.RoomID == nil || *d.RoomID != f.RoomID) {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		full := m.s.defense(id)
		if f.DepartmentID != "" && full.Project.DepartmentID() != f.DepartmentID {
			continue
		}
		full.JuryMembers = m.s.membersOf(id)
		if f.TeacherID != "" && !seated(full.JuryMembers, f.TeacherID) {
			continue
		}
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	total := int64(len(out))
	return page(out, f.Offset, f.Limit), total, nil
}

func (m *mockDefenseRepo) Update(_ context.Context, defense *model.Defense) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.defenses[defense.DefenseID]
	if !ok || stored.Version != defense.Version {
		return pkgerrors.ErrOptimisticLock
	}
	defense.Version++
	c := *defense
	c.Project, c.Room, c.JuryMembers = nil, nil, nil
	m.s.defenses[defense.DefenseID] = &c
	return nil
}

func (m *mockDefenseRepo) ListRoomBookings(_ context.Context, roomID string, date time.Time, excludeID string) ([]model.Defense, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Defense
	for id, d := range m.s.defenses {
		if d.RoomID == nil || *d.RoomID != roomID || id == excludeID {
			continue
		}
		if !d.Date.Equal(model.DateOnly(date)) || d.Status == model.DefenseCancelled {
			continue
		}
		out = append(out, *m.s.defense(id))
	}
	return out, nil
}

// ── Mock JuryMemberRepository ──

type mockJuryRepo struct{ s *memStore }

func (m *mockJuryRepo) Create(_ context.Context, member *model.JuryMember) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if member.JuryMemberID == "" {
		member.JuryMemberID, member.CreatedAt = m.s.stamp("member")
	}
	c := *member
	c.Teacher, c.Defense = nil, nil
	m.s.jury[member.JuryMemberID] = &c
	return nil
}

func (m *mockJuryRepo) GetByID(_ context.Context, id string) (*model.JuryMember, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if mem := m.s.member(id); mem != nil {
		return mem, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJuryRepo) GetByDefenseAndTeacher(_ context.Context, defenseID, teacherID string) (*model.JuryMember, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, mem := range m.s.jury {
		if mem.DefenseID == defenseID && mem.TeacherID == teacherID {
			return m.s.member(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockJuryRepo) ListByDefense(_ context.Context, defenseID string) ([]model.JuryMember, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.membersOf(defenseID), nil
}

func (m *mockJuryRepo) ListByTeacherOnDate(_ context.Context, teacherID string, date time.Time) ([]model.JuryMember, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.JuryMember
	for id, mem := range m.s.jury {
		if mem.TeacherID != teacherID {
			continue
		}
		d := m.s.defense(mem.DefenseID)
		if d == nil || !d.Date.Equal(model.DateOnly(date)) || d.Status == model.DefenseCancelled {
			continue
		}
		c := m.s.member(id)
		c.Defense = d
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockJuryRepo) CountPresidencies(_ context.Context, teacherID string, date time.Time, departmentID, excludeMemberID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id, mem := range m.s.jury {
		if mem.TeacherID != teacherID || mem.Role != model.JuryPresident || id == excludeMemberID {
			continue
		}
		d := m.s.defense(mem.DefenseID)
		if d == nil || !d.Date.Equal(model.DateOnly(date)) || d.Status == model.DefenseCancelled {
			continue
		}
		if d.Project.DepartmentID() != departmentID {
			continue
		}
		n++
	}
	return n, nil
}

func (m *mockJuryRepo) Update(_ context.Context, member *model.JuryMember) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.jury[member.JuryMemberID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Role = member.Role
	stored.Grade = member.Grade
	stored.Comments = member.Comments
	stored.GradedAt = member.GradedAt
	stored.UpdatedBy = member.UpdatedBy
	return nil
}

func (m *mockJuryRepo) Delete(_ context.Context, id string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	delete(m.s.jury, id)
	return nil
}

// ── Mock ChangeRequestRepository ──

type mockChangeRequestRepo struct{ s *memStore }

func (m *mockChangeRequestRepo) Create(_ context.Context, req *model.DefenseChangeRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if req.ChangeRequestID == "" {
		req.ChangeRequestID, req.CreatedAt = m.s.stamp("cr")
	}
	c := *req
	c.Defense, c.Requester = nil, nil
	m.s.changeRequests[req.ChangeRequestID] = &c
	return nil
}

func (m *mockChangeRequestRepo) get(id string) *model.DefenseChangeRequest {
	cr, ok := m.s.changeRequests[id]
	if !ok {
		return nil
	}
	c := *cr
	c.Requester = m.s.user(cr.RequestedBy)
	return &c
}

func (m *mockChangeRequestRepo) GetByID(_ context.Context, id string) (*model.DefenseChangeRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if cr := m.get(id); cr != nil {
		return cr, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockChangeRequestRepo) ListByDefense(_ context.Context, defenseID string) ([]model.DefenseChangeRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.DefenseChangeRequest
	for id, cr := range m.s.changeRequests {
		if cr.DefenseID == defenseID {
			out = append(out, *m.get(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockChangeRequestRepo) ListByStatus(_ context.Context, status model.ChangeRequestStatus) ([]model.DefenseChangeRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.DefenseChangeRequest
	for id, cr := range m.s.changeRequests {
		if cr.Status == status {
			out = append(out, *m.get(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *mockChangeRequestRepo) Update(_ context.Context, req *model.DefenseChangeRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.changeRequests[req.ChangeRequestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = req.Status
	stored.ReviewedBy = req.ReviewedBy
	stored.ReviewComment = req.ReviewComment
	stored.ReviewedAt = req.ReviewedAt
	stored.UpdatedBy = req.UpdatedBy
	return nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct{ s *memStore }

func (m *mockNotificationRepo) CreateBatch(_ context.Context, items []model.Notification) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range items {
		c := items[i]
		if c.NotificationID == "" {
			c.NotificationID, c.CreatedAt = m.s.stamp("notif")
		}
		m.s.notifications = append(m.s.notifications, &c)
	}
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Notification
	for i := len(m.s.notifications) - 1; i >= 0; i-- {
		n := m.s.notifications[i]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	total := int64(len(out))
	return page(out, offset, limit), total, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, item := range m.s.notifications {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, item := range m.s.notifications {
		if item.NotificationID == id && item.UserID == userID {
			item.IsRead = true
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, item := range m.s.notifications {
		if item.UserID == userID {
			item.IsRead = true
		}
	}
	return nil
}

// ── helpers ──

func page[T any](items []T, offset, limit int) []T {
	if limit <= 0 {
		return items
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func seated(members []model.JuryMember, teacherID string) bool {
	for _, m := range members {
		if m.TeacherID == teacherID {
			return true
		}
	}
	return false
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	events []event.Event
}

func (p *recordingPublisher) Publish(_ context.Context, events ...event.Event) {
	p.events = append(p.events, events...)
}

func (p *recordingPublisher) kinds() []event.Kind {
	out := make([]event.Kind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}
