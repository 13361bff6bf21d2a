package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
)

// JuryMemberRepository jury data access.
type JuryMemberRepository interface {
	Create(ctx context.Context, member *model.JuryMember) error
	GetByID(ctx context.Context, id string) (*model.JuryMember, error)
	GetByDefenseAndTeacher(ctx context.Context, defenseID, teacherID string) (*model.JuryMember, error)
	ListByDefense(ctx context.Context, defenseID string) ([]model.JuryMember, error)
	// ListByTeacherOnDate returns the teacher's seats on non-cancelled
	// defenses held on date, with the defense loaded.
	ListByTeacherOnDate(ctx context.Context, teacherID string, date time.Time) ([]model.JuryMember, error)
	// CountPresidencies counts the president seats of a teacher on
	// non-cancelled defenses of one department on one date, skipping
	// excludeMemberID.
	CountPresidencies(ctx context.Context, teacherID string, date time.Time, departmentID, excludeMemberID string) (int64, error)
	Update(ctx context.Context, member *model.JuryMember) error
	Delete(ctx context.Context, id string) error
}

type juryMemberRepo struct {
	db *gorm.DB
}

// NewJuryMemberRepo creates a JuryMemberRepository.
func NewJuryMemberRepo(db *gorm.DB) JuryMemberRepository {
	return &juryMemberRepo{db: db}
}

func (r *juryMemberRepo) Create(ctx context.Context, member *model.JuryMember) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(member).Error
}

func (r *juryMemberRepo) GetByID(ctx context.Context, id string) (*model.JuryMember, error) {
	var member model.JuryMember
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("jury_member_id = ?", id).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *juryMemberRepo) GetByDefenseAndTeacher(ctx context.Context, defenseID, teacherID string) (*model.JuryMember, error) {
	var member model.JuryMember
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("defense_id = ? AND teacher_id = ?", defenseID, teacherID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *juryMemberRepo) ListByDefense(ctx context.Context, defenseID string) ([]model.JuryMember, error) {
	var members []model.JuryMember
	err := r.db.WithContext(ctx).
		Preload("Teacher").
		Where("defense_id = ?", defenseID).
		Order("CASE role WHEN 'president' THEN 0 WHEN 'rapporteur' THEN 1 ELSE 2 END, created_at ASC").
		Find(&members).Error
	return members, err
}

func (r *juryMemberRepo) ListByTeacherOnDate(ctx context.Context, teacherID string, date time.Time) ([]model.JuryMember, error) {
	var members []model.JuryMember
	err := r.db.WithContext(ctx).
		Joins("Defense").
		Where("jury_members.teacher_id = ?", teacherID).
		Where(`"Defense".date = ? AND "Defense".status <> ?`, model.DateOnly(date), model.DefenseCancelled).
		Find(&members).Error
	return members, err
}

func (r *juryMemberRepo) CountPresidencies(ctx context.Context, teacherID string, date time.Time, departmentID, excludeMemberID string) (int64, error) {
	var count int64
	db := r.db.WithContext(ctx).
		Model(&model.JuryMember{}).
		Joins("JOIN defenses ON defenses.defense_id = jury_members.defense_id").
		Joins("JOIN projects ON projects.project_id = defenses.project_id").
		Joins("JOIN subjects ON subjects.subject_id = projects.subject_id").
		Where("jury_members.teacher_id = ? AND jury_members.role = ?", teacherID, model.JuryPresident).
		Where("defenses.date = ? AND defenses.status <> ?", model.DateOnly(date), model.DefenseCancelled).
		Where("subjects.department_id = ?", departmentID)
	if excludeMemberID != "" {
		db = db.Where("jury_members.jury_member_id <> ?", excludeMemberID)
	}
	err := db.Count(&count).Error
	return count, err
}

func (r *juryMemberRepo) Update(ctx context.Context, member *model.JuryMember) error {
	return r.db.WithContext(ctx).
		Model(&model.JuryMember{}).
		Where("jury_member_id = ?", member.JuryMemberID).
		Updates(map[string]interface{}{
			"role":       member.Role,
			"grade":      member.Grade,
			"comments":   member.Comments,
			"graded_at":  member.GradedAt,
			"updated_by": member.UpdatedBy,
			"updated_at": gorm.Expr("NOW()"),
		}).Error
}

func (r *juryMemberRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("jury_member_id = ?", id).
		Delete(&model.JuryMember{}).Error
}
