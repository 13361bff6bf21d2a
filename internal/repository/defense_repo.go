package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	pkgerrors "github.com/AcMongue/gestion-pfe-sub000/pkg/errors"
)

// DefenseFilter narrows List; zero values are ignored.
type DefenseFilter struct {
	From         *time.Time
	To           *time.Time
	RoomID       string
	DepartmentID string
	TeacherID    string
	Status       model.DefenseStatus
	Offset       int
	Limit        int
}

// DefenseRepository defense data access.
type DefenseRepository interface {
	Create(ctx context.Context, defense *model.Defense) error
	GetByID(ctx context.Context, id string) (*model.Defense, error)
	// GetByIDForUpdate loads the defense and locks its row until the
	// transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*model.Defense, error)
	GetByProject(ctx context.Context, projectID string) (*model.Defense, error)
	List(ctx context.Context, filter DefenseFilter) ([]model.Defense, int64, error)
	Update(ctx context.Context, defense *model.Defense) error
	// ListRoomBookings returns the non-cancelled defenses of a room on a date,
	// skipping excludeID.
	ListRoomBookings(ctx context.Context, roomID string, date time.Time, excludeID string) ([]model.Defense, error)
}

type defenseRepo struct {
	db *gorm.DB
}

// NewDefenseRepo creates a DefenseRepository.
func NewDefenseRepo(db *gorm.DB) DefenseRepository {
	return &defenseRepo{db: db}
}

func (r *defenseRepo) Create(ctx context.Context, defense *model.Defense) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(defense).Error
}

func (r *defenseRepo) withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Project.Subject.Department").
		Preload("Project.Student").
		Preload("Room")
}

func (r *defenseRepo) GetByID(ctx context.Context, id string) (*model.Defense, error) {
	var defense model.Defense
	err := r.withRelations(r.db.WithContext(ctx)).
		Where("defense_id = ?", id).
		First(&defense).Error
	if err != nil {
		return nil, err
	}
	return &defense, nil
}

func (r *defenseRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Defense, error) {
	var defense model.Defense
	err := r.withRelations(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("defense_id = ?", id).
		First(&defense).Error
	if err != nil {
		return nil, err
	}
	return &defense, nil
}

func (r *defenseRepo) GetByProject(ctx context.Context, projectID string) (*model.Defense, error) {
	var defense model.Defense
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&defense).Error
	if err != nil {
		return nil, err
	}
	return &defense, nil
}

func (r *defenseRepo) List(ctx context.Context, filter DefenseFilter) ([]model.Defense, int64, error) {
	var defenses []model.Defense
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Defense{})
	if filter.From != nil {
		db = db.Where("defenses.date >= ?", *filter.From)
	}
	if filter.To != nil {
		db = db.Where("defenses.date <= ?", *filter.To)
	}
	if filter.RoomID != "" {
		db = db.Where("defenses.room_id = ?", filter.RoomID)
	}
	if filter.Status != "" {
		db = db.Where("defenses.status = ?", filter.Status)
	}
	if filter.DepartmentID != "" {
		db = db.Where("defenses.project_id IN (?)",
			r.db.Table("projects").
				Select("projects.project_id").
				Joins("JOIN subjects ON subjects.subject_id = projects.subject_id").
				Where("subjects.department_id = ?", filter.DepartmentID))
	}
	if filter.TeacherID != "" {
		db = db.Where("defenses.defense_id IN (?)",
			r.db.Table("jury_members").
				Select("defense_id").
				Where("teacher_id = ?", filter.TeacherID))
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		db = db.Offset(filter.Offset).Limit(filter.Limit)
	}
	err := r.withRelations(db).
		Preload("JuryMembers.Teacher").
		Order("defenses.date ASC, defenses.start_time ASC").
		Find(&defenses).Error
	if err != nil {
		return nil, 0, err
	}
	return defenses, total, nil
}

func (r *defenseRepo) Update(ctx context.Context, defense *model.Defense) error {
	oldVersion := defense.Version
	result := r.db.WithContext(ctx).
		Model(&model.Defense{}).
		Where("defense_id = ? AND version = ?", defense.DefenseID, oldVersion).
		Updates(map[string]interface{}{
			"date":                defense.Date,
			"start_time":          defense.StartTime,
			"duration_minutes":    defense.DurationMinutes,
			"starts_at":           defense.StartsAt,
			"ends_at":             defense.EndsAt,
			"room_id":             defense.RoomID,
			"room_label":          defense.RoomLabel,
			"status":              defense.Status,
			"final_grade":         defense.FinalGrade,
			"jury_comments":       defense.JuryComments,
			"cancellation_reason": defense.CancellationReason,
			"updated_by":          defense.UpdatedBy,
			"updated_at":          gorm.Expr("NOW()"),
			"version":             oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	defense.Version = oldVersion + 1
	return nil
}

func (r *defenseRepo) ListRoomBookings(ctx context.Context, roomID string, date time.Time, excludeID string) ([]model.Defense, error) {
	var defenses []model.Defense
	db := r.db.WithContext(ctx).
		Preload("Project").
		Where("room_id = ? AND date = ? AND status <> ?", roomID, model.DateOnly(date), model.DefenseCancelled)
	if excludeID != "" {
		db = db.Where("defense_id <> ?", excludeID)
	}
	err := db.Order("start_time ASC").Find(&defenses).Error
	return defenses, err
}
