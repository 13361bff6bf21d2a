package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/AcMongue/gestion-pfe-sub000/pkg/database"
	pkgerrors "github.com/AcMongue/gestion-pfe-sub000/pkg/errors"
)

// Repository aggregates every data-access interface.
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Department    DepartmentRepository
	Subject       SubjectRepository
	Project       ProjectRepository
	Room          RoomRepository
	Defense       DefenseRepository
	JuryMember    JuryMemberRepository
	ChangeRequest ChangeRequestRepository
	Notification  NotificationRepository
}

// NewRepository wires every repository on the same connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Department:    NewDepartmentRepo(db),
		Subject:       NewSubjectRepo(db),
		Project:       NewProjectRepo(db),
		Room:          NewRoomRepo(db),
		Defense:       NewDefenseRepo(db),
		JuryMember:    NewJuryMemberRepo(db),
		ChangeRequest: NewChangeRequestRepo(db),
		Notification:  NewNotificationRepo(db),
	}
}

// BeginTx starts a serializable transaction. A Repository assembled without a
// connection (unit tests) returns a nil transaction.
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: sql.LevelSerializable})
	return tx, tx.Error
}

// WithTx returns a Repository bound to tx; a nil tx returns r itself.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// InTx runs fn inside one serializable transaction: it commits when fn
// returns nil and rolls back on error or panic. A serialization failure,
// from fn or from the commit, comes back as ErrConcurrentUpdate.
func (r *Repository) InTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return txError(err)
	}

	if tx != nil {
		return txError(tx.Commit().Error)
	}
	return nil
}

func txError(err error) error {
	if database.IsSerializationFailure(err) {
		return pkgerrors.ErrConcurrentUpdate
	}
	return err
}
