package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the services react to.
const (
	codeUniqueViolation      = "23505"
	codeExclusionViolation   = "23P01"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Constraint names declared in the migrations.
const (
	ConstraintDefenseProject    = "defenses_project_id_key"
	ConstraintRoomNoOverlap     = "defenses_room_no_overlap"
	ConstraintJuryUniqueTeacher = "jury_members_defense_teacher_key"
	ConstraintRoomName          = "rooms_name_key"
	ConstraintDepartmentCode    = "departments_code_key"
	ConstraintUserEmail         = "users_email_key"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsUniqueViolation reports a unique-constraint failure; with a constraint
// name it only matches that constraint.
func IsUniqueViolation(err error, constraint ...string) bool {
	return matches(err, codeUniqueViolation, constraint)
}

// IsExclusionViolation reports an EXCLUDE-constraint failure.
func IsExclusionViolation(err error, constraint ...string) bool {
	return matches(err, codeExclusionViolation, constraint)
}

// IsSerializationFailure reports a transaction aborted by the serializable
// isolation level or a deadlock.
func IsSerializationFailure(err error) bool {
	pgErr, ok := pgError(err)
	if !ok {
		return false
	}
	return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
}

func matches(err error, code string, constraint []string) bool {
	pgErr, ok := pgError(err)
	if !ok || pgErr.Code != code {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}
