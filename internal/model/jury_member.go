package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// JuryRole role of a teacher within a defense jury.
type JuryRole string

const (
	JuryPresident  JuryRole = "president"
	JuryExaminer   JuryRole = "examiner"
	JuryRapporteur JuryRole = "rapporteur"
)

// Valid reports whether r is a known jury role.
func (r JuryRole) Valid() bool {
	switch r {
	case JuryPresident, JuryExaminer, JuryRapporteur:
		return true
	}
	return false
}

// JuryMember one teacher's seat on one defense jury (table jury_members).
// (defense_id, teacher_id) is unique.
type JuryMember struct {
	JuryMemberID string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"jury_member_id"`
	DefenseID    string              `gorm:"type:uuid;not null"                             json:"defense_id"`
	TeacherID    string              `gorm:"type:uuid;not null"                             json:"teacher_id"`
	Role         JuryRole            `gorm:"type:varchar(20);not null"                      json:"role"`
	Grade        decimal.NullDecimal `gorm:"type:numeric(4,2)"                              json:"grade"`
	Comments     string              `gorm:"type:text"                                      json:"comments,omitempty"`
	GradedAt     *time.Time          `                                                      json:"graded_at,omitempty"`
	BaseModel

	Defense *Defense `gorm:"foreignKey:DefenseID;references:DefenseID" json:"defense,omitempty"`
	Teacher *User    `gorm:"foreignKey:TeacherID;references:UserID"    json:"teacher,omitempty"`
}

// TableName overrides the table name.
func (JuryMember) TableName() string { return "jury_members" }

// HasGraded reports whether the member submitted a grade.
func (m *JuryMember) HasGraded() bool { return m.Grade.Valid }

// TeacherName falls back to the id when the teacher is not loaded.
func (m *JuryMember) TeacherName() string {
	if m.Teacher != nil {
		return m.Teacher.Name
	}
	return m.TeacherID
}
