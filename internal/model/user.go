package model

// Role is the closed set of account kinds.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// AcademicTitle is a teacher's rank. Only professeurs may preside a jury.
type AcademicTitle string

const (
	TitleNone             AcademicTitle = ""
	TitleProfesseur       AcademicTitle = "professeur"
	TitleMaitreConference AcademicTitle = "maitre_conference"
	TitleMaitreAssistant  AcademicTitle = "maitre_assistant"
)

// Valid reports whether t is a known title.
func (t AcademicTitle) Valid() bool {
	switch t {
	case TitleNone, TitleProfesseur, TitleMaitreConference, TitleMaitreAssistant:
		return true
	}
	return false
}

// Label is the human readable rank.
func (t AcademicTitle) Label() string {
	switch t {
	case TitleProfesseur:
		return "Professeur"
	case TitleMaitreConference:
		return "Maître de Conférences"
	case TitleMaitreAssistant:
		return "Maître Assistant"
	default:
		return "no academic title"
	}
}

// User table users.
type User struct {
	UserID        string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name          string        `gorm:"type:varchar(150);not null"                     json:"name"`
	Email         string        `gorm:"type:varchar(255);not null"                     json:"email"`
	Matricule     *string       `gorm:"type:varchar(30)"                               json:"matricule,omitempty"`
	PasswordHash  string        `gorm:"type:varchar(255);not null"                     json:"-"`
	Role          Role          `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	AcademicTitle AcademicTitle `gorm:"type:varchar(30);not null;default:''"           json:"academic_title"`
	DepartmentID  *string       `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	VersionedModel

	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName overrides the table name.
func (User) TableName() string { return "users" }

// CanSitOnJury only teaching staff may be jury members.
func (u *User) CanSitOnJury() bool {
	return u.Role == RoleTeacher
}

// CanPresideJury a jury president must be a teacher holding the professeur rank.
func (u *User) CanPresideJury() bool {
	return u.CanSitOnJury() && u.AcademicTitle == TitleProfesseur
}

// IsGeneralAdmin an administrator not attached to a department.
func (u *User) IsGeneralAdmin() bool {
	return u.Role == RoleAdmin && (u.DepartmentID == nil || *u.DepartmentID == "")
}

// CanManageDepartment general administrators manage everything; department
// administrators only their own department. A nil departmentID designates
// shared (GENERAL) resources, reserved to general administrators.
func (u *User) CanManageDepartment(departmentID *string) bool {
	if u.Role != RoleAdmin {
		return false
	}
	if u.IsGeneralAdmin() {
		return true
	}
	return departmentID != nil && *departmentID == *u.DepartmentID
}
