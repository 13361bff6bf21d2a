package model

// GeneralDepartmentCode labels rooms that belong to no department.
const GeneralDepartmentCode = "GENERAL"

// Department a filière such as GIT or GESI (table departments).
type Department struct {
	DepartmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"department_id"`
	Code         string `gorm:"type:varchar(20);not null"                      json:"code"`
	Name         string `gorm:"type:varchar(150);not null"                     json:"name"`
	Description  string `gorm:"type:text"                                      json:"description,omitempty"`
	IsActive     bool   `gorm:"not null;default:true"                          json:"is_active"`
	VersionedModel
}

// TableName overrides the table name.
func (Department) TableName() string { return "departments" }
