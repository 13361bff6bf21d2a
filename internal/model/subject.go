package model

// Subject a proposed PFE topic (table subjects).
type Subject struct {
	SubjectID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	Title                 string  `gorm:"type:varchar(255);not null"                     json:"title"`
	Description           string  `gorm:"type:text"                                      json:"description,omitempty"`
	DepartmentID          string  `gorm:"type:uuid;not null"                             json:"department_id"`
	SecondaryDepartmentID *string `gorm:"type:uuid"                                      json:"secondary_department_id,omitempty"`
	IsInterdisciplinary   bool    `gorm:"not null;default:false"                         json:"is_interdisciplinary"`
	SupervisorID          string  `gorm:"type:uuid;not null"                             json:"supervisor_id"`
	CoSupervisorID        *string `gorm:"type:uuid"                                      json:"co_supervisor_id,omitempty"`
	SoftDeleteModel

	Department   *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
	Supervisor   *User       `gorm:"foreignKey:SupervisorID;references:UserID"       json:"supervisor,omitempty"`
	CoSupervisor *User       `gorm:"foreignKey:CoSupervisorID;references:UserID"     json:"co_supervisor,omitempty"`
}

// TableName overrides the table name.
func (Subject) TableName() string { return "subjects" }

// SupervisorIDs principal supervisor first, then the co-supervisor if any.
func (s *Subject) SupervisorIDs() []string {
	ids := []string{s.SupervisorID}
	if s.CoSupervisorID != nil && *s.CoSupervisorID != "" {
		ids = append(ids, *s.CoSupervisorID)
	}
	return ids
}
