package model

// Project status values.
const (
	ProjectStatusInProgress = "in_progress"
	ProjectStatusCompleted  = "completed"
)

// Project one student working on one subject (table projects).
type Project struct {
	ProjectID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	SubjectID string `gorm:"type:uuid;not null"                             json:"subject_id"`
	StudentID string `gorm:"type:uuid;not null"                             json:"student_id"`
	Title     string `gorm:"type:varchar(255);not null"                     json:"title"`
	Status    string `gorm:"type:varchar(20);not null;default:'in_progress'" json:"status"`
	SoftDeleteModel

	Subject *Subject `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
	Student *User    `gorm:"foreignKey:StudentID;references:UserID"    json:"student,omitempty"`
}

// TableName overrides the table name.
func (Project) TableName() string { return "projects" }

// IsInterdisciplinary is read from the subject.
func (p *Project) IsInterdisciplinary() bool {
	return p.Subject != nil && p.Subject.IsInterdisciplinary
}

// DepartmentID the department that owns the project, through its subject.
func (p *Project) DepartmentID() string {
	if p.Subject == nil {
		return ""
	}
	return p.Subject.DepartmentID
}

// DepartmentCode falls back to the department id when the relation is not loaded.
func (p *Project) DepartmentCode() string {
	if p.Subject == nil {
		return ""
	}
	if p.Subject.Department != nil {
		return p.Subject.Department.Code
	}
	return p.Subject.DepartmentID
}

// SupervisorIDs see Subject.SupervisorIDs.
func (p *Project) SupervisorIDs() []string {
	if p.Subject == nil {
		return nil
	}
	return p.Subject.SupervisorIDs()
}
