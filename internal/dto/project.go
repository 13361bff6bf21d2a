package dto

// CreateSubjectRequest subject proposal. Interdisciplinary subjects need a
// secondary department.
type CreateSubjectRequest struct {
	Title                 string `json:"title"                   binding:"required,min=3,max=255"`
	Description           string `json:"description"             binding:"omitempty,max=5000"`
	DepartmentID          string `json:"department_id"           binding:"required,uuid"`
	IsInterdisciplinary   bool   `json:"is_interdisciplinary"`
	SecondaryDepartmentID string `json:"secondary_department_id" binding:"omitempty,uuid,nefield=DepartmentID"`
	SupervisorID          string `json:"supervisor_id"           binding:"required,uuid"`
	CoSupervisorID        string `json:"co_supervisor_id"        binding:"omitempty,uuid,nefield=SupervisorID"`
}

// SubjectListRequest list filters.
type SubjectListRequest struct {
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
}

// SubjectResponse subject details.
type SubjectResponse struct {
	ID                  string           `json:"id"`
	Title               string           `json:"title"`
	Description         string           `json:"description,omitempty"`
	Department          *DepartmentBrief `json:"department,omitempty"`
	SecondaryDepartment string           `json:"secondary_department_id,omitempty"`
	IsInterdisciplinary bool             `json:"is_interdisciplinary"`
	SupervisorID        string           `json:"supervisor_id"`
	CoSupervisorID      string           `json:"co_supervisor_id,omitempty"`
	CreatedAt           string           `json:"created_at"`
}

// CreateProjectRequest assigns a subject to a student.
type CreateProjectRequest struct {
	SubjectID string `json:"subject_id" binding:"required,uuid"`
	StudentID string `json:"student_id" binding:"required,uuid"`
	Title     string `json:"title"      binding:"omitempty,max=255"`
}

// ProjectListRequest list filters.
type ProjectListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
}

// ProjectResponse project details.
type ProjectResponse struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Status              string     `json:"status"`
	SubjectID           string     `json:"subject_id"`
	SubjectTitle        string     `json:"subject_title,omitempty"`
	DepartmentCode      string     `json:"department_code,omitempty"`
	IsInterdisciplinary bool       `json:"is_interdisciplinary"`
	Student             *UserBrief `json:"student,omitempty"`
	SupervisorIDs       []string   `json:"supervisor_ids,omitempty"`
	CreatedAt           string     `json:"created_at"`
}
