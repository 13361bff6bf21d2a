package dto

// CreateUserRequest account creation by an administrator.
type CreateUserRequest struct {
	Name          string `json:"name"           binding:"required,min=2,max=150"`
	Email         string `json:"email"          binding:"required,email"`
	Password      string `json:"password"       binding:"required,min=8,max=72"`
	Matricule     string `json:"matricule"      binding:"omitempty,max=30"`
	Role          string `json:"role"           binding:"required,oneof=student teacher admin"`
	AcademicTitle string `json:"academic_title" binding:"omitempty,academic_title"`
	DepartmentID  string `json:"department_id"  binding:"omitempty,uuid"`
}

// UserListRequest user list filters.
type UserListRequest struct {
	PaginationRequest
	Role          string `form:"role"           binding:"omitempty,oneof=student teacher admin"`
	AcademicTitle string `form:"academic_title" binding:"omitempty,academic_title"`
	DepartmentID  string `form:"department_id"  binding:"omitempty,uuid"`
}

// UserResponse user without credentials.
type UserResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Matricule     string           `json:"matricule,omitempty"`
	Role          string           `json:"role"`
	AcademicTitle string           `json:"academic_title,omitempty"`
	TitleLabel    string           `json:"title_label,omitempty"`
	CanPreside    bool             `json:"can_preside"`
	Department    *DepartmentBrief `json:"department,omitempty"`
	CreatedAt     string           `json:"created_at"`
}

// ImportUserResponse outcome of a spreadsheet import.
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Created []ImportedUser    `json:"created"`
	Errors  []ImportUserError `json:"errors"`
}

// ImportedUser an account created by the import with its temporary password.
type ImportedUser struct {
	Row          int    `json:"row"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// ImportUserError a rejected row.
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
