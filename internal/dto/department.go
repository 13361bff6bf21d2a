package dto

// CreateDepartmentRequest new filière.
type CreateDepartmentRequest struct {
	Code        string `json:"code"        binding:"required,min=2,max=20,alphanum"`
	Name        string `json:"name"        binding:"required,min=2,max=150"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateDepartmentRequest partial update.
type UpdateDepartmentRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=150"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// DepartmentListRequest list filters.
type DepartmentListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DepartmentResponse department details.
type DepartmentResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}
