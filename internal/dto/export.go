package dto

// ExportPlanningRequest planning export filters.
type ExportPlanningRequest struct {
	DateFrom     string `form:"date_from"     binding:"required,date"`
	DateTo       string `form:"date_to"       binding:"required,date"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
}
