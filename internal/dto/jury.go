package dto

import "github.com/shopspring/decimal"

// AddJuryMemberRequest seats a teacher on a jury.
type AddJuryMemberRequest struct {
	TeacherID string `json:"teacher_id" binding:"required,uuid"`
	Role      string `json:"role"       binding:"required,jury_role"`
}

// UpdateJuryMemberRequest changes the role of a seat.
type UpdateJuryMemberRequest struct {
	Role string `json:"role" binding:"required,jury_role"`
}

// SubmitGradeRequest grade of the calling jury member. The grade accepts a
// JSON number or a quoted decimal.
type SubmitGradeRequest struct {
	Grade    *decimal.Decimal `json:"grade"    binding:"required,grade"`
	Comments string           `json:"comments" binding:"omitempty,max=2000"`
}

// JuryMemberResponse one seat.
type JuryMemberResponse struct {
	ID            string  `json:"id"`
	DefenseID     string  `json:"defense_id"`
	TeacherID     string  `json:"teacher_id"`
	TeacherName   string  `json:"teacher_name"`
	AcademicTitle string  `json:"academic_title,omitempty"`
	Role          string  `json:"role"`
	Grade         *string `json:"grade"`
	Comments      string  `json:"comments,omitempty"`
	GradedAt      *string `json:"graded_at,omitempty"`
}

// JuryListResponse the jury and its composition report.
type JuryListResponse struct {
	Members     []JuryMemberResponse `json:"members"`
	Composition CompositionResponse  `json:"composition"`
}

// PresidentAvailabilityRequest query of the presidency quota.
type PresidentAvailabilityRequest struct {
	TeacherID    string `form:"teacher_id"    binding:"required,uuid"`
	Date         string `form:"date"          binding:"required,date"`
	DepartmentID string `form:"department_id" binding:"required,uuid"`
}

// PresidentAvailabilityResponse quota state of one professeur.
type PresidentAvailabilityResponse struct {
	TeacherID      string `json:"teacher_id"`
	Date           string `json:"date"`
	DepartmentCode string `json:"department_code"`
	Available      bool   `json:"available"`
	CurrentCount   int64  `json:"current_count"`
	Limit          int    `json:"limit"`
	Message        string `json:"message"`
}

// EligiblePresidentsRequest professeurs with remaining presidencies.
type EligiblePresidentsRequest struct {
	Date         string `form:"date"          binding:"required,date"`
	DepartmentID string `form:"department_id" binding:"required,uuid"`
}

// EligiblePresidentResponse one eligible professeur.
type EligiblePresidentResponse struct {
	Teacher      UserBrief `json:"teacher"`
	CurrentCount int64     `json:"current_count"`
	Remaining    int64     `json:"remaining"`
}
