package dto

// ScheduleDefenseRequest books a defense for a project. Either room_id or
// the legacy free-text room_label may be given.
type ScheduleDefenseRequest struct {
	ProjectID           string `json:"project_id"           binding:"required,uuid"`
	Date                string `json:"date"                 binding:"required,date"`
	StartTime           string `json:"start_time"           binding:"required,hhmm"`
	DurationMinutes     int    `json:"duration_minutes"     binding:"omitempty,min=1,max=480"`
	RoomID              string `json:"room_id"              binding:"omitempty,uuid"`
	RoomLabel           string `json:"room_label"           binding:"omitempty,max=100"`
	PresentationMinutes int    `json:"presentation_minutes" binding:"omitempty,min=1,max=240"`
	QuestionsMinutes    int    `json:"questions_minutes"    binding:"omitempty,min=1,max=240"`
}

// RescheduleDefenseRequest moves a defense. Version guards against
// concurrent edits.
type RescheduleDefenseRequest struct {
	Date            string `json:"date"             binding:"required,date"`
	StartTime       string `json:"start_time"       binding:"required,hhmm"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	RoomID          string `json:"room_id"          binding:"omitempty,uuid"`
	RoomLabel       string `json:"room_label"       binding:"omitempty,max=100"`
	Version         int    `json:"version"          binding:"required,min=1"`
}

// CancelDefenseRequest cancellation.
type CancelDefenseRequest struct {
	Reason  string `json:"reason"  binding:"required,max=1000"`
	Version int    `json:"version" binding:"required,min=1"`
}

// DefenseListRequest list filters.
type DefenseListRequest struct {
	PaginationRequest
	DateFrom     string `form:"date_from"     binding:"omitempty,date"`
	DateTo       string `form:"date_to"       binding:"omitempty,date"`
	RoomID       string `form:"room_id"       binding:"omitempty,uuid"`
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	TeacherID    string `form:"teacher_id"    binding:"omitempty,uuid"`
	Status       string `form:"status"        binding:"omitempty,oneof=scheduled in_progress completed cancelled rescheduled"`
}

// DefenseResponse defense details.
type DefenseResponse struct {
	ID                  string               `json:"id"`
	ProjectID           string               `json:"project_id"`
	ProjectTitle        string               `json:"project_title,omitempty"`
	Student             *UserBrief           `json:"student,omitempty"`
	DepartmentCode      string               `json:"department_code,omitempty"`
	IsInterdisciplinary bool                 `json:"is_interdisciplinary"`
	Date                string               `json:"date"`
	StartTime           string               `json:"start_time"`
	EndTime             string               `json:"end_time"`
	DurationMinutes     int                  `json:"duration_minutes"`
	RoomID              *string              `json:"room_id,omitempty"`
	RoomName            string               `json:"room_name,omitempty"`
	Status              string               `json:"status"`
	PresentationMinutes int                  `json:"presentation_minutes"`
	QuestionsMinutes    int                  `json:"questions_minutes"`
	FinalGrade          *string              `json:"final_grade"`
	JuryComments        string               `json:"jury_comments,omitempty"`
	CancellationReason  string               `json:"cancellation_reason,omitempty"`
	Version             int                  `json:"version"`
	Jury                []JuryMemberResponse `json:"jury,omitempty"`
	CreatedAt           string               `json:"created_at"`
	UpdatedAt           string               `json:"updated_at"`
}

// CompositionResponse jury composition report.
type CompositionResponse struct {
	DefenseID           string   `json:"defense_id"`
	IsInterdisciplinary bool     `json:"is_interdisciplinary"`
	Valid               bool     `json:"valid"`
	Errors              []string `json:"errors"`
}

// GradeSummaryResponse grading state of a defense.
type GradeSummaryResponse struct {
	DefenseID     string               `json:"defense_id"`
	Members       []JuryMemberResponse `json:"members"`
	GradedCount   int                  `json:"graded_count"`
	MemberCount   int                  `json:"member_count"`
	FinalGrade    *string              `json:"final_grade"`
	IsFullyGraded bool                 `json:"is_fully_graded"`
	CanBeGraded   bool                 `json:"can_be_graded"`
}
