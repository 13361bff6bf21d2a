package dto

// CreateRoomRequest new room. No department means a GENERAL room.
type CreateRoomRequest struct {
	Name         string `json:"name"          binding:"required,min=1,max=50"`
	DepartmentID string `json:"department_id" binding:"omitempty,uuid"`
	Capacity     int    `json:"capacity"      binding:"required,min=1,max=2000"`
	Equipment    string `json:"equipment"     binding:"omitempty,max=1000"`
}

// UpdateRoomRequest partial update; an empty department_id makes the room GENERAL.
type UpdateRoomRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=50"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	Capacity     *int    `json:"capacity"      binding:"omitempty,min=1,max=2000"`
	Equipment    *string `json:"equipment"     binding:"omitempty,max=1000"`
	IsAvailable  *bool   `json:"is_available"`
}

// RoomListRequest list filters.
type RoomListRequest struct {
	DepartmentID       string `form:"department_id"       binding:"omitempty,uuid"`
	IncludeUnavailable bool   `form:"include_unavailable"`
}

// RoomResponse room details.
type RoomResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	DepartmentID   *string `json:"department_id,omitempty"`
	DepartmentCode string  `json:"department_code"`
	Capacity       int     `json:"capacity"`
	Equipment      string  `json:"equipment,omitempty"`
	IsAvailable    bool    `json:"is_available"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// RoomAvailabilityRequest pre-check of a booking.
type RoomAvailabilityRequest struct {
	Date             string `form:"date"               binding:"required,date"`
	StartTime        string `form:"start_time"         binding:"required,hhmm"`
	DurationMinutes  int    `form:"duration_minutes"   binding:"required,min=1,max=480"`
	ExcludeDefenseID string `form:"exclude_defense_id" binding:"omitempty,uuid"`
}

// BookingResponse an existing booking.
type BookingResponse struct {
	DefenseID string `json:"defense_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Label     string `json:"label,omitempty"`
}

// RoomAvailabilityResponse result of the pre-check.
type RoomAvailabilityResponse struct {
	RoomID    string            `json:"room_id"`
	RoomName  string            `json:"room_name"`
	Available bool              `json:"available"`
	Reason    string            `json:"reason,omitempty"`
	Conflicts []BookingResponse `json:"conflicts"`
}
