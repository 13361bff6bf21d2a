package dto

// CreateChangeRequestRequest asks to move a defense. Omitted fields keep
// their current value.
type CreateChangeRequestRequest struct {
	ProposedDate      string `json:"proposed_date"       binding:"omitempty,date"`
	ProposedStartTime string `json:"proposed_start_time" binding:"omitempty,hhmm"`
	ProposedDuration  int    `json:"proposed_duration"   binding:"omitempty,min=1,max=480"`
	ProposedRoomID    string `json:"proposed_room_id"    binding:"omitempty,uuid"`
	ProposedLocation  string `json:"proposed_location"   binding:"omitempty,max=200"`
	Reason            string `json:"reason"              binding:"required,min=5,max=2000"`
}

// ReviewChangeRequestRequest administrator decision.
type ReviewChangeRequestRequest struct {
	Approve bool   `json:"approve"`
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

// ChangeRequestResponse change request details.
type ChangeRequestResponse struct {
	ID                string     `json:"id"`
	DefenseID         string     `json:"defense_id"`
	Requester         *UserBrief `json:"requester,omitempty"`
	ProposedDate      string     `json:"proposed_date,omitempty"`
	ProposedStartTime string     `json:"proposed_start_time,omitempty"`
	ProposedDuration  int        `json:"proposed_duration,omitempty"`
	ProposedRoomID    string     `json:"proposed_room_id,omitempty"`
	ProposedLocation  string     `json:"proposed_location,omitempty"`
	Reason            string     `json:"reason"`
	Status            string     `json:"status"`
	ReviewedBy        string     `json:"reviewed_by,omitempty"`
	ReviewComment     string     `json:"review_comment,omitempty"`
	ReviewedAt        string     `json:"reviewed_at,omitempty"`
	CreatedAt         string     `json:"created_at"`
}
