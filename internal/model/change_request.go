package model

import "time"

// ChangeRequestStatus review state of a change request.
type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "pending"
	ChangeRequestApproved ChangeRequestStatus = "approved"
	ChangeRequestRejected ChangeRequestStatus = "rejected"
)

// DefenseChangeRequest a request to move a defense (table defense_change_requests).
// Nil proposal fields keep the current value on approval.
type DefenseChangeRequest struct {
	ChangeRequestID   string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"change_request_id"`
	DefenseID         string              `gorm:"type:uuid;not null"                             json:"defense_id"`
	RequestedBy       string              `gorm:"type:uuid;not null"                             json:"requested_by"`
	ProposedDate      *time.Time          `gorm:"type:date"                                      json:"proposed_date,omitempty"`
	ProposedStartTime *string             `gorm:"type:varchar(5)"                                json:"proposed_start_time,omitempty"`
	ProposedDuration  *int                `                                                      json:"proposed_duration,omitempty"`
	ProposedRoomID    *string             `gorm:"type:uuid"                                      json:"proposed_room_id,omitempty"`
	ProposedLocation  string              `gorm:"type:varchar(200)"                              json:"proposed_location,omitempty"`
	Reason            string              `gorm:"type:text;not null"                             json:"reason"`
	Status            ChangeRequestStatus `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewedBy        *string             `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewComment     string              `gorm:"type:text"                                      json:"review_comment,omitempty"`
	ReviewedAt        *time.Time          `                                                      json:"reviewed_at,omitempty"`
	BaseModel

	Defense   *Defense `gorm:"foreignKey:DefenseID;references:DefenseID" json:"defense,omitempty"`
	Requester *User    `gorm:"foreignKey:RequestedBy;references:UserID"  json:"requester,omitempty"`
}

// TableName overrides the table name.
func (DefenseChangeRequest) TableName() string { return "defense_change_requests" }
