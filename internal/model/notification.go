package model

// Notification types.
const (
	NotifyDefenseScheduled   = "defense_scheduled"
	NotifyDefenseRescheduled = "defense_rescheduled"
	NotifyDefenseCancelled   = "defense_cancelled"
	NotifyJuryInvitation     = "jury_invitation"
	NotifyJuryRemoval        = "jury_removal"
	NotifyGradeFinalized     = "grade_finalized"
	NotifyChangeRequest      = "change_request"
	NotifyChangeReviewed     = "change_request_reviewed"
)

// Related entity kinds.
const (
	RelatedDefense       = "defense"
	RelatedChangeRequest = "change_request"
)

// Notification an in-app message (table notifications).
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string  `gorm:"type:uuid;not null"                             json:"user_id"`
	Type           string  `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string  `gorm:"type:text;not null"                             json:"content"`
	IsRead         bool    `gorm:"not null;default:false"                         json:"is_read"`
	RelatedType    *string `gorm:"type:varchar(30)"                               json:"related_type,omitempty"`
	RelatedID      *string `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SoftDeleteModel
}

// TableName overrides the table name.
func (Notification) TableName() string { return "notifications" }
