package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefenseStatus lifecycle of a defense.
type DefenseStatus string

const (
	DefenseScheduled   DefenseStatus = "scheduled"
	DefenseInProgress  DefenseStatus = "in_progress"
	DefenseCompleted   DefenseStatus = "completed"
	DefenseCancelled   DefenseStatus = "cancelled"
	DefenseRescheduled DefenseStatus = "rescheduled"
)

// Valid reports whether s is a known status.
func (s DefenseStatus) Valid() bool {
	switch s {
	case DefenseScheduled, DefenseInProgress, DefenseCompleted, DefenseCancelled, DefenseRescheduled:
		return true
	}
	return false
}

// Defense one oral defense of one project (table defenses).
// StartsAt/EndsAt mirror Date+StartTime+DurationMinutes for the storage-level
// overlap constraint; SetSlot keeps them in sync.
type Defense struct {
	DefenseID           string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"defense_id"`
	ProjectID           string              `gorm:"type:uuid;not null"                             json:"project_id"`
	Date                time.Time           `gorm:"type:date;not null"                             json:"date"`
	StartTime           string              `gorm:"type:varchar(5);not null"                       json:"start_time"`
	DurationMinutes     int                 `gorm:"not null;default:30"                            json:"duration_minutes"`
	StartsAt            time.Time           `gorm:"type:timestamp;not null"                        json:"-"`
	EndsAt              time.Time           `gorm:"type:timestamp;not null"                        json:"-"`
	RoomID              *string             `gorm:"type:uuid"                                      json:"room_id,omitempty"`
	RoomLabel           string              `gorm:"type:varchar(100)"                              json:"room_label,omitempty"`
	Status              DefenseStatus       `gorm:"type:varchar(20);not null;default:'scheduled'"  json:"status"`
	PresentationMinutes int                 `gorm:"not null;default:15"                            json:"presentation_minutes"`
	QuestionsMinutes    int                 `gorm:"not null;default:15"                            json:"questions_minutes"`
	FinalGrade          decimal.NullDecimal `gorm:"type:numeric(4,2)"                              json:"final_grade"`
	JuryComments        string              `gorm:"type:text"                                      json:"jury_comments,omitempty"`
	CancellationReason  string              `gorm:"type:text"                                      json:"cancellation_reason,omitempty"`
	Version             int                 `gorm:"not null;default:1"                             json:"version"`
	BaseModel

	Project     *Project     `gorm:"foreignKey:ProjectID;references:ProjectID" json:"project,omitempty"`
	Room        *Room        `gorm:"foreignKey:RoomID;references:RoomID"       json:"room,omitempty"`
	JuryMembers []JuryMember `gorm:"foreignKey:DefenseID;references:DefenseID" json:"jury_members,omitempty"`
}

// TableName overrides the table name.
func (Defense) TableName() string { return "defenses" }

// Slot the booking interval of the defense.
func (d *Defense) Slot() (Slot, error) {
	return NewSlot(d.Date, d.StartTime, d.DurationMinutes)
}

// SetSlot moves the defense and refreshes the derived timestamps.
func (d *Defense) SetSlot(s Slot) {
	d.Date = s.Date
	d.StartTime = s.StartClock()
	d.DurationMinutes = s.End - s.Start
	d.StartsAt = s.StartsAt()
	d.EndsAt = s.EndsAt()
}

// EndTime formats the end of the defense as HH:MM.
func (d *Defense) EndTime() string {
	s, err := d.Slot()
	if err != nil {
		return ""
	}
	return s.EndClock()
}

// OccupiesRoom every status except cancelled keeps its room booked.
func (d *Defense) OccupiesRoom() bool {
	return d.Status != DefenseCancelled
}

// IsOpen the defense may still be moved or have its jury edited.
func (d *Defense) IsOpen() bool {
	return d.Status == DefenseScheduled || d.Status == DefenseRescheduled
}

// CanBeGraded grading opens once the defense start time has passed. now must
// be a wall clock produced by WallClock.
func (d *Defense) CanBeGraded(now time.Time) bool {
	if d.Status == DefenseCancelled {
		return false
	}
	return !d.StartsAt.After(now)
}

// RoomName the booked room name, or the legacy free-text label.
func (d *Defense) RoomName() string {
	if d.Room != nil {
		return d.Room.Name
	}
	return d.RoomLabel
}
