package model

// Room a defense room (table rooms). A nil DepartmentID is a GENERAL room.
type Room struct {
	RoomID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	Name         string  `gorm:"type:varchar(50);not null"                      json:"name"`
	DepartmentID *string `gorm:"type:uuid"                                      json:"department_id,omitempty"`
	Capacity     int     `gorm:"not null"                                       json:"capacity"`
	Equipment    string  `gorm:"type:text"                                      json:"equipment,omitempty"`
	IsAvailable  bool    `gorm:"not null;default:true"                          json:"is_available"`
	SoftDeleteModel

	Department *Department `gorm:"foreignKey:DepartmentID;references:DepartmentID" json:"department,omitempty"`
}

// TableName overrides the table name.
func (Room) TableName() string { return "rooms" }

// DepartmentCode returns GENERAL for shared rooms.
func (r *Room) DepartmentCode() string {
	if r.DepartmentID == nil {
		return GeneralDepartmentCode
	}
	if r.Department != nil {
		return r.Department.Code
	}
	return *r.DepartmentID
}
