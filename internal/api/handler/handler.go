package handler

import "github.com/AcMongue/gestion-pfe-sub000/internal/service"

// Handler aggregates every handler.
type Handler struct {
	Auth          *AuthHandler
	User          *UserHandler
	Department    *DepartmentHandler
	Project       *ProjectHandler
	Room          *RoomHandler
	Defense       *DefenseHandler
	Jury          *JuryHandler
	ChangeRequest *ChangeRequestHandler
	Notification  *NotificationHandler
	Export        *ExportHandler
}

// NewHandler creates the Handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:          NewAuthHandler(svc.Auth),
		User:          NewUserHandler(svc.User),
		Department:    NewDepartmentHandler(svc.Department),
		Project:       NewProjectHandler(svc.Project),
		Room:          NewRoomHandler(svc.Room, svc.Defense),
		Defense:       NewDefenseHandler(svc.Defense),
		Jury:          NewJuryHandler(svc.Jury),
		ChangeRequest: NewChangeRequestHandler(svc.ChangeRequest),
		Notification:  NewNotificationHandler(svc.Notification),
		Export:        NewExportHandler(svc.Export),
	}
}
