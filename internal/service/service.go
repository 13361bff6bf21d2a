package service

import (
	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/config"
	"github.com/AcMongue/gestion-pfe-sub000/internal/event"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/jwt"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/mail"
)

// Service aggregates every service.
type Service struct {
	Auth          AuthService
	User          UserService
	Department    DepartmentService
	Project       ProjectService
	Room          RoomService
	Defense       DefenseService
	Jury          JuryService
	ChangeRequest ChangeRequestService
	Notification  NotificationService
	Export        ExportService
}

// NewService wires the services and subscribes the notifier to bus. A nil
// blacklist disables token revocation.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	bus *event.Bus,
	mailer mail.Sender,
	logger *zap.Logger,
) *Service {
	bus.Subscribe("notifier", NewNotifier(repo, mailer, logger))

	return &Service{
		Auth:          NewAuthService(repo, jwtMgr, blacklist, logger),
		User:          NewUserService(repo, logger),
		Department:    NewDepartmentService(repo, logger),
		Project:       NewProjectService(repo, logger),
		Room:          NewRoomService(repo, logger),
		Defense:       NewDefenseService(repo, &cfg.Defense, bus, logger),
		Jury:          NewJuryService(repo, &cfg.Defense, bus, logger),
		ChangeRequest: NewChangeRequestService(repo, &cfg.Defense, bus, logger),
		Notification:  NewNotificationService(repo, logger),
		Export:        NewExportService(repo, &cfg.Defense, logger),
	}
}
