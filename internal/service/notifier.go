package service

import (
	"context"
	"fmt"
	netmail "net/mail"

	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/internal/event"
	"github.com/AcMongue/gestion-pfe-sub000/internal/model"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/mail"
)

// Notifier turns committed events into notifications and e-mails.
type Notifier struct {
	repo   *repository.Repository
	mailer mail.Sender
	logger *zap.Logger
}

var _ event.Handler = (*Notifier)(nil)

// NewNotifier creates a Notifier.
func NewNotifier(repo *repository.Repository, mailer mail.Sender, logger *zap.Logger) *Notifier {
	return &Notifier{repo: repo, mailer: mailer, logger: logger}
}

// notice what every recipient of one event receives.
type notice struct {
	kind        string
	title       string
	content     string
	relatedType string
	relatedID   string
}

// Handle implements event.Handler.
func (n *Notifier) Handle(ctx context.Context, e event.Event) error {
	defense, err := n.repo.Defense.GetByID(ctx, e.DefenseID)
	if err != nil {
		return fmt.Errorf("load defense %s: %w", e.DefenseID, err)
	}

	recipients, err := n.recipients(ctx, e, defense)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	msg := describe(e, defense)
	rows := make([]model.Notification, 0, len(recipients))
	for _, userID := range recipients {
		row := model.Notification{
			UserID:  userID,
			Type:    msg.kind,
			Title:   msg.title,
			Content: msg.content,
		}
		relatedType, relatedID := msg.relatedType, msg.relatedID
		row.RelatedType = &relatedType
		row.RelatedID = &relatedID
		rows = append(rows, row)
	}
	if err := n.repo.Notification.CreateBatch(ctx, rows); err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}

	users, err := n.repo.User.ListByIDs(ctx, recipients)
	if err != nil {
		n.logger.Warn("load mail recipients failed", zap.String("kind", string(e.Kind)), zap.Error(err))
		return nil
	}
	to := make([]netmail.Address, 0, len(users))
	for i := range users {
		to = append(to, netmail.Address{Name: users[i].Name, Address: users[i].Email})
	}
	n.mailer.Send(&mail.Message{To: to, Subject: msg.title, Text: msg.content})
	return nil
}

// recipients follow the event kind; the actor is never notified of its own
// action and every user appears once.
func (n *Notifier) recipients(ctx context.Context, e event.Event, defense *model.Defense) ([]string, error) {
	var ids []string
	participants := func() {
		if p := defense.Project; p != nil {
			ids = append(ids, p.StudentID)
			ids = append(ids, p.SupervisorIDs()...)
		}
	}

	switch e.Kind {
	case event.DefenseScheduled, event.GradeFinalized:
		participants()
	case event.DefenseRescheduled, event.DefenseCancelled:
		participants()
		members, err := n.repo.JuryMember.ListByDefense(ctx, defense.DefenseID)
		if err != nil {
			return nil, fmt.Errorf("load jury: %w", err)
		}
		for i := range members {
			ids = append(ids, members[i].TeacherID)
		}
	case event.JuryMemberAdded, event.JuryMemberRemoved:
		ids = append(ids, e.TeacherID)
	case event.ChangeRequestCreated:
		admins, _, err := n.repo.User.List(ctx, repository.UserFilter{Role: model.RoleAdmin})
		if err != nil {
			return nil, fmt.Errorf("load admins: %w", err)
		}
		deptID := ""
		if defense.Project != nil {
			deptID = defense.Project.DepartmentID()
		}
		for i := range admins {
			if admins[i].CanManageDepartment(&deptID) {
				ids = append(ids, admins[i].UserID)
			}
		}
	case event.ChangeRequestReviewed:
		ids = append(ids, e.RequesterID)
	}

	return dedupe(ids, e.ActorID), nil
}

func dedupe(ids []string, skip string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == skip || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func describe(e event.Event, d *model.Defense) notice {
	title := "your project"
	if d.Project != nil {
		title = d.Project.Title
	}
	when := fmt.Sprintf("%s at %s", model.FormatDate(d.Date), d.StartTime)
	where := d.RoomName()

	msg := notice{relatedType: model.RelatedDefense, relatedID: d.DefenseID}
	switch e.Kind {
	case event.DefenseScheduled:
		msg.kind = model.NotifyDefenseScheduled
		msg.title = "Defense scheduled"
		msg.content = fmt.Sprintf("The defense of %q is scheduled on %s in %s.", title, when, where)
	case event.DefenseRescheduled:
		msg.kind = model.NotifyDefenseRescheduled
		msg.title = "Defense rescheduled"
		msg.content = fmt.Sprintf("The defense of %q moved to %s in %s.", title, when, where)
	case event.DefenseCancelled:
		msg.kind = model.NotifyDefenseCancelled
		msg.title = "Defense cancelled"
		msg.content = fmt.Sprintf("The defense of %q planned on %s was cancelled.", title, when)
		if e.Reason != "" {
			msg.content += " Reason: " + e.Reason
		}
	case event.JuryMemberAdded:
		msg.kind = model.NotifyJuryInvitation
		msg.title = "Jury invitation"
		msg.content = fmt.Sprintf("You sit as %s on the jury of %q on %s in %s.", e.JuryRole, title, when, where)
	case event.JuryMemberRemoved:
		msg.kind = model.NotifyJuryRemoval
		msg.title = "Jury membership removed"
		msg.content = fmt.Sprintf("You no longer sit on the jury of %q on %s.", title, when)
	case event.GradeFinalized:
		msg.kind = model.NotifyGradeFinalized
		msg.title = "Final grade available"
		msg.content = fmt.Sprintf("The final grade of %q is %s/20.", title, e.FinalGrade)
	case event.ChangeRequestCreated:
		msg.kind = model.NotifyChangeRequest
		msg.title = "Defense change requested"
		msg.content = fmt.Sprintf("A change was requested for the defense of %q on %s.", title, when)
		msg.relatedType, msg.relatedID = model.RelatedChangeRequest, e.ChangeRequestID
	case event.ChangeRequestReviewed:
		msg.kind = model.NotifyChangeReviewed
		verdict := "rejected"
		if e.Approved {
			verdict = "approved"
		}
		msg.title = "Change request " + verdict
		msg.content = fmt.Sprintf("Your change request for the defense of %q was %s. The defense is on %s in %s.", title, verdict, when, where)
		msg.relatedType, msg.relatedID = model.RelatedChangeRequest, e.ChangeRequestID
	default:
		msg.kind = string(e.Kind)
		msg.title = "Defense update"
		msg.content = fmt.Sprintf("The defense of %q was updated.", title)
	}
	return msg
}
