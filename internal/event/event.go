// Package event carries the facts produced by validated defense mutations to
// whoever reacts to them (notifications, external consumers).
package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Kind identifies what happened.
type Kind string

const (
	DefenseScheduled      Kind = "defense.scheduled"
	DefenseRescheduled    Kind = "defense.rescheduled"
	DefenseCancelled      Kind = "defense.cancelled"
	GradeFinalized        Kind = "defense.grade_finalized"
	JuryMemberAdded       Kind = "jury.member_added"
	JuryMemberRemoved     Kind = "jury.member_removed"
	ChangeRequestCreated  Kind = "change_request.created"
	ChangeRequestReviewed Kind = "change_request.reviewed"
)

// Event one committed state change. Fields beyond Kind/DefenseID/ActorID/
// OccurredAt are set only for the kinds that need them.
type Event struct {
	Kind       Kind      `json:"kind"`
	DefenseID  string    `json:"defense_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`

	// jury.*
	TeacherID string `json:"teacher_id,omitempty"`
	JuryRole  string `json:"jury_role,omitempty"`

	// defense.grade_finalized
	FinalGrade string `json:"final_grade,omitempty"`

	// defense.cancelled
	Reason string `json:"reason,omitempty"`

	// change_request.*
	ChangeRequestID string `json:"change_request_id,omitempty"`
	RequesterID     string `json:"requester_id,omitempty"`
	Approved        bool   `json:"approved,omitempty"`
}

// New stamps an event of kind k for defense defenseID.
func New(k Kind, defenseID, actorID string) Event {
	return Event{
		Kind:       k,
		DefenseID:  defenseID,
		ActorID:    actorID,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler reacts to one event. A returned error is logged, never propagated
// to the publisher.
type Handler interface {
	Handle(ctx context.Context, e Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, e Event) error

func (f HandlerFunc) Handle(ctx context.Context, e Event) error { return f(ctx, e) }

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// Bus fans events out synchronously to every subscriber in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []namedHandler
	logger   *zap.Logger
}

type namedHandler struct {
	name string
	h    Handler
}

var _ Publisher = (*Bus)(nil)

// NewBus creates an empty Bus.
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Subscribe registers h under name (used in logs).
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, namedHandler{name: name, h: h})
}

// Publish delivers every event to every subscriber. A failing or panicking
// subscriber does not stop the others.
func (b *Bus) Publish(ctx context.Context, events ...Event) {
	b.mu.RLock()
	handlers := make([]namedHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, e := range events {
		for _, nh := range handlers {
			if err := b.dispatch(ctx, nh, e); err != nil {
				b.logger.Error("event handler failed",
					zap.String("handler", nh.name),
					zap.String("kind", string(e.Kind)),
					zap.String("defense_id", e.DefenseID),
					zap.Error(err),
				)
			}
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, nh namedHandler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return nh.h.Handle(ctx, e)
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) {}
