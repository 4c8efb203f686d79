package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/youkaichao/WtfTicket/internal/booking"
	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/models"
)

// Handler is one entry in the router's ordered list. Match decides whether
// this handler takes the message; Handle produces exactly one reply.
type Handler interface {
	Name() string
	Match(msg *Message) bool
	Handle(ctx context.Context, msg *Message) (*Reply, error)
}

type UserStore interface {
	GetOrCreateUserByOpenID(ctx context.Context, openID string) (*models.User, error)
	UnbindStudentID(ctx context.Context, openID string) error
}

type ActivityStore interface {
	GetActivityByID(ctx context.Context, id int64) (*models.Activity, error)
	GetActivityByKey(ctx context.Context, key string) (*models.Activity, error)
	ListBookable(ctx context.Context, now time.Time) ([]models.Activity, error)
}

type TicketStore interface {
	ListValidByStudent(ctx context.Context, studentID string) ([]models.Ticket, error)
}

type Booker interface {
	Book(ctx context.Context, user *models.User, activity *models.Activity) (*booking.Result, error)
	Cancel(ctx context.Context, user *models.User, activity *models.Activity) (*models.Ticket, error)
	Withdraw(ctx context.Context, user *models.User, activity *models.Activity) (*models.Ticket, error)
}

// Deps is everything the handlers reach out to. SiteURL is the public base
// of the user-facing pages linked from reply cards.
type Deps struct {
	Users      UserStore
	Activities ActivityStore
	Tickets    TicketStore
	Booking    Booker
	Logger     *logger.Logger
	SiteURL    string
	Now        func() time.Time
}

// Router dispatches each inbound message to the first handler whose Match
// returns true. Exactly one handler runs per message: the list ends with a
// catch-all default, and any panic or error inside matching or handling
// collapses to the error reply instead of an unhandled fault.
type Router struct {
	handlers []Handler
	logger   *logger.Logger
}

func NewRouter(deps *Deps) *Router {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Router{
		logger: deps.Logger,
		handlers: []Handler{
			&helpHandler{deps},
			&unbindHandler{deps},
			&bindHandler{deps},
			&bookEmptyHandler{},
			&listActivitiesHandler{deps},
			&listTicketsHandler{deps},
			&bookHandler{deps},
			&cancelHandler{deps},
			&withdrawHandler{deps},
			&defaultHandler{},
		},
	}
}

// Route never returns nil and never panics.
func (r *Router) Route(ctx context.Context, msg *Message) *Reply {
	handler := r.pick(msg)
	if handler == nil {
		// Unreachable while the default handler is in the list, but the
		// router stays total even if the list is misassembled.
		r.logger.Error("BOT", fmt.Sprintf("no handler matched message from %s", msg.OpenID))
		return TextReply(MsgInternalError)
	}

	reply, err := r.run(ctx, handler, msg)
	if err != nil {
		r.logger.Error("BOT", fmt.Sprintf("[%s] handler failed for %s: %v", handler.Name(), msg.OpenID, err))
		return TextReply(MsgInternalError)
	}
	r.logger.LogBot(handler.Name(), msg.OpenID, "handled")
	return reply
}

// pick evaluates predicates in list order; a panicking predicate is
// treated as no-match so one bad handler cannot take down routing.
func (r *Router) pick(msg *Message) Handler {
	for _, h := range r.handlers {
		if r.matches(h, msg) {
			return h
		}
	}
	return nil
}

func (r *Router) matches(h Handler, msg *Message) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("BOT", fmt.Sprintf("[%s] match panicked: %v", h.Name(), rec))
			matched = false
		}
	}()
	return h.Match(msg)
}

func (r *Router) run(ctx context.Context, h Handler, msg *Message) (reply *Reply, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reply = nil
			err = fmt.Errorf("handler panicked: %v", rec)
		}
	}()
	return h.Handle(ctx, msg)
}
