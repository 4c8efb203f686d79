package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/youkaichao/WtfTicket/internal/booking"
	"github.com/youkaichao/WtfTicket/internal/models"
	"github.com/youkaichao/WtfTicket/internal/store"
)

func activityDetailURL(siteURL string, activityID int64) string {
	return fmt.Sprintf("%s/activity?id=%d", siteURL, activityID)
}

func ticketDetailURL(siteURL, openID, uniqueID string) string {
	return fmt.Sprintf("%s/ticket?openid=%s&ticket=%s", siteURL, openID, uniqueID)
}

func activityCardDescription(a *models.Activity) string {
	return fmt.Sprintf("%s\n%s\n%s - %s",
		a.Description, a.Place,
		a.StartTime.Format("2006-01-02 15:04"),
		a.EndTime.Format("2006-01-02 15:04"))
}

type helpHandler struct{ deps *Deps }

func (h *helpHandler) Name() string { return "help" }

func (h *helpHandler) Match(msg *Message) bool {
	return msg.IsText(CmdHelp) || msg.IsEvent(EventSubscribe, EventScan) || msg.IsClick(ClickKeyHelp)
}

func (h *helpHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	return NewsReply(Article{
		Title:       MsgHelpTitle,
		Description: MsgHelpBody,
		URL:         h.deps.SiteURL + "/help",
	}), nil
}

type unbindHandler struct{ deps *Deps }

func (h *unbindHandler) Name() string { return "unbind" }

func (h *unbindHandler) Match(msg *Message) bool {
	return msg.IsText(CmdUnbind) || msg.IsEvent(EventUnsubscribe)
}

func (h *unbindHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	if _, err := h.deps.Users.GetOrCreateUserByOpenID(ctx, msg.OpenID); err != nil {
		return nil, err
	}
	if err := h.deps.Users.UnbindStudentID(ctx, msg.OpenID); err != nil {
		return nil, err
	}
	return TextReply(MsgUnbound), nil
}

type bindHandler struct{ deps *Deps }

func (h *bindHandler) Name() string { return "bind" }

func (h *bindHandler) Match(msg *Message) bool {
	return msg.IsText(CmdBind) || msg.IsClick(ClickKeyBind)
}

func (h *bindHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	if _, err := h.deps.Users.GetOrCreateUserByOpenID(ctx, msg.OpenID); err != nil {
		return nil, err
	}
	return TextReply(MsgBindAccount), nil
}

type bookEmptyHandler struct{}

func (h *bookEmptyHandler) Name() string { return "book-empty" }

func (h *bookEmptyHandler) Match(msg *Message) bool {
	return msg.IsClick(ClickKeyBookEmpty)
}

func (h *bookEmptyHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	return TextReply(MsgBookEmpty), nil
}

// listActivitiesHandler answers the "what can I book" menu click with one
// card per bookable activity, soonest deadline first.
type listActivitiesHandler struct{ deps *Deps }

func (h *listActivitiesHandler) Name() string { return "list-activities" }

func (h *listActivitiesHandler) Match(msg *Message) bool {
	return msg.IsClick(ClickKeyBookWhat)
}

func (h *listActivitiesHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	activities, err := h.deps.Activities.ListBookable(ctx, h.deps.Now())
	if err != nil {
		return nil, err
	}
	if len(activities) == 0 {
		return TextReply(MsgBookEmpty), nil
	}

	articles := make([]Article, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		articles = append(articles, Article{
			Title:       a.Name,
			Description: activityCardDescription(a),
			URL:         activityDetailURL(h.deps.SiteURL, a.ID),
			PicURL:      a.PicURL,
		})
	}
	return NewsReply(articles...), nil
}

type listTicketsHandler struct{ deps *Deps }

func (h *listTicketsHandler) Name() string { return "list-tickets" }

func (h *listTicketsHandler) Match(msg *Message) bool {
	return msg.IsClick(ClickKeyGetTicket)
}

func (h *listTicketsHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	user, err := h.deps.Users.GetOrCreateUserByOpenID(ctx, msg.OpenID)
	if err != nil {
		return nil, err
	}
	if !user.IsBound() {
		return TextReply(MsgIDNotBound), nil
	}

	tickets, err := h.deps.Tickets.ListValidByStudent(ctx, user.StudentID)
	if err != nil {
		return nil, err
	}

	var articles []Article
	for i := range tickets {
		ticket := &tickets[i]
		activity, err := h.deps.Activities.GetActivityByID(ctx, ticket.ActivityID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		// Tickets for unpublished activities stay hidden.
		if !activity.IsPublished() {
			continue
		}
		articles = append(articles, Article{
			Title:       activity.Name,
			Description: activityCardDescription(activity),
			URL:         ticketDetailURL(h.deps.SiteURL, msg.OpenID, ticket.UniqueID),
			PicURL:      activity.PicURL,
		})
	}
	if len(articles) == 0 {
		return TextReply(MsgTicketEmpty), nil
	}
	return NewsReply(articles...), nil
}

// bookHandler is the contended path: text "book <key>" or a menu click
// whose event key carries the activity id.
type bookHandler struct{ deps *Deps }

func (h *bookHandler) Name() string { return "book" }

func (h *bookHandler) Match(msg *Message) bool {
	return msg.IsCommand(CmdBook) || msg.IsClickPrefix(ClickKeyBookPrefix)
}

func (h *bookHandler) resolveActivity(ctx context.Context, msg *Message) (*models.Activity, *Reply, error) {
	if msg.IsClickPrefix(ClickKeyBookPrefix) {
		raw := strings.TrimPrefix(msg.EventKey, ClickKeyBookPrefix)
		activityID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, TextReply(MsgActivityNotFound), nil
		}
		activity, err := h.deps.Activities.GetActivityByID(ctx, activityID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, TextReply(MsgActivityNotFound), nil
		}
		if err != nil {
			return nil, nil, err
		}
		return activity, nil, nil
	}

	key := msg.CommandArg(CmdBook)
	if key == "" {
		return nil, TextReply(MsgBookMissingKey), nil
	}
	activity, err := h.deps.Activities.GetActivityByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, TextReply(MsgActivityNotFound), nil
	}
	if err != nil {
		return nil, nil, err
	}
	return activity, nil, nil
}

func (h *bookHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	user, err := h.deps.Users.GetOrCreateUserByOpenID(ctx, msg.OpenID)
	if err != nil {
		return nil, err
	}

	activity, reject, err := h.resolveActivity(ctx, msg)
	if err != nil || reject != nil {
		return reject, err
	}

	result, err := h.deps.Booking.Book(ctx, user, activity)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNotPublished):
			return TextReply(MsgActivityNotFound), nil
		case errors.Is(err, booking.ErrNotBound):
			return TextReply(MsgIDNotBound), nil
		case errors.Is(err, booking.ErrNotStarted):
			return TextReply(MsgBookNotStarted), nil
		case errors.Is(err, booking.ErrEnded):
			return TextReply(MsgBookEnded), nil
		case errors.Is(err, booking.ErrSoldOut):
			return TextReply(MsgSoldOut), nil
		case errors.Is(err, booking.ErrBusy):
			return TextReply(MsgServiceBusy), nil
		}
		return nil, err
	}

	title := MsgBookSuccessTitle
	if result.Existing {
		title = MsgWithdrawTitle
	}
	return NewsReply(Article{
		Title:       title,
		Description: activityCardDescription(activity),
		URL:         ticketDetailURL(h.deps.SiteURL, msg.OpenID, result.Ticket.UniqueID),
		PicURL:      activity.PicURL,
	}), nil
}

type cancelHandler struct{ deps *Deps }

func (h *cancelHandler) Name() string { return "cancel" }

func (h *cancelHandler) Match(msg *Message) bool {
	return msg.IsCommand(CmdCancel)
}

func (h *cancelHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	user, err := h.deps.Users.GetOrCreateUserByOpenID(ctx, msg.OpenID)
	if err != nil {
		return nil, err
	}

	key := msg.CommandArg(CmdCancel)
	if key == "" {
		return TextReply(MsgCancelMissingKey), nil
	}
	activity, err := h.deps.Activities.GetActivityByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return TextReply(MsgCancelActivityNotFound), nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := h.deps.Booking.Cancel(ctx, user, activity); err != nil {
		switch {
		case errors.Is(err, booking.ErrNotPublished):
			return TextReply(MsgCancelActivityNotFound), nil
		case errors.Is(err, booking.ErrNotBound):
			return TextReply(MsgIDNotBound), nil
		case errors.Is(err, booking.ErrNoTicket):
			return TextReply(MsgNoTicket), nil
		}
		return nil, err
	}
	return TextReply(MsgCancelComplete), nil
}

type withdrawHandler struct{ deps *Deps }

func (h *withdrawHandler) Name() string { return "withdraw" }

func (h *withdrawHandler) Match(msg *Message) bool {
	return msg.IsCommand(CmdWithdraw)
}

func (h *withdrawHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	user, err := h.deps.Users.GetOrCreateUserByOpenID(ctx, msg.OpenID)
	if err != nil {
		return nil, err
	}

	key := msg.CommandArg(CmdWithdraw)
	if key == "" {
		return TextReply(MsgWithdrawMissingKey), nil
	}
	activity, err := h.deps.Activities.GetActivityByKey(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return TextReply(MsgActivityNotFound), nil
	}
	if err != nil {
		return nil, err
	}

	ticket, err := h.deps.Booking.Withdraw(ctx, user, activity)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNotPublished):
			return TextReply(MsgActivityNotFound), nil
		case errors.Is(err, booking.ErrNotBound):
			return TextReply(MsgIDNotBound), nil
		case errors.Is(err, booking.ErrNoTicket):
			return TextReply(MsgNoTicket), nil
		}
		return nil, err
	}
	return NewsReply(Article{
		Title:       MsgWithdrawTitle,
		Description: activityCardDescription(activity),
		URL:         ticketDetailURL(h.deps.SiteURL, msg.OpenID, ticket.UniqueID),
		PicURL:      activity.PicURL,
	}), nil
}

type defaultHandler struct{}

func (h *defaultHandler) Name() string { return "default" }

func (h *defaultHandler) Match(msg *Message) bool { return true }

func (h *defaultHandler) Handle(ctx context.Context, msg *Message) (*Reply, error) {
	return TextReply(MsgDefault), nil
}
