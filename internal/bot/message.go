package bot

import "strings"

// Inbound event kinds as delivered by the chat platform webhook.
const (
	MsgTypeText  = "text"
	MsgTypeEvent = "event"

	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventScan        = "scan"
	EventClick       = "CLICK"
)

// Menu click keys. ClickKeyBookPrefix is followed by the activity id, so a
// click carries the target directly instead of a free-text key.
const (
	ClickKeyHelp       = "SERVICE_HELP"
	ClickKeyBind       = "SERVICE_BIND"
	ClickKeyBookEmpty  = "BOOK_EMPTY"
	ClickKeyBookWhat   = "BOOK_WHAT"
	ClickKeyGetTicket  = "TICKET_SHOW"
	ClickKeyBookPrefix = "BOOK_ACTIVITY_"
)

// Text command keywords. A booking command may carry one trailing activity
// key separated by whitespace: "book lecture42".
const (
	CmdHelp     = "help"
	CmdBind     = "bind"
	CmdUnbind   = "unbind"
	CmdBook     = "book"
	CmdCancel   = "cancel"
	CmdWithdraw = "ticket"
)

// Message is one inbound chat event, already parsed out of the transport
// envelope by the webhook layer.
type Message struct {
	OpenID   string `json:"open_id"`
	MsgType  string `json:"msg_type"`
	Content  string `json:"content"`
	Event    string `json:"event"`
	EventKey string `json:"event_key"`
}

func (m *Message) IsText(values ...string) bool {
	if m.MsgType != MsgTypeText {
		return false
	}
	trimmed := strings.TrimSpace(m.Content)
	for _, v := range values {
		if strings.EqualFold(trimmed, v) {
			return true
		}
	}
	return false
}

// IsCommand reports whether the message is the keyword alone or the
// keyword followed by an argument.
func (m *Message) IsCommand(keyword string) bool {
	if m.MsgType != MsgTypeText {
		return false
	}
	trimmed := strings.TrimSpace(m.Content)
	if strings.EqualFold(trimmed, keyword) {
		return true
	}
	return len(trimmed) > len(keyword) &&
		strings.EqualFold(trimmed[:len(keyword)], keyword) &&
		trimmed[len(keyword)] == ' '
}

// CommandArg returns the single trailing token after the keyword, or ""
// when the command came bare.
func (m *Message) CommandArg(keyword string) string {
	trimmed := strings.TrimSpace(m.Content)
	if len(trimmed) <= len(keyword) {
		return ""
	}
	return strings.TrimSpace(trimmed[len(keyword):])
}

func (m *Message) IsEvent(events ...string) bool {
	if m.MsgType != MsgTypeEvent {
		return false
	}
	for _, e := range events {
		if strings.EqualFold(m.Event, e) {
			return true
		}
	}
	return false
}

func (m *Message) IsClick(key string) bool {
	return m.MsgType == MsgTypeEvent && m.Event == EventClick && m.EventKey == key
}

func (m *Message) IsClickPrefix(prefix string) bool {
	return m.MsgType == MsgTypeEvent && m.Event == EventClick && strings.HasPrefix(m.EventKey, prefix)
}

// Article is one rich reply card (title, description, link, image).
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PicURL      string `json:"pic_url,omitempty"`
}

// Reply is the single outbound payload a handler produces: either plain
// text or a list of articles, serialized by the transport layer.
type Reply struct {
	Text     string    `json:"text,omitempty"`
	Articles []Article `json:"articles,omitempty"`
}

func TextReply(text string) *Reply {
	return &Reply{Text: text}
}

func NewsReply(articles ...Article) *Reply {
	return &Reply{Articles: articles}
}
