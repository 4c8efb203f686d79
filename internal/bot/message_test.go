package bot_test

import (
	"testing"

	"github.com/youkaichao/WtfTicket/internal/bot"
)

func TestIsCommand(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"book", true},
		{"book concert", true},
		{"  Book concert  ", true},
		{"bookconcert", false},
		{"booking", false},
		{"cancel book", false},
		{"", false},
	}
	for _, tc := range cases {
		msg := &bot.Message{MsgType: bot.MsgTypeText, Content: tc.content}
		if got := msg.IsCommand(bot.CmdBook); got != tc.want {
			t.Errorf("IsCommand(book) for %q: expected %v, got %v", tc.content, tc.want, got)
		}
	}

	event := &bot.Message{MsgType: bot.MsgTypeEvent, Content: "book concert"}
	if event.IsCommand(bot.CmdBook) {
		t.Error("Events must never match text commands")
	}
}

func TestCommandArg(t *testing.T) {
	cases := []struct {
		content string
		want    string
	}{
		{"book concert", "concert"},
		{"book   concert  ", "concert"},
		{"book", ""},
	}
	for _, tc := range cases {
		msg := &bot.Message{MsgType: bot.MsgTypeText, Content: tc.content}
		if got := msg.CommandArg(bot.CmdBook); got != tc.want {
			t.Errorf("CommandArg for %q: expected %q, got %q", tc.content, tc.want, got)
		}
	}
}

func TestClickPrefixDoesNotShadowExactKeys(t *testing.T) {
	listClick := &bot.Message{MsgType: bot.MsgTypeEvent, Event: bot.EventClick, EventKey: bot.ClickKeyBookWhat}
	if listClick.IsClickPrefix(bot.ClickKeyBookPrefix) {
		t.Error("The list key must not match the per-activity prefix")
	}

	bookClick := &bot.Message{MsgType: bot.MsgTypeEvent, Event: bot.EventClick, EventKey: bot.ClickKeyBookPrefix + "42"}
	if !bookClick.IsClickPrefix(bot.ClickKeyBookPrefix) {
		t.Error("A per-activity click must match the prefix")
	}
}
