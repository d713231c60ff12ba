package bot

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func commandUpdate(text string, commandLen int) tgbotapi.Update {
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			From: &tgbotapi.User{ID: 77},
			Chat: &tgbotapi.Chat{ID: 900},
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: commandLen},
			},
		},
	}
}

func TestToRequest(t *testing.T) {
	chatID, req, ok := toRequest(commandUpdate("/add доход, зарплата, 5000", 4))
	if !ok {
		t.Fatal("expected a command")
	}
	if chatID != 900 || req.UserID != 77 || req.Command != "add" || req.Args != "доход, зарплата, 5000" {
		t.Errorf("toRequest = %d, %+v", chatID, req)
	}
}

func TestToRequestIgnoresNonCommands(t *testing.T) {
	plain := tgbotapi.Update{Message: &tgbotapi.Message{
		Text: "hello",
		From: &tgbotapi.User{ID: 1},
		Chat: &tgbotapi.Chat{ID: 1},
	}}
	for name, u := range map[string]tgbotapi.Update{
		"no message": {},
		"plain text": plain,
	} {
		if _, _, ok := toRequest(u); ok {
			t.Errorf("%s: expected update to be ignored", name)
		}
	}
}

func TestDeliver(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		s := &fakeSender{}
		if err := deliver(s, 5, Response{Text: "hi"}); err != nil {
			t.Fatalf("deliver: %v", err)
		}
		msg, ok := s.sent[0].(tgbotapi.MessageConfig)
		if !ok || msg.Text != "hi" || msg.ChatID != 5 {
			t.Errorf("sent %#v", s.sent[0])
		}
	})

	t.Run("document", func(t *testing.T) {
		s := &fakeSender{}
		resp := Response{Text: "caption", Document: &Document{Name: "transactions_5.csv", Content: []byte("a,b\r\n")}}
		if err := deliver(s, 5, resp); err != nil {
			t.Fatalf("deliver: %v", err)
		}
		doc, ok := s.sent[0].(tgbotapi.DocumentConfig)
		if !ok {
			t.Fatalf("sent %T, want DocumentConfig", s.sent[0])
		}
		if doc.Caption != "caption" {
			t.Errorf("caption = %q", doc.Caption)
		}
		file, ok := doc.File.(tgbotapi.FileBytes)
		if !ok || file.Name != "transactions_5.csv" || string(file.Bytes) != "a,b\r\n" {
			t.Errorf("file = %#v", doc.File)
		}
	})

	t.Run("error", func(t *testing.T) {
		s := &fakeSender{err: errors.New("Forbidden: bot was blocked by the user")}
		if err := deliver(s, 5, Response{Text: "hi"}); err == nil {
			t.Fatal("expected send error")
		}
	})
}
