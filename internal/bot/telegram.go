package bot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"finbot/internal/log"
)

// sender is the part of the Telegram API used to deliver replies.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramBot long-polls Telegram and hands every command to the Dispatcher.
type TelegramBot struct {
	api        *tgbotapi.BotAPI
	sender     sender
	dispatcher *Dispatcher
	logger     *log.Logger
	timeout    int
	sem        chan struct{}
	ready      atomic.Bool
}

func NewTelegramBot(token string, pollTimeout, workers int, dispatcher *Dispatcher, logger *log.Logger) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	if workers <= 0 {
		workers = 1
	}

	b := &TelegramBot{
		api:        api,
		sender:     api,
		dispatcher: dispatcher,
		logger:     logger.WithComponent(log.ComponentBot),
		timeout:    pollTimeout,
		sem:        make(chan struct{}, workers),
	}
	b.logger.Info("Authorized on Telegram", "bot", api.Self.UserName)
	return b, nil
}

// Ready reports whether the update loop is running.
func (b *TelegramBot) Ready() bool {
	return b.ready.Load()
}

// Run polls for updates until ctx is cancelled, then waits for in-flight
// commands to finish.
func (b *TelegramBot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.timeout
	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	defer wg.Wait()

	b.ready.Store(true)
	defer b.ready.Store(false)
	b.logger.InfoContext(ctx, "Bot update loop started", log.FieldOperation, log.OpStartup)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.InfoContext(ctx, "Bot update loop stopped", log.FieldOperation, log.OpShutdown)
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			chatID, req, ok := toRequest(update)
			if !ok {
				continue
			}

			select {
			case b.sem <- struct{}{}:
			case <-ctx.Done():
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-b.sem }()
				b.serve(ctx, chatID, req)
			}()
		}
	}
}

func (b *TelegramBot) serve(ctx context.Context, chatID int64, req Request) {
	resp := b.dispatcher.Handle(ctx, req)
	if err := deliver(b.sender, chatID, resp); err != nil {
		b.logger.ErrorContext(ctx, "Failed to send reply", log.NewFields().
			WithUser(req.UserID).
			WithError(err).
			WithErrorType(log.ErrorTypeNetwork).
			ToSlice()...)
	}
}

// toRequest extracts a command from an update. Non-command messages are
// ignored.
func toRequest(update tgbotapi.Update) (int64, Request, bool) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return 0, Request{}, false
	}
	return msg.Chat.ID, Request{
		UserID:  msg.From.ID,
		Command: msg.Command(),
		Args:    msg.CommandArguments(),
	}, true
}

func deliver(s sender, chatID int64, resp Response) error {
	if resp.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  resp.Document.Name,
			Bytes: resp.Document.Content,
		})
		doc.Caption = resp.Text
		_, err := s.Send(doc)
		return err
	}
	_, err := s.Send(tgbotapi.NewMessage(chatID, resp.Text))
	return err
}
