// Package gateway adapts an inbound chat transport to the pipeline. It only
// carries text in and renders replies out; all decisions happen downstream.
package gateway

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/avelencia/todo-chat/internal/assistant"
	"github.com/avelencia/todo-chat/internal/models"
	"github.com/avelencia/todo-chat/internal/resilience"
)

// Telegram feeds Telegram messages into the assistant and sends replies back.
type Telegram struct {
	api       *tgbotapi.BotAPI
	assistant *assistant.Assistant
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[int64]string // chat id -> session id
}

func NewTelegram(token string, asst *assistant.Assistant, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Telegram{
		api:       api,
		assistant: asst,
		logger:    logger,
		sessions:  make(map[int64]string),
	}, nil
}

// Start consumes updates until the update channel closes.
func (t *Telegram) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		go t.handleMessage(update.Message)
	}

	return nil
}

func (t *Telegram) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()

	text := message.Text
	if message.IsCommand() {
		switch message.Command() {
		case "start":
			text = "hello"
		case "help":
			text = "help"
		default:
			t.send(message.Chat.ID, `Unknown command. Use /help to see what I understand.`)
			return
		}
	}

	authCtx := models.AuthContext{UserID: message.From.ID}

	reply, err := t.assistant.SendMessage(ctx, t.sessionFor(message.Chat.ID), authCtx, text)
	if err != nil {
		t.logger.Error("failed to handle message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID),
			zap.Int64("user_id", message.From.ID))
		t.send(message.Chat.ID, "Sorry, something went wrong. Please try again.")
		return
	}
	if reply.Text == "" {
		return
	}

	t.rememberSession(message.Chat.ID, reply.SessionID)
	t.send(message.Chat.ID, reply.Text)
}

// NotifyActionFailed surfaces a queued action whose replay budget ran out.
// For private chats the chat id equals the user id.
func (t *Telegram) NotifyActionFailed(action *resilience.QueuedAction) {
	t.send(action.UserID, fmt.Sprintf(
		"I couldn't %s your task even after retrying. Please try again later.", action.Tool))
}

func (t *Telegram) sessionFor(chatID int64) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessions[chatID]
}

func (t *Telegram) rememberSession(chatID int64, sessionID string) {
	if sessionID == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[chatID] = sessionID
}

func (t *Telegram) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		t.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
