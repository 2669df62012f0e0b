// Package bot is the owner-only Telegram front end of the reader.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/app"
)

// sender is the part of the Telegram API the handlers use
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	api     *tgbotapi.BotAPI
	out     sender
	token   string
	ownerID int64
	app     *app.App
	config  *BotConfig
	logger  *zap.Logger

	mu sync.Mutex
	// reviewID is the open review session driven from the chat
	reviewID string
	// awaitingTyped is set while a listening question waits for a typed answer
	awaitingTyped bool
}

// New creates a new bot instance bound to the owner's chat
func New(token string, ownerID int64, a *app.App, config *BotConfig, logger *zap.Logger) (*Bot, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is not set")
	}
	if ownerID == 0 {
		return nil, errors.New("telegram owner id is not set")
	}
	if config == nil {
		config = DefaultConfig()
	}
	return &Bot{
		token:   token,
		ownerID: ownerID,
		app:     a,
		config:  config,
		logger:  logger,
	}, nil
}

// Start connects to Telegram and handles updates until ctx is done
func (b *Bot) Start(ctx context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(b.token)
	if err != nil {
		return fmt.Errorf("unable to create bot: %w", err)
	}
	b.api = botAPI
	b.out = botAPI
	b.logger.Info("Authorized on account", zap.String("username", botAPI.Self.UserName))

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.config.UpdateTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("Bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// isOwner reports whether the update comes from the configured owner
func (b *Bot) isOwner(userID int64) bool {
	return userID == b.ownerID
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil:
		if update.Message.From == nil || !b.isOwner(update.Message.From.ID) {
			b.logger.Warn("Ignoring message from unknown user", zap.Int("update_id", update.UpdateID))
			return
		}
		switch {
		case update.Message.IsCommand():
			err = b.HandleCommand(ctx, update.Message)
		case update.Message.Document != nil:
			err = b.handleDocument(ctx, update.Message)
		default:
			err = b.handleText(update.Message)
		}
	case update.CallbackQuery != nil:
		if update.CallbackQuery.From == nil || !b.isOwner(update.CallbackQuery.From.ID) {
			return
		}
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.logger.Error("Failed to handle update", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

// send posts a message and logs instead of failing the update when Telegram refuses it
func (b *Bot) send(c tgbotapi.Chattable) error {
	if b.out == nil {
		return errors.New("bot is not connected")
	}
	if _, err := b.out.Send(c); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMenu(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(MainMenuButtons())
	return b.send(msg)
}

// HeartsRestored tells the owner hearts came back
func (b *Bot) HeartsRestored(restored, hearts int) error {
	if b.out == nil {
		return nil
	}
	return b.sendText(b.ownerID, fmt.Sprintf("❤️ %d heart(s) restored. You have %d now.", restored, hearts))
}

// MembershipExpired tells the owner the super membership ran out
func (b *Bot) MembershipExpired() error {
	if b.out == nil {
		return nil
	}
	return b.sendText(b.ownerID, "👑 Your super membership has expired. Use /buy to renew.")
}

// WordsDue reminds the owner to review
func (b *Bot) WordsDue(count int) error {
	if b.out == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(b.ownerID, fmt.Sprintf("🧠 %d word(s) are waiting for review.", count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "Start review", CallbackData: callbackReview}}})
	return b.send(msg)
}
