package telegram

import (
	"fmt"

	domainTelegram "substitution_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

// botAPI is the part of *telebot.Bot the adapter uses.
type botAPI interface {
	ChatByID(id int64) (*telebot.Chat, error)
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter implements the domain Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot botAPI
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// OpenDirectChannel resolves the private chat with a user. It fails when the
// user never started the bot.
func (tba *TelebotAdapter) OpenDirectChannel(userID int64) (*domainTelegram.Channel, error) {
	chat, err := tba.bot.ChatByID(userID)
	if err != nil {
		return nil, fmt.Errorf("open chat with %d: %w", userID, err)
	}
	return &domainTelegram.Channel{ChatID: chat.ID}, nil
}

func (tba *TelebotAdapter) Send(channel *domainTelegram.Channel, text string) error {
	if channel == nil {
		return fmt.Errorf("send: nil channel")
	}
	if _, err := tba.bot.Send(&telebot.Chat{ID: channel.ChatID}, text); err != nil {
		return fmt.Errorf("send to chat %d: %w", channel.ChatID, err)
	}
	return nil
}
