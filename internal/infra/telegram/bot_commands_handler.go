package telegram

import (
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const startText = "Hallo! Ich benachrichtige dich, sobald sich der Vertretungsplan für deine Klasse ändert.\n" +
	"Melde dich mit /register <Klasse> an, z.B. /register BGYM191."

const unknownCommandText = "Unbekannter Befehl. Nutze /help für eine Übersicht."

// RegisterBotCommands wires /start, /help and the reply to unknown commands.
func RegisterBotCommands(b *telebot.Bot, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")

	b.Handle("/start", func(c telebot.Context) error {
		return handleStart(c, startHelpLogger)
	})
	b.Handle("/help", func(c telebot.Context) error {
		return handleHelp(c, startHelpLogger)
	})
	// Commands without their own handler end up here as plain text.
	b.Handle(telebot.OnText, func(c telebot.Context) error {
		return handleUnknownCommand(c, startHelpLogger)
	})
}

func handleStart(c telebot.Context, logger *logrus.Entry) error {
	logger.WithFields(logrus.Fields{
		"command":   "/start",
		"sender_id": senderID(c),
	}).Info("Processing /start command")
	return c.Send(startText)
}

func handleHelp(c telebot.Context, logger *logrus.Entry) error {
	logger.WithFields(logrus.Fields{
		"command":   "/help",
		"sender_id": senderID(c),
	}).Info("Processing /help command")

	var helpText strings.Builder
	helpText.WriteString("Verfügbare Befehle:\n\n")
	helpText.WriteString("/register <Klasse>\n - Für Änderungen einer Klasse anmelden (mindestens 3 Zeichen).\n\n")
	helpText.WriteString("/register_class <Klasse>\n - Wie /register.\n\n")
	helpText.WriteString("/groups\n - Zeigt, für welche Klassen du angemeldet bist.\n\n")
	helpText.WriteString("/help\n - Diese Hilfe anzeigen.")
	return c.Send(helpText.String())
}

func handleUnknownCommand(c telebot.Context, logger *logrus.Entry) error {
	text := strings.TrimSpace(c.Text())
	if !strings.HasPrefix(text, "/") {
		return nil
	}
	command, _, _ := strings.Cut(text, " ")
	logger.WithFields(logrus.Fields{
		"command":   command,
		"sender_id": senderID(c),
	}).Info("Unknown command")
	return c.Send(unknownCommandText)
}

func senderID(c telebot.Context) int64 {
	if c.Sender() == nil {
		return 0
	}
	return c.Sender().ID
}
