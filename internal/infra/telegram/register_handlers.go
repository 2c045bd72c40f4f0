package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"substitution_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterSubscriptionHandlers wires the group registration commands.
func RegisterSubscriptionHandlers(ctx context.Context, b *telebot.Bot, registrationService *app.RegistrationService, baseLogger *logrus.Entry) {
	register := func(c telebot.Context) error {
		return handleRegister(ctx, c, registrationService, baseLogger)
	}
	b.Handle("/register", register)
	b.Handle("/register_class", register)

	b.Handle("/groups", func(c telebot.Context) error {
		return handleGroups(ctx, c, registrationService, baseLogger)
	})
}

func handleRegister(ctx context.Context, c telebot.Context, svc *app.RegistrationService, baseLogger *logrus.Entry) error {
	if c.Sender() == nil {
		return nil
	}
	group := strings.Join(c.Args(), " ")
	handlerLogger := baseLogger.WithFields(logrus.Fields{
		"handler":   "/register",
		"sender_id": c.Sender().ID,
		"group":     group,
	})
	handlerLogger.Info("Command received")

	registered, err := svc.Register(ctx, group, c.Sender().ID)
	if err != nil {
		if errors.Is(err, app.ErrGroupNameTooShort) {
			handlerLogger.Warn("Group name too short")
			return c.Send(fmt.Sprintf("Fehler: Der Klassenname muss mindestens %d Zeichen lang sein. Beispiel: /register BGYM191", app.MinGroupNameLength))
		}
		handlerLogger.WithError(err).Error("Failed to register subscriber")
		return c.Send("Die Anmeldung ist fehlgeschlagen. Bitte versuche es später erneut.")
	}

	handlerLogger.Info("Subscriber registered")
	return c.Send(fmt.Sprintf("Du wirst benachrichtigt, sobald sich der Vertretungsplan für Klasse %s ändert.", registered))
}

func handleGroups(ctx context.Context, c telebot.Context, svc *app.RegistrationService, baseLogger *logrus.Entry) error {
	if c.Sender() == nil {
		return nil
	}
	handlerLogger := baseLogger.WithFields(logrus.Fields{
		"handler":   "/groups",
		"sender_id": c.Sender().ID,
	})

	groups, err := svc.GroupsOf(ctx, c.Sender().ID)
	if err != nil {
		handlerLogger.WithError(err).Error("Failed to list groups")
		return c.Send("Die Klassen konnten nicht geladen werden. Bitte versuche es später erneut.")
	}
	if len(groups) == 0 {
		return c.Send("Du bist für keine Klasse angemeldet. Nutze /register <Klasse>.")
	}

	var response strings.Builder
	response.WriteString("Du bist angemeldet für:\n")
	for _, g := range groups {
		response.WriteString("- ")
		response.WriteString(g)
		response.WriteString("\n")
	}
	return c.Send(strings.TrimRight(response.String(), "\n"))
}
