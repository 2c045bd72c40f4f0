package app

import (
	"context"
	"fmt"

	"substitution_bot/internal/domain/schedule"
	"substitution_bot/internal/domain/subscriber"
	domainTelegram "substitution_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

const changeMessageTemplate = "Es gibt eine Vertretungsplanänderung am %s für Klasse %s"

// ChangeMessage renders the text sent to subscribers of a changed group.
func ChangeMessage(weekday schedule.Weekday, group string) string {
	return fmt.Sprintf(changeMessageTemplate, weekday.LocalName(), group)
}

// DispatchReport counts the outcome of one Notify call.
type DispatchReport struct {
	Group     string
	Attempted int
	Sent      int
	Failed    int
}

// NotificationService sends one message per registration of a group.
type NotificationService struct {
	subscribers    subscriber.Repository
	telegramClient domainTelegram.Client
	logger         *logrus.Entry
}

func NewNotificationService(subscribers subscriber.Repository, tc domainTelegram.Client, logger *logrus.Entry) *NotificationService {
	return &NotificationService{
		subscribers:    subscribers,
		telegramClient: tc,
		logger:         logger,
	}
}

// Notify tells every subscriber of group that the weekday's plan changed.
// A subscriber registered twice is messaged twice. Per-subscriber failures
// are logged and counted; the error return is reserved for failing to read
// the registry.
func (s *NotificationService) Notify(ctx context.Context, group string, weekday schedule.Weekday) (DispatchReport, error) {
	report := DispatchReport{Group: group}

	ids, err := s.subscribers.SubscribersOf(ctx, group)
	if err != nil {
		return report, fmt.Errorf("failed to list subscribers of %s: %w", group, err)
	}

	text := ChangeMessage(weekday, group)
	for _, id := range ids {
		report.Attempted++
		log := s.logger.WithFields(logrus.Fields{
			"group":         group,
			"weekday":       weekday.String(),
			"subscriber_id": id,
		})

		channel, err := s.telegramClient.OpenDirectChannel(id)
		if err != nil {
			report.Failed++
			log.WithError(err).Error("Failed to open direct channel")
			continue
		}
		if err := s.telegramClient.Send(channel, text); err != nil {
			report.Failed++
			log.WithError(err).Error("Failed to send change notification")
			continue
		}
		report.Sent++
	}

	s.logger.WithFields(logrus.Fields{
		"group":     group,
		"weekday":   weekday.String(),
		"attempted": report.Attempted,
		"sent":      report.Sent,
		"failed":    report.Failed,
	}).Info("Change notifications dispatched")
	return report, nil
}
