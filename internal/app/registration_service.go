package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"substitution_bot/internal/domain/subscriber"
)

// MinGroupNameLength is the shortest accepted group name, in characters.
const MinGroupNameLength = 3

var ErrGroupNameTooShort = errors.New("group name is too short")

type RegistrationService struct {
	subscribers subscriber.Repository
}

func NewRegistrationService(subscribers subscriber.Repository) *RegistrationService {
	return &RegistrationService{subscribers: subscribers}
}

// Register subscribes the user to group and returns the stored group name.
// Registering twice is allowed and results in two notifications per change.
func (s *RegistrationService) Register(ctx context.Context, group string, subscriberID int64) (string, error) {
	group = strings.TrimSpace(group)
	if utf8.RuneCountInString(group) < MinGroupNameLength {
		return "", ErrGroupNameTooShort
	}

	if err := s.subscribers.Register(ctx, group, subscriberID); err != nil {
		return "", fmt.Errorf("failed to register subscriber: %w", err)
	}
	return group, nil
}

// GroupsOf lists the groups the user is registered for.
func (s *RegistrationService) GroupsOf(ctx context.Context, subscriberID int64) ([]string, error) {
	groups, err := s.subscribers.Groups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var result []string
	for _, group := range groups {
		ids, err := s.subscribers.SubscribersOf(ctx, group)
		if err != nil {
			return nil, fmt.Errorf("failed to list subscribers of %s: %w", group, err)
		}
		if slices.Contains(ids, subscriberID) {
			result = append(result, group)
		}
	}
	return result, nil
}
