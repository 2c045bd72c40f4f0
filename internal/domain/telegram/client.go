package telegram

// Channel is an open direct conversation with one user.
type Channel struct {
	ChatID int64
}

// Client defines the messaging operations the notifier needs.
// This keeps the application logic independent of the bot library.
type Client interface {
	OpenDirectChannel(userID int64) (*Channel, error)
	Send(channel *Channel, text string) error
}
