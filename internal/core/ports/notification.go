package ports

import "context"

// NotificationKind selects the message template.
type NotificationKind string

const (
	NotificationVerifyAccount NotificationKind = "verify_account"
	NotificationResetPassword NotificationKind = "reset_password"
)

// Notification is a message addressed to one account holder. Token is a
// secret and must not be logged.
type Notification struct {
	Kind  NotificationKind
	To    string
	Token string
}

// Notifier accepts notifications for asynchronous delivery.
type Notifier interface {
	Enqueue(n Notification)
}

// Mailer delivers a single notification.
type Mailer interface {
	Send(ctx context.Context, n Notification) error
}
