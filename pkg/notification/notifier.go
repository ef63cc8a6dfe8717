package notification

// NotificationType represents a type of notification (e.g. "email_verification")
type NotificationType string

const (
	EmailVerificationNotification NotificationType = "email_verification"
	PasswordResetNotification     NotificationType = "password_reset"
)

// NotificationData carries a rendered message for delivery
type NotificationData struct {
	To      string // Recipient email address
	Subject string // Subject line
	Html    string // HTML body
	Text    string // Optional plain-text alternative
}

// Notifier delivers a rendered notification. Implementations may fail
// independently of the flows that triggered them.
type Notifier interface {
	Send(notificationType NotificationType, notification NotificationData) error
}
