package notification

import (
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// SMTPConfig holds SMTP connection settings
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

// EmailNotifier delivers notifications over SMTP
type EmailNotifier struct {
	SMTPConfig SMTPConfig
	client     *mail.Client
}

// NewEmailNotifier creates a mail client for the given SMTP settings
func NewEmailNotifier(config SMTPConfig) (*EmailNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(30),
	}

	// Only add authentication if username and password are provided
	if config.Username != "" && config.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	if !config.TLS {
		slog.Info("Using NoTLS policy")
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{
				InsecureSkipVerify: true,
			}),
			mail.WithTLSPolicy(mail.NoTLS),
		)
	} else {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{
				InsecureSkipVerify: true,
			}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	}

	slog.Info("Creating mail client", "Host", config.Host, "Port", config.Port)
	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		slog.Error("Failed to create mail client", "err", err)
		return nil, err
	}

	return &EmailNotifier{SMTPConfig: config, client: client}, nil
}

// Send delivers the notification over SMTP
func (e *EmailNotifier) Send(notificationType NotificationType, notification NotificationData) error {
	if notification.To == "" {
		return fmt.Errorf("email notification requires 'To' address")
	}

	msg := mail.NewMsg()
	if err := msg.From(e.SMTPConfig.From); err != nil {
		slog.Error("Failed to set from address", "err", err)
		return err
	}
	if err := msg.To(notification.To); err != nil {
		slog.Error("Failed to set to address", "err", err)
		return err
	}
	msg.Subject(notification.Subject)

	if notification.Text != "" {
		msg.SetBodyString(mail.TypeTextPlain, notification.Text)
		if notification.Html != "" {
			msg.AddAlternativeString(mail.TypeTextHTML, notification.Html)
		}
	} else {
		msg.SetBodyString(mail.TypeTextHTML, notification.Html)
	}

	if err := e.client.DialAndSend(msg); err != nil {
		slog.Error("Failed to send email", "err", err)
		return err
	}

	slog.Info("Email sent successfully", "to", notification.To, "type", notificationType, "host", e.SMTPConfig.Host)
	return nil
}
