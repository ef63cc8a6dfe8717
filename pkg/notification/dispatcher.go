package notification

import (
	"log/slog"
	"net/url"
	"sync"
)

// DeliveryHook observes the outcome of a dispatched notification. err is nil
// on successful delivery. Hooks run on the dispatch goroutine and must not
// block.
type DeliveryHook func(notificationType NotificationType, to string, err error)

// Dispatcher sends auth-flow emails best-effort. Delivery happens on a
// separate goroutine and never fails the calling flow; outcomes are logged
// and optionally surfaced through a DeliveryHook so that failed deliveries
// stay observable out of band.
type Dispatcher struct {
	notifier Notifier
	baseURL  string
	hook     DeliveryHook
	wg       sync.WaitGroup
}

// DispatcherOption is a function that configures a Dispatcher
type DispatcherOption func(*Dispatcher)

// WithDeliveryHook registers an outcome observer
func WithDeliveryHook(hook DeliveryHook) DispatcherOption {
	return func(d *Dispatcher) {
		d.hook = hook
	}
}

// NewDispatcher creates a Dispatcher. baseURL is the storefront origin used
// to build verification and reset links.
func NewDispatcher(notifier Notifier, baseURL string, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifier: notifier,
		baseURL:  baseURL,
	}
	for _, option := range options {
		option(d)
	}
	return d
}

// SendVerification dispatches an email-verification link
func (d *Dispatcher) SendVerification(to, verificationToken string) {
	link := d.baseURL + "/auth/verify-email?token=" + url.QueryEscape(verificationToken)
	data, err := VerificationEmail(to, link)
	if err != nil {
		slog.Error("Failed to render verification email", "to", to, "err", err)
		return
	}
	d.dispatch(EmailVerificationNotification, data)
}

// SendPasswordReset dispatches a password-reset link
func (d *Dispatcher) SendPasswordReset(to, resetToken string) {
	link := d.baseURL + "/auth/reset-password?token=" + url.QueryEscape(resetToken)
	data, err := PasswordResetEmail(to, link)
	if err != nil {
		slog.Error("Failed to render password reset email", "to", to, "err", err)
		return
	}
	d.dispatch(PasswordResetNotification, data)
}

func (d *Dispatcher) dispatch(notificationType NotificationType, data NotificationData) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.notifier.Send(notificationType, data)
		if err != nil {
			slog.Error("Failed to send notification", "type", notificationType, "to", data.To, "err", err)
		} else {
			slog.Info("Notification sent", "type", notificationType, "to", data.To)
		}
		if d.hook != nil {
			d.hook(notificationType, data.To, err)
		}
	}()
}

// Flush blocks until all in-flight deliveries have completed
func (d *Dispatcher) Flush() {
	d.wg.Wait()
}
