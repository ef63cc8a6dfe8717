package notification

import "sync"

// MockNotifier records notifications instead of delivering them
type MockNotifier struct {
	mu   sync.Mutex
	sent []SentNotification

	// FailWith, when set, is returned from every Send call
	FailWith error
}

// SentNotification is one recorded delivery attempt
type SentNotification struct {
	Type NotificationType
	Data NotificationData
}

func (m *MockNotifier) Send(notificationType NotificationType, notification NotificationData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.sent = append(m.sent, SentNotification{Type: notificationType, Data: notification})
	return nil
}

// Sent returns a copy of the recorded notifications
func (m *MockNotifier) Sent() []SentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentNotification, len(m.sent))
	copy(out, m.sent)
	return out
}
