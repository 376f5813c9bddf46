package notification

import "sync"

// SentNotice is a notice captured by MockNotifier.
type SentNotice struct {
	Type     NoticeType
	Data     NotificationData
	Template NoticeTemplate
}

type MockNotifier struct {
	Err error

	mu                sync.Mutex
	SentNotifications []SentNotice
}

func (m *MockNotifier) Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.SentNotifications = append(m.SentNotifications, SentNotice{Type: noticeType, Data: notification, Template: template})
	return nil
}

// Sent returns a copy of the captured notices.
func (m *MockNotifier) Sent() []SentNotice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentNotice(nil), m.SentNotifications...)
}
