package notification

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// NotificationManager pairs notice types with templates and delivers them through registered notifiers.
type NotificationManager struct {
	BaseUrl string

	mu                   sync.RWMutex
	notifiers            map[NotificationSystem]Notifier
	notificationRegistry map[NoticeType]map[NotificationSystem]NoticeTemplate
}

func NewNotificationManager(baseUrl string) *NotificationManager {
	return &NotificationManager{
		BaseUrl:              baseUrl,
		notifiers:            make(map[NotificationSystem]Notifier),
		notificationRegistry: make(map[NoticeType]map[NotificationSystem]NoticeTemplate),
	}
}

// RegisterNotifier registers a notifier for a system, replacing any previous one.
func (nm *NotificationManager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	nm.notifiers[system] = notifier
}

// RegisterNotification adds or replaces the template for a notice type on a system.
func (nm *NotificationManager) RegisterNotification(noticeType NoticeType, system NotificationSystem, template NoticeTemplate) error {
	if noticeType == "" || system == "" {
		return fmt.Errorf("invalid input: notice type and system cannot be empty")
	}
	if template.Subject == "" {
		return fmt.Errorf("invalid template: subject cannot be empty")
	}
	if template.Text == "" && template.Html == "" {
		return fmt.Errorf("invalid template: text or html body required")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if _, exists := nm.notificationRegistry[noticeType]; !exists {
		nm.notificationRegistry[noticeType] = make(map[NotificationSystem]NoticeTemplate)
	}
	nm.notificationRegistry[noticeType][system] = template
	return nil
}

// HasNotice reports whether a template is registered for the notice type.
func (nm *NotificationManager) HasNotice(noticeType NoticeType) bool {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return len(nm.notificationRegistry[noticeType]) > 0
}

// Send delivers the notice on every system it has a template for.
// It stops at the first system without a notifier or with a failed delivery.
func (nm *NotificationManager) Send(noticeType NoticeType, notification NotificationData) error {
	nm.mu.RLock()
	systemTemplates, exists := nm.notificationRegistry[noticeType]
	if !exists {
		nm.mu.RUnlock()
		return fmt.Errorf("no templates registered for notice type: %s", noticeType)
	}
	systems := make([]NotificationSystem, 0, len(systemTemplates))
	for system := range systemTemplates {
		systems = append(systems, system)
	}
	sort.Slice(systems, func(i, j int) bool { return systems[i] < systems[j] })

	type delivery struct {
		system   NotificationSystem
		notifier Notifier
		template NoticeTemplate
	}
	deliveries := make([]delivery, 0, len(systems))
	for _, system := range systems {
		notifier, ok := nm.notifiers[system]
		if !ok {
			nm.mu.RUnlock()
			return fmt.Errorf("no notifier registered for system: %s", system)
		}
		deliveries = append(deliveries, delivery{system, notifier, systemTemplates[system]})
	}
	nm.mu.RUnlock()

	notification = nm.withBaseUrl(notification)
	for _, d := range deliveries {
		if err := d.notifier.Send(noticeType, notification, d.template); err != nil {
			slog.Error("Failed to send notification", "type", noticeType, "system", d.system, "err", err)
			return fmt.Errorf("failed to send %s notification via %s: %w", noticeType, d.system, err)
		}
	}
	return nil
}

func (nm *NotificationManager) withBaseUrl(notification NotificationData) NotificationData {
	if nm.BaseUrl == "" {
		return notification
	}
	data := make(map[string]string, len(notification.Data)+1)
	for k, v := range notification.Data {
		data[k] = v
	}
	if _, ok := data["BaseUrl"]; !ok {
		data["BaseUrl"] = nm.BaseUrl
	}
	notification.Data = data
	return notification
}
