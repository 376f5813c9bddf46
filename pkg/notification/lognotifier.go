package notification

import "log/slog"

// LogNotifier writes transient notices to a logger. The terminal client uses it
// in place of on-screen toasts.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifySuccess(text string) {
	n.logger.Info(text, "notice", LevelSuccess)
}

func (n *LogNotifier) NotifyError(text string) {
	n.logger.Error(text, "notice", LevelError)
}

// Send lets a LogNotifier back the LogSystem in a NotificationManager.
func (n *LogNotifier) Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error {
	rendered, err := renderNotice(notification, template)
	if err != nil {
		return err
	}
	n.logger.Info("notice", "type", noticeType, "to", notification.To, "subject", rendered.Subject, "body", rendered.Text)
	return nil
}
