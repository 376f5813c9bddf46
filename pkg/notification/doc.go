// Package notification delivers user-facing notices for the storefront.
//
// Two kinds of notice live here. Transient notices are the short success and
// error messages shown next to a form: Flash collects them for a web request
// and carries them across a redirect in a cookie, LogNotifier writes them
// through slog for the terminal client.
//
// Out-of-band notices, such as the welcome email sent after registration, go
// through a NotificationManager that pairs a NoticeType with a template per
// NotificationSystem and hands the rendered notice to the registered Notifier.
//
//	nm, err := notification.NewNotificationManagerWithOptions(
//		"https://shop.example",
//		notification.WithSMTP(smtpConfig),
//		notification.WithWelcomeTemplate(),
//	)
//
//	err = nm.Send(notification.WelcomeNotice, notification.NotificationData{
//		To:   "ann@x.com",
//		Data: map[string]string{"Name": "Ann"},
//	})
package notification
