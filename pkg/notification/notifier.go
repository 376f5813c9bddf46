package notification

// NotificationSystem is a delivery channel, e.g. email.
type NotificationSystem string

// NoticeType identifies a kind of out-of-band notice, e.g. "welcome".
type NoticeType string

const (
	EmailSystem NotificationSystem = "email"
	LogSystem   NotificationSystem = "log"

	WelcomeNotice NoticeType = "welcome"
	ExampleNotice NoticeType = "example"
)

type NotificationData struct {
	To      string            // Recipient identifier, e.g. an email address
	Subject string            // Optional subject override
	Body    string            // Optional plain body, used when the template has none
	Data    map[string]string // Template values
}

// NoticeTemplate holds Go templates rendered against NotificationData.Data.
type NoticeTemplate struct {
	Subject string
	Text    string
	Html    string
}

type Notifier interface {
	Send(noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
