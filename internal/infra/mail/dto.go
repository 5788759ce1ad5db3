package mail

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type ConversionNoticeData struct {
	FirstName string
	Company   string
	AccountID string
}
