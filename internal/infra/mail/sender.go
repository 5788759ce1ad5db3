package mail

import (
	"bytes"
	"fmt"
	"text/template"

	"gopkg.in/gomail.v2"
)

const conversionNoticeTemplate = `
<html>
  <body>
    <p>Hi {{.FirstName}},</p>
    <p>Great news — <strong>{{.Company}}</strong> is now an active account
    (reference {{.AccountID}}). Our team will be in touch shortly.</p>
    <p>— The Sales Team</p>
  </body>
</html>
`

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

func (s *EmailSender) SendConversionNotice(to, firstName, company, accountID string) error {
	data := ConversionNoticeData{
		FirstName: firstName,
		Company:   company,
		AccountID: accountID,
	}

	t, err := template.New("conversion_notice").Parse(conversionNoticeTemplate)
	if err != nil {
		return fmt.Errorf("parse email template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Welcome aboard, %s!", company))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send SMTP email: %w", err)
	}

	return nil
}
