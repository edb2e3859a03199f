package contact

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
)

// headerBreaks folds line breaks out of header values so visitor input
// cannot start a header of its own.
var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func headerValue(s string) string {
	return mime.QEncoding.Encode("utf-8", headerBreaks.Replace(s))
}

// SMTPTransport mails the message to the site owner.
type SMTPTransport struct {
	Host string
	Port string
	User string
	Pass string
	To   string

	// sendMail defaults to smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

var _ Transport = (*SMTPTransport)(nil)

func (t *SMTPTransport) Send(ctx context.Context, msg ContactMessage) (Receipt, error) {
	if t.User == "" || t.Pass == "" {
		return Receipt{}, errors.New("SMTP credentials not configured")
	}

	send := t.sendMail
	if send == nil {
		send = smtp.SendMail
	}
	auth := smtp.PlainAuth("", t.User, t.Pass, t.Host)
	mail := composeMail(t.User, t.To, msg)

	// net/smtp has no context support; the send finishes in the background
	// if the deadline passes first.
	done := make(chan error, 1)
	go func() {
		done <- send(t.Host+":"+t.Port, auth, t.User, []string{t.To}, mail)
	}()

	select {
	case err := <-done:
		if err != nil {
			return Receipt{}, fmt.Errorf("%w: send mail: %w", ErrNetwork, err)
		}
		return Receipt{Confirmed: true}, nil
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}
}

func composeMail(from, to string, msg ContactMessage) []byte {
	subject := headerValue("Portfolio Contact: " + msg.Subject)
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Subject: %s
Message:
%s

---
Sent %s from %s
`, msg.Name, msg.Email, msg.Subject, msg.Message, msg.Timestamp, msg.UserAgent)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"Reply-To: " + headerBreaks.Replace(msg.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}
