package mailservice

import (
	"errors"
	"fmt"
	"net/textproto"
	"time"

	"github.com/go-mail/mail/v2"
)

// errPermanent marks send failures that another attempt cannot fix.
var errPermanent = errors.New("permanent mail failure")

func NewMailer(host string, port int, username, password, sender string, tp *Template) *Mail {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 5 * time.Second

	return &Mail{
		dialer: dialer,
		sender: sender,
		parser: tp,
	}
}

// compose renders templateFile for recipient into a multipart message.
func (m *Mail) compose(recipient string, data any, templateFile string) (*mail.Message, error) {
	subject, plainBody, htmlBody, err := m.parser.ParseTemplate(templateFile, data)
	if err != nil {
		return nil, fmt.Errorf("%w: render %s: %w", errPermanent, templateFile, err)
	}

	msg := mail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetHeader("To", recipient)
	msg.SetHeader("Subject", subject.String())
	msg.SetDateHeader("Date", time.Now())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	return msg, nil
}

func (m *Mail) send(recipient string, data any, templateFile string) error {
	msg, err := m.compose(recipient, data, templateFile)
	if err != nil {
		return err
	}

	// the dialer holds a single SMTP session
	m.mu.Lock()
	defer m.mu.Unlock()

	err = m.dialer.DialAndSend(msg)
	if isPermanentReply(err) {
		return fmt.Errorf("%w: %w", errPermanent, err)
	}
	return err
}

// isPermanentReply reports whether the SMTP server rejected the mail with a 5xx reply.
func isPermanentReply(err error) bool {
	var reply *textproto.Error
	return errors.As(err, &reply) && reply.Code >= 500 && reply.Code < 600
}
