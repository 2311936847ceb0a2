package mailservice

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"
	"golang.org/x/time/rate"

	"github.com/sushihentaime/inkpost/internal/common"
)

const (
	WelcomeTemplate = "welcome_email.tmpl"

	maxRetries = 5
	baseDelay  = 500 * time.Millisecond
)

type MailService struct {
	mb        common.MessageConsumer
	m         Mailer
	logger    *slog.Logger
	limiter   *rate.Limiter
	baseDelay time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Template struct{}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}
