package mailservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/rand"
	"golang.org/x/time/rate"

	"github.com/sushihentaime/inkpost/internal/common"
)

// NewMailService sends at most perSecond mails per second, with bursts of one.
func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, perSecond float64, logger *slog.Logger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), perSecond, logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, perSecond float64, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())

	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &MailService{
		mb:        mb,
		m:         m,
		logger:    logger,
		limiter:   rate.NewLimiter(limit, 1),
		baseDelay: baseDelay,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SendWelcomeEmails consumes user.created events until Close is called.
func (s *MailService) SendWelcomeEmails() error {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handle(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping welcome mail consumer")
				return
			}
		}
	}()

	return nil
}

func (s *MailService) handle(msg amqp.Delivery) {
	// every outcome acks: a malformed or undeliverable event is not redelivered
	defer msg.Ack(false)

	var event common.UserCreatedEvent
	err := json.Unmarshal(msg.Body, &event)
	if err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		return
	}

	// using exponential backoff with jitter
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := s.limiter.Wait(s.ctx); err != nil {
			return
		}

		err = s.m.send(event.Email, event, WelcomeTemplate)
		if err == nil {
			s.logger.Info("welcome email sent", slog.String("email", event.Email))
			return
		}
		if errors.Is(err, errPermanent) {
			break
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying welcome email", slog.String("email", event.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send welcome email", slog.String("email", event.Email), slog.String("error", err.Error()))
}

// Close stops the consumer and waits for the message in flight.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
