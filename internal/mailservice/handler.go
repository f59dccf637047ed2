package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sushihentaime/inkpost/internal/common"
)

const (
	welcomeTemplate = "welcome_email.html"

	maxRetries = 5
	baseDelay  = 500 * time.Millisecond
)

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	return newMailService(mb, NewMailer(host, port, username, password, sender, NewTemplate()), logger)
}

func newMailService(mb common.MessageConsumer, m Mailer, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:     mb,
		m:      m,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// SendWelcomeEmail consumes user.created events until Close is called.
func (s *MailService) SendWelcomeEmail() {
	s.started.Store(true)
	defer close(s.done)

	msgs, err := s.mb.Consume(common.UserCreatedKey, common.UserExchange, common.UserCreatedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return
	}

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var data struct {
				ID       string `json:"id"`
				Email    string `json:"email"`
				Username string `json:"username"`
			}

			err := json.Unmarshal(msg.Body, &data)
			if err != nil {
				s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
				msg.Ack(false)
				continue
			}

			// providers do not always share a verified address
			if data.Email == "" {
				s.logger.Info("no email address for new user", slog.String("user", data.ID))
				msg.Ack(false)
				continue
			}

			err = common.Retry(s.ctx, maxRetries, baseDelay, func() error {
				return s.m.send(data.Email, WelcomeData{Username: data.Username}, welcomeTemplate)
			}, func(attempt int, delay time.Duration) {
				s.logger.Info("delaying welcome email", slog.String("email", data.Email), slog.Int("attempt", attempt), slog.Duration("delay", delay))
			})
			if err != nil {
				s.logger.Error("could not send welcome email", slog.String("email", data.Email), slog.String("error", err.Error()))
			} else {
				s.logger.Info("welcome email sent", slog.String("email", data.Email))
			}

			msg.Ack(false)

		case <-s.ctx.Done():
			s.logger.Info("stopping SendWelcomeEmail due to context cancellation")
			return
		}
	}
}

// Close stops the consumer and waits for it to return.
func (s *MailService) Close() {
	s.cancel()
	if s.started.Load() {
		<-s.done
	}
}
