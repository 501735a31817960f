package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/exp/rand"

	"github.com/sushihentaime/nexus/internal/common"
)

const welcomeTemplate = "welcome_email.html"

func NewMailService(mb common.MessageConsumer, cfg Config, site string, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         NewMailer(cfg, NewTemplate()),
		site:      site,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		retries:   5,
		baseDelay: 500 * time.Millisecond,
	}
}

// SendWelcomeEmail consumes user.created events in the background and mails every new user.
func (s *MailService) SendWelcomeEmail() error {
	msgs, err := s.mb.Consume(common.UserCreatedKey, common.ContentExchange, common.UserCreatedQueue)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data struct {
					Username string `json:"username"`
					Email    string `json:"email"`
				}

				if err := json.Unmarshal(msg.Body, &data); err != nil {
					s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
					msg.Ack(false)
					continue
				}

				s.deliver(data.Email, welcomeData{Site: s.site, Username: data.Username})
				msg.Ack(false)

			case <-s.ctx.Done():
				s.logger.Info("stopping SendWelcomeEmail due to context cancellation")
				return
			}
		}
	}()

	return nil
}

// deliver sends the welcome mail, retrying with exponential backoff and jitter.
func (s *MailService) deliver(email string, payload welcomeData) {
	for attempt := 0; attempt < s.retries; attempt++ {
		err := s.m.send(email, payload, welcomeTemplate)
		if err == nil {
			s.logger.Info("welcome email sent", slog.String("email", email))
			return
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying welcome email", slog.String("email", email), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send welcome email", slog.String("email", email))
}

func (s *MailService) Close() {
	s.cancel()
}
