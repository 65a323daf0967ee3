package app

import (
	"context"
	"fmt"
	"time"

	"smart_cycle_market/internal/mail/domain"
	"smart_cycle_market/pkg/config"
	"smart_cycle_market/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// DefaultBrevoURL transactional mail endpoint
const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

// Sender delivers a rendered message
type Sender interface {
	Send(ctx context.Context, msg domain.Message) error
}

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

// BrevoSender sends through the Brevo http api
type BrevoSender struct {
	apiURL  string
	apiKey  string
	from    brevoContact
	timeout time.Duration
}

// NewBrevoSender create BrevoSender
func NewBrevoSender(c config.BrevoConfig) *BrevoSender {
	apiURL := c.APIURL
	if apiURL == "" {
		apiURL = DefaultBrevoURL
	}
	return &BrevoSender{
		apiURL:  apiURL,
		apiKey:  c.APIKey,
		from:    brevoContact{Name: c.SenderName, Email: c.SenderEmail},
		timeout: 10 * time.Second,
	}
}

// Send post msg, any non 2xx answer is an error. 4xx other than 429 wraps domain.ErrMailRejected
func (s *BrevoSender) Send(_ context.Context, msg domain.Message) error {
	agent := fiber.Post(s.apiURL).
		Set("api-key", s.apiKey).
		Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON).
		Timeout(s.timeout).
		JSON(brevoRequest{
			Sender:      s.from,
			To:          []brevoContact{{Name: msg.ToName, Email: msg.To}},
			Subject:     msg.Subject,
			HTMLContent: msg.HTML,
		})

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("brevo request: %w", errs[0])
	}
	if permanentStatus(code) {
		return fmt.Errorf("%w: brevo answered %d: %s", domain.ErrMailRejected, code, body)
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		return fmt.Errorf("brevo answered %d: %s", code, body)
	}

	logger.Log.Info("mail sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func permanentStatus(code int) bool {
	return code >= fiber.StatusBadRequest && code < fiber.StatusInternalServerError && code != fiber.StatusTooManyRequests
}

// LogSender used when no api key is configured
type LogSender struct{}

// Send log msg
func (LogSender) Send(_ context.Context, msg domain.Message) error {
	logger.Log.Info("mail (not sent, no api key)", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	logger.Log.Debug("mail body", zap.String("html", msg.HTML))
	return nil
}
