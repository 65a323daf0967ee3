package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smart_cycle_market/internal/mail/domain"
	"smart_cycle_market/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRabbitRepo Mock RabbitRepo
type MockRabbitRepo struct {
	mock.Mock
}

func (m *MockRabbitRepo) GetRabbit() *amqp.Channel { return nil }

func (m *MockRabbitRepo) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

type ackResult struct {
	acked   bool
	nacked  bool
	requeue bool
}

// fakeAcknowledger records what the consumer decided
type fakeAcknowledger struct {
	mu      sync.Mutex
	results []ackResult
}

func (f *fakeAcknowledger) Ack(uint64, bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, ackResult{acked: true})
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, ackResult{nacked: true, requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	return f.Nack(0, false, requeue)
}

func (f *fakeAcknowledger) all() []ackResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ackResult(nil), f.results...)
}

type fakeSender struct {
	mu   sync.Mutex
	sent []domain.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func TestJobValidate(t *testing.T) {
	assert.NoError(t, domain.Job{Kind: domain.KindVerification, To: "a@b.c", Link: "https://x"}.Validate())
	assert.NoError(t, domain.Job{Kind: domain.KindPasswordUpdated, To: "a@b.c"}.Validate())
	assert.ErrorIs(t, domain.Job{Kind: domain.KindResetPassword, To: "a@b.c"}.Validate(), domain.ErrInvalidJob)
	assert.ErrorIs(t, domain.Job{Kind: "newsletter", To: "a@b.c"}.Validate(), domain.ErrInvalidJob)
	assert.ErrorIs(t, domain.Job{Kind: domain.KindPasswordUpdated}.Validate(), domain.ErrInvalidJob)
}

func TestRabbitQueue_Enqueue(t *testing.T) {
	rabbit := new(MockRabbitRepo)
	job := domain.Job{Kind: domain.KindVerification, To: "ann@example.com", Name: "Ann", Link: "https://market/verify?id=1&token=t"}

	rabbit.On("Publish", "", "mail_jobs", false, false, mock.MatchedBy(func(p amqp.Publishing) bool {
		var got domain.Job
		return json.Unmarshal(p.Body, &got) == nil && got == job &&
			p.DeliveryMode == amqp.Persistent && p.ContentType == "application/json"
	})).Return(nil)

	require.NoError(t, NewRabbitQueue(rabbit, "").Enqueue(context.Background(), job))
	rabbit.AssertExpectations(t)

	err := NewRabbitQueue(rabbit, "").Enqueue(context.Background(), domain.Job{Kind: domain.KindVerification})
	assert.ErrorIs(t, err, domain.ErrInvalidJob)
	rabbit.AssertNumberOfCalls(t, "Publish", 1)
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer()

	msg, err := r.Render(domain.Job{Kind: domain.KindVerification, To: "ann@example.com", Name: "Ann", Link: "https://market/verify?id=1&token=abc"})
	require.NoError(t, err)
	assert.Equal(t, "Verify your account", msg.Subject)
	assert.Equal(t, "ann@example.com", msg.To)
	assert.Contains(t, msg.HTML, "<h1>Welcome to Smart Cycle Market, Ann!</h1>")
	assert.Contains(t, msg.HTML, `<a href="https://market/verify?id=1&amp;token=abc">Verify my email</a>`)

	msg, err = r.Render(domain.Job{Kind: domain.KindPasswordUpdated, To: "ann@example.com", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "Your password was updated", msg.Subject)

	_, err = r.Render(domain.Job{Kind: "unknown", To: "ann@example.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidJob)
}

func TestConsumer_AckNackDecisions(t *testing.T) {
	good, _ := json.Marshal(domain.Job{Kind: domain.KindPasswordUpdated, To: "ann@example.com", Name: "Ann"})
	incomplete, _ := json.Marshal(domain.Job{Kind: domain.KindVerification, To: "ann@example.com"})

	tests := []struct {
		name    string
		body    []byte
		sendErr error
		want    ackResult
		sent    int
	}{
		{name: "sent", body: good, want: ackResult{acked: true}, sent: 1},
		{name: "malformed", body: []byte("{not json"), want: ackResult{nacked: true}},
		{name: "incomplete", body: incomplete, want: ackResult{nacked: true}},
		{name: "send fails", body: good, sendErr: errors.New("503"), want: ackResult{nacked: true, requeue: true}},
		{name: "send rejected", body: good, sendErr: fmt.Errorf("%w: brevo answered 400", domain.ErrMailRejected), want: ackResult{nacked: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{err: tt.sendErr}
			acker := &fakeAcknowledger{}
			c := NewConsumer(nil, NewRenderer(), sender, "", time.Millisecond)

			msgs := make(chan amqp.Delivery, 1)
			msgs <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: tt.body}
			close(msgs)

			c.Run(context.Background(), msgs)

			assert.Equal(t, []ackResult{tt.want}, acker.all())
			assert.Len(t, sender.sent, tt.sent)
		})
	}
}

func TestConsumer_StopsOnContext(t *testing.T) {
	c := NewConsumer(nil, NewRenderer(), &fakeSender{}, "", time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		c.Run(ctx, make(chan amqp.Delivery))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestBrevoSender_Send(t *testing.T) {
	var (
		mu       sync.Mutex
		received brevoRequest
		apiKey   string
	)

	api := fiber.New(fiber.Config{DisableStartupMessage: true})
	api.Post("/v3/smtp/email", func(c *fiber.Ctx) error {
		mu.Lock()
		defer mu.Unlock()
		apiKey = c.Get("api-key")
		if err := json.Unmarshal(c.Body(), &received); err != nil {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		if received.To[0].Email == "bounce@example.com" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid email"})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"messageId": "<id@brevo>"})
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = api.Listener(ln) }()
	defer func() { _ = api.Shutdown() }()

	sender := NewBrevoSender(config.BrevoConfig{
		APIURL:      "http://" + ln.Addr().String() + "/v3/smtp/email",
		APIKey:      "key-123",
		SenderEmail: "no-reply@market.dev",
		SenderName:  "Smart Cycle Market",
	})

	msg := domain.Message{To: "ann@example.com", ToName: "Ann", Subject: "Hi", HTML: "<p>hi</p>"}
	require.NoError(t, sender.Send(context.Background(), msg))

	mu.Lock()
	assert.Equal(t, "key-123", apiKey)
	assert.Equal(t, "no-reply@market.dev", received.Sender.Email)
	assert.Equal(t, "ann@example.com", received.To[0].Email)
	assert.Equal(t, "<p>hi</p>", received.HTMLContent)
	mu.Unlock()

	msg.To = "bounce@example.com"
	assert.ErrorIs(t, sender.Send(context.Background(), msg), domain.ErrMailRejected)
}

func TestBrevoSender_RetryableAnswers(t *testing.T) {
	var status atomic.Int32
	status.Store(fiber.StatusTooManyRequests)
	api := fiber.New(fiber.Config{DisableStartupMessage: true})
	api.Post("/v3/smtp/email", func(c *fiber.Ctx) error {
		return c.SendStatus(int(status.Load()))
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = api.Listener(ln) }()
	defer func() { _ = api.Shutdown() }()

	sender := NewBrevoSender(config.BrevoConfig{APIURL: "http://" + ln.Addr().String() + "/v3/smtp/email", APIKey: "k"})
	msg := domain.Message{To: "ann@example.com", Subject: "Hi", HTML: "<p>hi</p>"}

	err = sender.Send(context.Background(), msg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrMailRejected)

	status.Store(fiber.StatusServiceUnavailable)
	err = sender.Send(context.Background(), msg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrMailRejected)
}
