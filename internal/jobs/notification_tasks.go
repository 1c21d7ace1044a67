package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"gopkg.in/gomail.v2"
)

// Task type definitions
const (
	TypeEmailNotification = "notification:email"
)

// NotificationQueue is the asynq queue all notification tasks land on.
// Worker concurrency is bounded at server construction.
const NotificationQueue = "notifications"

// EmailPayload defines the payload for email notification tasks.
type EmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewEmailNotificationTask creates a new email notification task.
func NewEmailNotificationTask(to, subject, body string) (*asynq.Task, error) {
	payload := EmailPayload{To: to, Subject: subject, Body: body}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailNotification, data, asynq.Queue(NotificationQueue), asynq.MaxRetry(3)), nil
}

// EmailSender delivers a single message. Implementations must be safe
// for concurrent use by worker goroutines.
type EmailSender interface {
	Send(to, subject, body string) error
}

// GomailSender delivers email over SMTP.
type GomailSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewGomailSender(host string, port int, username, password, from string) *GomailSender {
	return &GomailSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *GomailSender) Send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return s.dialer.DialAndSend(m)
}

// LogSender is the dev fallback when no SMTP host is configured; it
// writes the message to the process log instead of delivering it.
type LogSender struct{}

func (LogSender) Send(to, subject, body string) error {
	log.Printf("EMAIL (not sent, no SMTP configured) to=%s subject=%q\n%s", to, subject, body)
	return nil
}

// NotificationWorker processes queued notification tasks.
type NotificationWorker struct {
	sender EmailSender
}

func NewNotificationWorker(sender EmailSender) *NotificationWorker {
	return &NotificationWorker{sender: sender}
}

// HandleEmailNotification delivers one queued email. Errors are
// returned so asynq retries, but they never reach an HTTP caller.
func (w *NotificationWorker) HandleEmailNotification(ctx context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email payload: %w", err)
	}

	if err := w.sender.Send(payload.To, payload.Subject, payload.Body); err != nil {
		log.Printf("Email delivery failed to %s: %v", payload.To, err)
		return err
	}
	return nil
}

// RegisterNotificationHandlers wires the worker into an asynq mux.
func RegisterNotificationHandlers(mux *asynq.ServeMux, worker *NotificationWorker) {
	mux.HandleFunc(TypeEmailNotification, worker.HandleEmailNotification)
}

// NewNotificationServer builds the asynq server with bounded
// concurrency for the notification queue.
func NewNotificationServer(redisAddr, redisPassword string, redisDB, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB},
		asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{NotificationQueue: 1},
		},
	)
}
