package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	to      string
	subject string
	body    string
	err     error
}

func (s *recordingSender) Send(to, subject, body string) error {
	s.to = to
	s.subject = subject
	s.body = body
	return s.err
}

func TestNewEmailNotificationTask(t *testing.T) {
	task, err := NewEmailNotificationTask("asha@example.com", "Order update", "Your order shipped.")

	assert.NoError(t, err)
	assert.Equal(t, TypeEmailNotification, task.Type())

	var payload EmailPayload
	assert.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "asha@example.com", payload.To)
	assert.Equal(t, "Order update", payload.Subject)
	assert.Equal(t, "Your order shipped.", payload.Body)
}

func TestHandleEmailNotificationDelivers(t *testing.T) {
	sender := &recordingSender{}
	worker := NewNotificationWorker(sender)

	task, err := NewEmailNotificationTask("asha@example.com", "Order update", "Your order shipped.")
	assert.NoError(t, err)

	err = worker.HandleEmailNotification(context.Background(), task)

	assert.NoError(t, err)
	assert.Equal(t, "asha@example.com", sender.to)
	assert.Equal(t, "Order update", sender.subject)
}

func TestHandleEmailNotificationReturnsSendErrorForRetry(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp timeout")}
	worker := NewNotificationWorker(sender)

	task, err := NewEmailNotificationTask("asha@example.com", "Order update", "body")
	assert.NoError(t, err)

	err = worker.HandleEmailNotification(context.Background(), task)

	assert.Error(t, err)
}

func TestHandleEmailNotificationBadPayload(t *testing.T) {
	worker := NewNotificationWorker(&recordingSender{})
	task := asynq.NewTask(TypeEmailNotification, []byte("not-json"))

	err := worker.HandleEmailNotification(context.Background(), task)

	assert.Error(t, err)
}
