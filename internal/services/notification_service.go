package services

import (
	"bytes"
	"context"
	"log"
	"text/template"

	"instaviz/internal/jobs"
	"instaviz/internal/models"
	"instaviz/internal/repositories"

	"github.com/hibiken/asynq"
)

var orderCreatedTmpl = template.Must(template.New("order_created").Parse(
	`Hi {{.Name}},

Thanks for your order! We have received your {{.CardType}} card order and it is now being processed.

Order ID: {{.OrderID}}
Status:   {{.Status}}

We will keep you posted as it moves along.

The Instaviz Team`))

var statusChangedTmpl = template.Must(template.New("status_changed").Parse(
	`Hi {{.Name}},

Your {{.CardType}} card order has a new status.

Order ID: {{.OrderID}}
Status:   {{.Status}}
{{- if .Link}}
Your card is ready: {{.Link}}
{{- end}}
{{- if .Note}}

Note from our team: {{.Note}}
{{- end}}

The Instaviz Team`))

var adminOrderTmpl = template.Must(template.New("admin_order").Parse(
	`A new {{.CardType}} card order has been placed.

Order ID: {{.OrderID}}
User:     {{.Name}} ({{.Email}})
Status:   {{.Status}}`))

type notificationData struct {
	Name     string
	Email    string
	OrderID  string
	CardType string
	Status   string
	Link     string
	Note     string
}

// TaskEnqueuer is the slice of asynq.Client the dispatcher needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NotificationService dispatches order emails through the task queue.
// It is strictly fire-and-forget: every failure is logged and swallowed
// so order flows are never blocked on email.
type NotificationService interface {
	NotifyOrderCreated(ctx context.Context, order *models.Order)
	NotifyStatusChange(ctx context.Context, order *models.Order, note string)
}

type notificationService struct {
	enqueuer TaskEnqueuer
	userRepo repositories.UserRepository
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(enqueuer TaskEnqueuer, userRepo repositories.UserRepository) NotificationService {
	return &notificationService{enqueuer: enqueuer, userRepo: userRepo}
}

// NotifyOrderCreated emails the order's user a confirmation and fans
// out one task per admin user.
func (s *notificationService) NotifyOrderCreated(ctx context.Context, order *models.Order) {
	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil || user == nil {
		log.Printf("WARN: notification skipped, user %s not resolvable: %v", order.UserID, err)
		return
	}

	data := notificationData{
		Name:     user.Name,
		Email:    user.Email,
		OrderID:  order.ID.String(),
		CardType: order.CardType,
		Status:   order.Status,
	}
	s.enqueue(ctx, user.Email, "Your Instaviz order is confirmed", orderCreatedTmpl, data)

	admins, err := s.userRepo.ListAdmins(ctx)
	if err != nil {
		log.Printf("WARN: admin notification fan-out skipped: %v", err)
		return
	}
	for _, admin := range admins {
		s.enqueue(ctx, admin.Email, "New card order received", adminOrderTmpl, data)
	}
}

// NotifyStatusChange emails the order's user about the new status,
// including the digital link when one was just created.
func (s *notificationService) NotifyStatusChange(ctx context.Context, order *models.Order, note string) {
	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil || user == nil {
		log.Printf("WARN: notification skipped, user %s not resolvable: %v", order.UserID, err)
		return
	}

	data := notificationData{
		Name:     user.Name,
		Email:    user.Email,
		OrderID:  order.ID.String(),
		CardType: order.CardType,
		Status:   order.Status,
		Note:     note,
	}
	if order.Status == models.OrderStatusLinkCreated && order.DigitalLink != nil {
		data.Link = order.DigitalLink.URL
	}
	s.enqueue(ctx, user.Email, "Your Instaviz order was updated", statusChangedTmpl, data)
}

func (s *notificationService) enqueue(ctx context.Context, to, subject string, tmpl *template.Template, data notificationData) {
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		log.Printf("WARN: notification template failed: %v", err)
		return
	}

	task, err := jobs.NewEmailNotificationTask(to, subject, body.String())
	if err != nil {
		log.Printf("WARN: notification task build failed: %v", err)
		return
	}
	if _, err := s.enqueuer.EnqueueContext(ctx, task); err != nil {
		log.Printf("WARN: notification enqueue failed for %s: %v", to, err)
	}
}
