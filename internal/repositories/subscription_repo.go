package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"instaviz/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error)
	Update(ctx context.Context, subscription *models.Subscription) error
	GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error)
	List(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

type subscriptionRepo struct {
	db Database
}

func NewSubscriptionRepo(db Database) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) Create(ctx context.Context, subscription *models.Subscription) error {
	payment, err := json.Marshal(subscription.PaymentDetails)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, status, payment_details, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, subscription.ID, subscription.UserID, subscription.PlanID, subscription.Status, payment, subscription.StartDate, subscription.EndDate)
	return err
}

func (r *subscriptionRepo) scan(row pgx.Row) (*models.Subscription, error) {
	subscription := &models.Subscription{}
	var payment []byte
	err := row.Scan(&subscription.ID, &subscription.UserID, &subscription.PlanID, &subscription.Status, &payment, &subscription.StartDate, &subscription.EndDate, &subscription.CreatedAt, &subscription.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(payment) > 0 {
		if err := json.Unmarshal(payment, &subscription.PaymentDetails); err != nil {
			return nil, err
		}
	}
	return subscription, nil
}

func (r *subscriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, status, payment_details, start_date, end_date, created_at, updated_at
		FROM subscriptions
		WHERE id = $1
	`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

func (r *subscriptionRepo) Update(ctx context.Context, subscription *models.Subscription) error {
	payment, err := json.Marshal(subscription.PaymentDetails)
	if err != nil {
		return err
	}
	query := `
		UPDATE subscriptions
		SET status = $1, payment_details = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err = r.db.Exec(ctx, query, subscription.Status, payment, subscription.StartDate, subscription.EndDate, subscription.ID)
	return err
}

// GetActiveByUserID returns the most recently created subscription that
// is active and not yet past its end date, or nil. Expiry is evaluated
// here lazily; the background sweep persists the expired status later.
func (r *subscriptionRepo) GetActiveByUserID(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, status, payment_details, start_date, end_date, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND end_date >= NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scan(r.db.QueryRow(ctx, query, userID))
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, status, payment_details, start_date, end_date, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *subscriptionRepo) List(ctx context.Context, filter models.SubscriptionFilter) ([]*models.Subscription, error) {
	query := `
		SELECT id, user_id, plan_id, status, payment_details, start_date, end_date, created_at, updated_at
		FROM subscriptions
		WHERE 1=1
	`
	args := []interface{}{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

// ExpireOverdue flips active subscriptions whose end date has passed to
// expired and returns how many rows changed.
func (r *subscriptionRepo) ExpireOverdue(ctx context.Context) (int64, error) {
	query := `
		UPDATE subscriptions
		SET status = 'expired', updated_at = NOW()
		WHERE status = 'active' AND end_date < NOW()
	`
	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *subscriptionRepo) collect(rows pgx.Rows) ([]*models.Subscription, error) {
	var subscriptions []*models.Subscription
	for rows.Next() {
		subscription := &models.Subscription{}
		var payment []byte
		if err := rows.Scan(&subscription.ID, &subscription.UserID, &subscription.PlanID, &subscription.Status, &payment, &subscription.StartDate, &subscription.EndDate, &subscription.CreatedAt, &subscription.UpdatedAt); err != nil {
			return nil, err
		}
		if len(payment) > 0 {
			if err := json.Unmarshal(payment, &subscription.PaymentDetails); err != nil {
				return nil, err
			}
		}
		subscriptions = append(subscriptions, subscription)
	}
	return subscriptions, rows.Err()
}
