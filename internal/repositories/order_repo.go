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

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
	StatsByStatus(ctx context.Context, userID *uuid.UUID) ([]models.StatusBucket, error)
	StatsByCardType(ctx context.Context, userID *uuid.UUID) ([]models.CardTypeBucket, error)
}

type orderRepo struct {
	db Database
}

func NewOrderRepo(db Database) OrderRepository {
	return &orderRepo{db: db}
}

const orderColumns = `id, user_id, plan_id, card_type, order_details, shipping_address, payment_details, status, digital_link, tracking, notes, admin_notes, history, was_subscription_active, created_at, updated_at`

type orderDocs struct {
	details  []byte
	shipping []byte
	payment  []byte
	link     []byte
	tracking []byte
	history  []byte
}

func marshalOrderDocs(order *models.Order) (*orderDocs, error) {
	docs := &orderDocs{}
	var err error
	if docs.details, err = json.Marshal(order.OrderDetails); err != nil {
		return nil, err
	}
	if order.ShippingAddress != nil {
		if docs.shipping, err = json.Marshal(order.ShippingAddress); err != nil {
			return nil, err
		}
	}
	if docs.payment, err = json.Marshal(order.PaymentDetails); err != nil {
		return nil, err
	}
	if order.DigitalLink != nil {
		if docs.link, err = json.Marshal(order.DigitalLink); err != nil {
			return nil, err
		}
	}
	if docs.tracking, err = json.Marshal(order.Tracking); err != nil {
		return nil, err
	}
	if docs.history, err = json.Marshal(order.History); err != nil {
		return nil, err
	}
	return docs, nil
}

func unmarshalOrderDocs(order *models.Order, docs *orderDocs) error {
	if len(docs.details) > 0 {
		if err := json.Unmarshal(docs.details, &order.OrderDetails); err != nil {
			return err
		}
	}
	if len(docs.shipping) > 0 {
		order.ShippingAddress = &models.ShippingAddress{}
		if err := json.Unmarshal(docs.shipping, order.ShippingAddress); err != nil {
			return err
		}
	}
	if len(docs.payment) > 0 {
		if err := json.Unmarshal(docs.payment, &order.PaymentDetails); err != nil {
			return err
		}
	}
	if len(docs.link) > 0 {
		order.DigitalLink = &models.DigitalLink{}
		if err := json.Unmarshal(docs.link, order.DigitalLink); err != nil {
			return err
		}
	}
	if len(docs.tracking) > 0 {
		if err := json.Unmarshal(docs.tracking, &order.Tracking); err != nil {
			return err
		}
	}
	if len(docs.history) > 0 {
		if err := json.Unmarshal(docs.history, &order.History); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	docs, err := marshalOrderDocs(order)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO orders (id, user_id, plan_id, card_type, order_details, shipping_address, payment_details, status, digital_link, tracking, notes, admin_notes, history, was_subscription_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query,
		order.ID, order.UserID, order.PlanID, order.CardType,
		docs.details, docs.shipping, docs.payment, order.Status,
		docs.link, docs.tracking, order.Notes, order.AdminNotes,
		docs.history, order.WasSubscriptionActive)
	return err
}

func (r *orderRepo) scan(row pgx.Row) (*models.Order, error) {
	order := &models.Order{}
	docs := &orderDocs{}
	err := row.Scan(&order.ID, &order.UserID, &order.PlanID, &order.CardType,
		&docs.details, &docs.shipping, &docs.payment, &order.Status,
		&docs.link, &docs.tracking, &order.Notes, &order.AdminNotes,
		&docs.history, &order.WasSubscriptionActive, &order.CreatedAt, &order.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := unmarshalOrderDocs(order, docs); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	return r.scan(r.db.QueryRow(ctx, query, id))
}

func (r *orderRepo) Update(ctx context.Context, order *models.Order) error {
	docs, err := marshalOrderDocs(order)
	if err != nil {
		return err
	}
	query := `
		UPDATE orders
		SET order_details = $1, shipping_address = $2, payment_details = $3, status = $4, digital_link = $5, tracking = $6, notes = $7, admin_notes = $8, history = $9, updated_at = NOW()
		WHERE id = $10
	`
	_, err = r.db.Exec(ctx, query,
		docs.details, docs.shipping, docs.payment, order.Status,
		docs.link, docs.tracking, order.Notes, order.AdminNotes,
		docs.history, order.ID)
	return err
}

func (r *orderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM orders WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *orderRepo) List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []interface{}{}
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CardType != nil {
		args = append(args, *filter.CardType)
		query += fmt.Sprintf(" AND card_type = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		docs := &orderDocs{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.PlanID, &order.CardType,
			&docs.details, &docs.shipping, &docs.payment, &order.Status,
			&docs.link, &docs.tracking, &order.Notes, &order.AdminNotes,
			&docs.history, &order.WasSubscriptionActive, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalOrderDocs(order, docs); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

func (r *orderRepo) StatsByStatus(ctx context.Context, userID *uuid.UUID) ([]models.StatusBucket, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM((order_details->>'total_amount')::numeric), 0)
		FROM orders
	`
	args := []interface{}{}
	if userID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *userID)
	}
	query += ` GROUP BY status`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []models.StatusBucket
	for rows.Next() {
		var b models.StatusBucket
		if err := rows.Scan(&b.Status, &b.Count, &b.TotalAmount); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *orderRepo) StatsByCardType(ctx context.Context, userID *uuid.UUID) ([]models.CardTypeBucket, error) {
	query := `
		SELECT card_type, COUNT(*)
		FROM orders
	`
	args := []interface{}{}
	if userID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *userID)
	}
	query += ` GROUP BY card_type`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var buckets []models.CardTypeBucket
	for rows.Next() {
		var b models.CardTypeBucket
		if err := rows.Scan(&b.CardType, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
