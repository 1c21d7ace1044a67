package repositories

import (
	"context"
	"errors"

	"instaviz/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
}

type planRepo struct {
	db Database
}

func NewPlanRepo(db Database) PlanRepository {
	return &planRepo{db: db}
}

const planColumns = `id, title, description, duration_days, price_rupees, price_dollars, card_types, features, is_active, created_at, updated_at`

func (r *planRepo) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO plans (id, title, description, duration_days, price_rupees, price_dollars, card_types, features, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, plan.ID, plan.Title, plan.Description, plan.DurationDays, plan.PriceRupees, plan.PriceDollars, plan.CardTypes, plan.Features, plan.IsActive)
	return err
}

func (r *planRepo) scanPlan(row pgx.Row) (*models.Plan, error) {
	plan := &models.Plan{}
	err := row.Scan(&plan.ID, &plan.Title, &plan.Description, &plan.DurationDays, &plan.PriceRupees, &plan.PriceDollars, &plan.CardTypes, &plan.Features, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	return r.scanPlan(r.db.QueryRow(ctx, query, id))
}

func (r *planRepo) Update(ctx context.Context, plan *models.Plan) error {
	query := `
		UPDATE plans
		SET title = $1, description = $2, duration_days = $3, price_rupees = $4, price_dollars = $5, card_types = $6, features = $7, is_active = $8, updated_at = NOW()
		WHERE id = $9
	`
	_, err := r.db.Exec(ctx, query, plan.Title, plan.Description, plan.DurationDays, plan.PriceRupees, plan.PriceDollars, plan.CardTypes, plan.Features, plan.IsActive, plan.ID)
	return err
}

func (r *planRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM plans WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *planRepo) List(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan := &models.Plan{}
		if err := rows.Scan(&plan.ID, &plan.Title, &plan.Description, &plan.DurationDays, &plan.PriceRupees, &plan.PriceDollars, &plan.CardTypes, &plan.Features, &plan.IsActive, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}
