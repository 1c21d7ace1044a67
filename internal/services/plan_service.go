package services

import (
	"context"
	"log"

	"instaviz/internal/caching"
	"instaviz/internal/common"
	"instaviz/internal/models"
	"instaviz/internal/repositories"

	"github.com/google/uuid"
)

// PlanService manages the plan catalogue. Reads go through Redis; any
// write invalidates both the per-plan entry and the active list.
type PlanService interface {
	CreatePlan(ctx context.Context, plan *models.Plan) error
	GetPlanByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
	UpdatePlan(ctx context.Context, plan *models.Plan) error
	DeletePlan(ctx context.Context, planID uuid.UUID) error
	ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error)
	RefreshPlanCache(ctx context.Context) error
}

type planService struct {
	planRepo repositories.PlanRepository
	cacheSvc caching.CacheService
}

// NewPlanService creates a new PlanService instance.
func NewPlanService(planRepo repositories.PlanRepository, cacheSvc caching.CacheService) PlanService {
	return &planService{planRepo: planRepo, cacheSvc: cacheSvc}
}

func (s *planService) CreatePlan(ctx context.Context, plan *models.Plan) error {
	for _, ct := range plan.CardTypes {
		if !models.ValidCardType(ct) {
			return common.NewInvalidState("invalid card type '%s'", ct)
		}
	}
	if plan.DurationDays < 1 {
		return common.NewInvalidState("plan duration must be at least 1 day")
	}
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return err
	}
	s.invalidateList(ctx)
	return nil
}

func (s *planService) GetPlanByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	if cached, err := s.cacheSvc.GetPlan(ctx, planID); err == nil && cached != nil {
		return cached, nil
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, common.NewNotFound("plan")
	}

	if err := s.cacheSvc.SetPlan(ctx, plan, caching.PlanTTL); err != nil {
		log.Printf("WARN: failed to cache plan %s: %v", planID, err)
	}
	return plan, nil
}

func (s *planService) UpdatePlan(ctx context.Context, plan *models.Plan) error {
	for _, ct := range plan.CardTypes {
		if !models.ValidCardType(ct) {
			return common.NewInvalidState("invalid card type '%s'", ct)
		}
	}

	existing, err := s.planRepo.GetByID(ctx, plan.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return common.NewNotFound("plan")
	}

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return err
	}
	s.invalidatePlan(ctx, plan.ID)
	return nil
}

func (s *planService) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	existing, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if existing == nil {
		return common.NewNotFound("plan")
	}

	if err := s.planRepo.Delete(ctx, planID); err != nil {
		return err
	}
	s.invalidatePlan(ctx, planID)
	return nil
}

func (s *planService) ListPlans(ctx context.Context, activeOnly bool) ([]*models.Plan, error) {
	if activeOnly {
		if cached, err := s.cacheSvc.GetPlanList(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	plans, err := s.planRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	if activeOnly {
		if err := s.cacheSvc.SetPlanList(ctx, plans, caching.PlanTTL); err != nil {
			log.Printf("WARN: failed to cache plan list: %v", err)
		}
	}
	return plans, nil
}

// RefreshPlanCache rewrites the active plan list cache. The background
// scheduler runs this so the list stays warm between writes.
func (s *planService) RefreshPlanCache(ctx context.Context) error {
	plans, err := s.planRepo.List(ctx, true)
	if err != nil {
		return err
	}
	return s.cacheSvc.SetPlanList(ctx, plans, caching.PlanTTL)
}

func (s *planService) invalidatePlan(ctx context.Context, planID uuid.UUID) {
	if err := s.cacheSvc.DeletePlan(ctx, planID); err != nil {
		log.Printf("WARN: failed to invalidate plan cache %s: %v", planID, err)
	}
	s.invalidateList(ctx)
}

func (s *planService) invalidateList(ctx context.Context) {
	if err := s.cacheSvc.DeletePlanList(ctx); err != nil {
		log.Printf("WARN: failed to invalidate plan list cache: %v", err)
	}
}
