package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"instaviz/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// ActiveSubscriptionTTL keeps the active-subscription lookup cheap
	// without letting stale entitlements linger after a write.
	ActiveSubscriptionTTL = 60 * time.Second

	// PlanTTL is long; the plan catalogue changes rarely and the
	// background refresher rewrites it anyway.
	PlanTTL = 10 * time.Minute
)

type CacheService interface {
	// Plan caching
	GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
	SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error
	DeletePlan(ctx context.Context, planID uuid.UUID) error
	GetPlanList(ctx context.Context) ([]*models.Plan, error)
	SetPlanList(ctx context.Context, plans []*models.Plan, ttl time.Duration) error
	DeletePlanList(ctx context.Context) error

	// Active subscription caching
	GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	SetActiveSubscription(ctx context.Context, userID uuid.UUID, subscription *models.Subscription, ttl time.Duration) error
	DeleteActiveSubscription(ctx context.Context, userID uuid.UUID) error

	// Cache invalidation
	InvalidateAllCache(ctx context.Context) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	// Accept redis://host:port URLs as well as bare host:port
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func (r *redisCacheService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	key := fmt.Sprintf("instaviz:plan:%s", planID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var plan models.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *redisCacheService) SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	key := fmt.Sprintf("instaviz:plan:%s", plan.ID.String())
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	key := fmt.Sprintf("instaviz:plan:%s", planID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) GetPlanList(ctx context.Context) ([]*models.Plan, error) {
	data, err := r.client.Get(ctx, "instaviz:plans:active").Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var plans []*models.Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *redisCacheService) SetPlanList(ctx context.Context, plans []*models.Plan, ttl time.Duration) error {
	data, err := json.Marshal(plans)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, "instaviz:plans:active", data, ttl).Err()
}

func (r *redisCacheService) DeletePlanList(ctx context.Context) error {
	return r.client.Del(ctx, "instaviz:plans:active").Err()
}

func (r *redisCacheService) GetActiveSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	key := fmt.Sprintf("instaviz:subscription:active:%s", userID.String())
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var subscription models.Subscription
	if err := json.Unmarshal(data, &subscription); err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (r *redisCacheService) SetActiveSubscription(ctx context.Context, userID uuid.UUID, subscription *models.Subscription, ttl time.Duration) error {
	key := fmt.Sprintf("instaviz:subscription:active:%s", userID.String())
	data, err := json.Marshal(subscription)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteActiveSubscription(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("instaviz:subscription:active:%s", userID.String())
	return r.client.Del(ctx, key).Err()
}

func (r *redisCacheService) InvalidateAllCache(ctx context.Context) error {
	keys, err := r.client.Keys(ctx, "instaviz:*").Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return r.client.Del(ctx, keys...).Err()
	}
	return nil
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	cacheKey := fmt.Sprintf("instaviz:ratelimit:%s", key)
	count, err := r.client.Incr(ctx, cacheKey).Result()
	if err != nil {
		return true, err
	}

	// Set expiry on first request
	if count == 1 {
		r.client.Expire(ctx, cacheKey, window)
	}

	return count > int64(limit), nil
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil // cache miss
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
