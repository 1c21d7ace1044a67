package background

import (
	"context"
	"log"
	"sync"
	"time"

	"instaviz/internal/repositories"
	"instaviz/internal/services"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler manages the periodic maintenance jobs: the subscription
// expiry sweep and the plan cache refresh.
type JobScheduler struct {
	scheduler        gocron.Scheduler
	subscriptionRepo repositories.SubscriptionRepository
	planSvc          services.PlanService
	jobs             map[string]gocron.Job
	mu               sync.RWMutex
}

// NewJobScheduler creates a new job scheduler
func NewJobScheduler(subscriptionRepo repositories.SubscriptionRepository, planSvc services.PlanService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:        scheduler,
		subscriptionRepo: subscriptionRepo,
		planSvc:          planSvc,
		jobs:             make(map[string]gocron.Job),
	}

	js.registerJobs()

	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers all background jobs
func (js *JobScheduler) registerJobs() {
	// Subscription expiry sweep - hourly. Reads stay authoritative via
	// the end_date predicate; this job just settles the stored status.
	expiryJob, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(js.sweepExpiredSubscriptions, context.Background()),
		gocron.WithName("subscription-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create expiry sweep job: %v", err)
	} else {
		js.jobs["expiry-sweep"] = expiryJob
	}

	// Plan cache refresh - every 10 minutes
	planJob, err := js.scheduler.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(js.refreshPlanCache, context.Background()),
		gocron.WithName("plan-cache-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create plan cache job: %v", err)
	} else {
		js.jobs["plan-cache"] = planJob
	}
}

func (js *JobScheduler) sweepExpiredSubscriptions(ctx context.Context) {
	count, err := js.subscriptionRepo.ExpireOverdue(ctx)
	if err != nil {
		log.Printf("Subscription expiry sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Subscription expiry sweep marked %d subscriptions expired", count)
	}
}

func (js *JobScheduler) refreshPlanCache(ctx context.Context) {
	if err := js.planSvc.RefreshPlanCache(ctx); err != nil {
		log.Printf("Plan cache refresh failed: %v", err)
	}
}
