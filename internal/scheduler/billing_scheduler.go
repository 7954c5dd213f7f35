package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/thanhcanhit/trustay-billing-svc/internal/models"
	"github.com/thanhcanhit/trustay-billing-svc/internal/repository"
	"github.com/thanhcanhit/trustay-billing-svc/internal/service"
	"github.com/thanhcanhit/trustay-billing-svc/pkg/logger"
)

// BillingScheduler triggers monthly bill generation for the configured
// buildings. Generation is idempotent per room and period on the backend,
// so overlapping or repeated runs only report existing bills.
type BillingScheduler struct {
	store          *service.BillStore
	logger         *logger.Logger
	cron           *cron.Cron
	cronExpression string
	buildingIDs    []string
}

// NewBillingScheduler creates a new billing scheduler
func NewBillingScheduler(store *service.BillStore, log *logger.Logger, cronExpression string, buildingIDs []string) *BillingScheduler {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &BillingScheduler{
		store:          store,
		logger:         log,
		cron:           c,
		cronExpression: cronExpression,
		buildingIDs:    buildingIDs,
	}
}

// Start initializes and starts all scheduled jobs
func (s *BillingScheduler) Start() error {
	s.logger.Info("Starting billing scheduler...")

	// Cron format: "seconds minutes hours day-of-month month day-of-week"
	s.logger.WithField("cron_expression", s.cronExpression).Info("Scheduling billing job")
	_, err := s.cron.AddFunc(s.cronExpression, s.generateMonthlyBills)
	if err != nil {
		return fmt.Errorf("failed to schedule monthly billing job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Billing scheduler started successfully")

	return nil
}

// Stop gracefully stops the scheduler
func (s *BillingScheduler) Stop() {
	s.logger.Info("Stopping billing scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Billing scheduler stopped successfully")
}

// generateMonthlyBills is the scheduled job that generates bills for
// every configured building for the current billing period
func (s *BillingScheduler) generateMonthlyBills() {
	runID := uuid.New().String()
	period := models.CurrentBillingPeriod()

	s.logger.WithFields(map[string]interface{}{
		"run_id":         runID,
		"billing_period": period,
		"buildings":      len(s.buildingIDs),
	}).Info("Starting scheduled monthly bill generation")

	if len(s.buildingIDs) == 0 {
		s.logger.WithField("run_id", runID).Warn("No buildings configured for scheduled generation")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, buildingID := range s.buildingIDs {
		result, err := s.store.Generate(ctx, repository.GenerateRequest{
			BuildingID:    buildingID,
			BillingPeriod: period,
		})
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"run_id":      runID,
				"building_id": buildingID,
			}).Error("Failed to generate bills for building")
			continue
		}

		s.logger.WithFields(map[string]interface{}{
			"run_id":        runID,
			"building_id":   buildingID,
			"bills_created": result.BillsCreated,
			"bills_existed": result.BillsExisted,
		}).Info("Scheduled bill generation completed for building")
	}

	s.logger.WithField("run_id", runID).Info("Scheduled monthly bill generation completed")
}
