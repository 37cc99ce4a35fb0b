package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/streampoints/raffle-backend/pkg/db/models"
	"github.com/streampoints/raffle-backend/pkg/logger"
)

type raffleScheduler interface {
	ActivateScheduled(ctx context.Context, now time.Time) (int64, error)
	ListOverdue(ctx context.Context, now time.Time) ([]models.Raffle, error)
}

// RaffleLifecycleJobParams configure the raffle lifecycle job.
type RaffleLifecycleJobParams struct {
	Logger  *logger.Logger
	Raffles raffleScheduler
}

// NewRaffleLifecycleJob builds the cron job that opens scheduled raffles and
// reports raffles whose window closed without a draw.
func NewRaffleLifecycleJob(params RaffleLifecycleJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Raffles == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	return &raffleLifecycleJob{
		logg:    params.Logger,
		raffles: params.Raffles,
		now:     time.Now,
	}, nil
}

type raffleLifecycleJob struct {
	logg    *logger.Logger
	raffles raffleScheduler
	now     func() time.Time
}

func (j *raffleLifecycleJob) Name() string { return "raffle-lifecycle" }

func (j *raffleLifecycleJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.activateScheduled(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.reportOverdue(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *raffleLifecycleJob) activateScheduled(ctx context.Context) error {
	activated, err := j.raffles.ActivateScheduled(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("activate scheduled raffles: %w", err)
	}
	if activated > 0 {
		logCtx := j.logg.WithField(ctx, "count", activated)
		j.logg.Info(logCtx, "scheduled raffles activated")
	}
	return nil
}

// Draws are operator-triggered, so an expired raffle is surfaced in the
// logs rather than drawn automatically.
func (j *raffleLifecycleJob) reportOverdue(ctx context.Context) error {
	overdue, err := j.raffles.ListOverdue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("query overdue raffles: %w", err)
	}
	for _, raffle := range overdue {
		logCtx := j.logg.WithRaffleID(ctx, raffle.ID)
		j.logg.Warn(logCtx, "raffle window closed but winners were not drawn")
	}
	return nil
}
