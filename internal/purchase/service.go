package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/streampoints/raffle-backend/internal/entries"
	"github.com/streampoints/raffle-backend/internal/points"
	"github.com/streampoints/raffle-backend/internal/raffles"
	"github.com/streampoints/raffle-backend/pkg/db"
	"github.com/streampoints/raffle-backend/pkg/db/models"
	"github.com/streampoints/raffle-backend/pkg/enums"
	pkgerrors "github.com/streampoints/raffle-backend/pkg/errors"
	"github.com/streampoints/raffle-backend/pkg/logger"
	"github.com/streampoints/raffle-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// PurchaseInput identifies one points-for-tickets exchange.
type PurchaseInput struct {
	UserID   int64
	RaffleID int64
	Quantity int
}

// PurchaseResult is the committed outcome of a purchase.
type PurchaseResult struct {
	TicketsPurchased int   `json:"tickets_purchased"`
	NewBalance       int64 `json:"new_balance"`
}

// Service exchanges points for raffle tickets. Every purchase runs as one
// transaction: eligibility checks, cap aggregation, balance debit and entry
// upsert either all commit or none do.
type Service interface {
	Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error)
}

type service struct {
	tx          txRunner
	raffleRepo  raffles.Repository
	entryRepo   entries.Repository
	pointsRepo  points.Repository
	logg        *logger.Logger
	metrics     *metrics.RaffleMetrics
	txTimeout   time.Duration
	maxQuantity int
	now         func() time.Time
}

// NewService wires the ticket purchase service.
func NewService(
	tx txRunner,
	raffleRepo raffles.Repository,
	entryRepo entries.Repository,
	pointsRepo points.Repository,
	logg *logger.Logger,
	raffleMetrics *metrics.RaffleMetrics,
	txTimeout time.Duration,
	maxQuantity int,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if raffleRepo == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	if entryRepo == nil {
		return nil, fmt.Errorf("entry repository required")
	}
	if pointsRepo == nil {
		return nil, fmt.Errorf("points repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if txTimeout <= 0 {
		txTimeout = 5 * time.Second
	}
	if maxQuantity <= 0 {
		maxQuantity = 1000
	}
	return &service{
		tx:          tx,
		raffleRepo:  raffleRepo,
		entryRepo:   entryRepo,
		pointsRepo:  pointsRepo,
		logg:        logg,
		metrics:     raffleMetrics,
		txTimeout:   txTimeout,
		maxQuantity: maxQuantity,
		now:         time.Now,
	}, nil
}

func (s *service) Purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	result, err := s.purchase(ctx, input)
	if err != nil {
		s.metrics.ObservePurchase(metrics.OutcomeFailure, 0)
		return nil, err
	}
	s.metrics.ObservePurchase(metrics.OutcomeSuccess, result.TicketsPurchased)
	return result, nil
}

func (s *service) purchase(ctx context.Context, input PurchaseInput) (*PurchaseResult, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Quantity > s.maxQuantity {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "quantity exceeds the per-request limit of %d", s.maxQuantity)
	}
	if input.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id must be positive")
	}
	if input.RaffleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle id must be positive")
	}

	ctx = s.logg.WithRaffleID(s.logg.WithUserID(ctx, input.UserID), input.RaffleID)
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var result *PurchaseResult
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		raffleRepo := s.raffleRepo.WithTx(tx)
		entryRepo := s.entryRepo.WithTx(tx)
		pointsRepo := s.pointsRepo.WithTx(tx)

		// Locking the raffle row serializes cap aggregation across
		// concurrent purchases of the same raffle.
		raffle, err := raffleRepo.FindByIDForUpdate(ctx, input.RaffleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "raffle %d not found", input.RaffleID)
			}
			return err
		}

		now := s.now()
		if !raffle.Status.AcceptsEntries() {
			return pkgerrors.Newf(pkgerrors.CodeRaffleNotActive, "raffle is %s", raffle.Status)
		}
		if raffle.HiddenUntilStart && raffle.StartAt != nil && now.Before(*raffle.StartAt) {
			return pkgerrors.New(pkgerrors.CodeRaffleNotStarted, "raffle has not started yet")
		}
		if raffle.EndAt != nil && now.After(*raffle.EndAt) {
			return pkgerrors.New(pkgerrors.CodeRaffleEnded, "raffle has ended")
		}

		user, err := pointsRepo.FindByID(ctx, input.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "user %d not found", input.UserID)
			}
			return err
		}
		if raffle.SubOnly && !user.IsSubscriber {
			return pkgerrors.New(pkgerrors.CodeSubscriberRequired, "raffle is restricted to subscribers")
		}

		if raffle.MaxTicketsPerUser != nil {
			held, err := entryRepo.SumTicketsForUser(ctx, input.RaffleID, input.UserID)
			if err != nil {
				return err
			}
			remaining := int64(*raffle.MaxTicketsPerUser) - held
			if remaining < int64(input.Quantity) {
				return pkgerrors.Newf(pkgerrors.CodePerUserCapExceeded,
					"per-user ticket limit reached, %d remaining", max64(remaining, 0))
			}
		}

		if raffle.TotalTicketsCap != nil {
			sold, err := entryRepo.SumTickets(ctx, input.RaffleID)
			if err != nil {
				return err
			}
			remaining := int64(*raffle.TotalTicketsCap) - sold
			if remaining < int64(input.Quantity) {
				return pkgerrors.Newf(pkgerrors.CodeSoldOut,
					"raffle is sold out, only %d tickets remaining", max64(remaining, 0))
			}
		}

		totalCost := raffle.TicketCost * int64(input.Quantity)

		// The balance row lock is taken last to keep the hold time on the
		// contended row short.
		locked, err := pointsRepo.FindByIDForUpdate(ctx, input.UserID)
		if err != nil {
			return err
		}
		if locked.Points < totalCost {
			return pkgerrors.Newf(pkgerrors.CodeInsufficientBalance,
				"not enough points, need %d but have %d", totalCost, locked.Points)
		}

		txn, err := pointsRepo.Debit(ctx, input.UserID, totalCost, enums.PointsTransactionTicketPurchase, &input.RaffleID)
		if err != nil {
			if errors.Is(err, points.ErrInsufficientPoints) {
				return pkgerrors.Newf(pkgerrors.CodeInsufficientBalance,
					"not enough points, need %d but have %d", totalCost, locked.Points)
			}
			return err
		}

		entry := &models.RaffleEntry{
			RaffleID: input.RaffleID,
			UserID:   input.UserID,
			Username: user.Username,
			Tickets:  input.Quantity,
			Source:   enums.EntrySourcePurchased,
		}
		if err := entryRepo.AddTickets(ctx, entry); err != nil {
			return err
		}

		result = &PurchaseResult{
			TicketsPurchased: input.Quantity,
			NewBalance:       txn.BalanceAfter,
		}
		return nil
	})
	if txErr != nil {
		if typed := pkgerrors.As(txErr); typed != nil {
			return nil, typed
		}
		if db.IsTimeout(txErr) {
			s.logg.Error(ctx, "purchase timed out", txErr)
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, txErr, "purchase timed out")
		}
		s.logg.Error(ctx, "purchase failed", txErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "purchase failed")
	}

	ctx = s.logg.WithField(ctx, "tickets", result.TicketsPurchased)
	s.logg.Info(ctx, "tickets purchased")
	return result, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
