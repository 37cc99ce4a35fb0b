package grants

import (
	"context"
	"errors"
	"fmt"
	"strings"
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
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// GrantInput identifies an administrative ticket grant. The target is
// resolved by UserID when set, otherwise by Username.
type GrantInput struct {
	RaffleID int64
	UserID   int64
	Username string
	Tickets  int
}

// Service is the admin-only path that hands out tickets without debiting
// points. It skips the public purchase window and subscriber checks but
// still honors both ticket caps, so grants cannot corrupt draw fairness.
type Service interface {
	Grant(ctx context.Context, input GrantInput) (*models.RaffleEntry, error)
}

type service struct {
	tx         txRunner
	raffleRepo raffles.Repository
	entryRepo  entries.Repository
	pointsRepo points.Repository
	logg       *logger.Logger
	txTimeout  time.Duration
}

// NewService wires the manual entry service.
func NewService(
	tx txRunner,
	raffleRepo raffles.Repository,
	entryRepo entries.Repository,
	pointsRepo points.Repository,
	logg *logger.Logger,
	txTimeout time.Duration,
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
	return &service{
		tx:         tx,
		raffleRepo: raffleRepo,
		entryRepo:  entryRepo,
		pointsRepo: pointsRepo,
		logg:       logg,
		txTimeout:  txTimeout,
	}, nil
}

func (s *service) Grant(ctx context.Context, input GrantInput) (*models.RaffleEntry, error) {
	if input.RaffleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle id must be positive")
	}
	if input.Tickets <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket count must be positive")
	}
	if input.UserID <= 0 && strings.TrimSpace(input.Username) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id or username required")
	}

	ctx = s.logg.WithRaffleID(ctx, input.RaffleID)
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	var result *models.RaffleEntry
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		raffleRepo := s.raffleRepo.WithTx(tx)
		entryRepo := s.entryRepo.WithTx(tx)
		pointsRepo := s.pointsRepo.WithTx(tx)

		raffle, err := raffleRepo.FindByIDForUpdate(ctx, input.RaffleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "raffle %d not found", input.RaffleID)
			}
			return err
		}
		if raffle.Status.IsTerminal() || raffle.Status == enums.RaffleStatusDrawing {
			return pkgerrors.Newf(pkgerrors.CodeRaffleNotActive, "raffle is %s", raffle.Status)
		}

		user, err := s.resolveUser(ctx, pointsRepo, input)
		if err != nil {
			return err
		}

		if raffle.MaxTicketsPerUser != nil {
			held, err := entryRepo.SumTicketsForUser(ctx, input.RaffleID, user.ID)
			if err != nil {
				return err
			}
			remaining := int64(*raffle.MaxTicketsPerUser) - held
			if remaining < int64(input.Tickets) {
				return pkgerrors.Newf(pkgerrors.CodePerUserCapExceeded,
					"per-user ticket limit reached, %d remaining", maxInt64(remaining, 0))
			}
		}

		if raffle.TotalTicketsCap != nil {
			sold, err := entryRepo.SumTickets(ctx, input.RaffleID)
			if err != nil {
				return err
			}
			remaining := int64(*raffle.TotalTicketsCap) - sold
			if remaining < int64(input.Tickets) {
				return pkgerrors.Newf(pkgerrors.CodeSoldOut,
					"raffle is sold out, only %d tickets remaining", maxInt64(remaining, 0))
			}
		}

		entry := &models.RaffleEntry{
			RaffleID: input.RaffleID,
			UserID:   user.ID,
			Username: user.Username,
			Tickets:  input.Tickets,
			Source:   enums.EntrySourceGranted,
		}
		if err := entryRepo.AddTickets(ctx, entry); err != nil {
			return err
		}

		// re-read so the returned entry reflects an incremented row
		result, err = entryRepo.FindByRaffleAndUser(ctx, input.RaffleID, user.ID)
		return err
	})
	if txErr != nil {
		if typed := pkgerrors.As(txErr); typed != nil {
			return nil, typed
		}
		if db.IsTimeout(txErr) {
			s.logg.Error(ctx, "grant timed out", txErr)
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, txErr, "grant timed out")
		}
		s.logg.Error(ctx, "grant failed", txErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "grant failed")
	}

	ctx = s.logg.WithUserID(ctx, result.UserID)
	s.logg.Info(ctx, "tickets granted")
	return result, nil
}

func (s *service) resolveUser(ctx context.Context, repo points.Repository, input GrantInput) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if input.UserID > 0 {
		user, err = repo.FindByID(ctx, input.UserID)
	} else {
		user, err = repo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "target user not found")
		}
		return nil, err
	}
	return user, nil
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
