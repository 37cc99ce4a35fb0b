package draw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/streampoints/raffle-backend/internal/entries"
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

// DrawInput carries a draw request. RiggedEntryIDs is the operator override
// path: the listed entries win first (in the given order), flagged on their
// winner rows, before any random selection runs.
type DrawInput struct {
	RaffleID        int64
	NumberOfWinners int
	RiggedEntryIDs  []int64
}

// DrawResult is the committed outcome of a draw.
type DrawResult struct {
	Winners  []models.RaffleWinner `json:"winners"`
	DrawSeed string                `json:"draw_seed"`
}

// Service runs seeded winner draws and their offline replays.
type Service interface {
	Draw(ctx context.Context, input DrawInput) (*DrawResult, error)
	Replay(seed string, entrySnapshot []models.RaffleEntry, numberOfWinners int, riggedEntryIDs []int64) ([]Selection, error)
}

type service struct {
	tx         txRunner
	raffleRepo raffles.Repository
	entryRepo  entries.Repository
	winnerRepo WinnerRepository
	logg       *logger.Logger
	metrics    *metrics.RaffleMetrics
	txTimeout  time.Duration
	now        func() time.Time
}

// NewService wires the draw engine.
func NewService(
	tx txRunner,
	raffleRepo raffles.Repository,
	entryRepo entries.Repository,
	winnerRepo WinnerRepository,
	logg *logger.Logger,
	raffleMetrics *metrics.RaffleMetrics,
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
	if winnerRepo == nil {
		return nil, fmt.Errorf("winner repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if txTimeout <= 0 {
		txTimeout = 15 * time.Second
	}
	return &service{
		tx:         tx,
		raffleRepo: raffleRepo,
		entryRepo:  entryRepo,
		winnerRepo: winnerRepo,
		logg:       logg,
		metrics:    raffleMetrics,
		txTimeout:  txTimeout,
		now:        time.Now,
	}, nil
}

func (s *service) Draw(ctx context.Context, input DrawInput) (*DrawResult, error) {
	started := time.Now()
	result, err := s.draw(ctx, input)
	if err != nil {
		s.metrics.ObserveDraw(metrics.OutcomeFailure, time.Since(started))
		return nil, err
	}
	s.metrics.ObserveDraw(metrics.OutcomeSuccess, time.Since(started))
	return result, nil
}

func (s *service) draw(ctx context.Context, input DrawInput) (*DrawResult, error) {
	if input.RaffleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle id must be positive")
	}
	if input.NumberOfWinners <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "number of winners must be positive")
	}

	ctx = s.logg.WithRaffleID(ctx, input.RaffleID)
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	seed, err := GenerateSeed()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating draw seed")
	}

	var result *DrawResult
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		raffleRepo := s.raffleRepo.WithTx(tx)
		entryRepo := s.entryRepo.WithTx(tx)
		winnerRepo := s.winnerRepo.WithTx(tx)

		// The row lock makes the AlreadyDrawn check and the completion
		// write atomic; a second concurrent draw blocks here and then
		// sees the terminal status.
		raffle, err := raffleRepo.FindByIDForUpdate(ctx, input.RaffleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Newf(pkgerrors.CodeNotFound, "raffle %d not found", input.RaffleID)
			}
			return err
		}

		switch raffle.Status {
		case enums.RaffleStatusCompleted, enums.RaffleStatusDrawing:
			return pkgerrors.New(pkgerrors.CodeAlreadyDrawn, "raffle winners were already drawn")
		case enums.RaffleStatusCancelled:
			return pkgerrors.New(pkgerrors.CodeRaffleNotActive, "raffle was cancelled")
		}

		entryList, err := entryRepo.ListByRaffle(ctx, input.RaffleID)
		if err != nil {
			return err
		}
		if len(entryList) == 0 {
			return pkgerrors.New(pkgerrors.CodeNoEntries, "raffle has no entries")
		}

		totalTickets := 0
		for i := range entryList {
			totalTickets += entryList[i].Tickets
		}
		if totalTickets < 1 {
			return pkgerrors.New(pkgerrors.CodeNoTickets, "raffle has no tickets")
		}

		selections, err := selectWinners(entryList, seed, input.NumberOfWinners, input.RiggedEntryIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rigged entries")
		}

		winners := make([]models.RaffleWinner, len(selections))
		for i, sel := range selections {
			winners[i] = models.RaffleWinner{
				RaffleID: input.RaffleID,
				EntryID:  sel.Entry.ID,
				UserID:   sel.Entry.UserID,
				Username: sel.Entry.Username,
				Tickets:  sel.Entry.Tickets,
				IsRigged: sel.Rigged,
			}
		}

		if err := winnerRepo.CreateBatch(ctx, winners); err != nil {
			return err
		}
		if err := raffleRepo.MarkDrawn(ctx, input.RaffleID, seed, s.now().UTC()); err != nil {
			return err
		}

		result = &DrawResult{Winners: winners, DrawSeed: seed}
		return nil
	})
	if txErr != nil {
		if typed := pkgerrors.As(txErr); typed != nil {
			return nil, typed
		}
		if db.IsTimeout(txErr) {
			s.logg.Error(ctx, "draw timed out", txErr)
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, txErr, "draw timed out")
		}
		s.logg.Error(ctx, "draw failed", txErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "draw failed")
	}

	ctx = s.logg.WithField(ctx, "winners", len(result.Winners))
	s.logg.Info(ctx, "raffle draw completed")
	return result, nil
}

// Replay re-runs the selection from a stored seed and an entry snapshot.
// It never touches storage; auditors feed it the persisted seed and the
// entries as they stood at draw time and compare the result to the stored
// winner rows.
func (s *service) Replay(seed string, entrySnapshot []models.RaffleEntry, numberOfWinners int, riggedEntryIDs []int64) ([]Selection, error) {
	if numberOfWinners <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "number of winners must be positive")
	}
	selections, err := selectWinners(entrySnapshot, seed, numberOfWinners, riggedEntryIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "replay failed")
	}
	return selections, nil
}
