package raffles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/streampoints/raffle-backend/pkg/db/models"
	"github.com/streampoints/raffle-backend/pkg/enums"
	pkgerrors "github.com/streampoints/raffle-backend/pkg/errors"
)

// EntriesReader exposes the entry aggregates the catalog needs.
type EntriesReader interface {
	CountByRaffle(ctx context.Context, raffleID int64) (int64, error)
	SumTickets(ctx context.Context, raffleID int64) (int64, error)
}

// WinnersReader loads persisted winner rows for completed raffles.
type WinnersReader interface {
	ListByRaffle(ctx context.Context, raffleID int64) ([]models.RaffleWinner, error)
}

// Service is the read surface of the raffle catalog.
type Service interface {
	List(ctx context.Context) ([]models.Raffle, error)
	Get(ctx context.Context, raffleID int64) (*RaffleDetail, error)
}

type service struct {
	repo    Repository
	entries EntriesReader
	winners WinnersReader
	now     func() time.Time
}

// NewService wires the raffle catalog read service.
func NewService(repo Repository, entries EntriesReader, winners WinnersReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("raffle repository required")
	}
	if entries == nil {
		return nil, fmt.Errorf("entries reader required")
	}
	if winners == nil {
		return nil, fmt.Errorf("winners reader required")
	}
	return &service{
		repo:    repo,
		entries: entries,
		winners: winners,
		now:     time.Now,
	}, nil
}

func (s *service) List(ctx context.Context) ([]models.Raffle, error) {
	raffles, err := s.repo.List(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing raffles")
	}
	return raffles, nil
}

func (s *service) Get(ctx context.Context, raffleID int64) (*RaffleDetail, error) {
	if raffleID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "raffle id must be positive")
	}

	raffle, err := s.repo.FindByID(ctx, raffleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "raffle %d not found", raffleID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading raffle")
	}

	// Hidden raffles do not exist to readers before their start time.
	if raffle.HiddenUntilStart && raffle.StartAt != nil && s.now().Before(*raffle.StartAt) {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "raffle %d not found", raffleID)
	}

	count, err := s.entries.CountByRaffle(ctx, raffleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting entries")
	}
	sold, err := s.entries.SumTickets(ctx, raffleID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing tickets")
	}

	detail := &RaffleDetail{
		Raffle:      *raffle,
		EntryCount:  count,
		TicketsSold: sold,
	}

	if raffle.Status == enums.RaffleStatusCompleted {
		winners, err := s.winners.ListByRaffle(ctx, raffleID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading winners")
		}
		detail.Winners = winners
	}

	return detail, nil
}
