package draw

import (
	"context"

	"gorm.io/gorm"

	"github.com/streampoints/raffle-backend/pkg/db/models"
)

// WinnerRepository persists the append-only winner rows of completed draws.
type WinnerRepository interface {
	WithTx(tx *gorm.DB) WinnerRepository
	CreateBatch(ctx context.Context, winners []models.RaffleWinner) error
	ListByRaffle(ctx context.Context, raffleID int64) ([]models.RaffleWinner, error)
}

type winnerRepository struct {
	db *gorm.DB
}

// NewWinnerRepository returns a winner repository bound to the provided database.
func NewWinnerRepository(db *gorm.DB) WinnerRepository {
	return &winnerRepository{db: db}
}

func (r *winnerRepository) WithTx(tx *gorm.DB) WinnerRepository {
	if tx == nil {
		return r
	}
	return &winnerRepository{db: tx}
}

func (r *winnerRepository) CreateBatch(ctx context.Context, winners []models.RaffleWinner) error {
	if len(winners) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&winners).Error
}

func (r *winnerRepository) ListByRaffle(ctx context.Context, raffleID int64) ([]models.RaffleWinner, error) {
	var winners []models.RaffleWinner
	if err := r.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("id ASC").
		Find(&winners).Error; err != nil {
		return nil, err
	}
	return winners, nil
}
