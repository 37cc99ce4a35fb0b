package entries

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/streampoints/raffle-backend/pkg/db/models"
)

// Repository manages persistence for raffle entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// AddTickets upserts the (raffle, user) entry and increments its ticket
	// count. The entry's source is set on first insert and never changed by
	// later increments.
	AddTickets(ctx context.Context, entry *models.RaffleEntry) error
	FindByRaffleAndUser(ctx context.Context, raffleID, userID int64) (*models.RaffleEntry, error)
	ListByRaffle(ctx context.Context, raffleID int64) ([]models.RaffleEntry, error)
	SumTickets(ctx context.Context, raffleID int64) (int64, error)
	SumTicketsForUser(ctx context.Context, raffleID, userID int64) (int64, error)
	CountByRaffle(ctx context.Context, raffleID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an entry repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) AddTickets(ctx context.Context, entry *models.RaffleEntry) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "raffle_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"tickets":    gorm.Expr("tickets + ?", entry.Tickets),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(entry).Error
}

func (r *repository) FindByRaffleAndUser(ctx context.Context, raffleID, userID int64) (*models.RaffleEntry, error) {
	var entry models.RaffleEntry
	if err := r.db.WithContext(ctx).
		Where("raffle_id = ? AND user_id = ?", raffleID, userID).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByRaffle returns entries in insertion order. The draw depends on this
// ordering being stable for seed replay.
func (r *repository) ListByRaffle(ctx context.Context, raffleID int64) ([]models.RaffleEntry, error) {
	var list []models.RaffleEntry
	if err := r.db.WithContext(ctx).
		Where("raffle_id = ?", raffleID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) SumTickets(ctx context.Context, raffleID int64) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.RaffleEntry{}).
		Where("raffle_id = ?", raffleID).
		Select("COALESCE(SUM(tickets), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) SumTicketsForUser(ctx context.Context, raffleID, userID int64) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.RaffleEntry{}).
		Where("raffle_id = ? AND user_id = ?", raffleID, userID).
		Select("COALESCE(SUM(tickets), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) CountByRaffle(ctx context.Context, raffleID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.RaffleEntry{}).
		Where("raffle_id = ?", raffleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
