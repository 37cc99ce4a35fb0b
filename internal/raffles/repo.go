package raffles

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/streampoints/raffle-backend/pkg/db"
	"github.com/streampoints/raffle-backend/pkg/db/models"
	"github.com/streampoints/raffle-backend/pkg/enums"
)

// Repository manages persistence for raffle configuration and lifecycle state.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, raffle *models.Raffle) error
	FindByID(ctx context.Context, raffleID int64) (*models.Raffle, error)
	// FindByIDForUpdate locks the raffle row for the duration of the
	// surrounding transaction. Every purchase, grant and draw takes this
	// lock first, which serializes cap checks and the draw transition.
	FindByIDForUpdate(ctx context.Context, raffleID int64) (*models.Raffle, error)
	List(ctx context.Context, now time.Time) ([]models.Raffle, error)
	SetStatus(ctx context.Context, raffleID int64, status enums.RaffleStatus) error
	MarkDrawn(ctx context.Context, raffleID int64, seed string, drawnAt time.Time) error
	ActivateScheduled(ctx context.Context, now time.Time) (int64, error)
	// ListOverdue returns active raffles whose entry window closed but whose
	// draw has not run yet. Draws are operator-triggered, so these only get
	// reported, never auto-drawn.
	ListOverdue(ctx context.Context, now time.Time) ([]models.Raffle, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a raffle repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, raffle *models.Raffle) error {
	return r.db.WithContext(ctx).Create(raffle).Error
}

func (r *repository) FindByID(ctx context.Context, raffleID int64) (*models.Raffle, error) {
	var raffle models.Raffle
	if err := r.db.WithContext(ctx).
		Where("id = ?", raffleID).
		First(&raffle).Error; err != nil {
		return nil, err
	}
	return &raffle, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, raffleID int64) (*models.Raffle, error) {
	var raffle models.Raffle
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", raffleID).
		First(&raffle).Error; err != nil {
		return nil, err
	}
	return &raffle, nil
}

// List returns non-terminal raffles, newest first. Raffles marked
// hidden_until_start stay out of the listing until start_at passes.
func (r *repository) List(ctx context.Context, now time.Time) ([]models.Raffle, error) {
	var raffles []models.Raffle
	if err := r.db.WithContext(ctx).
		Where("status IN ?", []enums.RaffleStatus{enums.RaffleStatusUpcoming, enums.RaffleStatusActive}).
		Where("hidden_until_start = ? OR start_at IS NULL OR start_at <= ?", false, now).
		Order("created_at DESC").
		Find(&raffles).Error; err != nil {
		return nil, err
	}
	return raffles, nil
}

func (r *repository) SetStatus(ctx context.Context, raffleID int64, status enums.RaffleStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("id = ?", raffleID).
		Update("status", status).Error
}

// MarkDrawn finalizes a draw: status, seed and timestamp move together.
func (r *repository) MarkDrawn(ctx context.Context, raffleID int64, seed string, drawnAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("id = ?", raffleID).
		Updates(map[string]any{
			"status":    enums.RaffleStatusCompleted,
			"draw_seed": seed,
			"drawn_at":  drawnAt,
		}).Error
}

// ActivateScheduled flips upcoming raffles whose start time has passed to
// active and reports how many rows changed.
func (r *repository) ActivateScheduled(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Raffle{}).
		Where("status = ?", enums.RaffleStatusUpcoming).
		Where("start_at IS NOT NULL AND start_at <= ?", now).
		Update("status", enums.RaffleStatusActive)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) ListOverdue(ctx context.Context, now time.Time) ([]models.Raffle, error) {
	var raffles []models.Raffle
	if err := r.db.WithContext(ctx).
		Where("status = ?", enums.RaffleStatusActive).
		Where("end_at IS NOT NULL AND end_at <= ?", now).
		Order("end_at ASC").
		Find(&raffles).Error; err != nil {
		return nil, err
	}
	return raffles, nil
}
