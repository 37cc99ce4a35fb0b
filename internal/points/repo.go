package points

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streampoints/raffle-backend/pkg/db"
	"github.com/streampoints/raffle-backend/pkg/db/models"
	"github.com/streampoints/raffle-backend/pkg/enums"
)

// ErrInsufficientPoints is returned by Debit when the guarded update finds
// fewer points than the debit needs.
var ErrInsufficientPoints = errors.New("insufficient points balance")

// Repository is the persistence surface of the points ledger. Balances live
// on the users table; every mutation appends a points_transactions audit row
// in the same transaction.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, userID int64) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	// FindByIDForUpdate locks the balance row for the surrounding transaction.
	FindByIDForUpdate(ctx context.Context, userID int64) (*models.User, error)
	Debit(ctx context.Context, userID, amount int64, kind enums.PointsTransactionKind, raffleID *int64) (*models.PointsTransaction, error)
	Credit(ctx context.Context, userID, amount int64, kind enums.PointsTransactionKind, raffleID *int64) (*models.PointsTransaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]models.PointsTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a points ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("id = ?", userID).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := db.ForUpdate(r.db.WithContext(ctx)).
		Where("id = ?", userID).
		First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Debit subtracts amount from the user's balance. The UPDATE carries a
// points >= amount guard, so a concurrent debit that drained the balance
// after the caller's read surfaces as ErrInsufficientPoints instead of a
// negative balance.
func (r *repository) Debit(ctx context.Context, userID, amount int64, kind enums.PointsTransactionKind, raffleID *int64) (*models.PointsTransaction, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND points >= ?", userID, amount).
		Update("points", gorm.Expr("points - ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrInsufficientPoints
	}
	return r.appendAudit(ctx, userID, -amount, kind, raffleID)
}

// Credit adds amount to the user's balance.
func (r *repository) Credit(ctx context.Context, userID, amount int64, kind enums.PointsTransactionKind, raffleID *int64) (*models.PointsTransaction, error) {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("points", gorm.Expr("points + ?", amount))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.appendAudit(ctx, userID, amount, kind, raffleID)
}

func (r *repository) appendAudit(ctx context.Context, userID, amount int64, kind enums.PointsTransactionKind, raffleID *int64) (*models.PointsTransaction, error) {
	var balance int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Select("points").
		Scan(&balance).Error; err != nil {
		return nil, err
	}

	txn := &models.PointsTransaction{
		UserID:       userID,
		Amount:       amount,
		BalanceAfter: balance,
		Kind:         kind,
		RaffleID:     raffleID,
		Reference:    uuid.New(),
	}
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) ListTransactions(ctx context.Context, userID int64) ([]models.PointsTransaction, error) {
	var list []models.PointsTransaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
