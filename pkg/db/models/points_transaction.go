package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/streampoints/raffle-backend/pkg/enums"
)

// PointsTransaction is an append-only audit row for every balance mutation
// this service performs. Amount is signed; BalanceAfter snapshots the balance
// inside the same transaction that applied the mutation.
type PointsTransaction struct {
	ID           int64                       `gorm:"column:id;primaryKey;autoIncrement"`
	UserID       int64                       `gorm:"column:user_id;not null;index"`
	Amount       int64                       `gorm:"column:amount;not null"`
	BalanceAfter int64                       `gorm:"column:balance_after;not null"`
	Kind         enums.PointsTransactionKind `gorm:"column:kind;type:text;not null"`
	RaffleID     *int64                      `gorm:"column:raffle_id"`
	Reference    uuid.UUID                   `gorm:"column:reference;type:text;not null"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
