package models

import (
	"time"

	"github.com/streampoints/raffle-backend/pkg/enums"
)

// RaffleEntry aggregates the tickets one user holds in one raffle.
// Uniqueness on (raffle_id, user_id); tickets only ever grow.
type RaffleEntry struct {
	ID       int64             `gorm:"column:id;primaryKey;autoIncrement"`
	RaffleID int64             `gorm:"column:raffle_id;not null;uniqueIndex:idx_raffle_entries_raffle_user,priority:1"`
	UserID   int64             `gorm:"column:user_id;not null;uniqueIndex:idx_raffle_entries_raffle_user,priority:2"`
	Username string            `gorm:"column:username;type:text;not null"`
	Tickets  int               `gorm:"column:tickets;not null"`
	Source   enums.EntrySource `gorm:"column:source;type:text;not null;default:purchased"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
