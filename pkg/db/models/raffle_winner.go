package models

import "time"

// RaffleWinner records one winning slot of a completed draw. Rows are
// append-only; user data is snapshotted so the audit survives later edits.
type RaffleWinner struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RaffleID int64  `gorm:"column:raffle_id;not null;index"`
	EntryID  int64  `gorm:"column:entry_id;not null"`
	UserID   int64  `gorm:"column:user_id;not null"`
	Username string `gorm:"column:username;type:text;not null"`
	Tickets  int    `gorm:"column:tickets;not null"`
	IsRigged bool   `gorm:"column:is_rigged;not null;default:false"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
