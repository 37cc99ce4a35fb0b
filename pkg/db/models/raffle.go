package models

import (
	"time"

	"github.com/streampoints/raffle-backend/pkg/enums"
)

// Raffle holds the configuration and lifecycle state of one raffle.
// Once Status reaches completed, DrawSeed and the winner rows are immutable.
type Raffle struct {
	ID                int64              `gorm:"column:id;primaryKey;autoIncrement"`
	Title             string             `gorm:"column:title;type:text;not null"`
	TicketCost        int64              `gorm:"column:ticket_cost;not null"`
	MaxTicketsPerUser *int               `gorm:"column:max_tickets_per_user"`
	TotalTicketsCap   *int               `gorm:"column:total_tickets_cap"`
	Status            enums.RaffleStatus `gorm:"column:status;type:text;not null;default:upcoming"`
	SubOnly           bool               `gorm:"column:sub_only;not null;default:false"`
	HiddenUntilStart  bool               `gorm:"column:hidden_until_start;not null;default:false"`
	NumberOfWinners   int                `gorm:"column:number_of_winners;not null;default:1"`
	StartAt           *time.Time         `gorm:"column:start_at"`
	EndAt             *time.Time         `gorm:"column:end_at"`
	DrawSeed          *string            `gorm:"column:draw_seed;type:text"`
	DrawnAt           *time.Time         `gorm:"column:drawn_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
