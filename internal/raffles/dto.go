package raffles

import (
	"github.com/streampoints/raffle-backend/pkg/db/models"
)

// RaffleDetail is the read model returned by Get: the raffle row plus entry
// aggregates, and the winner rows once the draw has completed.
type RaffleDetail struct {
	Raffle      models.Raffle         `json:"raffle"`
	EntryCount  int64                 `json:"entry_count"`
	TicketsSold int64                 `json:"tickets_sold"`
	Winners     []models.RaffleWinner `json:"winners,omitempty"`
}
