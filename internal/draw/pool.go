package draw

import (
	"github.com/streampoints/raffle-backend/pkg/db/models"
)

// TicketPool is the in-memory expansion of a raffle's entries: one element
// per ticket, so a uniform index pick is automatically tickets-weighted.
// Pools exist only for the duration of one selection run.
type TicketPool struct {
	tickets []*models.RaffleEntry
}

// NewTicketPool expands entries into a pool. An entry with N tickets
// contributes N elements.
func NewTicketPool(entries []models.RaffleEntry) *TicketPool {
	size := 0
	for i := range entries {
		if entries[i].Tickets > 0 {
			size += entries[i].Tickets
		}
	}

	pool := &TicketPool{tickets: make([]*models.RaffleEntry, 0, size)}
	for i := range entries {
		for n := 0; n < entries[i].Tickets; n++ {
			pool.tickets = append(pool.tickets, &entries[i])
		}
	}
	return pool
}

// Size returns the number of tickets left in the pool.
func (p *TicketPool) Size() int {
	return len(p.tickets)
}

// At returns the entry holding the ticket at index i.
func (p *TicketPool) At(i int) *models.RaffleEntry {
	return p.tickets[i]
}

// Remove discards the ticket at index i. The last ticket moves into the
// freed slot; selections only ever index the pool through the PRNG, so the
// reordering is deterministic for a given seed.
func (p *TicketPool) Remove(i int) {
	last := len(p.tickets) - 1
	p.tickets[i] = p.tickets[last]
	p.tickets[last] = nil
	p.tickets = p.tickets[:last]
}
