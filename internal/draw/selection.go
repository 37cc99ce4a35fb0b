package draw

import (
	"fmt"

	"github.com/streampoints/raffle-backend/pkg/db/models"
)

// Selection is one winning slot of a draw.
type Selection struct {
	Entry  *models.RaffleEntry
	Rigged bool
}

// selectWinners runs the deterministic part of a draw: rigged slots first,
// then seeded random picks over the ticket pool.
//
// Duplicates refer to entries, not tickets: an entry may win at most once
// unless there are fewer distinct entries than requested winners, in which
// case repeats are unavoidable and permitted. A ticket belonging to an
// already-won entry is discarded without consuming a winner slot. When the
// pool runs out before the requested count is reached, the partial winner
// list is returned as a degraded success.
func selectWinners(entries []models.RaffleEntry, seed string, numberOfWinners int, riggedEntryIDs []int64) ([]Selection, error) {
	raw, err := parseSeed(seed)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.RaffleEntry, len(entries))
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}

	allowDuplicates := numberOfWinners > len(entries)
	won := make(map[int64]bool, numberOfWinners)
	selections := make([]Selection, 0, numberOfWinners)

	for _, id := range riggedEntryIDs {
		if len(selections) >= numberOfWinners {
			break
		}
		entry, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("rigged entry %d does not belong to the raffle", id)
		}
		selections = append(selections, Selection{Entry: entry, Rigged: true})
		won[id] = true
	}

	pool := NewTicketPool(entries)
	rng := newLCG(raw)

	for len(selections) < numberOfWinners && pool.Size() > 0 {
		idx := rng.intn(pool.Size())
		entry := pool.At(idx)
		if !allowDuplicates && won[entry.ID] {
			pool.Remove(idx)
			continue
		}
		selections = append(selections, Selection{Entry: entry})
		won[entry.ID] = true
		pool.Remove(idx)
	}

	return selections, nil
}
