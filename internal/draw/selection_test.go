package draw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streampoints/raffle-backend/pkg/db/models"
)

func testEntries(tickets ...int) []models.RaffleEntry {
	entries := make([]models.RaffleEntry, len(tickets))
	for i, n := range tickets {
		entries[i] = models.RaffleEntry{
			ID:       int64(i + 1),
			RaffleID: 1,
			UserID:   int64(100 + i),
			Username: string(rune('a' + i)),
			Tickets:  n,
		}
	}
	return entries
}

func TestTicketPoolExpansion(t *testing.T) {
	pool := NewTicketPool(testEntries(5, 3, 2))
	assert.Equal(t, 10, pool.Size())

	counts := map[int64]int{}
	for i := 0; i < pool.Size(); i++ {
		counts[pool.At(i).ID]++
	}
	assert.Equal(t, 5, counts[1])
	assert.Equal(t, 3, counts[2])
	assert.Equal(t, 2, counts[3])
}

func TestGenerateSeedShape(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)
	assert.Len(t, seed, 64)

	raw, err := parseSeed(seed)
	require.NoError(t, err)
	assert.Len(t, raw, seedBytes)

	other, err := GenerateSeed()
	require.NoError(t, err)
	assert.NotEqual(t, seed, other)
}

func TestParseSeedRejectsBadInput(t *testing.T) {
	_, err := parseSeed("not-hex")
	assert.Error(t, err)

	_, err = parseSeed("deadbeef")
	assert.Error(t, err)
}

func TestLCGIsDeterministic(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)
	raw, err := parseSeed(seed)
	require.NoError(t, err)

	a, b := newLCG(raw), newLCG(raw)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, a.next(), b.next())
	}
}

func TestLCGIntnStaysInRange(t *testing.T) {
	seed, err := GenerateSeed()
	require.NoError(t, err)
	raw, err := parseSeed(seed)
	require.NoError(t, err)

	g := newLCG(raw)
	for i := 0; i < 10000; i++ {
		v := g.intn(7)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 7)
	}
}

func TestSelectWinnersIsReproducible(t *testing.T) {
	entries := testEntries(5, 3, 2, 7, 1)
	seed, err := GenerateSeed()
	require.NoError(t, err)

	first, err := selectWinners(entries, seed, 3, nil)
	require.NoError(t, err)
	second, err := selectWinners(entries, seed, 3, nil)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Entry.ID, second[i].Entry.ID)
	}
}

func TestSelectWinnersNoDuplicatesWhenEnoughEntries(t *testing.T) {
	entries := testEntries(5, 3, 2)

	for trial := 0; trial < 50; trial++ {
		seed, err := GenerateSeed()
		require.NoError(t, err)

		selections, err := selectWinners(entries, seed, 2, nil)
		require.NoError(t, err)
		require.Len(t, selections, 2)
		assert.NotEqual(t, selections[0].Entry.ID, selections[1].Entry.ID)
	}
}

func TestSelectWinnersWeightedByTickets(t *testing.T) {
	entries := testEntries(5, 3, 2)
	wins := map[int64]int{}

	const trials = 5000
	for i := 0; i < trials; i++ {
		seed, err := GenerateSeed()
		require.NoError(t, err)
		selections, err := selectWinners(entries, seed, 1, nil)
		require.NoError(t, err)
		require.Len(t, selections, 1)
		wins[selections[0].Entry.ID]++
	}

	// expected shares 0.5 / 0.3 / 0.2, generous tolerance
	assert.InDelta(t, 0.5, float64(wins[1])/trials, 0.05)
	assert.InDelta(t, 0.3, float64(wins[2])/trials, 0.05)
	assert.InDelta(t, 0.2, float64(wins[3])/trials, 0.05)
}

func TestSelectWinnersDegradedOnPoolExhaustion(t *testing.T) {
	entries := testEntries(1)

	seed, err := GenerateSeed()
	require.NoError(t, err)
	selections, err := selectWinners(entries, seed, 3, nil)
	require.NoError(t, err)
	require.Len(t, selections, 1)
}

func TestSelectWinnersAllowsDuplicatesWhenEntriesScarce(t *testing.T) {
	entries := testEntries(3, 3)

	seed, err := GenerateSeed()
	require.NoError(t, err)
	selections, err := selectWinners(entries, seed, 4, nil)
	require.NoError(t, err)
	// 4 slots over 2 entries: repeats permitted, bounded by tickets
	require.Len(t, selections, 4)
}

func TestSelectWinnersRiggedFirst(t *testing.T) {
	entries := testEntries(5, 3, 2)

	seed, err := GenerateSeed()
	require.NoError(t, err)
	selections, err := selectWinners(entries, seed, 2, []int64{3})
	require.NoError(t, err)
	require.Len(t, selections, 2)

	assert.Equal(t, int64(3), selections[0].Entry.ID)
	assert.True(t, selections[0].Rigged)
	assert.False(t, selections[1].Rigged)
	// the rigged entry cannot win the random slot as well
	assert.NotEqual(t, int64(3), selections[1].Entry.ID)
}

func TestSelectWinnersRejectsForeignRiggedID(t *testing.T) {
	entries := testEntries(5, 3)

	seed, err := GenerateSeed()
	require.NoError(t, err)
	_, err = selectWinners(entries, seed, 2, []int64{99})
	assert.Error(t, err)
}

func TestSelectWinnersTruncatesRiggedList(t *testing.T) {
	entries := testEntries(1, 1, 1)

	seed, err := GenerateSeed()
	require.NoError(t, err)
	selections, err := selectWinners(entries, seed, 2, []int64{1, 2, 3})
	require.NoError(t, err)
	require.Len(t, selections, 2)
	assert.Equal(t, int64(1), selections[0].Entry.ID)
	assert.Equal(t, int64(2), selections[1].Entry.ID)
}
