package draw

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streampoints/raffle-backend/internal/entries"
	"github.com/streampoints/raffle-backend/internal/raffles"
	"github.com/streampoints/raffle-backend/pkg/config"
	"github.com/streampoints/raffle-backend/pkg/db"
	"github.com/streampoints/raffle-backend/pkg/db/models"
	"github.com/streampoints/raffle-backend/pkg/enums"
	pkgerrors "github.com/streampoints/raffle-backend/pkg/errors"
	"github.com/streampoints/raffle-backend/pkg/logger"
)

func setupDrawTest(t *testing.T) (*db.Client, Service) {
	t.Helper()

	client, err := db.New(context.Background(), config.DBConfig{DSN: "file::memory:"}, true, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	schema := []string{
		`CREATE TABLE IF NOT EXISTS raffles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  title TEXT NOT NULL,
  ticket_cost INTEGER NOT NULL,
  max_tickets_per_user INTEGER,
  total_tickets_cap INTEGER,
  status TEXT NOT NULL DEFAULT 'upcoming',
  sub_only INTEGER NOT NULL DEFAULT 0,
  hidden_until_start INTEGER NOT NULL DEFAULT 0,
  number_of_winners INTEGER NOT NULL DEFAULT 1,
  start_at DATETIME,
  end_at DATETIME,
  draw_seed TEXT,
  drawn_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS raffle_entries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  raffle_id INTEGER NOT NULL,
  user_id INTEGER NOT NULL,
  username TEXT NOT NULL,
  tickets INTEGER NOT NULL DEFAULT 0,
  source TEXT NOT NULL DEFAULT 'purchased',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS raffle_winners (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  raffle_id INTEGER NOT NULL,
  entry_id INTEGER NOT NULL,
  user_id INTEGER NOT NULL,
  username TEXT NOT NULL,
  tickets INTEGER NOT NULL,
  is_rigged INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME
);`,
	}
	for _, stmt := range schema {
		require.NoError(t, client.DB().Exec(stmt).Error)
	}

	logg := logger.New(logger.Options{ServiceName: "draw-test", Output: io.Discard})
	svc, err := NewService(
		client,
		raffles.NewRepository(client.DB()),
		entries.NewRepository(client.DB()),
		NewWinnerRepository(client.DB()),
		logg,
		nil,
		5*time.Second,
	)
	require.NoError(t, err)
	return client, svc
}

func seedRaffle(t *testing.T, client *db.Client, status enums.RaffleStatus, tickets ...int) *models.Raffle {
	t.Helper()

	raffle := &models.Raffle{Title: "Draw Test", TicketCost: 50, Status: status, NumberOfWinners: 1}
	require.NoError(t, client.DB().Create(raffle).Error)

	for i, n := range tickets {
		entry := &models.RaffleEntry{
			RaffleID: raffle.ID,
			UserID:   int64(100 + i),
			Username: string(rune('a' + i)),
			Tickets:  n,
			Source:   enums.EntrySourcePurchased,
		}
		require.NoError(t, client.DB().Create(entry).Error)
	}
	return raffle
}

func TestDrawPersistsSeedAndWinners(t *testing.T) {
	client, svc := setupDrawTest(t)
	raffle := seedRaffle(t, client, enums.RaffleStatusActive, 5, 3, 2)

	result, err := svc.Draw(context.Background(), DrawInput{RaffleID: raffle.ID, NumberOfWinners: 2})
	require.NoError(t, err)
	require.Len(t, result.Winners, 2)
	assert.Len(t, result.DrawSeed, 64)
	assert.NotEqual(t, result.Winners[0].EntryID, result.Winners[1].EntryID)

	var stored models.Raffle
	require.NoError(t, client.DB().First(&stored, raffle.ID).Error)
	assert.Equal(t, enums.RaffleStatusCompleted, stored.Status)
	require.NotNil(t, stored.DrawSeed)
	assert.Equal(t, result.DrawSeed, *stored.DrawSeed)
	require.NotNil(t, stored.DrawnAt)

	var count int64
	require.NoError(t, client.DB().Model(&models.RaffleWinner{}).Where("raffle_id = ?", raffle.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestDrawSecondCallAlreadyDrawn(t *testing.T) {
	client, svc := setupDrawTest(t)
	raffle := seedRaffle(t, client, enums.RaffleStatusActive, 4)

	first, err := svc.Draw(context.Background(), DrawInput{RaffleID: raffle.ID, NumberOfWinners: 1})
	require.NoError(t, err)

	_, err = svc.Draw(context.Background(), DrawInput{RaffleID: raffle.ID, NumberOfWinners: 1})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAlreadyDrawn))

	// winners unchanged
	var winners []models.RaffleWinner
	require.NoError(t, client.DB().Where("raffle_id = ?", raffle.ID).Find(&winners).Error)
	require.Len(t, winners, 1)
	assert.Equal(t, first.Winners[0].EntryID, winners[0].EntryID)
}

func TestDrawPreconditionFailures(t *testing.T) {
	client, svc := setupDrawTest(t)
	ctx := context.Background()

	_, err := svc.Draw(ctx, DrawInput{RaffleID: 1, NumberOfWinners: 0})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	_, err = svc.Draw(ctx, DrawInput{RaffleID: 404, NumberOfWinners: 1})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	empty := seedRaffle(t, client, enums.RaffleStatusActive)
	_, err = svc.Draw(ctx, DrawInput{RaffleID: empty.ID, NumberOfWinners: 1})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNoEntries))

	cancelled := seedRaffle(t, client, enums.RaffleStatusCancelled, 2)
	_, err = svc.Draw(ctx, DrawInput{RaffleID: cancelled.ID, NumberOfWinners: 1})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRaffleNotActive))
}

func TestDrawDegradedSuccessOnSmallPool(t *testing.T) {
	client, svc := setupDrawTest(t)
	raffle := seedRaffle(t, client, enums.RaffleStatusActive, 1)

	result, err := svc.Draw(context.Background(), DrawInput{RaffleID: raffle.ID, NumberOfWinners: 3})
	require.NoError(t, err)
	require.Len(t, result.Winners, 1)
}

func TestDrawRiggedWinnersFlagged(t *testing.T) {
	client, svc := setupDrawTest(t)
	raffle := seedRaffle(t, client, enums.RaffleStatusActive, 5, 3, 2)

	var rigged models.RaffleEntry
	require.NoError(t, client.DB().
		Where("raffle_id = ? AND username = ?", raffle.ID, "c").
		First(&rigged).Error)

	result, err := svc.Draw(context.Background(), DrawInput{
		RaffleID:        raffle.ID,
		NumberOfWinners: 2,
		RiggedEntryIDs:  []int64{rigged.ID},
	})
	require.NoError(t, err)
	require.Len(t, result.Winners, 2)
	assert.Equal(t, rigged.ID, result.Winners[0].EntryID)
	assert.True(t, result.Winners[0].IsRigged)
	assert.False(t, result.Winners[1].IsRigged)
}

func TestDrawRejectsForeignRiggedEntry(t *testing.T) {
	client, svc := setupDrawTest(t)
	raffle := seedRaffle(t, client, enums.RaffleStatusActive, 5)

	_, err := svc.Draw(context.Background(), DrawInput{
		RaffleID:        raffle.ID,
		NumberOfWinners: 1,
		RiggedEntryIDs:  []int64{12345},
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	// no partial writes
	var stored models.Raffle
	require.NoError(t, client.DB().First(&stored, raffle.ID).Error)
	assert.Equal(t, enums.RaffleStatusActive, stored.Status)
	var count int64
	require.NoError(t, client.DB().Model(&models.RaffleWinner{}).Where("raffle_id = ?", raffle.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReplayMatchesPersistedDraw(t *testing.T) {
	client, svc := setupDrawTest(t)
	raffle := seedRaffle(t, client, enums.RaffleStatusActive, 5, 3, 2, 7)

	var snapshot []models.RaffleEntry
	require.NoError(t, client.DB().
		Where("raffle_id = ?", raffle.ID).
		Order("id ASC").
		Find(&snapshot).Error)

	result, err := svc.Draw(context.Background(), DrawInput{RaffleID: raffle.ID, NumberOfWinners: 3})
	require.NoError(t, err)

	replayed, err := svc.Replay(result.DrawSeed, snapshot, 3, nil)
	require.NoError(t, err)
	require.Len(t, replayed, len(result.Winners))
	for i := range replayed {
		assert.Equal(t, result.Winners[i].EntryID, replayed[i].Entry.ID)
	}
}
