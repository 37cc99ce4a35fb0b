package raffles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/streampoints/raffle-backend/pkg/db/models"
	"github.com/streampoints/raffle-backend/pkg/enums"
)

func setupRafflesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	raffles := `
CREATE TABLE IF NOT EXISTS raffles (
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
);`
	require.NoError(t, db.Exec(raffles).Error)
	return db
}

func newRaffle(t *testing.T, db *gorm.DB, status enums.RaffleStatus, mutate func(*models.Raffle)) *models.Raffle {
	t.Helper()

	raffle := &models.Raffle{
		Title:           "Test Raffle",
		TicketCost:      100,
		Status:          status,
		NumberOfWinners: 1,
	}
	if mutate != nil {
		mutate(raffle)
	}
	require.NoError(t, db.Create(raffle).Error)
	return raffle
}

func TestRepositoryFindByID(t *testing.T) {
	db := setupRafflesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newRaffle(t, db, enums.RaffleStatusActive, nil)

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, enums.RaffleStatusActive, found.Status)

	_, err = repo.FindByID(ctx, created.ID+999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListFiltersHiddenAndTerminal(t *testing.T) {
	db := setupRafflesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	visible := newRaffle(t, db, enums.RaffleStatusActive, nil)
	newRaffle(t, db, enums.RaffleStatusCompleted, nil)
	newRaffle(t, db, enums.RaffleStatusCancelled, nil)

	future := now.Add(time.Hour)
	newRaffle(t, db, enums.RaffleStatusUpcoming, func(r *models.Raffle) {
		r.HiddenUntilStart = true
		r.StartAt = &future
	})

	past := now.Add(-time.Hour)
	revealed := newRaffle(t, db, enums.RaffleStatusUpcoming, func(r *models.Raffle) {
		r.HiddenUntilStart = true
		r.StartAt = &past
	})

	list, err := repo.List(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 2)

	ids := []int64{list[0].ID, list[1].ID}
	assert.Contains(t, ids, visible.ID)
	assert.Contains(t, ids, revealed.ID)
}

func TestRepositoryMarkDrawn(t *testing.T) {
	db := setupRafflesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	raffle := newRaffle(t, db, enums.RaffleStatusActive, nil)
	drawnAt := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.MarkDrawn(ctx, raffle.ID, "deadbeef", drawnAt))

	found, err := repo.FindByID(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RaffleStatusCompleted, found.Status)
	require.NotNil(t, found.DrawSeed)
	assert.Equal(t, "deadbeef", *found.DrawSeed)
	require.NotNil(t, found.DrawnAt)
}

func TestRepositoryActivateScheduled(t *testing.T) {
	db := setupRafflesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Minute)
	due := newRaffle(t, db, enums.RaffleStatusUpcoming, func(r *models.Raffle) {
		r.StartAt = &past
	})

	future := now.Add(time.Hour)
	notDue := newRaffle(t, db, enums.RaffleStatusUpcoming, func(r *models.Raffle) {
		r.StartAt = &future
	})

	// no start time configured, never auto-activated
	manual := newRaffle(t, db, enums.RaffleStatusUpcoming, nil)
	done := newRaffle(t, db, enums.RaffleStatusCompleted, func(r *models.Raffle) {
		r.StartAt = &past
	})

	activated, err := repo.ActivateScheduled(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), activated)

	assertStatus := func(id int64, want enums.RaffleStatus) {
		t.Helper()
		found, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, found.Status)
	}
	assertStatus(due.ID, enums.RaffleStatusActive)
	assertStatus(notDue.ID, enums.RaffleStatusUpcoming)
	assertStatus(manual.ID, enums.RaffleStatusUpcoming)
	assertStatus(done.ID, enums.RaffleStatusCompleted)
}

func TestRepositoryListOverdue(t *testing.T) {
	db := setupRafflesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Minute)
	overdue := newRaffle(t, db, enums.RaffleStatusActive, func(r *models.Raffle) {
		r.EndAt = &past
	})

	future := now.Add(time.Hour)
	newRaffle(t, db, enums.RaffleStatusActive, func(r *models.Raffle) {
		r.EndAt = &future
	})
	newRaffle(t, db, enums.RaffleStatusActive, nil)
	newRaffle(t, db, enums.RaffleStatusCompleted, func(r *models.Raffle) {
		r.EndAt = &past
	})

	list, err := repo.ListOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, overdue.ID, list[0].ID)
}

func TestRepositorySetStatus(t *testing.T) {
	db := setupRafflesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	raffle := newRaffle(t, db, enums.RaffleStatusActive, nil)
	require.NoError(t, repo.SetStatus(ctx, raffle.ID, enums.RaffleStatusDrawing))

	found, err := repo.FindByID(ctx, raffle.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.RaffleStatusDrawing, found.Status)
}
