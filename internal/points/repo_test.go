package points

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/streampoints/raffle-backend/pkg/db/models"
	"github.com/streampoints/raffle-backend/pkg/enums"
)

func setupPointsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id INTEGER PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  display_name TEXT NOT NULL DEFAULT '',
  is_subscriber INTEGER NOT NULL DEFAULT 0,
  points INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactions := `
CREATE TABLE IF NOT EXISTS points_transactions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id INTEGER NOT NULL,
  amount INTEGER NOT NULL,
  balance_after INTEGER NOT NULL,
  kind TEXT NOT NULL,
  raffle_id INTEGER,
  reference TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(transactions).Error)
	return db
}

func newUser(t *testing.T, db *gorm.DB, id int64, points int64) *models.User {
	t.Helper()

	user := &models.User{
		ID:       id,
		Username: fmt.Sprintf("user%d", id),
		Points:   points,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestDebitWritesAuditRow(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newUser(t, db, 1, 500)
	raffleID := int64(9)

	txn, err := repo.Debit(ctx, 1, 300, enums.PointsTransactionTicketPurchase, &raffleID)
	require.NoError(t, err)
	assert.Equal(t, int64(-300), txn.Amount)
	assert.Equal(t, int64(200), txn.BalanceAfter)
	assert.Equal(t, enums.PointsTransactionTicketPurchase, txn.Kind)
	require.NotNil(t, txn.RaffleID)
	assert.Equal(t, int64(9), *txn.RaffleID)

	user, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), user.Points)
}

func TestDebitGuardsAgainstOverdraft(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newUser(t, db, 1, 100)

	_, err := repo.Debit(ctx, 1, 101, enums.PointsTransactionTicketPurchase, nil)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	// balance untouched, no audit row written
	user, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.Points)

	list, err := repo.ListTransactions(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDebitAllowsExactBalance(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newUser(t, db, 1, 100)

	txn, err := repo.Debit(ctx, 1, 100, enums.PointsTransactionTicketPurchase, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), txn.BalanceAfter)
}

func TestCreditRestoresBalance(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newUser(t, db, 1, 50)

	txn, err := repo.Credit(ctx, 1, 25, enums.PointsTransactionRefund, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(25), txn.Amount)
	assert.Equal(t, int64(75), txn.BalanceAfter)

	_, err = repo.Credit(ctx, 404, 25, enums.PointsTransactionRefund, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindByUsername(t *testing.T) {
	db := setupPointsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := newUser(t, db, 3, 10)

	found, err := repo.FindByUsername(ctx, created.Username)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByUsername(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
