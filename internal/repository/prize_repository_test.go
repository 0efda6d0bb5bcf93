package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madresuerte/raffle-server/internal/model"
	"github.com/madresuerte/raffle-server/internal/repository"
	"github.com/madresuerte/raffle-server/internal/testutil"
)

func TestListSeedsDefaultPrizes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	prizes := repository.NewPrizeRepo(db)

	got, err := prizes.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "1° Premio", got[0].Title)
	assert.Equal(t, uint32(1), got[0].PrizeOrder)
	assert.Nil(t, got[0].WinningNumber)

	// A second call must not seed again.
	again, err := prizes.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, again, 3)
}

func TestUpdatePrize(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	prizes := repository.NewPrizeRepo(db)
	ctx := context.Background()

	seeded, err := prizes.List(ctx)
	require.NoError(t, err)

	id := seeded[0].ID
	require.NoError(t, prizes.Update(ctx, id, "Cena para dos", "/prizes/cena.jpg"))

	got, err := prizes.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Cena para dos", got.Title)
	assert.Equal(t, "/prizes/cena.jpg", got.ImageURL)

	err = prizes.Update(ctx, 9999, "x", "y")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSetWinningNumberAndResolveWinner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	prizes := repository.NewPrizeRepo(db)
	tickets := repository.NewTicketRepo(db, 250)
	ctx := context.Background()

	sellerID := testutil.CreateTestSeller(t, db, "Maria", model.RoleSeller)
	hash := testutil.StartSession(t, db, sellerID)
	ticketID := testutil.IssueTestTicket(t, tickets, sellerID, hash, []int{417, 12, 800, 55})

	seeded, err := prizes.List(ctx)
	require.NoError(t, err)
	first := seeded[0].ID

	n := 417
	require.NoError(t, prizes.SetWinningNumber(ctx, first, &n))

	got, err := prizes.GetByID(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, got.WinningNumber)
	assert.Equal(t, 417, *got.WinningNumber)

	winner, err := tickets.GetByNumber(ctx, 417)
	require.NoError(t, err)
	assert.Equal(t, ticketID, winner.ID)
	assert.Equal(t, "Test Buyer", winner.BuyerName)

	// An unclaimed winning number resolves to no winner.
	_, err = tickets.GetByNumber(ctx, 733)
	assert.ErrorIs(t, err, repository.ErrWinnerNotFound)
}

func TestSetWinningNumberRepeatAndClear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	prizes := repository.NewPrizeRepo(db)
	ctx := context.Background()

	seeded, err := prizes.List(ctx)
	require.NoError(t, err)
	id := seeded[1].ID

	n := 42
	require.NoError(t, prizes.SetWinningNumber(ctx, id, &n))
	// Re-assigning the same value is a no-op update but must not error.
	require.NoError(t, prizes.SetWinningNumber(ctx, id, &n))

	require.NoError(t, prizes.SetWinningNumber(ctx, id, nil))
	got, err := prizes.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.WinningNumber)

	err = prizes.SetWinningNumber(ctx, 9999, &n)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
