package integration

import (
	"context"
	"sync"
	"testing"

	"oink_ledger/internal/repository"
	"oink_ledger/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBalance_DefaultBootstrapPersists(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	fid := newFID("boot-")

	first, err := balances.GetBalance(ctx, fid)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), first)

	second, err := balances.GetBalance(ctx, fid)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), second)

	acc, err := repository.NewAccountRepository(db).GetByFID(ctx, fid)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), acc.Balance)
}

func TestBalance_ConcurrentFirstReadCreatesOnce(t *testing.T) {
	db := openDB(t)
	balances := service.NewBalanceService(db, 1000, nil)
	fid := newFID("race-")

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := balances.GetBalance(context.Background(), fid)
			if err == nil && b != 1000 {
				err = assert.AnError
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestBalance_ConcurrentAdjustmentsAreNotLost(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	fid := newFID("adj-")

	_, err := balances.SetBalance(ctx, fid, "adj", 100, "")
	require.NoError(t, err)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := balances.AdjustBalance(context.Background(), fid, "", 1, "game")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := balances.GetBalance(ctx, fid)
	require.NoError(t, err)
	assert.Equal(t, int64(100+n), got)

	entries, err := balances.History(ctx, fid, 200)
	require.NoError(t, err)
	assert.Len(t, entries, n+1, "one entry per adjustment plus the set")
}

func TestBalance_AdjustClampsAtZero(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	fid := newFID("clamp-")

	_, err := balances.SetBalance(ctx, fid, "", 30, "")
	require.NoError(t, err)

	change, err := balances.AdjustBalance(ctx, fid, "", -100, "game")
	require.NoError(t, err)
	assert.Equal(t, int64(0), change.Balance)
	assert.Equal(t, int64(-30), change.Change, "records the applied change, not the request")

	change, err = balances.SetBalance(ctx, fid, "", -5, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), change.Balance)
}

func TestBalance_SubtractInsufficientIsNoop(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	fid := newFID("sub-")

	_, err := balances.SetBalance(ctx, fid, "", 40, "")
	require.NoError(t, err)

	_, err = balances.Subtract(ctx, fid, "", 50, "")
	require.ErrorIs(t, err, service.ErrInsufficientFunds)
	var funds *service.InsufficientFundsError
	require.ErrorAs(t, err, &funds)
	assert.Equal(t, int64(40), funds.Balance)

	got, err := balances.GetBalance(ctx, fid)
	require.NoError(t, err)
	assert.Equal(t, int64(40), got)

	change, err := balances.Subtract(ctx, fid, "", 40, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), change.Balance)
}

func TestTip_Conservation(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	tips := service.NewTipService(db, balances, "guest_")
	sender, recipient := newFID("s-"), newFID("r-")

	_, err := balances.SetBalance(ctx, sender, "sender", 500, "")
	require.NoError(t, err)

	res, err := tips.SendTip(ctx, service.TipRequest{
		FromFID: sender, FromUsername: "sender",
		ToFID: recipient, ToUsername: "recipient",
		Amount: 200,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300), res.SenderBalance)
	assert.Equal(t, int64(200), res.RecipientBalance, "a new recipient starts at exactly the tip")

	sb, err := balances.GetBalance(ctx, sender)
	require.NoError(t, err)
	rb, err := balances.GetBalance(ctx, recipient)
	require.NoError(t, err)
	assert.Equal(t, int64(500), sb+rb)

	entries, err := balances.History(ctx, recipient, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, sender, entries[0].FromFID)
	assert.Equal(t, "tip", entries[0].Reason)
	assert.True(t, entries[0].IsTransfer())
}

func TestTip_InsufficientFundsMovesNothing(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	tips := service.NewTipService(db, balances, "guest_")
	sender, recipient := newFID("s-"), newFID("r-")

	_, err := balances.SetBalance(ctx, sender, "", 50, "")
	require.NoError(t, err)

	_, err = tips.SendTip(ctx, service.TipRequest{FromFID: sender, ToFID: recipient, Amount: 100})
	require.ErrorIs(t, err, service.ErrInsufficientFunds)

	got, err := balances.GetBalance(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got)

	_, err = repository.NewAccountRepository(db).GetByFID(ctx, recipient)
	assert.ErrorIs(t, err, repository.ErrNotFound, "rollback must undo the recipient bootstrap")
}

func TestTip_UnknownSenderIsNotBootstrapped(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	tips := service.NewTipService(db, balances, "guest_")
	sender, recipient := newFID("ghost-"), newFID("r-")

	_, err := tips.SendTip(ctx, service.TipRequest{FromFID: sender, ToFID: recipient, Amount: 1})
	require.ErrorIs(t, err, service.ErrSenderNotFound)

	accounts := repository.NewAccountRepository(db)
	_, err = accounts.GetByFID(ctx, sender)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = accounts.GetByFID(ctx, recipient)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTip_GuestRejectedBeforeMutation(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	tips := service.NewTipService(db, balances, "guest_")
	sender := newFID("s-")

	_, err := balances.SetBalance(ctx, sender, "", 100, "")
	require.NoError(t, err)

	_, err = tips.SendTip(ctx, service.TipRequest{FromFID: sender, ToFID: "guest_" + uuid.NewString(), Amount: 10})
	require.ErrorIs(t, err, service.ErrGuestAccount)

	got, err := balances.GetBalance(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)
}

func TestTransferToUsername_DuplicateMessage(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()
	balances := service.NewBalanceService(db, 1000, nil)
	tips := service.NewTipService(db, balances, "guest_")
	sender, recipient := newFID("s-"), newFID("r-")
	username := "Piglet-" + uuid.NewString()[:8]

	_, err := balances.SetBalance(ctx, sender, "", 100, "")
	require.NoError(t, err)
	_, err = balances.SetBalance(ctx, recipient, username, 0, "")
	require.NoError(t, err)

	ref := "msg-" + uuid.NewString()
	res, err := tips.TransferToUsername(ctx, sender, "  @"+username+" ", 25, ref)
	require.NoError(t, err)
	assert.Equal(t, recipient, res.ToFID)
	assert.Equal(t, int64(75), res.SenderBalance)
	require.NotNil(t, res.Entry.MessageRef)
	assert.Equal(t, ref, *res.Entry.MessageRef)

	_, err = tips.TransferToUsername(ctx, sender, username, 25, ref)
	require.ErrorIs(t, err, service.ErrDuplicateTransfer)

	got, err := balances.GetBalance(ctx, sender)
	require.NoError(t, err)
	assert.Equal(t, int64(75), got)

	_, err = tips.TransferToUsername(ctx, sender, "nobody-"+uuid.NewString(), 1, "")
	assert.ErrorIs(t, err, service.ErrRecipientNotFound)
}
