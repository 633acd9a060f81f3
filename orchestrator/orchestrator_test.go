package orchestrator

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/config"
	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/keys"
	"github.com/moveguard/confidential-core/rpc"
	"github.com/moveguard/confidential-core/state"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeReader, *fakeSubmitter) {
	t.Helper()
	cache, err := state.Open(t.TempDir(), 64)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	reader := newFakeReader()
	sub := newFakeSubmitter()
	o := New(config.Config{}, reader, sub, cache)
	return o, reader, sub
}

func TestRegisterSubmitsWithoutProof(t *testing.T) {
	o, _, sub := newTestOrchestrator(t)
	key, err := keys.Generate()
	require.NoError(t, err)

	receipt, err := o.Register(context.Background(), "alice", "usdc", key)
	require.NoError(t, err)
	require.Equal(t, "fake-tx", receipt.TxHash)
	require.Equal(t, "register", sub.lastFunction())
}

func TestDepositRequiresRegisteredAccount(t *testing.T) {
	o, _, _ := newTestOrchestrator(t)
	_, err := o.Deposit(context.Background(), "alice", "usdc", 100)
	require.Error(t, err)
}

func TestDepositSucceedsOnRegisteredZeroAccount(t *testing.T) {
	o, reader, sub := newTestOrchestrator(t)
	key, err := keys.Generate()
	require.NoError(t, err)
	pub, err := key.EncryptionKey()
	require.NoError(t, err)

	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: pub,
		Pending:       elgamal.ZeroChunked(),
		Available:     elgamal.ZeroChunked(),
		IsNormalized:  true,
	})

	_, err = o.Deposit(context.Background(), "alice", "usdc", 500)
	require.NoError(t, err)
	require.Equal(t, "deposit", sub.lastFunction())
}

func TestRolloverOnFrozenAccountFails(t *testing.T) {
	o, reader, _ := newTestOrchestrator(t)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: elgamal.Zero().C,
		Pending:       elgamal.ZeroChunked(),
		Available:     elgamal.ZeroChunked(),
		IsFrozen:      true,
		IsNormalized:  true,
	})

	_, err := o.Rollover(context.Background(), "alice", "usdc")
	require.Error(t, err)
	require.True(t, caerr.Is(err, caerr.FrozenAccount))
}

func TestNormalizeRoundTrip(t *testing.T) {
	o, reader, sub := newTestOrchestrator(t)
	key, err := keys.Generate()
	require.NoError(t, err)
	pub, err := key.EncryptionKey()
	require.NoError(t, err)

	available, _, err := elgamal.EncryptChunked(big.NewInt(70000), pub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: pub,
		Pending:       elgamal.ZeroChunked(),
		Available:     available,
		IsNormalized:  false,
	})

	_, err = o.Normalize(context.Background(), "alice", "usdc", key)
	require.NoError(t, err)
	require.Equal(t, "normalize", sub.lastFunction())
}

func TestWithdrawRoundTrip(t *testing.T) {
	o, reader, sub := newTestOrchestrator(t)
	key, err := keys.Generate()
	require.NoError(t, err)
	pub, err := key.EncryptionKey()
	require.NoError(t, err)

	available, _, err := elgamal.EncryptChunked(big.NewInt(1000), pub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: pub,
		Pending:       elgamal.ZeroChunked(),
		Available:     available,
		IsNormalized:  true,
	})

	receipt, err := o.Withdraw(context.Background(), "alice", "usdc", key, 300)
	require.NoError(t, err)
	require.Equal(t, "withdraw", sub.lastFunction())
	require.Equal(t, "fake-tx", receipt.TxHash)
}

func TestWithdrawAutoNormalizesUnnormalizedBalanceFirst(t *testing.T) {
	o, reader, sub := newTestOrchestrator(t)
	key, err := keys.Generate()
	require.NoError(t, err)
	pub, err := key.EncryptionKey()
	require.NoError(t, err)

	available, _, err := elgamal.EncryptChunked(big.NewInt(6000000000000), pub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: pub,
		Pending:       elgamal.ZeroChunked(),
		Available:     available,
		IsNormalized:  false,
	})
	sub.onSubmit = func(call rpc.EntryCall) {
		if call.Function != "normalize" {
			return
		}
		rec, err := reader.GetBalanceRecord(context.Background(), "alice", "usdc")
		require.NoError(t, err)
		rec.IsNormalized = true
		reader.setRecord("alice", "usdc", rec)
	}

	receipt, err := o.Withdraw(context.Background(), "alice", "usdc", key, 1)
	require.NoError(t, err)
	require.Equal(t, "fake-tx", receipt.TxHash)
	require.Equal(t, []string{"normalize", "withdraw"}, sub.functions())
}

func TestWithdrawRejectsInsufficientBalance(t *testing.T) {
	o, reader, _ := newTestOrchestrator(t)
	key, err := keys.Generate()
	require.NoError(t, err)
	pub, err := key.EncryptionKey()
	require.NoError(t, err)

	available, _, err := elgamal.EncryptChunked(big.NewInt(100), pub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: pub,
		Pending:       elgamal.ZeroChunked(),
		Available:     available,
		IsNormalized:  true,
	})

	_, err = o.Withdraw(context.Background(), "alice", "usdc", key, 300)
	require.Error(t, err)
	require.True(t, caerr.Is(err, caerr.InsufficientBalance))
}

func TestTransferRoundTrip(t *testing.T) {
	o, reader, sub := newTestOrchestrator(t)
	senderKey, err := keys.Generate()
	require.NoError(t, err)
	senderPub, err := senderKey.EncryptionKey()
	require.NoError(t, err)
	recipKey, err := keys.Generate()
	require.NoError(t, err)
	recipPub, err := recipKey.EncryptionKey()
	require.NoError(t, err)

	available, _, err := elgamal.EncryptChunked(big.NewInt(1000), senderPub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: senderPub,
		Pending:       elgamal.ZeroChunked(),
		Available:     available,
		IsNormalized:  true,
	})
	reader.setRecord("bob", "usdc", state.BalanceRecord{
		EncryptionKey: recipPub,
		Pending:       elgamal.ZeroChunked(),
		Available:     elgamal.ZeroChunked(),
		IsNormalized:  true,
	})

	receipt, err := o.Transfer(context.Background(), "alice", "usdc", "bob", senderKey, 250)
	require.NoError(t, err)
	require.Equal(t, "confidential_transfer", sub.lastFunction())
	require.Equal(t, "fake-tx", receipt.TxHash)
}

func TestTransferRejectsUnregisteredRecipient(t *testing.T) {
	o, reader, _ := newTestOrchestrator(t)
	senderKey, err := keys.Generate()
	require.NoError(t, err)
	senderPub, err := senderKey.EncryptionKey()
	require.NoError(t, err)

	available, _, err := elgamal.EncryptChunked(big.NewInt(1000), senderPub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: senderPub,
		Pending:       elgamal.ZeroChunked(),
		Available:     available,
		IsNormalized:  true,
	})

	_, err = o.Transfer(context.Background(), "alice", "usdc", "ghost", senderKey, 250)
	require.Error(t, err)
}

func TestTransferRejectsInsufficientBalance(t *testing.T) {
	o, reader, sub := newTestOrchestrator(t)
	senderKey, err := keys.Generate()
	require.NoError(t, err)
	senderPub, err := senderKey.EncryptionKey()
	require.NoError(t, err)
	recipKey, err := keys.Generate()
	require.NoError(t, err)
	recipPub, err := recipKey.EncryptionKey()
	require.NoError(t, err)

	available, _, err := elgamal.EncryptChunked(big.NewInt(100), senderPub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: senderPub,
		Pending:       elgamal.ZeroChunked(),
		Available:     available,
		IsNormalized:  true,
	})
	reader.setRecord("bob", "usdc", state.BalanceRecord{
		EncryptionKey: recipPub,
		Pending:       elgamal.ZeroChunked(),
		Available:     elgamal.ZeroChunked(),
		IsNormalized:  true,
	})

	_, err = o.Transfer(context.Background(), "alice", "usdc", "bob", senderKey, 300)
	require.Error(t, err)
	require.True(t, caerr.Is(err, caerr.InsufficientBalance))
	require.Equal(t, 0, sub.callCount())
}

func TestRotateRoundTrip(t *testing.T) {
	o, reader, sub := newTestOrchestrator(t)
	oldKey, err := keys.Generate()
	require.NoError(t, err)
	oldPub, err := oldKey.EncryptionKey()
	require.NoError(t, err)
	newKey, err := keys.Generate()
	require.NoError(t, err)

	available, _, err := elgamal.EncryptChunked(big.NewInt(8000), oldPub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: oldPub,
		Pending:       elgamal.ZeroChunked(),
		Available:     available,
		IsNormalized:  true,
	})

	_, err = o.Rotate(context.Background(), "alice", "usdc", oldKey, newKey)
	require.NoError(t, err)
	require.Equal(t, "rotate_encryption_key", sub.lastFunction())
}

func TestRotateRejectsNonZeroPending(t *testing.T) {
	o, reader, _ := newTestOrchestrator(t)
	oldKey, err := keys.Generate()
	require.NoError(t, err)
	oldPub, err := oldKey.EncryptionKey()
	require.NoError(t, err)
	newKey, err := keys.Generate()
	require.NoError(t, err)

	pending, _, err := elgamal.EncryptChunked(big.NewInt(1), oldPub)
	require.NoError(t, err)
	reader.setRecord("alice", "usdc", state.BalanceRecord{
		EncryptionKey: oldPub,
		Pending:       pending,
		Available:     elgamal.ZeroChunked(),
		IsNormalized:  true,
	})

	_, err = o.Rotate(context.Background(), "alice", "usdc", oldKey, newKey)
	require.Error(t, err)
	require.True(t, caerr.Is(err, caerr.Unnormalized))
}

func TestBatchRolloverRunsAllPairsConcurrently(t *testing.T) {
	o, reader, sub := newTestOrchestrator(t)
	reader.setRecord("alice", "usdc", state.BalanceRecord{EncryptionKey: elgamal.Zero().C, IsNormalized: true, Pending: elgamal.ZeroChunked(), Available: elgamal.ZeroChunked()})
	reader.setRecord("bob", "usdc", state.BalanceRecord{EncryptionKey: elgamal.Zero().C, IsNormalized: true, Pending: elgamal.ZeroChunked(), Available: elgamal.ZeroChunked()})

	receipts, err := o.BatchRollover(context.Background(), []AccountToken{
		{Account: "alice", Token: "usdc"},
		{Account: "bob", Token: "usdc"},
	})
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	require.Equal(t, 2, sub.callCount())
}
