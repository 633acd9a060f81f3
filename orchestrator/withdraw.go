package orchestrator

import (
	"context"
	"math/big"

	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/keys"
	"github.com/moveguard/confidential-core/rpc"
	"github.com/moveguard/confidential-core/sigma"
	"github.com/moveguard/confidential-core/state"
	"github.com/moveguard/confidential-core/wire"
)

// Withdraw moves amount out of (account, token)'s confidential available
// balance back to the public token, normalizing first if the current
// balance needs it (spec §4.8, scenario S5).
func (o *Orchestrator) Withdraw(ctx context.Context, account, token string, key keys.DecryptionKey, amount uint64) (rpc.Receipt, error) {
	var receipt rpc.Receipt
	err := o.withPairLock(ctx, account, token, func(ctx context.Context) error {
		defer key.Zeroize()
		if err := o.ensureNormalizedLocked(ctx, account, token, key); err != nil {
			return err
		}
		r, err := o.doWithdraw(ctx, account, token, key, amount)
		receipt = r
		return err
	})
	return receipt, err
}

// ensureNormalizedLocked checks (account, token)'s current status and runs
// doNormalize inline if it is Unnormalized. The caller must already hold
// the pair lock.
func (o *Orchestrator) ensureNormalizedLocked(ctx context.Context, account, token string, key keys.DecryptionKey) error {
	rec, err := o.fetchRecord(ctx, account, token)
	if err != nil {
		return err
	}
	if rec.Status() != state.Unnormalized {
		return nil
	}
	_, err = o.doNormalize(ctx, account, token, key)
	return err
}

// doWithdraw does not zeroize key; the public Withdraw entrypoint owns that.
func (o *Orchestrator) doWithdraw(ctx context.Context, account, token string, key keys.DecryptionKey, amount uint64) (rpc.Receipt, error) {
	return o.submitWithRetry(ctx, func(ctx context.Context) (rpc.Receipt, error) {
		rec, err := o.checkAllowed(ctx, account, token, state.OpWithdraw)
		if err != nil {
			return rpc.Receipt{}, err
		}
		pub, err := key.EncryptionKey()
		if err != nil {
			return rpc.Receipt{}, err
		}

		oldAmount, err := rec.Available.Decrypt(key.Scalar())
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ChunkDecryptFailed, "orchestrator.Withdraw", "decrypt", err)
		}
		amountBig := new(big.Int).SetUint64(amount)
		if oldAmount.Cmp(amountBig) < 0 {
			return rpc.Receipt{}, caerr.New(caerr.InsufficientBalance, "orchestrator.Withdraw", "amount exceeds available")
		}
		newAmount := new(big.Int).Sub(oldAmount, amountBig)

		newCT, rs, err := elgamal.EncryptChunked(newAmount, pub)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Withdraw", "encrypt-new-balance", err)
		}
		chunks := elgamal.Split(newAmount)

		proof, err := sigma.BuildWithdrawalProof(accountBytes(account), tokenBytes(token), pub, rec.Available, newCT, amount,
			sigma.WithdrawWitness{D: key.Scalar(), R: rs, M: chunks})
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ProofFailed, "orchestrator.Withdraw", "build-proof", err)
		}
		if err := sigma.VerifyWithdrawalProof(accountBytes(account), tokenBytes(token), pub, rec.Available, newCT, amount, proof); err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ProofFailed, "orchestrator.Withdraw", "self-verify", err)
		}

		proofBytes, err := wire.MarshalWithdrawalProof(proof)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Withdraw", "marshal-proof", err)
		}
		call := rpc.EntryCall{
			Function: "withdraw",
			Args:     [][]byte{[]byte(token), packUint64(amount), wire.MarshalChunkedCiphertext(newCT), proofBytes},
		}
		return o.queueFor(account).Enqueue(ctx, call)
	})
}
