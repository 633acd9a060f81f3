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

// Transfer moves amount from (account, token)'s confidential balance to
// recipient's, optionally mirroring the hidden amount to the token's
// configured auditor, normalizing the sender's balance first if needed
// (spec §4.4.2, §4.8).
func (o *Orchestrator) Transfer(ctx context.Context, account, token, recipient string, key keys.DecryptionKey, amount uint64) (rpc.Receipt, error) {
	var receipt rpc.Receipt
	err := o.withPairLock(ctx, account, token, func(ctx context.Context) error {
		defer key.Zeroize()
		if err := o.ensureNormalizedLocked(ctx, account, token, key); err != nil {
			return err
		}
		r, err := o.doTransfer(ctx, account, token, recipient, key, amount)
		receipt = r
		return err
	})
	return receipt, err
}

// doTransfer does not zeroize key; the public Transfer entrypoint owns that.
func (o *Orchestrator) doTransfer(ctx context.Context, account, token, recipient string, key keys.DecryptionKey, amount uint64) (rpc.Receipt, error) {
	return o.submitWithRetry(ctx, func(ctx context.Context) (rpc.Receipt, error) {
		rec, err := o.checkAllowed(ctx, account, token, state.OpTransfer)
		if err != nil {
			return rpc.Receipt{}, err
		}
		senderPub, err := key.EncryptionKey()
		if err != nil {
			return rpc.Receipt{}, err
		}
		recipPub, err := o.reader.GetEncryptionKey(ctx, recipient, token)
		if err != nil {
			if err == rpc.ErrNotRegistered {
				return rpc.Receipt{}, caerr.New(caerr.Unnormalized, "orchestrator.Transfer", "recipient not registered")
			}
			return rpc.Receipt{}, caerr.Wrap(caerr.RpcError, "orchestrator.Transfer", "fetch-recipient-key", err)
		}

		oldAmount, err := rec.Available.Decrypt(key.Scalar())
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ChunkDecryptFailed, "orchestrator.Transfer", "decrypt", err)
		}
		amountBig := new(big.Int).SetUint64(amount)
		if oldAmount.Cmp(amountBig) < 0 {
			return rpc.Receipt{}, caerr.New(caerr.InsufficientBalance, "orchestrator.Transfer", "amount exceeds available")
		}
		newSenderAmount := new(big.Int).Sub(oldAmount, amountBig)

		newCT, rs, err := elgamal.EncryptChunked(newSenderAmount, senderPub)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Transfer", "encrypt-sender-balance", err)
		}
		recipCT, ss, err := elgamal.EncryptChunked(amountBig, recipPub)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Transfer", "encrypt-recipient-credit", err)
		}
		vChunks := elgamal.Split(amountBig)

		auditorPub, hasAuditor, err := o.auditorKey(ctx, token)
		if err != nil {
			return rpc.Receipt{}, err
		}
		var auditorCT *elgamal.ChunkedCiphertext

		witness := sigma.TransferWitness{D: key.Scalar(), V: vChunks, R: rs, S: ss}
		if hasAuditor {
			auditorCiphertext, auditorRandomness, err := elgamal.EncryptChunked(amountBig, auditorPub)
			if err != nil {
				return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Transfer", "encrypt-auditor-credit", err)
			}
			auditorCT = &auditorCiphertext
			witness.A = auditorRandomness
		}

		proof, err := sigma.BuildTransferProof(accountBytes(account), tokenBytes(token), senderPub, recipPub,
			rec.Available, newCT, recipCT, auditorPub, auditorCT, witness)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ProofFailed, "orchestrator.Transfer", "build-proof", err)
		}
		if err := sigma.VerifyTransferProof(accountBytes(account), tokenBytes(token), senderPub, recipPub,
			rec.Available, newCT, recipCT, auditorPub, auditorCT, proof); err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ProofFailed, "orchestrator.Transfer", "self-verify", err)
		}

		proofBytes, err := wire.MarshalTransferProof(proof)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Transfer", "marshal-proof", err)
		}
		auditorBytes := []byte{}
		if hasAuditor {
			auditorBytes = wire.MarshalChunkedCiphertext(*auditorCT)
		}
		call := rpc.EntryCall{
			Function: "confidential_transfer",
			Args: [][]byte{
				[]byte(token),
				[]byte(recipient),
				wire.MarshalChunkedCiphertext(newCT),
				wire.MarshalChunkedCiphertext(recipCT),
				auditorBytes,
				proofBytes,
			},
		}
		return o.queueFor(account).Enqueue(ctx, call)
	})
}
