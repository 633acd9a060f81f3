package orchestrator

import (
	"context"

	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/keys"
	"github.com/moveguard/confidential-core/rpc"
	"github.com/moveguard/confidential-core/sigma"
	"github.com/moveguard/confidential-core/state"
	"github.com/moveguard/confidential-core/wire"
)

// Rotate re-encrypts (account, token)'s available balance under newKey,
// proving both that the total value is preserved and that the caller holds
// both the old and new decryption keys (spec §4.4.4). Per the Open Question
// resolution in DESIGN.md, rotation is refused locally with
// caerr.Unnormalized whenever pending is non-zero, rather than relying on
// on-chain rejection.
func (o *Orchestrator) Rotate(ctx context.Context, account, token string, oldKey, newKey keys.DecryptionKey) (rpc.Receipt, error) {
	var receipt rpc.Receipt
	err := o.withPairLock(ctx, account, token, func(ctx context.Context) error {
		defer oldKey.Zeroize()
		defer newKey.Zeroize()

		return o.submitWithRetry(ctx, func(ctx context.Context) (rpc.Receipt, error) {
			rec, err := o.checkAllowed(ctx, account, token, state.OpRotate)
			if err != nil {
				return rpc.Receipt{}, err
			}
			if !state.IsZeroChunked(rec.Pending) {
				return rpc.Receipt{}, caerr.New(caerr.Unnormalized, "orchestrator.Rotate", "pending balance must be rolled over and normalized first")
			}

			oldPub, err := oldKey.EncryptionKey()
			if err != nil {
				return rpc.Receipt{}, err
			}
			newPub, err := newKey.EncryptionKey()
			if err != nil {
				return rpc.Receipt{}, err
			}

			total, err := rec.Available.Decrypt(oldKey.Scalar())
			if err != nil {
				return rpc.Receipt{}, caerr.Wrap(caerr.ChunkDecryptFailed, "orchestrator.Rotate", "decrypt", err)
			}
			newCT, ss, err := elgamal.EncryptChunked(total, newPub)
			if err != nil {
				return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Rotate", "re-encrypt", err)
			}
			chunks := elgamal.Split(total)

			proof, err := sigma.BuildRotationProof(accountBytes(account), tokenBytes(token), oldPub, newPub, rec.Available, newCT,
				sigma.RotateWitness{DOld: oldKey.Scalar(), DNew: newKey.Scalar(), S: ss, M: chunks})
			if err != nil {
				return rpc.Receipt{}, caerr.Wrap(caerr.ProofFailed, "orchestrator.Rotate", "build-proof", err)
			}
			if err := sigma.VerifyRotationProof(accountBytes(account), tokenBytes(token), oldPub, newPub, rec.Available, newCT, proof); err != nil {
				return rpc.Receipt{}, caerr.Wrap(caerr.ProofFailed, "orchestrator.Rotate", "self-verify", err)
			}

			proofBytes, err := wire.MarshalRotationProof(proof)
			if err != nil {
				return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Rotate", "marshal-proof", err)
			}
			call := rpc.EntryCall{
				Function: "rotate_encryption_key",
				Args:     [][]byte{[]byte(token), wire.MarshalPoint(newPub), wire.MarshalChunkedCiphertext(newCT), proofBytes},
			}
			return o.queueFor(account).Enqueue(ctx, call)
		})
	})
	return receipt, err
}
