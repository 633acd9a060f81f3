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

// normalizeWideBits bounds the discrete-log search used to recover an
// unnormalized balance's true value: wide enough to cover any plausible
// accumulation of chunk overflow from repeated deposits/transfers-in, far
// short of the full 128-bit range a chunk's ciphertext could in principle
// encode.
const normalizeWideBits = 48

// Normalize rebuilds (account, token)'s available ciphertext so every chunk
// fits in 16 bits again, proving the rebuilt ciphertext preserves the total
// value (spec §4.4.3).
func (o *Orchestrator) Normalize(ctx context.Context, account, token string, key keys.DecryptionKey) (rpc.Receipt, error) {
	var receipt rpc.Receipt
	err := o.withPairLock(ctx, account, token, func(ctx context.Context) error {
		defer key.Zeroize()
		r, err := o.doNormalize(ctx, account, token, key)
		receipt = r
		return err
	})
	return receipt, err
}

// doNormalize is Normalize's body, factored out so operations that already
// hold (account, token)'s pair lock (withdraw, transfer) can
// normalize inline without re-acquiring it. It does not zeroize key: the
// decryption key scalar is shared (by pointer) with the caller, who may
// still need it for further steps in the same pipeline, and owns the one
// deferred Zeroize call for the whole operation.
func (o *Orchestrator) doNormalize(ctx context.Context, account, token string, key keys.DecryptionKey) (rpc.Receipt, error) {
	return o.submitWithRetry(ctx, func(ctx context.Context) (rpc.Receipt, error) {
		rec, err := o.checkAllowed(ctx, account, token, state.OpNormalize)
		if err != nil {
			return rpc.Receipt{}, err
		}
		pub, err := key.EncryptionKey()
		if err != nil {
			return rpc.Receipt{}, err
		}

		total, err := rec.Available.DecryptWide(key.Scalar(), normalizeWideBits)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ChunkDecryptFailed, "orchestrator.Normalize", "decrypt-wide", err)
		}
		newCT, rs, err := elgamal.EncryptChunked(total, pub)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Normalize", "re-encrypt", err)
		}
		chunks := elgamal.Split(total)

		proof, err := sigma.BuildNormalizationProof(accountBytes(account), tokenBytes(token), pub, rec.Available, newCT,
			sigma.NormalizeWitness{D: key.Scalar(), R: rs, M: chunks})
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ProofFailed, "orchestrator.Normalize", "build-proof", err)
		}
		if err := sigma.VerifyNormalizationProof(accountBytes(account), tokenBytes(token), pub, rec.Available, newCT, proof); err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.ProofFailed, "orchestrator.Normalize", "self-verify", err)
		}

		proofBytes, err := wire.MarshalNormalizationProof(proof)
		if err != nil {
			return rpc.Receipt{}, caerr.Wrap(caerr.InvalidEncoding, "orchestrator.Normalize", "marshal-proof", err)
		}
		call := rpc.EntryCall{
			Function: "normalize",
			Args:     [][]byte{[]byte(token), wire.MarshalChunkedCiphertext(newCT), proofBytes},
		}
		return o.queueFor(account).Enqueue(ctx, call)
	})
}
