package orchestrator

import (
	"context"

	"github.com/moveguard/confidential-core/keys"
	"github.com/moveguard/confidential-core/rpc"
	"github.com/moveguard/confidential-core/wire"
)

// Register allocates on-chain state for (account, token) under the given
// decryption key's encryption key. No proof accompanies registration (spec
// §4.8).
func (o *Orchestrator) Register(ctx context.Context, account, token string, key keys.DecryptionKey) (rpc.Receipt, error) {
	var receipt rpc.Receipt
	err := o.withPairLock(ctx, account, token, func(ctx context.Context) error {
		defer key.Zeroize()
		pub, err := key.EncryptionKey()
		if err != nil {
			return err
		}
		call := rpc.EntryCall{
			Function: "register",
			Args:     [][]byte{[]byte(token), wire.MarshalPoint(pub)},
		}
		r, err := o.submitWithRetry(ctx, func(ctx context.Context) (rpc.Receipt, error) {
			return o.queueFor(account).Enqueue(ctx, call)
		})
		receipt = r
		return err
	})
	return receipt, err
}
