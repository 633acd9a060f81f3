package orchestrator

import (
	"context"

	"github.com/moveguard/confidential-core/rpc"
	"github.com/moveguard/confidential-core/state"
)

// Rollover moves (account, token)'s pending ciphertext into available by
// homomorphic addition. No proof accompanies rollover; the result may be
// unnormalized (spec §4.6).
func (o *Orchestrator) Rollover(ctx context.Context, account, token string) (rpc.Receipt, error) {
	var receipt rpc.Receipt
	err := o.withPairLock(ctx, account, token, func(ctx context.Context) error {
		if _, err := o.checkAllowed(ctx, account, token, state.OpRollover); err != nil {
			return err
		}
		call := rpc.EntryCall{
			Function: "rollover_pending_balance",
			Args:     [][]byte{[]byte(token)},
		}
		r, err := o.submitWithRetry(ctx, func(ctx context.Context) (rpc.Receipt, error) {
			return o.queueFor(account).Enqueue(ctx, call)
		})
		receipt = r
		return err
	})
	return receipt, err
}
