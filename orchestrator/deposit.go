package orchestrator

import (
	"context"

	"github.com/moveguard/confidential-core/rpc"
	"github.com/moveguard/confidential-core/state"
)

// Deposit moves a public-balance amount into (account, token)'s pending
// confidential balance. The amount is public at this boundary, so no proof
// is built (spec §4.8).
func (o *Orchestrator) Deposit(ctx context.Context, account, token string, amount uint64) (rpc.Receipt, error) {
	var receipt rpc.Receipt
	err := o.withPairLock(ctx, account, token, func(ctx context.Context) error {
		if _, err := o.checkAllowed(ctx, account, token, state.OpDeposit); err != nil {
			return err
		}
		call := rpc.EntryCall{
			Function: "deposit",
			Args:     [][]byte{[]byte(token), packUint64(amount)},
		}
		r, err := o.submitWithRetry(ctx, func(ctx context.Context) (rpc.Receipt, error) {
			return o.queueFor(account).Enqueue(ctx, call)
		})
		receipt = r
		return err
	})
	return receipt, err
}
