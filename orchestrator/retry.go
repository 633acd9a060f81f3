package orchestrator

import (
	"context"
	"time"

	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/log"
	"github.com/moveguard/confidential-core/rpc"
)

// retrySchedule is the fixed backoff spec §7 mandates: one initial attempt
// plus up to 3 retries, waiting 100ms, 400ms and 1.6s before them, with call
// refetching state on each invocation. Only caerr.RpcError and caerr.StaleState
// are retried; every other error kind is fatal to the call.
var retrySchedule = []time.Duration{100 * time.Millisecond, 400 * time.Millisecond, 1600 * time.Millisecond}

// retry runs call, retrying per retrySchedule when the returned error is
// caerr.Retryable. call is expected to refetch whatever state it needs on
// each invocation (it is the full "build proof, submit" closure, not just
// the submit step), so a stale-state retry rebuilds against fresh inputs.
func retry(ctx context.Context, call func(context.Context) (rpc.Receipt, error)) (rpc.Receipt, error) {
	var lastErr error
	for attempt := 0; attempt <= len(retrySchedule); attempt++ {
		if ctx.Err() != nil {
			return rpc.Receipt{}, caerr.New(caerr.Cancelled, "orchestrator.retry", "context cancelled")
		}
		receipt, err := call(ctx)
		if err == nil {
			return receipt, nil
		}
		lastErr = err
		if !caerr.Retryable(err) || attempt == len(retrySchedule) {
			return rpc.Receipt{}, err
		}
		delay := retrySchedule[attempt]
		log.Warnf("orchestrator: retrying after %v (attempt %d): %v", delay, attempt+1, err)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return rpc.Receipt{}, caerr.New(caerr.Cancelled, "orchestrator.retry", "context cancelled")
		}
	}
	return rpc.Receipt{}, lastErr
}
