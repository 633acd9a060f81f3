package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/log"
	"github.com/moveguard/confidential-core/rpc"
)

// task is one pending signed-transaction payload awaiting submission.
type task struct {
	id     string
	call   rpc.EntryCall
	result chan<- taskResult
}

type taskResult struct {
	receipt rpc.Receipt
	err     error
}

// SubmissionQueue is the bounded, FIFO, per-account task queue spec.md §9
// calls for in place of an event-emitter: producers push EntryCalls,
// backpressure comes from the channel's fixed capacity, and one goroutine
// drains the queue in submission order, publishing each result on the
// caller-supplied channel rather than via a subscribe/callback API (spec
// SPEC_FULL §4.9).
type SubmissionQueue struct {
	sub    rpc.Submitter
	tasks  chan task
	stopMu sync.Mutex
	cancel context.CancelFunc
}

// queueFor returns (creating if needed) the SubmissionQueue for account,
// starting its drain goroutine on first use.
func (o *Orchestrator) queueFor(account string) *SubmissionQueue {
	o.queuesMu.Lock()
	defer o.queuesMu.Unlock()
	q, ok := o.queues[account]
	if ok {
		return q
	}
	q = newSubmissionQueue(o.sub, 32)
	o.queues[account] = q
	return q
}

// newSubmissionQueue starts a queue with the given channel capacity.
func newSubmissionQueue(sub rpc.Submitter, capacity int) *SubmissionQueue {
	ctx, cancel := context.WithCancel(context.Background())
	q := &SubmissionQueue{sub: sub, tasks: make(chan task, capacity), cancel: cancel}
	go q.drain(ctx)
	return q
}

func (q *SubmissionQueue) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-q.tasks:
			receipt, err := q.sub.Submit(ctx, t.call)
			if err != nil {
				log.Errorw(err, "orchestrator: submission failed task="+t.id)
				err = caerr.Wrap(caerr.RpcError, "orchestrator.SubmissionQueue", "submit", err)
			}
			t.result <- taskResult{receipt: receipt, err: err}
		}
	}
}

// Enqueue pushes call onto the queue and blocks until it is this task's
// turn and the submit call returns (FIFO ordering within one account, per
// spec §9). Pushing blocks if the queue is at capacity (backpressure).
func (q *SubmissionQueue) Enqueue(ctx context.Context, call rpc.EntryCall) (rpc.Receipt, error) {
	result := make(chan taskResult, 1)
	t := task{id: uuid.NewString(), call: call, result: result}

	select {
	case q.tasks <- t:
	case <-ctx.Done():
		return rpc.Receipt{}, caerr.New(caerr.Cancelled, "orchestrator.SubmissionQueue.Enqueue", "context cancelled")
	}

	select {
	case r := <-result:
		return r.receipt, r.err
	case <-ctx.Done():
		return rpc.Receipt{}, caerr.New(caerr.Cancelled, "orchestrator.SubmissionQueue.Enqueue", "context cancelled")
	}
}

// Stop halts the queue's drain goroutine. Tasks already accepted into the
// channel but not yet submitted are dropped; callers awaiting their result
// observe ctx cancellation via Enqueue's own select.
func (q *SubmissionQueue) Stop() {
	q.stopMu.Lock()
	defer q.stopMu.Unlock()
	q.cancel()
}
