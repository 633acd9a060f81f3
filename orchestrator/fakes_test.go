package orchestrator

import (
	"context"
	"sync"

	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/rpc"
	"github.com/moveguard/confidential-core/state"
)

// fakeReader is a minimal in-memory rpc.ChainReader for exercising the
// orchestrator without a real chain.
type fakeReader struct {
	mu         sync.Mutex
	records    map[string]state.BalanceRecord
	pubKeys    map[string]group.Point
	auditorKey group.Point
	hasAuditor bool
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		records: make(map[string]state.BalanceRecord),
		pubKeys: make(map[string]group.Point),
	}
}

func (f *fakeReader) setRecord(account, token string, rec state.BalanceRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[pairKey(account, token)] = rec
	f.pubKeys[pairKey(account, token)] = rec.EncryptionKey
}

func (f *fakeReader) GetBalanceRecord(ctx context.Context, account, token string) (state.BalanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[pairKey(account, token)]
	if !ok {
		return state.BalanceRecord{}, rpc.ErrNotRegistered
	}
	return rec, nil
}

func (f *fakeReader) GetEncryptionKey(ctx context.Context, account, token string) (group.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pub, ok := f.pubKeys[pairKey(account, token)]
	if !ok {
		return group.Point{}, rpc.ErrNotRegistered
	}
	return pub, nil
}

func (f *fakeReader) GetAssetAuditorEncryptionKey(ctx context.Context, token string) (group.Point, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auditorKey, f.hasAuditor, nil
}

// fakeSubmitter records every EntryCall it receives and returns an
// incrementing sequence number. onSubmit, if set, runs after a call is
// recorded, for tests that need the chain's apparent state to advance as
// a result of submission (e.g. a normalize call flipping the reader's
// stored IsNormalized flag).
type fakeSubmitter struct {
	mu       sync.Mutex
	calls    []rpc.EntryCall
	nextSeq  uint64
	onSubmit func(rpc.EntryCall)
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{}
}

func (f *fakeSubmitter) Submit(ctx context.Context, call rpc.EntryCall) (rpc.Receipt, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.nextSeq++
	seq := f.nextSeq
	hook := f.onSubmit
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return rpc.Receipt{TxHash: "fake-tx", SequenceAfter: seq}, nil
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSubmitter) lastFunction() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1].Function
}

// functions returns the Function name of every call received so far, in
// submission order.
func (f *fakeSubmitter) functions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Function
	}
	return out
}
