// Package orchestrator builds and submits the seven public operations (spec
// component 4.8): register, deposit, rollover, normalize, withdraw,
// transfer, rotate. Each is a deterministic pipeline over the rpc, state,
// sigma, and wire packages; the orchestrator itself holds no cryptographic
// logic beyond assembling witnesses and packing entry-function arguments.
//
// Grounded on the teacher's sequencer.Sequencer: a struct wrapping its
// collaborators (storage, web3 contracts) behind a per-resource lock, with
// one method per operation that fetches state, does its work, and submits.
package orchestrator

import (
	"context"
	"sync"

	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/config"
	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/log"
	"github.com/moveguard/confidential-core/rpc"
	"github.com/moveguard/confidential-core/state"
	"github.com/moveguard/confidential-core/wire"
)

// Orchestrator wires the chain-facing collaborators and the local cache
// behind the per-(account,token) cooperative lock spec §5 requires: two
// in-flight operations on the same pair must serialize around
// "fetch state -> build proof -> submit".
type Orchestrator struct {
	cfg    config.Config
	reader rpc.ChainReader
	sub    rpc.Submitter
	cache  *state.Cache

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	queuesMu sync.Mutex
	queues   map[string]*SubmissionQueue
}

// New builds an Orchestrator over the given collaborators. cfg is an
// immutable value (spec §9): nothing here retains a pointer to shared
// mutable configuration.
func New(cfg config.Config, reader rpc.ChainReader, sub rpc.Submitter, cache *state.Cache) *Orchestrator {
	return &Orchestrator{
		cfg:    cfg,
		reader: reader,
		sub:    sub,
		cache:  cache,
		locks:  make(map[string]*sync.Mutex),
		queues: make(map[string]*SubmissionQueue),
	}
}

func pairKey(account, token string) string {
	return account + "\x00" + token
}

// lockPair returns the cooperative lock for (account, token), creating it on
// first use. The map itself is protected by locksMu; the per-pair mutex is
// what actually serializes operations.
func (o *Orchestrator) lockPair(account, token string) *sync.Mutex {
	key := pairKey(account, token)
	o.locksMu.Lock()
	defer o.locksMu.Unlock()
	m, ok := o.locks[key]
	if !ok {
		m = &sync.Mutex{}
		o.locks[key] = m
	}
	return m
}

// withPairLock runs fn with (account, token)'s cooperative lock held. When
// fn returns first, the lock is released and fn's error returned. When ctx
// is cancelled first, withPairLock returns caerr.Cancelled at once, and the
// lock stays held until fn (which receives the same ctx) finishes, then is
// released. fn is responsible for its own secret zeroization via defer.
func (o *Orchestrator) withPairLock(ctx context.Context, account, token string, fn func(context.Context) error) error {
	mu := o.lockPair(account, token)

	done := make(chan error, 1)
	mu.Lock()
	go func() {
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		mu.Unlock()
		return err
	case <-ctx.Done():
		// fn is still running in the background; it will release nothing
		// extra since we hold the only reference to mu, so unlock once it
		// finishes to avoid leaving the pair permanently locked.
		go func() {
			<-done
			mu.Unlock()
		}()
		return caerr.New(caerr.Cancelled, "orchestrator", "context cancelled")
	}
}

// fetchRecord refreshes the local cache from chain and returns the freshest
// BalanceRecord, per spec §4.6's "refresh before any proof-bearing
// operation" rule.
func (o *Orchestrator) fetchRecord(ctx context.Context, account, token string) (state.BalanceRecord, error) {
	rec, err := o.reader.GetBalanceRecord(ctx, account, token)
	if err != nil {
		if err == rpc.ErrNotRegistered {
			return state.BalanceRecord{}, caerr.New(caerr.Unnormalized, "orchestrator.fetchRecord", "account not registered")
		}
		return state.BalanceRecord{}, caerr.Wrap(caerr.RpcError, "orchestrator.fetchRecord", "chain-read", err)
	}
	if err := o.cache.Put(account, token, rec); err != nil {
		log.Errorw(err, "orchestrator: failed to refresh local cache")
	}
	log.Debugf("orchestrator: refreshed %s/%s available=%s pending=%s", account, token,
		wire.DebugDumpChunkedCiphertext(rec.Available), wire.DebugDumpChunkedCiphertext(rec.Pending))
	return rec, nil
}

// checkAllowed fetches the current record and verifies op is permitted from
// its status (spec §4.6 table), returning the fresh record on success.
func (o *Orchestrator) checkAllowed(ctx context.Context, account, token string, op state.Op) (state.BalanceRecord, error) {
	rec, err := o.fetchRecord(ctx, account, token)
	if err != nil {
		return state.BalanceRecord{}, err
	}
	if err := state.Allowed(rec.Status(), op); err != nil {
		return state.BalanceRecord{}, err
	}
	return rec, nil
}

// submitWithRetry runs call via the fixed-schedule retry policy (spec §7:
// 100ms/400ms/1.6s, RpcError and StaleState only). call refetches state on
// every invocation, so a retried proof is rebuilt against fresh inputs.
func (o *Orchestrator) submitWithRetry(ctx context.Context, call func(context.Context) (rpc.Receipt, error)) (rpc.Receipt, error) {
	return retry(ctx, call)
}

// auditorKey resolves the token's auditor encryption key: the chain's
// published key takes precedence, falling back to the local configuration
// override (config.Config.WithAuditorKey) when the chain has none.
func (o *Orchestrator) auditorKey(ctx context.Context, token string) (group.Point, bool, error) {
	key, ok, err := o.reader.GetAssetAuditorEncryptionKey(ctx, token)
	if err != nil {
		return group.Point{}, false, caerr.Wrap(caerr.RpcError, "orchestrator.auditorKey", "chain-read", err)
	}
	if ok {
		return key, true, nil
	}
	if cfgKey, cfgOK := o.cfg.AuditorKey(); cfgOK {
		return cfgKey, true, nil
	}
	return group.Point{}, false, nil
}
