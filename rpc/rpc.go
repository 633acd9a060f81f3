// Package rpc names the external collaborators the core treats as
// out-of-scope (spec §1, §6.3, §6.4): the chain read surface and the
// sign+submit capability. The core depends only on these interfaces, never
// on a concrete transport, so it stays testable with fakes (spec §9's
// "dynamic dispatch for transaction submitters" redesign note: replace a
// plugin-style submitter with one small capability interface).
package rpc

import (
	"context"

	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/state"
)

// ErrNotRegistered is returned by ChainReader methods when the queried
// account/token pair has no on-chain record.
var ErrNotRegistered = errNotRegistered{}

type errNotRegistered struct{}

func (errNotRegistered) Error() string { return "rpc: account not registered" }

// ChainReader is the read surface the core consumes (spec §6.3).
type ChainReader interface {
	// GetBalanceRecord fetches the current on-chain BalanceRecord, or
	// ErrNotRegistered.
	GetBalanceRecord(ctx context.Context, account, token string) (state.BalanceRecord, error)
	// GetEncryptionKey fetches an account's registered encryption key for
	// token, or ErrNotRegistered.
	GetEncryptionKey(ctx context.Context, account, token string) (group.Point, error)
	// GetAssetAuditorEncryptionKey fetches the token's configured auditor
	// key, if any (ok=false when the token has none).
	GetAssetAuditorEncryptionKey(ctx context.Context, token string) (key group.Point, ok bool, err error)
}

// Receipt is the chain's response to a submitted transaction.
type Receipt struct {
	TxHash        string
	SequenceAfter uint64
}

// EntryCall is one logical chain-facing entry-function invocation (spec
// §6.2): the function name and its pre-packed argument bytes, ready for
// the host's transaction-building and signing pipeline.
type EntryCall struct {
	Function string
	Args     [][]byte
}

// Submitter is the single capability the core needs to push a built
// transaction: sign (the host's responsibility — may be a hardware wallet,
// hence async) and submit, returning a receipt or an error. The
// orchestrator's SubmissionQueue reports every Submit error as
// caerr.RpcError; a duplicate-sequence failure is not told apart from other
// submit errors.
type Submitter interface {
	Submit(ctx context.Context, call EntryCall) (Receipt, error)
}
