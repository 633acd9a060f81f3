// Package state is the client-side mirror of on-chain balance state (spec
// component 4.6) plus its local persistent cache (SPEC_FULL §4.10).
//
// Grounded on the teacher's storage/process.go state-machine style (a
// small closed set of named states with explicit allowed-transition
// checks) and storage/keys.go's encryption-key storage shape.
package state

import (
	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
)

// Status is the client's view of a single (account, token) pair's place in
// the state machine of spec §4.6.
type Status int

const (
	Unregistered Status = iota
	RegisteredZero
	NormalizedIdle
	Unnormalized
	Frozen
)

func (s Status) String() string {
	switch s {
	case Unregistered:
		return "Unregistered"
	case RegisteredZero:
		return "RegisteredZero"
	case NormalizedIdle:
		return "NormalizedIdle"
	case Unnormalized:
		return "Unnormalized"
	case Frozen:
		return "Frozen"
	default:
		return "Unknown"
	}
}

// BalanceRecord mirrors the on-chain record for one (account, token) pair
// (spec §3).
type BalanceRecord struct {
	EncryptionKey group.Point
	Pending       elgamal.ChunkedCiphertext
	Available     elgamal.ChunkedCiphertext
	IsFrozen      bool
	IsNormalized  bool
	// SequenceNumber is the on-chain resource version/sequence number
	// observed at fetch time, used to detect StaleState on submit.
	SequenceNumber uint64
}

// Status derives the client's status classification from a BalanceRecord.
// A record is "RegisteredZero" only when both pending and available are
// exactly zero; any non-zero pending ciphertext with a normalized
// available balance still allows spending (pending only gates itself).
func (r BalanceRecord) Status() Status {
	if r.IsFrozen {
		return Frozen
	}
	if !r.IsNormalized {
		return Unnormalized
	}
	if IsZeroChunked(r.Available) && IsZeroChunked(r.Pending) {
		return RegisteredZero
	}
	return NormalizedIdle
}

// IsZeroChunked reports whether every chunk of ct is the identity
// ciphertext. Points wrap an internal pointer, so comparison must go
// through Point.IsIdentity rather than struct equality.
func IsZeroChunked(ct elgamal.ChunkedCiphertext) bool {
	for _, c := range ct.Chunks {
		if !c.C.IsIdentity() || !c.D.IsIdentity() {
			return false
		}
	}
	return true
}

// Op identifies a public orchestrator operation, for allowance checks.
type Op int

const (
	OpRegister Op = iota
	OpDeposit
	OpRollover
	OpNormalize
	OpWithdraw
	OpTransfer
	OpRotate
)

// Allowed reports whether op may be attempted from status, per the state
// table in spec §4.6, returning the specific caerr.Kind that should be
// reported when it is not.
func Allowed(status Status, op Op) error {
	switch status {
	case Unregistered:
		if op == OpRegister {
			return nil
		}
		return caerr.New(caerr.Unnormalized, "state.Allowed", "account not registered")
	case Frozen:
		return caerr.New(caerr.FrozenAccount, "state.Allowed", op.String())
	case RegisteredZero:
		switch op {
		case OpDeposit, OpRollover:
			return nil
		default:
			return caerr.New(caerr.InsufficientBalance, "state.Allowed", "no balance to spend")
		}
	case Unnormalized:
		switch op {
		case OpNormalize, OpDeposit, OpRollover:
			return nil
		default:
			return caerr.New(caerr.Unnormalized, "state.Allowed", op.String())
		}
	case NormalizedIdle:
		return nil
	default:
		return caerr.New(caerr.Unnormalized, "state.Allowed", "unknown status")
	}
}

func (op Op) String() string {
	switch op {
	case OpRegister:
		return "register"
	case OpDeposit:
		return "deposit"
	case OpRollover:
		return "rollover"
	case OpNormalize:
		return "normalize"
	case OpWithdraw:
		return "withdraw"
	case OpTransfer:
		return "transfer"
	case OpRotate:
		return "rotate"
	default:
		return "unknown"
	}
}
