// Package caerr defines the exhaustive error taxonomy used across the
// confidential asset client. Every fallible operation returns an *Error (or
// wraps one), never a bare sentinel, so callers can branch on Kind with
// errors.As.
package caerr

import "fmt"

// Kind enumerates the exhaustive error categories.
type Kind int

const (
	// InvalidEncoding: malformed bytes or a non-canonical point/scalar.
	InvalidEncoding Kind = iota
	// UnsupportedVersion: unknown proof version byte.
	UnsupportedVersion
	// AmountOutOfRange: plaintext does not fit the claimed bit range.
	AmountOutOfRange
	// ChunkDecryptFailed: the DL search did not find a chunk value. Index
	// is carried in Error.Chunk.
	ChunkDecryptFailed
	// InsufficientBalance: transfer/withdraw exceeds decrypted available.
	InsufficientBalance
	// StaleState: chain state changed between fetch and submit.
	StaleState
	// FrozenAccount: operation attempted during key rotation.
	FrozenAccount
	// Unnormalized: spendable op attempted without prior normalization.
	Unnormalized
	// ProofFailed: local self-check of a just-built proof failed verification.
	ProofFailed
	// RpcError: transport failure; may be retried.
	RpcError
	// DuplicateSubmission: sequence number conflict on submit.
	DuplicateSubmission
	// Cancelled: operation aborted by the caller.
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidEncoding:
		return "InvalidEncoding"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case AmountOutOfRange:
		return "AmountOutOfRange"
	case ChunkDecryptFailed:
		return "ChunkDecryptFailed"
	case InsufficientBalance:
		return "InsufficientBalance"
	case StaleState:
		return "StaleState"
	case FrozenAccount:
		return "FrozenAccount"
	case Unnormalized:
		return "Unnormalized"
	case ProofFailed:
		return "ProofFailed"
	case RpcError:
		return "RpcError"
	case DuplicateSubmission:
		return "DuplicateSubmission"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type every package in this module returns.
// Op names the operation (e.g. "orchestrator.Withdraw"), Step narrows it
// further (e.g. "fetch-state"), Chunk is only meaningful for
// ChunkDecryptFailed.
type Error struct {
	Kind  Kind
	Op    string
	Step  string
	Chunk int
	Err   error
}

func (e *Error) Error() string {
	if e.Step != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s[%s]: %v", e.Op, e.Kind, e.Step, e.Err)
		}
		return fmt.Sprintf("%s: %s[%s]", e.Op, e.Kind, e.Step)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(kind Kind, op, step string) *Error {
	return &Error{Kind: kind, Op: op, Step: step}
}

// Wrap builds an *Error wrapping an underlying cause.
func Wrap(kind Kind, op, step string, err error) *Error {
	return &Error{Kind: kind, Op: op, Step: step, Err: err}
}

// WrapChunk builds a ChunkDecryptFailed error for a specific chunk index.
func WrapChunk(op, step string, chunk int, err error) *Error {
	return &Error{Kind: ChunkDecryptFailed, Op: op, Step: step, Chunk: chunk, Err: err}
}

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if as, ok := err.(*Error); ok {
			e = as
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}

// Retryable reports whether the error kind is one the orchestrator's retry
// policy (§7) auto-retries: RpcError and StaleState only.
func Retryable(err error) bool {
	return Is(err, RpcError) || Is(err, StaleState)
}
