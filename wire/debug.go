package wire

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/moveguard/confidential-core/elgamal"
)

// DebugDumpChunkedCiphertext CBOR-encodes a chunked ciphertext's C points
// for debug-level log lines. This is never parsed back and is not the
// canonical wire encoding (that stays the fixed-layout encoder in wire.go
// and proofs.go, §6): it exists only so an operator staring at debug logs sees a
// compact, stable dump rather than a Go struct's default formatting,
// mirroring the teacher's curve-point CBOR methods used the same way in
// its own debug paths.
func DebugDumpChunkedCiphertext(ct elgamal.ChunkedCiphertext) string {
	points := make([]any, 0, elgamal.NumChunks)
	for _, c := range ct.Chunks {
		points = append(points, c.C)
	}
	buf, err := cbor.Marshal(points)
	if err != nil {
		return fmt.Sprintf("<cbor-encode-error: %v>", err)
	}
	return hex.EncodeToString(buf)
}
