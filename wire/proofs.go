package wire

import (
	"fmt"
	"math/big"

	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/elgamal"
	"github.com/moveguard/confidential-core/group"
	"github.com/moveguard/confidential-core/rangeproof"
	"github.com/moveguard/confidential-core/sigma"
)

// MarshalRangeProof encodes a RangeProof as its bit length (2 bytes) then,
// per bit, the bit commitment and its Chaum-Pedersen OR-proof
// (commitment ‖ A0 ‖ A1 ‖ C0 ‖ C1 ‖ Z0 ‖ Z1), 7*32 = 224 bytes per bit.
func MarshalRangeProof(rp rangeproof.RangeProof) []byte {
	out := make([]byte, 0, 2+rp.BitLength*224)
	out = append(out, byte(rp.BitLength), byte(rp.BitLength>>8))
	for i := 0; i < rp.BitLength; i++ {
		out = append(out, MarshalPoint(rp.BitCommitments[i])...)
		bp := rp.BitProofs[i]
		out = append(out, MarshalPoint(bp.A0)...)
		out = append(out, MarshalPoint(bp.A1)...)
		out = append(out, MarshalScalar(bp.C0)...)
		out = append(out, MarshalScalar(bp.C1)...)
		out = append(out, MarshalScalar(bp.Z0)...)
		out = append(out, MarshalScalar(bp.Z1)...)
	}
	return out
}

// UnmarshalRangeProof decodes a RangeProof produced by MarshalRangeProof.
func UnmarshalRangeProof(buf []byte) (rangeproof.RangeProof, error) {
	if len(buf) < 2 {
		return rangeproof.RangeProof{}, caerr.New(caerr.InvalidEncoding, "wire.UnmarshalRangeProof", "truncated bit length")
	}
	bitLength := int(buf[0]) | int(buf[1])<<8
	buf = buf[2:]
	want := bitLength * 224
	if len(buf) != want {
		return rangeproof.RangeProof{}, caerr.New(caerr.InvalidEncoding, "wire.UnmarshalRangeProof", fmt.Sprintf("expected %d bytes of bit data, got %d", want, len(buf)))
	}
	rp := rangeproof.RangeProof{
		BitLength:      bitLength,
		BitCommitments: make([]group.Point, bitLength),
		BitProofs:      make([]rangeproof.BitProof, bitLength),
	}
	for i := 0; i < bitLength; i++ {
		off := i * 224
		commitment, err := UnmarshalPoint(buf[off : off+32])
		if err != nil {
			return rangeproof.RangeProof{}, caerr.WrapChunk("wire.UnmarshalRangeProof", "bit-commitment", i, err)
		}
		a0, err := UnmarshalPoint(buf[off+32 : off+64])
		if err != nil {
			return rangeproof.RangeProof{}, caerr.WrapChunk("wire.UnmarshalRangeProof", "bit-A0", i, err)
		}
		a1, err := UnmarshalPoint(buf[off+64 : off+96])
		if err != nil {
			return rangeproof.RangeProof{}, caerr.WrapChunk("wire.UnmarshalRangeProof", "bit-A1", i, err)
		}
		c0, err := UnmarshalScalar(buf[off+96 : off+128])
		if err != nil {
			return rangeproof.RangeProof{}, caerr.WrapChunk("wire.UnmarshalRangeProof", "bit-C0", i, err)
		}
		c1, err := UnmarshalScalar(buf[off+128 : off+160])
		if err != nil {
			return rangeproof.RangeProof{}, caerr.WrapChunk("wire.UnmarshalRangeProof", "bit-C1", i, err)
		}
		z0, err := UnmarshalScalar(buf[off+160 : off+192])
		if err != nil {
			return rangeproof.RangeProof{}, caerr.WrapChunk("wire.UnmarshalRangeProof", "bit-Z0", i, err)
		}
		z1, err := UnmarshalScalar(buf[off+192 : off+224])
		if err != nil {
			return rangeproof.RangeProof{}, caerr.WrapChunk("wire.UnmarshalRangeProof", "bit-Z1", i, err)
		}
		rp.BitCommitments[i] = commitment
		rp.BitProofs[i] = rangeproof.BitProof{A0: a0, A1: a1, C0: c0, C1: c1, Z0: z0, Z1: z1}
	}
	return rp, nil
}

// marshalLengthPrefixed wraps buf with a 4-byte little-endian length prefix.
func marshalLengthPrefixed(buf []byte) []byte {
	out := make([]byte, 0, 4+len(buf))
	out = append(out, putUint32(len(buf))...)
	out = append(out, buf...)
	return out
}

// readLengthPrefixed consumes one length-prefixed block from the front of
// buf, returning the block and the remaining bytes.
func readLengthPrefixed(buf []byte) (block, rest []byte, err error) {
	n, err := readUint32(buf)
	if err != nil {
		return nil, nil, err
	}
	buf = buf[4:]
	if len(buf) < n {
		return nil, nil, caerr.New(caerr.InvalidEncoding, "wire.readLengthPrefixed", "truncated block")
	}
	return buf[:n], buf[n:], nil
}

// marshalSigmaProof encodes a sigma.Proof as a fixed-width block: one
// commitment point per equation (in statement order), then one response
// scalar per secret name (in the caller-supplied canonical order).
func marshalSigmaProof(proof sigma.Proof, secretOrder []string) ([]byte, error) {
	out := make([]byte, 0, len(proof.Commitments)*32+len(secretOrder)*32)
	for _, c := range proof.Commitments {
		out = append(out, MarshalPoint(c)...)
	}
	for _, name := range secretOrder {
		r, ok := proof.Responses[name]
		if !ok {
			return nil, caerr.New(caerr.InvalidEncoding, "wire.marshalSigmaProof", fmt.Sprintf("missing response for secret %q", name))
		}
		out = append(out, MarshalScalar(r)...)
	}
	return out, nil
}

// unmarshalSigmaProof is marshalSigmaProof's inverse; numEquations and
// secretOrder must match what the caller used to build the statement.
func unmarshalSigmaProof(buf []byte, numEquations int, secretOrder []string) (sigma.Proof, []byte, error) {
	want := numEquations*32 + len(secretOrder)*32
	if len(buf) < want {
		return sigma.Proof{}, nil, caerr.New(caerr.InvalidEncoding, "wire.unmarshalSigmaProof", fmt.Sprintf("expected at least %d bytes, got %d", want, len(buf)))
	}
	proof := sigma.Proof{
		Commitments: make([]group.Point, numEquations),
		Responses:   make(map[string]*big.Int, len(secretOrder)),
	}
	for i := 0; i < numEquations; i++ {
		p, err := UnmarshalPoint(buf[i*32 : (i+1)*32])
		if err != nil {
			return sigma.Proof{}, nil, caerr.WrapChunk("wire.unmarshalSigmaProof", "commitment", i, err)
		}
		proof.Commitments[i] = p
	}
	off := numEquations * 32
	for i, name := range secretOrder {
		s, err := UnmarshalScalar(buf[off+i*32 : off+(i+1)*32])
		if err != nil {
			return sigma.Proof{}, nil, caerr.Wrap(caerr.InvalidEncoding, "wire.unmarshalSigmaProof", "response:"+name, err)
		}
		proof.Responses[name] = s
	}
	return proof, buf[want:], nil
}

// withdrawSecretOrder is the canonical secret ordering for withdrawal and
// normalization proofs: d, then r0..r7.
func withdrawSecretOrder() []string {
	order := []string{"d"}
	for i := 0; i < elgamal.NumChunks; i++ {
		order = append(order, fmt.Sprintf("r%d", i))
	}
	return order
}

const withdrawNumEquations = elgamal.NumChunks + 1 // 8 per-chunk D equations + 1 master

// MarshalWithdrawalProof encodes a WithdrawalProof: version ‖
// sigmaCommitments ‖ sigmaResponses ‖ rangeProofs[8] (each length-prefixed).
func MarshalWithdrawalProof(p sigma.WithdrawalProof) ([]byte, error) {
	out := make([]byte, 2)
	out[0], out[1] = byte(p.Version), byte(p.Version>>8)
	sigmaBytes, err := marshalSigmaProof(p.Proof, withdrawSecretOrder())
	if err != nil {
		return nil, err
	}
	out = append(out, sigmaBytes...)
	for _, rp := range p.RangeProofs {
		out = append(out, marshalLengthPrefixed(MarshalRangeProof(rp))...)
	}
	return out, nil
}

// UnmarshalWithdrawalProof decodes a WithdrawalProof.
func UnmarshalWithdrawalProof(buf []byte) (sigma.WithdrawalProof, error) {
	if len(buf) < 2 {
		return sigma.WithdrawalProof{}, caerr.New(caerr.InvalidEncoding, "wire.UnmarshalWithdrawalProof", "truncated version")
	}
	version := uint16(buf[0]) | uint16(buf[1])<<8
	if err := checkVersion(version); err != nil {
		return sigma.WithdrawalProof{}, err
	}
	buf = buf[2:]
	proof, rest, err := unmarshalSigmaProof(buf, withdrawNumEquations, withdrawSecretOrder())
	if err != nil {
		return sigma.WithdrawalProof{}, err
	}
	out := sigma.WithdrawalProof{Version: version, Proof: proof}
	for i := 0; i < elgamal.NumChunks; i++ {
		var block []byte
		block, rest, err = readLengthPrefixed(rest)
		if err != nil {
			return sigma.WithdrawalProof{}, caerr.WrapChunk("wire.UnmarshalWithdrawalProof", "range-proof", i, err)
		}
		rp, err := UnmarshalRangeProof(block)
		if err != nil {
			return sigma.WithdrawalProof{}, caerr.WrapChunk("wire.UnmarshalWithdrawalProof", "range-proof", i, err)
		}
		out.RangeProofs[i] = rp
	}
	return out, nil
}

const normalizeNumEquations = withdrawNumEquations

// MarshalNormalizationProof encodes a NormalizationProof: sigma block + 8
// range proofs, the same shape as a withdrawal proof (normalization is a
// zero-amount withdrawal statement).
func MarshalNormalizationProof(p sigma.NormalizationProof) ([]byte, error) {
	out := make([]byte, 2)
	out[0], out[1] = byte(p.Version), byte(p.Version>>8)
	sigmaBytes, err := marshalSigmaProof(p.Proof, withdrawSecretOrder())
	if err != nil {
		return nil, err
	}
	out = append(out, sigmaBytes...)
	for _, rp := range p.RangeProofs {
		out = append(out, marshalLengthPrefixed(MarshalRangeProof(rp))...)
	}
	return out, nil
}

// UnmarshalNormalizationProof decodes a NormalizationProof.
func UnmarshalNormalizationProof(buf []byte) (sigma.NormalizationProof, error) {
	if len(buf) < 2 {
		return sigma.NormalizationProof{}, caerr.New(caerr.InvalidEncoding, "wire.UnmarshalNormalizationProof", "truncated version")
	}
	version := uint16(buf[0]) | uint16(buf[1])<<8
	if err := checkVersion(version); err != nil {
		return sigma.NormalizationProof{}, err
	}
	buf = buf[2:]
	proof, rest, err := unmarshalSigmaProof(buf, normalizeNumEquations, withdrawSecretOrder())
	if err != nil {
		return sigma.NormalizationProof{}, err
	}
	out := sigma.NormalizationProof{Version: version, Proof: proof}
	for i := 0; i < elgamal.NumChunks; i++ {
		var block []byte
		block, rest, err = readLengthPrefixed(rest)
		if err != nil {
			return sigma.NormalizationProof{}, caerr.WrapChunk("wire.UnmarshalNormalizationProof", "range-proof", i, err)
		}
		rp, err := UnmarshalRangeProof(block)
		if err != nil {
			return sigma.NormalizationProof{}, caerr.WrapChunk("wire.UnmarshalNormalizationProof", "range-proof", i, err)
		}
		out.RangeProofs[i] = rp
	}
	return out, nil
}

// rotateSecretOrder is the canonical secret ordering for rotation proofs.
func rotateSecretOrder() []string { return []string{"d_old", "d_new"} }

const rotateNumEquations = 3 // d_old~P_old, d_new~P_new, master

// MarshalRotationProof encodes a RotationProof: sigma block + 8 range
// proofs.
func MarshalRotationProof(p sigma.RotationProof) ([]byte, error) {
	out := make([]byte, 2)
	out[0], out[1] = byte(p.Version), byte(p.Version>>8)
	sigmaBytes, err := marshalSigmaProof(p.Proof, rotateSecretOrder())
	if err != nil {
		return nil, err
	}
	out = append(out, sigmaBytes...)
	for _, rp := range p.RangeProofs {
		out = append(out, marshalLengthPrefixed(MarshalRangeProof(rp))...)
	}
	return out, nil
}

// UnmarshalRotationProof decodes a RotationProof.
func UnmarshalRotationProof(buf []byte) (sigma.RotationProof, error) {
	if len(buf) < 2 {
		return sigma.RotationProof{}, caerr.New(caerr.InvalidEncoding, "wire.UnmarshalRotationProof", "truncated version")
	}
	version := uint16(buf[0]) | uint16(buf[1])<<8
	if err := checkVersion(version); err != nil {
		return sigma.RotationProof{}, err
	}
	buf = buf[2:]
	proof, rest, err := unmarshalSigmaProof(buf, rotateNumEquations, rotateSecretOrder())
	if err != nil {
		return sigma.RotationProof{}, err
	}
	out := sigma.RotationProof{Version: version, Proof: proof}
	for i := 0; i < elgamal.NumChunks; i++ {
		var block []byte
		block, rest, err = readLengthPrefixed(rest)
		if err != nil {
			return sigma.RotationProof{}, caerr.WrapChunk("wire.UnmarshalRotationProof", "range-proof", i, err)
		}
		rp, err := UnmarshalRangeProof(block)
		if err != nil {
			return sigma.RotationProof{}, caerr.WrapChunk("wire.UnmarshalRotationProof", "range-proof", i, err)
		}
		out.RangeProofs[i] = rp
	}
	return out, nil
}

// transferSecretOrder is the canonical secret ordering for transfer proofs:
// d, r0..r7 (sender), v0..v7 (amount), s0..s7 (recipient), then a0..a7 (auditor)
// when present.
func transferSecretOrder(hasAuditor bool) []string {
	order := []string{"d"}
	for i := 0; i < elgamal.NumChunks; i++ {
		order = append(order, fmt.Sprintf("r%d", i))
	}
	for i := 0; i < elgamal.NumChunks; i++ {
		order = append(order, fmt.Sprintf("v%d", i))
	}
	for i := 0; i < elgamal.NumChunks; i++ {
		order = append(order, fmt.Sprintf("s%d", i))
	}
	if hasAuditor {
		for i := 0; i < elgamal.NumChunks; i++ {
			order = append(order, fmt.Sprintf("a%d", i))
		}
	}
	return order
}

// transferNumEquations mirrors sigma.transferStatement's equation count:
// 8 sender-D equations, 8 recipient-D + 8 recipient-commitment equations,
// optionally 8 auditor-D + 8 auditor-commitment equations, plus 1 master.
func transferNumEquations(hasAuditor bool) int {
	n := elgamal.NumChunks + 2*elgamal.NumChunks + 1
	if hasAuditor {
		n += 2 * elgamal.NumChunks
	}
	return n
}

// MarshalTransferProof encodes a TransferProof per spec §6.1: version,
// 1-byte auditor-presence flag (the spec's auditor count, here 0 or 1
// confidential-asset auditor per token), the sigma block, sender and
// recipient range proofs, then auditor range proofs when present.
func MarshalTransferProof(p sigma.TransferProof) ([]byte, error) {
	out := make([]byte, 2)
	out[0], out[1] = byte(p.Version), byte(p.Version>>8)
	if p.HasAuditor {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	sigmaBytes, err := marshalSigmaProof(p.Proof, transferSecretOrder(p.HasAuditor))
	if err != nil {
		return nil, err
	}
	out = append(out, sigmaBytes...)
	for _, rp := range p.SenderRangeProofs {
		out = append(out, marshalLengthPrefixed(MarshalRangeProof(rp))...)
	}
	for _, rp := range p.RecipRangeProofs {
		out = append(out, marshalLengthPrefixed(MarshalRangeProof(rp))...)
	}
	if p.HasAuditor {
		for _, rp := range p.AuditorRangeProofs {
			out = append(out, marshalLengthPrefixed(MarshalRangeProof(rp))...)
		}
	}
	return out, nil
}

// UnmarshalTransferProof decodes a TransferProof.
func UnmarshalTransferProof(buf []byte) (sigma.TransferProof, error) {
	if len(buf) < 3 {
		return sigma.TransferProof{}, caerr.New(caerr.InvalidEncoding, "wire.UnmarshalTransferProof", "truncated header")
	}
	version := uint16(buf[0]) | uint16(buf[1])<<8
	if err := checkVersion(version); err != nil {
		return sigma.TransferProof{}, err
	}
	hasAuditor := buf[2] != 0
	buf = buf[3:]

	proof, rest, err := unmarshalSigmaProof(buf, transferNumEquations(hasAuditor), transferSecretOrder(hasAuditor))
	if err != nil {
		return sigma.TransferProof{}, err
	}
	out := sigma.TransferProof{Version: version, HasAuditor: hasAuditor, Proof: proof}

	for i := 0; i < elgamal.NumChunks; i++ {
		var block []byte
		block, rest, err = readLengthPrefixed(rest)
		if err != nil {
			return sigma.TransferProof{}, caerr.WrapChunk("wire.UnmarshalTransferProof", "sender-range-proof", i, err)
		}
		rp, err := UnmarshalRangeProof(block)
		if err != nil {
			return sigma.TransferProof{}, caerr.WrapChunk("wire.UnmarshalTransferProof", "sender-range-proof", i, err)
		}
		out.SenderRangeProofs[i] = rp
	}
	for i := 0; i < elgamal.NumChunks; i++ {
		var block []byte
		block, rest, err = readLengthPrefixed(rest)
		if err != nil {
			return sigma.TransferProof{}, caerr.WrapChunk("wire.UnmarshalTransferProof", "recipient-range-proof", i, err)
		}
		rp, err := UnmarshalRangeProof(block)
		if err != nil {
			return sigma.TransferProof{}, caerr.WrapChunk("wire.UnmarshalTransferProof", "recipient-range-proof", i, err)
		}
		out.RecipRangeProofs[i] = rp
	}
	if hasAuditor {
		for i := 0; i < elgamal.NumChunks; i++ {
			var block []byte
			block, rest, err = readLengthPrefixed(rest)
			if err != nil {
				return sigma.TransferProof{}, caerr.WrapChunk("wire.UnmarshalTransferProof", "auditor-range-proof", i, err)
			}
			rp, err := UnmarshalRangeProof(block)
			if err != nil {
				return sigma.TransferProof{}, caerr.WrapChunk("wire.UnmarshalTransferProof", "auditor-range-proof", i, err)
			}
			out.AuditorRangeProofs[i] = rp
		}
	}
	return out, nil
}
