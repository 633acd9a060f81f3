package orchestrator

import "encoding/binary"

// packUint64 encodes n as the 8-byte little-endian argument the chain's
// entry functions expect for amount_u64 parameters (spec §6.2).
func packUint64(n uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, n)
	return buf
}

// accountBytes / tokenBytes convert the string addresses used at this
// package's boundary into the raw bytes the Sigma transcript absorbs
// (spec §4.4.5: "account address bytes" / "token address bytes").
func accountBytes(account string) []byte { return []byte(account) }
func tokenBytes(token string) []byte     { return []byte(token) }
