package elgamal

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/moveguard/confidential-core/group"
)

// dlogTable is a baby-step table for one bit-length: maps the canonical
// encoding of i·G₀ to i, for i in [0, 2^(maxBits/2)). Grounded on the
// teacher's BabyStepGiantStepECC (crypto/elgamal/elgamal.go), generalized
// to be cached per bit-length rather than a single fixed size.
type dlogTable struct {
	babyStep map[string]uint64
	m        uint64 // step size, 2^(maxBits/2)
}

var (
	tableCache   sync.Map // map[uint]*dlogTable
	tableBuildMu sync.Mutex
)

func getTable(maxBits uint) *dlogTable {
	if v, ok := tableCache.Load(maxBits); ok {
		return v.(*dlogTable)
	}
	// Idempotent construction: only one goroutine builds a given table; a
	// racing second caller blocks briefly rather than duplicating the work.
	tableBuildMu.Lock()
	defer tableBuildMu.Unlock()
	if v, ok := tableCache.Load(maxBits); ok {
		return v.(*dlogTable)
	}
	t := buildTable(maxBits)
	tableCache.Store(maxBits, t)
	return t
}

func buildTable(maxBits uint) *dlogTable {
	m := uint64(1) << (maxBits / 2)
	table := make(map[string]uint64, m)
	acc := group.Identity()
	g := group.Generator()
	for i := uint64(0); i < m; i++ {
		table[string(acc.Marshal())] = i
		acc = acc.Add(g)
	}
	return &dlogTable{babyStep: table, m: m}
}

// SolveDLog finds 0 <= x < 2^maxBits such that x·G₀ == target, via
// baby-step/giant-step with a shared, process-wide precomputed table
// (spec §5's "DL-search baby-step table is shared read-only across all
// operations after one-time initialization").
func SolveDLog(target group.Point, maxBits uint) (uint64, error) {
	t := getTable(maxBits)
	g := group.Generator()
	giantStride := g.ScalarMult(new(big.Int).SetUint64(t.m))

	cursor := target
	for j := uint64(0); j < t.m; j++ {
		if i, ok := t.babyStep[string(cursor.Marshal())]; ok {
			value := j*t.m + i
			max := uint64(1) << maxBits
			if value < max {
				return value, nil
			}
		}
		cursor = cursor.Sub(giantStride)
	}
	return 0, fmt.Errorf("elgamal: discrete log not found within 2^%d", maxBits)
}
