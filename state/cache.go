package state

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/moveguard/confidential-core/caerr"
	"github.com/moveguard/confidential-core/wire"
)

// cacheKey identifies one (account, token) pair's cached record.
type cacheKey struct {
	account string
	token   string
}

func (k cacheKey) bytes() []byte {
	return []byte(k.account + "\x00" + k.token)
}

// Cache is the client's local mirror of BalanceRecord per (account, token):
// an in-memory LRU for hot lookups backed by an on-disk pebble store, so a
// restarted client doesn't have to refetch every account's state before its
// first operation. Grounded on the teacher's db/pebbledb wrapper
// (github.com/cockroachdb/pebble) for the disk tier and the teacher's
// broader use of an LRU-style hot path for frequently read, rarely written
// state.
type Cache struct {
	mu  sync.RWMutex
	db  *pebble.DB
	hot *lru.Cache[cacheKey, BalanceRecord]
}

// Open creates (or reopens) a Cache at dir with a hot-tier capacity of
// hotSize entries.
func Open(dir string, hotSize int) (*Cache, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("state: open pebble cache at %q: %w", dir, err)
	}
	hot, err := lru.New[cacheKey, BalanceRecord](hotSize)
	if err != nil {
		return nil, fmt.Errorf("state: create hot cache: %w", err)
	}
	return &Cache{db: db, hot: hot}, nil
}

// Close releases the on-disk database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached record for (account, token), if any, preferring
// the hot tier and falling back to disk.
func (c *Cache) Get(account, token string) (BalanceRecord, bool, error) {
	key := cacheKey{account: account, token: token}

	c.mu.RLock()
	if rec, ok := c.hot.Get(key); ok {
		c.mu.RUnlock()
		return rec, true, nil
	}
	c.mu.RUnlock()

	raw, closer, err := c.db.Get(key.bytes())
	if err == pebble.ErrNotFound {
		return BalanceRecord{}, false, nil
	}
	if err != nil {
		return BalanceRecord{}, false, caerr.Wrap(caerr.RpcError, "state.Cache.Get", "pebble-read", err)
	}
	rec, decodeErr := decodeRecord(raw)
	closeErr := closer.Close()
	if decodeErr != nil {
		return BalanceRecord{}, false, caerr.Wrap(caerr.InvalidEncoding, "state.Cache.Get", "decode", decodeErr)
	}
	if closeErr != nil {
		return BalanceRecord{}, false, caerr.Wrap(caerr.RpcError, "state.Cache.Get", "pebble-close", closeErr)
	}

	c.mu.Lock()
	c.hot.Add(key, rec)
	c.mu.Unlock()
	return rec, true, nil
}

// Put stores the freshest observed record for (account, token), refreshing
// both tiers. Callers MUST do this right after every successful chain read
// and before building a proof against the result, per spec §4.6.
func (c *Cache) Put(account, token string, rec BalanceRecord) error {
	key := cacheKey{account: account, token: token}
	raw := encodeRecord(rec)
	if err := c.db.Set(key.bytes(), raw, pebble.Sync); err != nil {
		return caerr.Wrap(caerr.RpcError, "state.Cache.Put", "pebble-write", err)
	}
	c.mu.Lock()
	c.hot.Add(key, rec)
	c.mu.Unlock()
	return nil
}

// Invalidate drops a cached record from both the hot tier and pebble,
// forcing the next Get to miss.
func (c *Cache) Invalidate(account, token string) {
	key := cacheKey{account: account, token: token}
	c.mu.Lock()
	c.hot.Remove(key)
	c.mu.Unlock()
	_ = c.db.Delete(key.bytes(), pebble.Sync)
}

// encodeRecord/decodeRecord lay out a BalanceRecord as: encryption key (32
// bytes) ‖ pending (512 bytes) ‖ available (512 bytes) ‖ flags (1 byte:
// bit0=IsFrozen, bit1=IsNormalized) ‖ sequence number (8 bytes LE).
func encodeRecord(rec BalanceRecord) []byte {
	out := make([]byte, 0, 32+512+512+1+8)
	out = append(out, wire.MarshalPoint(rec.EncryptionKey)...)
	out = append(out, wire.MarshalChunkedCiphertext(rec.Pending)...)
	out = append(out, wire.MarshalChunkedCiphertext(rec.Available)...)
	var flags byte
	if rec.IsFrozen {
		flags |= 1
	}
	if rec.IsNormalized {
		flags |= 2
	}
	out = append(out, flags)
	seq := rec.SequenceNumber
	for i := 0; i < 8; i++ {
		out = append(out, byte(seq))
		seq >>= 8
	}
	return out
}

func decodeRecord(buf []byte) (BalanceRecord, error) {
	const want = 32 + 512 + 512 + 1 + 8
	if len(buf) != want {
		return BalanceRecord{}, fmt.Errorf("state: record must be %d bytes, got %d", want, len(buf))
	}
	pub, err := wire.UnmarshalPoint(buf[:32])
	if err != nil {
		return BalanceRecord{}, err
	}
	pending, err := wire.UnmarshalChunkedCiphertext(buf[32 : 32+512])
	if err != nil {
		return BalanceRecord{}, err
	}
	available, err := wire.UnmarshalChunkedCiphertext(buf[32+512 : 32+1024])
	if err != nil {
		return BalanceRecord{}, err
	}
	flags := buf[32+1024]
	seqBytes := buf[32+1024+1 : 32+1024+1+8]
	var seq uint64
	for i := 7; i >= 0; i-- {
		seq = seq<<8 | uint64(seqBytes[i])
	}
	return BalanceRecord{
		EncryptionKey:  pub,
		Pending:        pending,
		Available:      available,
		IsFrozen:       flags&1 != 0,
		IsNormalized:   flags&2 != 0,
		SequenceNumber: seq,
	}, nil
}
