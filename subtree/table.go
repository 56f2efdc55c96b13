// Package subtree memoizes optimal results by candidate set. The optimal
// strategy for a set depends only on its contents, never on the guesses
// that led to it, so identical sets reached through different histories
// share one entry.
package subtree

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/sethoscope/wordle-brute/candidates"
)

// Cache is all the solver needs from a subtree store.
type Cache interface {
	Lookup(set candidates.Set) (Entry, bool)
	Store(set candidates.Set, entry Entry)
	Exists(set candidates.Set) bool
}

// Layered caches sit on top of a read-only, preloaded base layer.
type Layered interface {
	Cache
	LookupLocal(set candidates.Set) (Entry, bool)
	LookupBase(set candidates.Set) (Entry, bool)
	// Override stores entry in the local layer whatever the policy says,
	// shadowing the base.
	Override(set candidates.Set, entry Entry)
}

// Policy decides which sets are worth keeping. Small sets are cheap to
// recompute; large sets are rarely revisited and there are too many of
// them.
type Policy struct {
	MinSetSize int
	// MaxSetSize of 0 means no upper limit.
	MaxSetSize int
	// MemoryFraction is the share of system memory the table may use. 0
	// means no limit.
	MemoryFraction float64
}

func DefaultPolicy() Policy {
	return Policy{MinSetSize: 3}
}

func (p Policy) Admits(size int) bool {
	return size >= p.MinSetSize && (p.MaxSetSize <= 0 || size <= p.MaxSetSize)
}

const numShards = 64

// rough per-record cost of a map slot plus slice headers.
const recordOverhead = 96

type record struct {
	members []uint16
	entry   Entry
}

type shard struct {
	sync.RWMutex
	entries map[uint64]record
}

// Record is a table entry together with the set it describes.
type Record struct {
	Members []uint16
	Entry   Entry
}

// Table is a sharded, lock-guarded subtree cache. Shards are picked by
// the set's zobrist hash; a record found under the right hash but with
// different members is a collision and counts as a miss.
type Table struct {
	policy Policy
	base   *Table
	shards [numShards]shard

	budget int64
	used   atomic.Int64
	full   atomic.Bool

	entries    atomic.Int64
	lookups    atomic.Uint64
	hits       atomic.Uint64
	baseHits   atomic.Uint64
	stores     atomic.Uint64
	rejected   atomic.Uint64
	collisions atomic.Uint64
}

// NewTable creates an empty table. base, if not nil, is consulted after
// this table and is never written to.
func NewTable(policy Policy, base *Table) *Table {
	t := &Table{policy: policy, base: base}
	for i := range t.shards {
		t.shards[i].entries = make(map[uint64]record)
	}
	if policy.MemoryFraction > 0 {
		totalMem := memory.TotalMemory()
		t.budget = max(1, int64(policy.MemoryFraction*float64(totalMem)))
		log.Debug().Int64("budget-bytes", t.budget).
			Uint64("total-system-memory-bytes", totalMem).
			Msg("subtree-table-budget")
	}
	return t
}

func (t *Table) Policy() Policy {
	return t.policy
}

func (t *Table) Base() *Table {
	return t.base
}

func (t *Table) shardFor(set candidates.Set) *shard {
	return &t.shards[set.Hash()&(numShards-1)]
}

func (t *Table) get(set candidates.Set) (Entry, bool) {
	sh := t.shardFor(set)
	sh.RLock()
	rec, ok := sh.entries[set.Hash()]
	sh.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if !slices.Equal(rec.members, set.Members()) {
		t.collisions.Add(1)
		return Entry{}, false
	}
	return rec.entry, true
}

// Lookup checks this table, then the base.
func (t *Table) Lookup(set candidates.Set) (Entry, bool) {
	t.lookups.Add(1)
	if e, ok := t.get(set); ok {
		t.hits.Add(1)
		return e, true
	}
	if t.base != nil {
		if e, ok := t.base.get(set); ok {
			t.hits.Add(1)
			t.baseHits.Add(1)
			return e, true
		}
	}
	return Entry{}, false
}

func (t *Table) LookupLocal(set candidates.Set) (Entry, bool) {
	t.lookups.Add(1)
	e, ok := t.get(set)
	if ok {
		t.hits.Add(1)
	}
	return e, ok
}

func (t *Table) LookupBase(set candidates.Set) (Entry, bool) {
	if t.base == nil {
		return Entry{}, false
	}
	e, ok := t.base.get(set)
	if ok {
		t.baseHits.Add(1)
	}
	return e, ok
}

func (t *Table) Exists(set candidates.Set) bool {
	if _, ok := t.get(set); ok {
		return true
	}
	if t.base != nil {
		_, ok := t.base.get(set)
		return ok
	}
	return false
}

// Store keeps the entry if the policy admits the set's size and the
// memory budget allows it.
func (t *Table) Store(set candidates.Set, entry Entry) {
	if !t.policy.Admits(set.Len()) {
		return
	}
	t.put(set.Members(), set.Hash(), entry)
}

// Override stores entry regardless of the size policy; the memory budget
// still applies.
func (t *Table) Override(set candidates.Set, entry Entry) {
	t.put(set.Members(), set.Hash(), entry)
}

func (t *Table) put(members []uint16, hash uint64, entry Entry) bool {
	cost := int64(recordOverhead + 2*len(members) + 8*len(entry.Histogram))
	if t.budget > 0 && t.used.Load()+cost > t.budget {
		t.rejected.Add(1)
		if t.full.CompareAndSwap(false, true) {
			log.Warn().Int64("budget-bytes", t.budget).Int64("entries", t.entries.Load()).
				Msg("subtree-table-full")
		}
		return false
	}
	sh := &t.shards[hash&(numShards-1)]
	sh.Lock()
	old, replaced := sh.entries[hash]
	// just overwrite whatever is there.
	sh.entries[hash] = record{members: members, entry: entry}
	sh.Unlock()
	if replaced {
		t.used.Add(-int64(recordOverhead + 2*len(old.members) + 8*len(old.entry.Histogram)))
	} else {
		t.entries.Add(1)
	}
	t.used.Add(cost)
	t.stores.Add(1)
	return true
}

// Load inserts records regardless of the size policy; the memory budget
// still applies. It returns how many were kept.
func (t *Table) Load(records []Record, hash func([]uint16) uint64) int {
	n := 0
	for _, r := range records {
		if t.put(r.Members, hash(r.Members), r.Entry) {
			n++
		}
	}
	return n
}

func (t *Table) records() []Record {
	var out []Record
	for i := range t.shards {
		sh := &t.shards[i]
		sh.RLock()
		for _, rec := range sh.entries {
			out = append(out, Record{Members: rec.members, Entry: rec.entry})
		}
		sh.RUnlock()
	}
	return out
}

// Records snapshots the table. With includeBase, base records that this
// table does not override are appended.
func (t *Table) Records(includeBase bool) []Record {
	out := t.records()
	if !includeBase || t.base == nil {
		return out
	}
	local := make(map[string]bool, len(out))
	for _, r := range out {
		local[Key(r.Members)] = true
	}
	for _, r := range t.base.records() {
		if !local[Key(r.Members)] {
			out = append(out, r)
		}
	}
	return out
}

// Key identifies a member list; it matches candidates.Set.Key.
func Key(members []uint16) string {
	b := make([]byte, 0, 2*len(members))
	for _, m := range members {
		b = append(b, byte(m), byte(m>>8))
	}
	return string(b)
}

// Len is the number of entries in this layer.
func (t *Table) Len() int {
	return int(t.entries.Load())
}

type Stats struct {
	Entries    int
	BytesUsed  int64
	Lookups    uint64
	Hits       uint64
	BaseHits   uint64
	Stores     uint64
	Rejected   uint64
	Collisions uint64
}

func (s Stats) HitRate() float64 {
	if s.Lookups == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Lookups)
}

func (t *Table) Stats() Stats {
	return Stats{
		Entries:    t.Len(),
		BytesUsed:  t.used.Load(),
		Lookups:    t.lookups.Load(),
		Hits:       t.hits.Load(),
		BaseHits:   t.baseHits.Load(),
		Stores:     t.stores.Load(),
		Rejected:   t.rejected.Load(),
		Collisions: t.collisions.Load(),
	}
}

// LogStats writes the counters at info level.
func (t *Table) LogStats(msg string) {
	s := t.Stats()
	log.Info().
		Int("entries", s.Entries).
		Int64("bytes-used", s.BytesUsed).
		Uint64("lookups", s.Lookups).
		Uint64("hits", s.Hits).
		Uint64("base-hits", s.BaseHits).
		Uint64("stores", s.Stores).
		Uint64("rejected", s.Rejected).
		Uint64("collisions", s.Collisions).
		Float64("hit-rate", s.HitRate()).
		Msg(msg)
}
