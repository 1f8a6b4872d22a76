package core

import (
	"sync"
	"time"
)

// JournalEntry records one allocate or deallocate event against the
// global, append-only journal (spec §6.4, C10). The journal is
// intentionally non-persistent: it exists for in-process auditing and
// usage rollups, not as a durable ledger (spec §6.4 "non-persistent").
type JournalEntry struct {
	AssetID   AssetId
	Kind      AssetKind
	Action    string // "allocate" or "deallocate"
	Timestamp time.Time
	OwnerID   string
}

// AllocationJournal is an in-memory, append-only record of every
// allocation and deallocation the asset manager performs.
type AllocationJournal struct {
	mu      sync.RWMutex
	entries []JournalEntry
}

func NewAllocationJournal() *AllocationJournal {
	return &AllocationJournal{}
}

func (j *AllocationJournal) Append(entry JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

// Entries returns a snapshot copy of the journal in append order.
func (j *AllocationJournal) Entries() []JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]JournalEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

// UsageByKind rolls up net allocate-minus-deallocate counts per kind,
// never going below zero for a kind whose journal is internally
// consistent.
func (j *AllocationJournal) UsageByKind() map[AssetKind]int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make(map[AssetKind]int)
	for _, e := range j.entries {
		switch e.Action {
		case "allocate":
			out[e.Kind]++
		case "deallocate":
			out[e.Kind]--
		}
	}
	return out
}
