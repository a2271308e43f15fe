package routing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BaSui01/agentroute/types"
)

// RecordStore persists transfer history. Implementations must return records
// in chronological order from RecentByContact.
type RecordStore interface {
	// Append stores one transfer record.
	Append(ctx context.Context, rec *types.HandoffRecord) error

	// RecentByContact returns the contact's records with Timestamp >= since,
	// oldest first.
	RecentByContact(ctx context.Context, contactID string, since time.Time) ([]types.HandoffRecord, error)

	// Prune deletes records older than before across all contacts.
	Prune(ctx context.Context, before time.Time) error
}

// MemoryStore keeps records in process memory. Suitable for single-instance
// deployments and tests; multi-instance deployments use the Redis or GORM
// store so the guard rails see transfers made by other instances.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]types.HandoffRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]types.HandoffRecord)}
}

func (s *MemoryStore) Append(_ context.Context, rec *types.HandoffRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ContactID] = append(s.records[rec.ContactID], *rec)
	return nil
}

func (s *MemoryStore) RecentByContact(_ context.Context, contactID string, since time.Time) ([]types.HandoffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []types.HandoffRecord
	for _, rec := range s.records[contactID] {
		if !rec.Timestamp.Before(since) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) Prune(_ context.Context, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for contactID, recs := range s.records {
		kept := recs[:0]
		for _, rec := range recs {
			if !rec.Timestamp.Before(before) {
				kept = append(kept, rec)
			}
		}
		if len(kept) == 0 {
			delete(s.records, contactID)
			continue
		}
		s.records[contactID] = kept
	}
	return nil
}
