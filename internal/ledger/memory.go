package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/shot-tracker/internal/entity"
)

// MemoryStore keeps ledgers in process memory. Each owner gets its own
// mutex, so appends for one identity serialize while unrelated identities
// proceed in parallel.
type MemoryStore struct {
	owners sync.Map // owner key -> *ownerLedger
}

type ownerLedger struct {
	mu      sync.Mutex
	records []entity.ShotRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, owner entity.Identity, m entity.ShotMetrics) (string, error) {
	if err := checkOwner(owner); err != nil {
		return "", err
	}

	v, _ := s.owners.LoadOrStore(owner.Key, &ownerLedger{})
	l := v.(*ownerLedger)

	rec := entity.ShotRecord{
		ID:        uuid.New().String(),
		Owner:     owner.Key,
		CreatedAt: time.Now().UTC(),
		Metrics:   m,
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()

	return rec.ID, nil
}

func (s *MemoryStore) List(_ context.Context, owner entity.Identity) ([]entity.ShotRecord, error) {
	if err := checkOwner(owner); err != nil {
		return nil, err
	}

	v, ok := s.owners.Load(owner.Key)
	if !ok {
		return []entity.ShotRecord{}, nil
	}
	l := v.(*ownerLedger)

	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]entity.ShotRecord, len(l.records))
	copy(out, l.records)
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
