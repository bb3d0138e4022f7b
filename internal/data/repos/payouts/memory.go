package payouts

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luisovando/payout-orchestrator/internal/domain/payout"
	"github.com/luisovando/payout-orchestrator/internal/platform/dbctx"
)

type memoryKey struct {
	companyID uuid.UUID
	key       string
}

// MemoryStore is a PayoutStore for DB_DRIVER=memory and tests. Insert is an
// atomic check-and-set, which gives it the same uniqueness guarantee as the
// database index.
type MemoryStore struct {
	mu    sync.RWMutex
	byKey map[memoryKey]*payout.Payout
	byID  map[uuid.UUID]*payout.Payout
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byKey: make(map[memoryKey]*payout.Payout),
		byID:  make(map[uuid.UUID]*payout.Payout),
	}
}

func (s *MemoryStore) FindByKey(_ dbctx.Context, companyID uuid.UUID, idempotencyKey string) (*payout.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byKey[memoryKey{companyID, idempotencyKey}]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Insert(_ dbctx.Context, p *payout.Payout) (InsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memoryKey{p.CompanyID, p.IdempotencyKey}
	if _, exists := s.byKey[k]; exists {
		return InsertDuplicateKey, nil
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	cp := *p
	s.byKey[k] = &cp
	s.byID[cp.ID] = &cp
	return InsertCreated, nil
}

func (s *MemoryStore) GetByID(_ dbctx.Context, id uuid.UUID) (*payout.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// Len reports the number of stored payouts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
