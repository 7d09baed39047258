package sections

import (
	"context"
	"sync"

	"github.com/lavrova/rfpdesk/internal/common"
)

// MemoryStore keeps the template record in process memory. Used in tests
// and single-instance dev runs; state resets on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	record  *Record
	consent bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(ctx context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return nil, common.ErrTemplateNotFound
	}
	cp := Record{
		Sections: append([]string(nil), s.record.Sections...),
		Version:  s.record.Version,
	}
	return &cp, nil
}

func (s *MemoryStore) Replace(ctx context.Context, sectionNames []string, expectVersion int64) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current int64
	if s.record != nil {
		current = s.record.Version
	}
	if current != expectVersion {
		return nil, common.ErrVersionConflict
	}

	s.record = &Record{
		Sections: append([]string(nil), sectionNames...),
		Version:  current + 1,
	}
	cp := Record{
		Sections: append([]string(nil), s.record.Sections...),
		Version:  s.record.Version,
	}
	return &cp, nil
}

func (s *MemoryStore) ConsentGranted(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.consent, nil
}

func (s *MemoryStore) GrantConsent(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consent = true
	return nil
}
