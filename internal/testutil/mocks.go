// Package testutil provides hand-rolled doubles of domain interfaces shared by
// tests in several packages.
package testutil

import (
	"context"
	"sync"

	"github.com/SharedMindsApp/SharedMindsMobileApp-sub009/internal/domain"
)

// MockAuditRepo records audit entries in memory. Set InsertErr to make every
// insert fail.
type MockAuditRepo struct {
	InsertErr error

	mu      sync.Mutex
	entries []domain.AuditEntry
}

var _ domain.AuditRepository = (*MockAuditRepo)(nil)

func (m *MockAuditRepo) Insert(_ context.Context, e *domain.AuditEntry) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, *e)
	return nil
}

func (m *MockAuditRepo) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range m.entries {
		if filter.ActorID != nil && e.ActorID != *filter.ActorID {
			continue
		}
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		out = append(out, e)
	}
	return out, int64(len(out)), nil
}

// Actions returns the recorded actions in insertion order.
func (m *MockAuditRepo) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	actions := make([]string, len(m.entries))
	for i, e := range m.entries {
		actions[i] = e.Action
	}
	return actions
}

// StubEntity is a fixed domain.Entity.
type StubEntity struct {
	EntityRef domain.EntityRef
	Owner     string
	Archived  bool
}

func (s StubEntity) Ref() domain.EntityRef            { return s.EntityRef }
func (s StubEntity) IsOwnedBy(profileID string) bool { return s.Owner == profileID }
func (s StubEntity) IsArchived() bool                { return s.Archived }

// MockEntityLoader serves entities from a map, or returns Err for every load.
// Missing ids yield a not-found error.
type MockEntityLoader struct {
	Entities map[string]StubEntity
	Err      error
}

var _ domain.EntityLoader = (*MockEntityLoader)(nil)

func (m *MockEntityLoader) Load(_ context.Context, id string) (domain.Entity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	e, ok := m.Entities[id]
	if !ok {
		return nil, domain.ErrNotFound("entity %s not found", id)
	}
	return e, nil
}
