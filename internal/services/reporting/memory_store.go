package reporting

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"rent-credit-reporting-backend/internal/models"
)

type consentKey struct {
	userID      uuid.UUID
	consentType string
}

// MemoryStore is an in-memory Store used by tests and local
// development. All mutating interface methods take the write lock, so
// ReplaceIssues and the compare-and-set updates are atomic the same
// way the postgres implementation's transactions are.
type MemoryStore struct {
	mu       sync.RWMutex
	batches  map[uuid.UUID]*models.Batch
	entries  map[uuid.UUID][]models.Entry
	tenants  map[uuid.UUID]models.Tenant
	consents map[consentKey]models.Consent
	issues   map[uuid.UUID][]models.Issue
	audits   map[uuid.UUID][]models.AuditLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches:  make(map[uuid.UUID]*models.Batch),
		entries:  make(map[uuid.UUID][]models.Entry),
		tenants:  make(map[uuid.UUID]models.Tenant),
		consents: make(map[consentKey]models.Consent),
		issues:   make(map[uuid.UUID][]models.Issue),
		audits:   make(map[uuid.UUID][]models.AuditLog),
	}
}

// Seed helpers, used by tests and local fixtures. These populate the
// externally owned collaborators (batch generator, onboarding, consent
// service) that the pipeline itself never writes.

func (m *MemoryStore) AddBatch(b models.Batch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := b
	m.batches[b.ID] = &cp
}

func (m *MemoryStore) AddEntry(e models.Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.BatchID] = append(m.entries[e.BatchID], e)
}

func (m *MemoryStore) PutTenant(t models.Tenant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
}

func (m *MemoryStore) PutConsent(c models.Consent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consents[consentKey{c.UserID, c.ConsentType}] = c
}

func (m *MemoryStore) GetBatch(_ context.Context, id uuid.UUID) (*models.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *MemoryStore) ListBatches(_ context.Context) ([]BatchSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]BatchSummary, 0, len(m.batches))
	for id, b := range m.batches {
		out = append(out, BatchSummary{
			Batch:      *b,
			EntryCount: int64(len(m.entries[id])),
			IssueCount: int64(len(m.issues[id])),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Batch.ReportingPeriod < out[j].Batch.ReportingPeriod
	})
	return out, nil
}

func (m *MemoryStore) EntriesWithTenants(_ context.Context, batchID uuid.UUID) ([]EntryRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.entries[batchID]
	out := make([]EntryRecord, 0, len(entries))
	for _, e := range entries {
		rec := EntryRecord{Entry: e}
		if t, ok := m.tenants[e.TenantID]; ok {
			rec.TenantFullName = t.FullName
			rec.TenantEmail = t.Email
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Entry.ID.String() < out[j].Entry.ID.String()
	})
	return out, nil
}

func (m *MemoryStore) ConsentsByTenant(_ context.Context, tenantIDs []uuid.UUID, consentType string) (map[uuid.UUID]models.Consent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]models.Consent, len(tenantIDs))
	for _, id := range tenantIDs {
		if c, ok := m.consents[consentKey{id, consentType}]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func (m *MemoryStore) ReplaceIssues(_ context.Context, batchID uuid.UUID, issues []models.Issue, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[batchID]
	if !ok {
		return ErrNotFound
	}
	m.issues[batchID] = append([]models.Issue(nil), issues...)
	b.Status = string(status)
	return nil
}

func (m *MemoryStore) IssuesForBatch(_ context.Context, batchID uuid.UUID) ([]models.Issue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Issue(nil), m.issues[batchID]...), nil
}

func (m *MemoryStore) Approve(_ context.Context, batchID uuid.UUID, from, to Status, approvedBy uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[batchID]
	if !ok {
		return ErrNotFound
	}
	if b.Status != string(from) {
		return fmt.Errorf("%w: batch moved to %q", ErrStateTransition, b.Status)
	}
	b.Status = string(to)
	b.ApprovedAt = &at
	b.ApprovedBy = &approvedBy
	return nil
}

func (m *MemoryStore) MarkExported(_ context.Context, batchID uuid.UUID, from, to Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[batchID]
	if !ok {
		return ErrNotFound
	}
	if b.Status != string(from) {
		return fmt.Errorf("%w: batch moved to %q", ErrStateTransition, b.Status)
	}
	b.Status = string(to)
	b.ExportedAt = &at
	return nil
}

func (m *MemoryStore) SetStatus(_ context.Context, batchID uuid.UUID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[batchID]
	if !ok {
		return ErrNotFound
	}
	b.Status = string(status)
	return nil
}

func (m *MemoryStore) AppendAudit(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[entry.BatchID] = append(m.audits[entry.BatchID], *entry)
	return nil
}

func (m *MemoryStore) AuditTrail(_ context.Context, batchID uuid.UUID) ([]models.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.AuditLog(nil), m.audits[batchID]...), nil
}
