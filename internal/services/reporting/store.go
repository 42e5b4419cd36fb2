package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rent-credit-reporting-backend/internal/models"
)

// ConsentTypeRentReporting is the consent purpose this pipeline checks.
const ConsentTypeRentReporting = "rent_reporting"

// EntryRecord is an entry joined with the minimal tenant identity
// fields validation and export need.
type EntryRecord struct {
	Entry          models.Entry
	TenantFullName string
	TenantEmail    string
}

// BatchSummary is a batch with its aggregate counts, for operator
// listings.
type BatchSummary struct {
	Batch      models.Batch
	EntryCount int64
	IssueCount int64
}

// Store persists reporting pipeline state. Batch status never changes
// except through SetStatus, ReplaceIssues, Approve and MarkExported.
type Store interface {
	GetBatch(ctx context.Context, id uuid.UUID) (*models.Batch, error)
	ListBatches(ctx context.Context) ([]BatchSummary, error)

	// EntriesWithTenants loads a batch's entries joined with tenant
	// identity, ordered by entry id for stable exports.
	EntriesWithTenants(ctx context.Context, batchID uuid.UUID) ([]EntryRecord, error)

	// ConsentsByTenant bulk-loads consent rows for the given tenants and
	// purpose in one query, so a validation pass sees one consistent
	// consent snapshot.
	ConsentsByTenant(ctx context.Context, tenantIDs []uuid.UUID, consentType string) (map[uuid.UUID]models.Consent, error)

	// ReplaceIssues deletes every prior issue for the batch, inserts the
	// given ones, and sets the batch status, all in one atomic unit. A
	// reader must never see the new status with the old issues.
	ReplaceIssues(ctx context.Context, batchID uuid.UUID, issues []models.Issue, status Status) error

	IssuesForBatch(ctx context.Context, batchID uuid.UUID) ([]models.Issue, error)

	// Approve conditionally moves the batch from `from` to `to`,
	// stamping approved_at/approved_by. The check and the write are one
	// compare-and-set; a concurrent loser gets ErrStateTransition.
	Approve(ctx context.Context, batchID uuid.UUID, from, to Status, approvedBy uuid.UUID, at time.Time) error

	// MarkExported conditionally moves the batch from `from` to `to`,
	// stamping exported_at, with the same compare-and-set discipline.
	MarkExported(ctx context.Context, batchID uuid.UUID, from, to Status, at time.Time) error

	// SetStatus unconditionally sets the batch status (manual block).
	SetStatus(ctx context.Context, batchID uuid.UUID, status Status) error

	// AppendAudit appends one audit row. Audit rows are never updated
	// or deleted.
	AppendAudit(ctx context.Context, entry *models.AuditLog) error

	AuditTrail(ctx context.Context, batchID uuid.UUID) ([]models.AuditLog, error)
}
