// Package reporting implements the rent-payment credit-reporting batch
// pipeline: consent-aware validation, the batch approval state machine,
// artifact export, and the append-only audit trail. It never talks to
// any external bureau; the only artifact it produces is the payload
// returned to the caller.
package reporting

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rent-credit-reporting-backend/internal/metrics"
	"rent-credit-reporting-backend/internal/models"
)

type Service struct {
	store Store
	log   *logrus.Logger
}

func NewService(store Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

// ValidationResult is the outcome of one validation pass.
type ValidationResult struct {
	Status     Status
	IssueCount int
	ValidCount int
}

// ActionResult is the outcome of a manual batch action. Artifact is
// set only for exports.
type ActionResult struct {
	Status   Status
	Artifact *Artifact
}

// BatchDetail is the operator view of one batch: status plus the
// itemized issue list and the audit trail.
type BatchDetail struct {
	Batch  models.Batch
	Issues []models.Issue
	Audit  []models.AuditLog
}

// Validate runs the ordered rule set over every entry in the batch
// against one bulk-loaded consent snapshot, replaces the batch's issue
// ledger, and sets the verdict: ready_for_review on a clean pass,
// blocked otherwise. Re-running it with unchanged inputs yields the
// same issues and status.
func (s *Service) Validate(ctx context.Context, batchID, adminID uuid.UUID) (*ValidationResult, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	records, err := s.store.EntriesWithTenants(ctx, batchID)
	if err != nil {
		return nil, err
	}

	// One consent query for the whole batch, so every entry is judged
	// against the same consent snapshot.
	tenantIDs := distinctTenantIDs(records)
	consents, err := s.store.ConsentsByTenant(ctx, tenantIDs, ConsentTypeRentReporting)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var issues []models.Issue
	validCount := 0
	for _, rec := range records {
		in := ruleInput{record: rec}
		in.snap, in.snapErr = rec.Entry.Snapshot()
		if c, ok := consents[rec.Entry.TenantID]; ok {
			in.consent = &c
		}
		finding := evaluate(in)
		if finding == nil {
			validCount++
			continue
		}
		issues = append(issues, models.Issue{
			ID:          uuid.New(),
			BatchID:     batchID,
			EntryID:     rec.Entry.ID,
			IssueType:   finding.Type,
			Description: finding.Description,
			CreatedAt:   now,
		})
		metrics.ValidationIssuesTotal.WithLabelValues(finding.Type).Inc()
	}

	verdict := StatusReadyForReview
	if len(issues) > 0 {
		verdict = StatusBlocked
	}

	// Issue replacement and the status write land together or not at
	// all; a reader must never see the verdict with stale issues.
	if err := s.store.ReplaceIssues(ctx, batchID, issues, verdict); err != nil {
		return nil, err
	}

	if err := s.audit(ctx, batchID, adminID, ActionValidate, map[string]any{
		"valid_count": validCount,
		"issue_count": len(issues),
		"outcome":     string(verdict),
	}); err != nil {
		return nil, err
	}

	metrics.BatchActionsTotal.WithLabelValues(string(ActionValidate), string(verdict)).Inc()
	s.log.WithFields(logrus.Fields{
		"batch_id":    batchID,
		"period":      batch.ReportingPeriod,
		"actor":       adminID,
		"valid_count": validCount,
		"issue_count": len(issues),
		"status":      verdict,
	}).Info("batch validated")

	return &ValidationResult{Status: verdict, IssueCount: len(issues), ValidCount: validCount}, nil
}

// Apply dispatches one manual batch action through the transition
// table. Illegal transitions fail before anything is written, audit
// row included.
func (s *Service) Apply(ctx context.Context, batchID uuid.UUID, action Action, adminID uuid.UUID) (*ActionResult, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	current := Status(batch.Status)
	next, err := Next(current, action)
	if err != nil {
		metrics.BatchActionsTotal.WithLabelValues(string(action), "rejected").Inc()
		return nil, err
	}

	var result *ActionResult
	switch action {
	case ActionApprove:
		result, err = s.approve(ctx, batch, next, adminID)
	case ActionBlock:
		result, err = s.block(ctx, batch, next, adminID)
	case ActionExportCSV, ActionExportJSON:
		result, err = s.export(ctx, batch, action, adminID)
	default:
		return nil, ErrBadAction
	}
	if err != nil {
		metrics.BatchActionsTotal.WithLabelValues(string(action), "rejected").Inc()
		return nil, err
	}

	metrics.BatchActionsTotal.WithLabelValues(string(action), "ok").Inc()
	s.log.WithFields(logrus.Fields{
		"batch_id":   batchID,
		"action":     action,
		"actor":      adminID,
		"old_status": current,
		"new_status": result.Status,
	}).Info("batch action applied")
	return result, nil
}

func (s *Service) approve(ctx context.Context, batch *models.Batch, next Status, adminID uuid.UUID) (*ActionResult, error) {
	// Compare-and-set: two admins approving concurrently must not both
	// succeed, so the precondition re-checks at write time.
	now := time.Now().UTC()
	if err := s.store.Approve(ctx, batch.ID, StatusReadyForReview, next, adminID, now); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, batch.ID, adminID, ActionApprove, map[string]any{
		"old_status": batch.Status,
		"new_status": string(next),
	}); err != nil {
		return nil, err
	}
	return &ActionResult{Status: next}, nil
}

func (s *Service) block(ctx context.Context, batch *models.Batch, next Status, adminID uuid.UUID) (*ActionResult, error) {
	// Manual override, legal from any state. Existing issues stay as
	// they are.
	if err := s.store.SetStatus(ctx, batch.ID, next); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, batch.ID, adminID, ActionBlock, map[string]any{
		"old_status": batch.Status,
		"new_status": string(next),
	}); err != nil {
		return nil, err
	}
	return &ActionResult{Status: next}, nil
}

func (s *Service) export(ctx context.Context, batch *models.Batch, action Action, adminID uuid.UUID) (*ActionResult, error) {
	records, err := s.store.EntriesWithTenants(ctx, batch.ID)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Filename: exportFilename(batch, action),
		Count:    len(records),
	}
	switch action {
	case ActionExportCSV:
		artifact.CSV, err = renderCSV(batch, records)
	case ActionExportJSON:
		artifact.Data, err = renderJSON(batch, records)
	}
	if err != nil {
		return nil, err
	}

	// Only the first export transitions the batch; an already-exported
	// batch serves the artifact again with no status write.
	if Status(batch.Status) == StatusApprovedForExport {
		now := time.Now().UTC()
		if err := s.store.MarkExported(ctx, batch.ID, StatusApprovedForExport, StatusExported, now); err != nil {
			return nil, err
		}
	}

	format := "csv"
	if action == ActionExportJSON {
		format = "json"
	}
	if err := s.audit(ctx, batch.ID, adminID, action, map[string]any{
		"format": format,
		"count":  len(records),
	}); err != nil {
		return nil, err
	}
	return &ActionResult{Status: StatusExported, Artifact: artifact}, nil
}

// ListBatches returns every batch with its entry and issue counts.
func (s *Service) ListBatches(ctx context.Context) ([]BatchSummary, error) {
	return s.store.ListBatches(ctx)
}

// GetBatchDetail returns one batch with its issues and audit trail.
func (s *Service) GetBatchDetail(ctx context.Context, batchID uuid.UUID) (*BatchDetail, error) {
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	issues, err := s.store.IssuesForBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	audit, err := s.store.AuditTrail(ctx, batchID)
	if err != nil {
		return nil, err
	}
	return &BatchDetail{Batch: *batch, Issues: issues, Audit: audit}, nil
}

func (s *Service) audit(ctx context.Context, batchID, actorID uuid.UUID, action Action, meta map[string]any) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.store.AppendAudit(ctx, &models.AuditLog{
		ID:           uuid.New(),
		BatchID:      batchID,
		ActorAdminID: actorID,
		Action:       string(action),
		Metadata:     raw,
		CreatedAt:    time.Now().UTC(),
	})
}

func distinctTenantIDs(records []EntryRecord) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(records))
	out := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		if !seen[rec.Entry.TenantID] {
			seen[rec.Entry.TenantID] = true
			out = append(out, rec.Entry.TenantID)
		}
	}
	return out
}
