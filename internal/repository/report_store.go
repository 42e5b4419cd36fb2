package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"rent-credit-reporting-backend/internal/models"
	"rent-credit-reporting-backend/internal/services/reporting"
)

// ReportStore is the postgres-backed reporting.Store.
type ReportStore struct {
	db *gorm.DB
}

func NewReportStore(db *gorm.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Expose DB if needed
func (r *ReportStore) DB() *gorm.DB {
	return r.db
}

func (r *ReportStore) GetBatch(ctx context.Context, id uuid.UUID) (*models.Batch, error) {
	var batch models.Batch
	err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, reporting.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *ReportStore) ListBatches(ctx context.Context) ([]reporting.BatchSummary, error) {
	var batches []models.Batch
	if err := r.db.WithContext(ctx).Order("reporting_period ASC").Find(&batches).Error; err != nil {
		return nil, err
	}

	entryCounts, err := r.countByBatch(ctx, &models.Entry{})
	if err != nil {
		return nil, err
	}
	issueCounts, err := r.countByBatch(ctx, &models.Issue{})
	if err != nil {
		return nil, err
	}

	out := make([]reporting.BatchSummary, 0, len(batches))
	for _, b := range batches {
		out = append(out, reporting.BatchSummary{
			Batch:      b,
			EntryCount: entryCounts[b.ID],
			IssueCount: issueCounts[b.ID],
		})
	}
	return out, nil
}

func (r *ReportStore) countByBatch(ctx context.Context, model any) (map[uuid.UUID]int64, error) {
	var rows []struct {
		BatchID uuid.UUID
		N       int64
	}
	err := r.db.WithContext(ctx).Model(model).
		Select("batch_id, COUNT(*) AS n").
		Group("batch_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		out[row.BatchID] = row.N
	}
	return out, nil
}

type entryTenantRow struct {
	ID        uuid.UUID
	BatchID   uuid.UUID
	TenantID  uuid.UUID
	Payload   datatypes.JSON
	CreatedAt time.Time
	FullName  string
	Email     string
}

func (r *ReportStore) EntriesWithTenants(ctx context.Context, batchID uuid.UUID) ([]reporting.EntryRecord, error) {
	var rows []entryTenantRow
	err := r.db.WithContext(ctx).
		Table("entries").
		Select("entries.id, entries.batch_id, entries.tenant_id, entries.payload, entries.created_at, tenants.full_name, tenants.email").
		Joins("LEFT JOIN tenants ON tenants.id = entries.tenant_id").
		Where("entries.batch_id = ?", batchID).
		Order("entries.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]reporting.EntryRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, reporting.EntryRecord{
			Entry: models.Entry{
				ID:        row.ID,
				BatchID:   row.BatchID,
				TenantID:  row.TenantID,
				Payload:   row.Payload,
				CreatedAt: row.CreatedAt,
			},
			TenantFullName: row.FullName,
			TenantEmail:    row.Email,
		})
	}
	return out, nil
}

func (r *ReportStore) ConsentsByTenant(ctx context.Context, tenantIDs []uuid.UUID, consentType string) (map[uuid.UUID]models.Consent, error) {
	if len(tenantIDs) == 0 {
		return map[uuid.UUID]models.Consent{}, nil
	}
	var consents []models.Consent
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND consent_type = ?", tenantIDs, consentType).
		Find(&consents).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]models.Consent, len(consents))
	for _, c := range consents {
		out[c.UserID] = c
	}
	return out, nil
}

// ReplaceIssues runs the delete-all/re-insert and the status write in
// one transaction, so the verdict and the issue ledger stay in step.
func (r *ReportStore) ReplaceIssues(ctx context.Context, batchID uuid.UUID, issues []models.Issue, status reporting.Status) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id = ?", batchID).Delete(&models.Issue{}).Error; err != nil {
			return err
		}
		if len(issues) > 0 {
			if err := tx.Create(&issues).Error; err != nil {
				return err
			}
		}
		res := tx.Model(&models.Batch{}).Where("id = ?", batchID).Update("status", string(status))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return reporting.ErrNotFound
		}
		return nil
	})
}

func (r *ReportStore) IssuesForBatch(ctx context.Context, batchID uuid.UUID) ([]models.Issue, error) {
	var issues []models.Issue
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&issues).Error
	return issues, err
}

// Approve is a conditional single-statement update: the status
// precondition is part of the WHERE clause, so concurrent approvers
// cannot both succeed.
func (r *ReportStore) Approve(ctx context.Context, batchID uuid.UUID, from, to reporting.Status, approvedBy uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Batch{}).
		Where("id = ? AND status = ?", batchID, string(from)).
		Updates(map[string]any{
			"status":      string(to),
			"approved_at": at,
			"approved_by": approvedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: batch is no longer %s", reporting.ErrStateTransition, from)
	}
	return nil
}

func (r *ReportStore) MarkExported(ctx context.Context, batchID uuid.UUID, from, to reporting.Status, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Batch{}).
		Where("id = ? AND status = ?", batchID, string(from)).
		Updates(map[string]any{
			"status":      string(to),
			"exported_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: batch is no longer %s", reporting.ErrStateTransition, from)
	}
	return nil
}

func (r *ReportStore) SetStatus(ctx context.Context, batchID uuid.UUID, status reporting.Status) error {
	res := r.db.WithContext(ctx).Model(&models.Batch{}).
		Where("id = ?", batchID).
		Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reporting.ErrNotFound
	}
	return nil
}

func (r *ReportStore) AppendAudit(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *ReportStore) AuditTrail(ctx context.Context, batchID uuid.UUID) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
