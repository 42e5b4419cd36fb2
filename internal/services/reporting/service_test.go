package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rent-credit-reporting-backend/internal/models"
)

var (
	batchID  = uuid.MustParse("10000000-0000-0000-0000-000000000001")
	entry1ID = uuid.MustParse("20000000-0000-0000-0000-000000000001")
	entry2ID = uuid.MustParse("20000000-0000-0000-0000-000000000002")
	tenant1  = uuid.MustParse("30000000-0000-0000-0000-000000000001")
	tenant2  = uuid.MustParse("30000000-0000-0000-0000-000000000002")
	adminID  = uuid.MustParse("40000000-0000-0000-0000-000000000001")
	admin2ID = uuid.MustParse("40000000-0000-0000-0000-000000000002")
)

func testService() (*Service, *MemoryStore) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	store := NewMemoryStore()
	return NewService(store, log), store
}

func goodSnapshot() models.PaymentSnapshot {
	due := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	paid := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	return models.PaymentSnapshot{
		RentAmount: 1450,
		PaidAmount: 1450,
		DueDate:    &due,
		PaidAt:     &paid,
		OnTime:     true,
	}
}

// seedBatch sets up a batch with two entries: tenant1 has valid consent
// and a clean payload, tenant2's consent is revoked.
func seedBatch(store *MemoryStore) {
	store.AddBatch(models.Batch{
		ID:              batchID,
		ReportingPeriod: "2026-08",
		Status:          string(StatusPendingValidation),
		CreatedAt:       time.Now(),
	})
	store.PutTenant(models.Tenant{ID: tenant1, FullName: "Ana Petrova", Email: "ana@example.com"})
	store.PutTenant(models.Tenant{ID: tenant2, FullName: "Ben Okoro", Email: "ben@example.com"})
	store.AddEntry(models.Entry{ID: entry1ID, BatchID: batchID, TenantID: tenant1, Payload: goodSnapshot().Marshal()})

	late := goodSnapshot()
	late.OnTime = false
	late.DaysLate = 12
	store.AddEntry(models.Entry{ID: entry2ID, BatchID: batchID, TenantID: tenant2, Payload: late.Marshal()})

	store.PutConsent(models.Consent{ID: uuid.New(), UserID: tenant1, ConsentType: ConsentTypeRentReporting, Granted: true})
	revoked := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	store.PutConsent(models.Consent{ID: uuid.New(), UserID: tenant2, ConsentType: ConsentTypeRentReporting, Granted: true, RevokedAt: &revoked})
}

func fixConsent(store *MemoryStore) {
	store.PutConsent(models.Consent{ID: uuid.New(), UserID: tenant2, ConsentType: ConsentTypeRentReporting, Granted: true})
}

func TestValidate_RevokedConsentBlocksBatch(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)

	result, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, result.Status)
	assert.Equal(t, 1, result.IssueCount)
	assert.Equal(t, 1, result.ValidCount)

	issues, err := store.IssuesForBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, IssueMissingConsent, issues[0].IssueType)
	assert.Equal(t, entry2ID, issues[0].EntryID)

	batch, err := store.GetBatch(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, string(StatusBlocked), batch.Status)
}

func TestValidate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)

	first, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	firstIssues, _ := store.IssuesForBatch(ctx, batchID)

	second, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	secondIssues, _ := store.IssuesForBatch(ctx, batchID)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.IssueCount, second.IssueCount)
	require.Len(t, secondIssues, len(firstIssues))
	assert.Equal(t, firstIssues[0].EntryID, secondIssues[0].EntryID)
	assert.Equal(t, firstIssues[0].IssueType, secondIssues[0].IssueType)

	// Issues are replaced, not accumulated.
	assert.Len(t, secondIssues, 1)
}

func TestValidate_UnknownBatch(t *testing.T) {
	svc, _ := testService()
	_, err := svc.Validate(context.Background(), uuid.New(), adminID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprove_RejectedWhileBlocked(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)

	_, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)

	_, err = svc.Apply(ctx, batchID, ActionApprove, adminID)
	assert.ErrorIs(t, err, ErrStateTransition)

	// Status unchanged, and the failed attempt left no audit row.
	batch, _ := store.GetBatch(ctx, batchID)
	assert.Equal(t, string(StatusBlocked), batch.Status)
	trail, _ := store.AuditTrail(ctx, batchID)
	assert.Len(t, trail, 1) // just the validate
}

func TestApproveAfterCleanValidation(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)
	fixConsent(store)

	result, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	assert.Equal(t, StatusReadyForReview, result.Status)
	assert.Equal(t, 0, result.IssueCount)

	applied, err := svc.Apply(ctx, batchID, ActionApprove, adminID)
	require.NoError(t, err)
	assert.Equal(t, StatusApprovedForExport, applied.Status)

	batch, _ := store.GetBatch(ctx, batchID)
	require.NotNil(t, batch.ApprovedAt)
	require.NotNil(t, batch.ApprovedBy)
	assert.Equal(t, adminID, *batch.ApprovedBy)
}

func TestExport_RequiresApproval(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)
	fixConsent(store)

	_, err := svc.Apply(ctx, batchID, ActionExportCSV, adminID)
	assert.ErrorIs(t, err, ErrStateTransition)

	_, err = svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, batchID, ActionExportJSON, adminID)
	assert.ErrorIs(t, err, ErrStateTransition)
}

func TestExportCSV_TransitionsAndReDownload(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)
	fixConsent(store)

	_, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, batchID, ActionApprove, adminID)
	require.NoError(t, err)

	first, err := svc.Apply(ctx, batchID, ActionExportCSV, adminID)
	require.NoError(t, err)
	assert.Equal(t, StatusExported, first.Status)
	require.NotNil(t, first.Artifact)
	assert.Equal(t, "credit-report-2026-08.csv", first.Artifact.Filename)
	assert.Equal(t, 2, first.Artifact.Count)

	lines := strings.Split(strings.TrimRight(first.Artifact.CSV, "\n"), "\n")
	require.Len(t, lines, 3) // header + two entries
	assert.Contains(t, first.Artifact.CSV, `"Ana Petrova"`)
	assert.Contains(t, first.Artifact.CSV, `"Ben Okoro"`)

	batch, _ := store.GetBatch(ctx, batchID)
	assert.Equal(t, string(StatusExported), batch.Status)
	require.NotNil(t, batch.ExportedAt)
	exportedAt := *batch.ExportedAt

	// Re-export is a re-download: same artifact, no further transition.
	second, err := svc.Apply(ctx, batchID, ActionExportCSV, adminID)
	require.NoError(t, err)
	assert.Equal(t, first.Artifact.CSV, second.Artifact.CSV)

	batch, _ = store.GetBatch(ctx, batchID)
	assert.Equal(t, string(StatusExported), batch.Status)
	assert.Equal(t, exportedAt, *batch.ExportedAt)
}

func TestExportJSON_FullDump(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)
	fixConsent(store)

	_, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, batchID, ActionApprove, adminID)
	require.NoError(t, err)

	result, err := svc.Apply(ctx, batchID, ActionExportJSON, adminID)
	require.NoError(t, err)
	require.NotNil(t, result.Artifact)
	assert.Equal(t, "credit-report-2026-08.json", result.Artifact.Filename)
	require.Len(t, result.Artifact.Data, 2)

	byTenant := map[uuid.UUID]ExportEntry{}
	for _, e := range result.Artifact.Data {
		byTenant[e.TenantID] = e
	}
	assert.Equal(t, "Ana Petrova", byTenant[tenant1].TenantFullName)
	assert.Equal(t, 1450.0, byTenant[tenant1].RentAmount)
	assert.True(t, byTenant[tenant1].OnTime)
	assert.Equal(t, 12, byTenant[tenant2].DaysLate)
	assert.Equal(t, "2026-08", byTenant[tenant2].ReportingPeriod)
}

func TestBlock_ManualOverrideFromAnyState(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)
	fixConsent(store)

	_, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, batchID, ActionApprove, adminID)
	require.NoError(t, err)

	result, err := svc.Apply(ctx, batchID, ActionBlock, admin2ID)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, result.Status)

	// Blocking does not touch the issue ledger.
	issues, _ := store.IssuesForBatch(ctx, batchID)
	assert.Empty(t, issues)
}

func TestAuditTrail_OneRowPerExecutedAction(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)

	_, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)

	// Precondition failure: raises before any audit write.
	_, err = svc.Apply(ctx, batchID, ActionApprove, adminID)
	require.ErrorIs(t, err, ErrStateTransition)

	fixConsent(store)
	_, err = svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, batchID, ActionApprove, adminID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, batchID, ActionExportCSV, adminID)
	require.NoError(t, err)
	_, err = svc.Apply(ctx, batchID, ActionExportCSV, adminID)
	require.NoError(t, err)

	trail, err := store.AuditTrail(ctx, batchID)
	require.NoError(t, err)

	actions := make([]string, 0, len(trail))
	for _, a := range trail {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []string{"validate", "validate", "approve", "export_csv", "export_csv"}, actions)
}

func TestConcurrentApprove_LoserGetsStateTransitionError(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)
	fixConsent(store)

	_, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)

	// First caller wins the compare-and-set.
	err = store.Approve(ctx, batchID, StatusReadyForReview, StatusApprovedForExport, adminID, time.Now().UTC())
	require.NoError(t, err)

	// Second caller raced past the precondition read; the conditional
	// write must still reject it.
	err = store.Approve(ctx, batchID, StatusReadyForReview, StatusApprovedForExport, admin2ID, time.Now().UTC())
	assert.ErrorIs(t, err, ErrStateTransition)

	batch, _ := store.GetBatch(ctx, batchID)
	assert.Equal(t, adminID, *batch.ApprovedBy)
}

func TestGetBatchDetail(t *testing.T) {
	ctx := context.Background()
	svc, store := testService()
	seedBatch(store)

	_, err := svc.Validate(ctx, batchID, adminID)
	require.NoError(t, err)

	detail, err := svc.GetBatchDetail(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, string(StatusBlocked), detail.Batch.Status)
	assert.Len(t, detail.Issues, 1)
	assert.Len(t, detail.Audit, 1)

	summaries, err := svc.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, int64(2), summaries[0].EntryCount)
	assert.Equal(t, int64(1), summaries[0].IssueCount)
}
