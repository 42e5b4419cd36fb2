package reporting

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"rent-credit-reporting-backend/internal/models"
)

// Artifact is a rendered export. Exactly one of CSV/Data is populated,
// depending on the requested format.
type Artifact struct {
	Filename string
	Count    int
	CSV      string
	Data     []ExportEntry
}

// ExportEntry is the JSON export shape: the full entry payload plus
// the tenant identity fields, unfiltered.
type ExportEntry struct {
	EntryID         uuid.UUID  `json:"entry_id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	TenantFullName  string     `json:"tenant_full_name"`
	TenantEmail     string     `json:"tenant_email"`
	ReportingPeriod string     `json:"reporting_period"`
	RentAmount      float64    `json:"rent_amount"`
	PaidAmount      float64    `json:"paid_amount"`
	DueDate         *time.Time `json:"due_date"`
	PaidAt          *time.Time `json:"paid_at"`
	OnTime          bool       `json:"on_time"`
	DaysLate        int        `json:"days_late"`
}

// csvColumns is the fixed export column order. Changing it breaks
// downstream consumers; exports of the same batch must be identical
// across calls.
var csvColumns = []string{
	"tenant_id",
	"tenant_full_name",
	"tenant_email",
	"reporting_period",
	"rent_amount",
	"paid_amount",
	"due_date",
	"paid_at",
	"on_time",
	"days_late",
}

func renderCSV(batch *models.Batch, records []EntryRecord) (string, error) {
	var b strings.Builder
	writeCSVRow(&b, csvColumns)
	for _, rec := range records {
		snap, err := rec.Entry.Snapshot()
		if err != nil {
			return "", fmt.Errorf("entry %s: %w", rec.Entry.ID, err)
		}
		writeCSVRow(&b, []string{
			rec.Entry.TenantID.String(),
			rec.TenantFullName,
			rec.TenantEmail,
			batch.ReportingPeriod,
			fmt.Sprintf("%.2f", snap.RentAmount),
			fmt.Sprintf("%.2f", snap.PaidAmount),
			csvDate(snap.DueDate),
			csvDate(snap.PaidAt),
			strconv.FormatBool(snap.OnTime),
			strconv.Itoa(snap.DaysLate),
		})
	}
	return b.String(), nil
}

// writeCSVRow quotes every field. encoding/csv only quotes when it has
// to, and the bureau-format expectation is that string fields always
// arrive quoted.
func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

func csvDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func renderJSON(batch *models.Batch, records []EntryRecord) ([]ExportEntry, error) {
	out := make([]ExportEntry, 0, len(records))
	for _, rec := range records {
		snap, err := rec.Entry.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", rec.Entry.ID, err)
		}
		out = append(out, ExportEntry{
			EntryID:         rec.Entry.ID,
			TenantID:        rec.Entry.TenantID,
			TenantFullName:  rec.TenantFullName,
			TenantEmail:     rec.TenantEmail,
			ReportingPeriod: batch.ReportingPeriod,
			RentAmount:      snap.RentAmount,
			PaidAmount:      snap.PaidAmount,
			DueDate:         snap.DueDate,
			PaidAt:          snap.PaidAt,
			OnTime:          snap.OnTime,
			DaysLate:        snap.DaysLate,
		})
	}
	return out, nil
}

func exportFilename(batch *models.Batch, action Action) string {
	ext := "csv"
	if action == ActionExportJSON {
		ext = "json"
	}
	return fmt.Sprintf("credit-report-%s.%s", batch.ReportingPeriod, ext)
}
