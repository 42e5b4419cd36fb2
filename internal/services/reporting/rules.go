package reporting

import (
	"fmt"
	"strings"

	"rent-credit-reporting-backend/internal/models"
)

// Issue types recorded by the validation rules.
const (
	IssueMissingConsent  = "missing_consent"
	IssueDataIntegrity   = "data_integrity"
	IssueMissingIdentity = "missing_identity"
)

// Finding is a single rule failure. A nil Finding means the rule passed.
type Finding struct {
	Type        string
	Description string
}

// ruleInput bundles everything a rule may inspect for one entry: the
// frozen payment snapshot, the tenant identity fields loaded with the
// entry, and the consent row from the bulk consent snapshot (nil when
// the tenant has none).
type ruleInput struct {
	record  EntryRecord
	snap    models.PaymentSnapshot
	snapErr error
	consent *models.Consent
}

// Rule checks one aspect of a reportable entry.
type Rule func(in ruleInput) *Finding

// rules run in fixed order; an entry accumulates at most one finding
// per validation pass because evaluation stops at the first failure.
var rules = []Rule{checkConsent, checkIntegrity, checkIdentity}

func evaluate(in ruleInput) *Finding {
	for _, rule := range rules {
		if f := rule(in); f != nil {
			return f
		}
	}
	return nil
}

func checkConsent(in ruleInput) *Finding {
	switch {
	case in.consent == nil:
		return &Finding{IssueMissingConsent, "no rent-reporting consent on record for tenant"}
	case !in.consent.Granted:
		return &Finding{IssueMissingConsent, "rent-reporting consent was not granted"}
	case in.consent.RevokedAt != nil:
		return &Finding{IssueMissingConsent, fmt.Sprintf("rent-reporting consent revoked at %s", in.consent.RevokedAt.Format("2006-01-02"))}
	}
	return nil
}

func checkIntegrity(in ruleInput) *Finding {
	switch {
	case in.snapErr != nil:
		return &Finding{IssueDataIntegrity, "payment payload is not a valid snapshot"}
	case in.snap.PaidAt == nil:
		return &Finding{IssueDataIntegrity, "payment snapshot is missing paid_at"}
	case in.snap.DueDate == nil:
		return &Finding{IssueDataIntegrity, "payment snapshot is missing due_date"}
	case in.snap.RentAmount <= 0:
		return &Finding{IssueDataIntegrity, fmt.Sprintf("rent amount %.2f is not positive", in.snap.RentAmount)}
	}
	return nil
}

func checkIdentity(in ruleInput) *Finding {
	if strings.TrimSpace(in.record.TenantFullName) == "" {
		return &Finding{IssueMissingIdentity, "tenant has no full name on file"}
	}
	return nil
}
