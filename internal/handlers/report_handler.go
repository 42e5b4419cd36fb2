package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rent-credit-reporting-backend/internal/services/reporting"
)

type ReportHandler struct {
	service *reporting.Service
	log     *logrus.Logger
}

func NewReportHandler(s *reporting.Service, log *logrus.Logger) *ReportHandler {
	return &ReportHandler{service: s, log: log}
}

// ValidateBatch handles POST /validate-credit-report-batch.
func (h *ReportHandler) ValidateBatch(c *gin.Context) {
	var payload struct {
		BatchID     string `json:"batchId" binding:"required"`
		AdminUserID string `json:"adminUserId" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batchId and adminUserId are required"})
		return
	}

	batchID, err := uuid.Parse(payload.BatchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	adminID, err := uuid.Parse(payload.AdminUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin user ID"})
		return
	}

	result, err := h.service.Validate(c.Request.Context(), batchID, adminID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"status":      result.Status,
		"issuesCount": result.IssueCount,
	})
}

// ManageBatch handles POST /manage-credit-report-batch: approve, block,
// export_csv and export_json.
func (h *ReportHandler) ManageBatch(c *gin.Context) {
	var payload struct {
		BatchID     string `json:"batchId" binding:"required"`
		Action      string `json:"action" binding:"required"`
		AdminUserID string `json:"adminUserId" binding:"required"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "batchId, action and adminUserId are required"})
		return
	}

	batchID, err := uuid.Parse(payload.BatchID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}
	adminID, err := uuid.Parse(payload.AdminUserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid admin user ID"})
		return
	}
	action, err := reporting.ParseAction(payload.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action: " + payload.Action})
		return
	}

	result, err := h.service.Apply(c.Request.Context(), batchID, action, adminID)
	if err != nil {
		h.fail(c, err)
		return
	}

	switch action {
	case reporting.ActionExportCSV:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"csv":      result.Artifact.CSV,
			"filename": result.Artifact.Filename,
		})
	case reporting.ActionExportJSON:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"data":     result.Artifact.Data,
			"filename": result.Artifact.Filename,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"status":  result.Status,
		})
	}
}

// ListBatches handles GET /batches.
func (h *ReportHandler) ListBatches(c *gin.Context) {
	summaries, err := h.service.ListBatches(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	out := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, gin.H{
			"id":               s.Batch.ID,
			"reporting_period": s.Batch.ReportingPeriod,
			"status":           s.Batch.Status,
			"entry_count":      s.EntryCount,
			"issue_count":      s.IssueCount,
		})
	}
	c.JSON(http.StatusOK, gin.H{"batches": out})
}

// GetBatch handles GET /batches/:batchId.
func (h *ReportHandler) GetBatch(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("batchId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return
	}

	detail, err := h.service.GetBatchDetail(c.Request.Context(), batchID)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch":     detail.Batch,
		"issues":    detail.Issues,
		"audit_log": detail.Audit,
	})
}

func (h *ReportHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reporting.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
	case errors.Is(err, reporting.ErrStateTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, reporting.ErrBadAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.WithError(err).Error("reporting request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
