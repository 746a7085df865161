package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pulsepath-go/internal/services"
)

// Analyzer is the part of the analysis service the viewer needs.
type Analyzer interface {
	Latest() *services.Snapshot
	Run(ctx context.Context) (*services.Snapshot, error)
}

type ReportHandler struct {
	log      *zap.Logger
	analyzer Analyzer
}

func NewReportHandler(log *zap.Logger, analyzer Analyzer) *ReportHandler {
	return &ReportHandler{log: log, analyzer: analyzer}
}

func (h *ReportHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// latest writes a 503 and returns nil when no analysis has completed yet.
func (h *ReportHandler) latest(c *gin.Context) *services.Snapshot {
	snap := h.analyzer.Latest()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No analysis available yet"})
	}
	return snap
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	snap := h.latest(c)
	if snap == nil {
		return
	}
	c.JSON(http.StatusOK, snap.Report)
}

func (h *ReportHandler) Refresh(c *gin.Context) {
	snap, err := h.analyzer.Run(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to refresh analysis", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to refresh analysis"})
		return
	}
	c.JSON(http.StatusOK, snap.Report)
}

func (h *ReportHandler) ListSessions(c *gin.Context) {
	snap := h.latest(c)
	if snap == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": snap.Sessions,
		"skipped":  snap.Report.Skipped,
	})
}

// ReportText serves the rendered text report.
func (h *ReportHandler) ReportText(c *gin.Context) {
	snap := h.latest(c)
	if snap == nil {
		return
	}
	c.Header("Content-Type", "text/plain; charset=utf-8")
	if err := snap.Report.Render(c.Writer); err != nil {
		h.log.Error("Failed to render report", zap.Error(err))
	}
}
