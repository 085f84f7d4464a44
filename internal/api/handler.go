// Package api exposes the reconciliation service over HTTP.
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taxdesk/gst-recon/internal/health"
	"github.com/taxdesk/gst-recon/internal/models"
	"github.com/taxdesk/gst-recon/internal/report"
	"github.com/taxdesk/gst-recon/internal/service"
)

// Handler holds the HTTP handlers for the consumer interface.
type Handler struct {
	svc      *service.ReconciliationService
	exporter *report.Exporter
	logger   *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.ReconciliationService, exporter *report.Exporter, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, exporter: exporter, logger: logger}
}

// Register mounts all routes on the router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/statements", h.uploadStatement)
	rg.POST("/purchases", h.importPurchases)
	rg.GET("/uploads/:id", h.getUpload)
	rg.GET("/uploads/:id/summary", h.getSummary)
	rg.GET("/uploads/:id/entries", h.listEntries)
	rg.POST("/uploads/:id/reconcile", h.runReconciliation)
	rg.GET("/uploads/:id/report", h.downloadReport)
	rg.GET("/entries/:id/suggestions", h.getSuggestions)
	rg.POST("/entries/:id/manual-match", h.manualMatch)
	rg.POST("/entries/:id/status", h.updateStatus)
}

func (h *Handler) uploadStatement(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	upload, err := h.svc.UploadStatement(raw)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, upload)
}

func (h *Handler) importPurchases(c *gin.Context) {
	var req struct {
		Records []models.PurchaseRecord `json:"records" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ImportPurchases(req.Records); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": len(req.Records)})
}

func (h *Handler) getUpload(c *gin.Context) {
	upload, err := h.svc.Upload(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

func (h *Handler) getSummary(c *gin.Context) {
	summary, healthReport, err := h.svc.Summary(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "health": healthReport})
}

func (h *Handler) listEntries(c *gin.Context) {
	status := models.MatchStatus(c.Query("status"))
	if status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status query parameter is required"})
		return
	}

	entries, err := h.svc.EntriesByStatus(c.Param("id"), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

func (h *Handler) runReconciliation(c *gin.Context) {
	result, err := h.svc.RunReconciliation(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) downloadReport(c *gin.Context) {
	uploadID := c.Param("id")
	upload, err := h.svc.Upload(uploadID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	result, err := h.svc.RunReconciliation(uploadID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	data, err := h.exporter.Export(upload, result, health.Calculate(result.Summary))
	if err != nil {
		h.writeError(c, err)
		return
	}

	filename := fmt.Sprintf("recon-%s-%s.xlsx", upload.GSTIN, upload.Period)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) getSuggestions(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	suggestions, err := h.svc.Suggestions(entryID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
}

func (h *Handler) manualMatch(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var req struct {
		PurchaseID int64  `json:"purchase_id" binding:"required"`
		Note       string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.ManualMatch(entryID, req.PurchaseID, req.Note); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(models.StatusManuallyResolved)})
}

func (h *Handler) updateStatus(c *gin.Context) {
	entryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.UpdateStatus(entryID, models.MatchStatus(req.Status), req.Note); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// writeError maps domain errors to HTTP status codes.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUploadNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidDocument),
		errors.Is(err, service.ErrTooManyEntries):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
