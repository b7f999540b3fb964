package handlers

import (
	"github.com/gin-gonic/gin"

	"suarawarga/internal/services"
)

// ReportHandler serves the report and verification API.
type ReportHandler struct {
	svc *services.Services
}

func NewReportHandler(svc *services.Services) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// List GET /api/reports
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.svc.Reports.List(c.Request.Context(), services.ReportFilter{
		Category:  c.Query("category"),
		Status:    c.Query("status"),
		Provinsi:  c.Query("provinsi"),
		Kabupaten: c.Query("kabupaten"),
		Query:     c.Query("q"),
		Sort:      c.Query("sort"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"reports": reports})
}

// Get GET /api/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.svc.Reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"report": report})
}

// Create POST /api/reports
func (h *ReportHandler) Create(c *gin.Context) {
	var req createReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}
	req.WalletAddress = walletOr(c, req.WalletAddress)

	report, err := h.svc.Engine.Submit(c.Request.Context(), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"report": report})
}

// Verify POST /api/verify
func (h *ReportHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	report, err := h.svc.Engine.Verify(c.Request.Context(), req.ReportID, walletOr(c, req.WalletAddress))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"report": report})
}

// Comment POST /api/comments
func (h *ReportHandler) Comment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	report, err := h.svc.Engine.AddComment(c.Request.Context(), req.ReportID, walletOr(c, req.WalletAddress), req.Text)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"report": report})
}
