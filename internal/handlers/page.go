package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"suarawarga/internal/models"
	"suarawarga/internal/services"
	"suarawarga/internal/utils"
)

// PageHandler renders the server side pages.
type PageHandler struct {
	svc *services.Services
}

func NewPageHandler(svc *services.Services) *PageHandler {
	return &PageHandler{svc: svc}
}

// Index GET / 社区首页：统计、动态、排行榜和报告列表
func (h *PageHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	filter := services.ReportFilter{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Provinsi: c.Query("provinsi"),
		Query:    c.Query("q"),
		Sort:     c.Query("sort"),
	}

	reports, err := h.svc.Reports.List(ctx, filter)
	if err != nil {
		_ = c.Error(err)
		RenderError(c, http.StatusInternalServerError, "Gagal memuat laporan")
		return
	}
	stats, err := h.svc.Aggregation.Stats(ctx)
	if err != nil {
		_ = c.Error(err)
		RenderError(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}
	activities, err := h.svc.Aggregation.RecentActivities(ctx, services.DefaultActivityLimit)
	if err != nil {
		_ = c.Error(err)
		RenderError(c, http.StatusInternalServerError, "Gagal memuat aktivitas")
		return
	}
	leaderboard, err := h.svc.Aggregation.Leaderboard(ctx)
	if err != nil {
		_ = c.Error(err)
		RenderError(c, http.StatusInternalServerError, "Gagal memuat peringkat")
		return
	}

	Render(c, http.StatusOK, "index.html", gin.H{
		"Title":       "Suara Warga",
		"Reports":     reports,
		"Stats":       stats,
		"Activities":  activities,
		"Leaderboard": leaderboard,
		"Filter":      filter,
		"Threshold":   models.VerificationThreshold,
	})
}

// renderedComment 评论正文渲染为安全的 HTML
type renderedComment struct {
	models.Comment
	HTML template.HTML
}

// Report GET /r/:id
func (h *PageHandler) Report(c *gin.Context) {
	report, err := h.svc.Reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := statusFor(err)
		if code == http.StatusNotFound {
			RenderError(c, code, "Laporan tidak ditemukan")
			return
		}
		_ = c.Error(err)
		RenderError(c, code, "Gagal memuat laporan")
		return
	}

	comments := make([]renderedComment, 0, len(report.Comments))
	for _, cm := range report.Comments {
		comments = append(comments, renderedComment{Comment: cm, HTML: utils.RenderMarkdown(cm.Text)})
	}

	wallet := walletOr(c, "")
	Render(c, http.StatusOK, "report.html", gin.H{
		"Title":       report.Title,
		"Report":      report,
		"Description": utils.RenderMarkdown(report.Description),
		"Comments":    comments,
		"Threshold":   models.VerificationThreshold,
		"CanVerify": wallet != "" && wallet != report.WalletAddress &&
			!report.HasVerified(wallet) && !report.IsVerified,
	})
}
