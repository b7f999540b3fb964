package handlers

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"suarawarga/internal/services"
)

// 盗链提醒 SVG 图片
const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    Hanya untuk Suara Warga
  </text>
</svg>`

// ImageHandler serves the photo attached to a report.
type ImageHandler struct {
	svc *services.Services
}

func NewImageHandler(svc *services.Services) *ImageHandler {
	return &ImageHandler{svc: svc}
}

// Show GET /img/:id
// imageData 以 data URL 存储，这里解码后按原始类型返回
func (h *ImageHandler) Show(c *gin.Context) {
	if !isAllowedRequest(c) {
		c.Header("Content-Type", "image/svg+xml")
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.String(http.StatusOK, hotlinkSVG)
		return
	}

	report, err := h.svc.Reports.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Status(statusFor(err))
		return
	}
	if report.ImageData == "" {
		c.Status(http.StatusNotFound)
		return
	}

	contentType, data, ok := decodeDataURL(report.ImageData)
	if !ok {
		c.Status(http.StatusUnprocessableEntity)
		return
	}

	// 报告不可编辑，图片可以长期缓存
	c.Header("Cache-Control", "public, max-age=604800")
	c.Header("Vary", "Sec-Fetch-Site, Sec-Fetch-Mode")
	c.Data(http.StatusOK, contentType, data)
}

// decodeDataURL parses data:<type>;base64,<payload>.
func decodeDataURL(s string) (string, []byte, bool) {
	rest, found := strings.CutPrefix(s, "data:")
	if !found {
		return "", nil, false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", nil, false
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 || !strings.HasPrefix(contentType, "image/") {
		return "", nil, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, false
	}
	return contentType, data, true
}

// isAllowedRequest 使用 Sec-Fetch-* 头部检测是否为合法请求
func isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	case "", "same-origin", "same-site", "none":
		return true
	}
	// 跨站但是用户主动打开图片
	return c.GetHeader("Sec-Fetch-Mode") == "navigate"
}
