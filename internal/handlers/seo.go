package handlers

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"suarawarga/internal/services"
	"suarawarga/internal/utils"
)

const (
	sitemapLimit = 500
	feedLimit    = 20
)

type SEOHandler struct {
	svc     *services.Services
	siteURL string
}

func NewSEOHandler(svc *services.Services, siteURL string) *SEOHandler {
	return &SEOHandler{svc: svc, siteURL: strings.TrimRight(siteURL, "/")}
}

// RobotsTxt 返回 robots.txt 内容
func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

# 禁止爬取 API 与图片
Disallow: /api/
Disallow: /img/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML 动态生成 sitemap.xml
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	reports, err := h.svc.Reports.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(reports) > sitemapLimit {
		reports = reports[:sitemapLimit]
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)
	fmt.Fprintf(&b, `  <url>
    <loc>%s/</loc>
    <lastmod>%s</lastmod>
    <changefreq>hourly</changefreq>
    <priority>1.0</priority>
  </url>
`, h.siteURL, time.Now().Format("2006-01-02"))

	for _, r := range reports {
		// 待验证的报告变化更频繁
		changefreq, priority := "daily", 0.8
		if r.IsVerified {
			changefreq, priority = "weekly", 0.6
		}
		fmt.Fprintf(&b, `  <url>
    <loc>%s/r/%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, h.siteURL, r.ID, r.CreatedAt.Format("2006-01-02"), changefreq, priority)
	}
	b.WriteString(`</urlset>`)

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// RSSFeed 生成最新报告的 RSS 2.0 feed
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	reports, err := h.svc.Reports.ListAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if len(reports) > feedLimit {
		reports = reports[:feedLimit]
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">
  <channel>
    <title>Suara Warga</title>
    <link>` + h.siteURL + `</link>
    <description>Laporan warga yang diverifikasi bersama</description>
    <language>id-ID</language>
    <lastBuildDate>` + time.Now().Format(time.RFC1123Z) + `</lastBuildDate>
    <atom:link href="` + h.siteURL + `/feed.xml" rel="self" type="application/rss+xml"/>
`)

	for _, r := range reports {
		link := fmt.Sprintf("%s/r/%s", h.siteURL, r.ID)
		content := string(utils.RenderMarkdown(r.Description))
		content += fmt.Sprintf(`<p>%s, %s, %s</p>`,
			escapeXML(r.Kecamatan), escapeXML(r.Kabupaten), escapeXML(r.Provinsi))

		b.WriteString(`    <item>
      <title>` + escapeXML(r.Title) + `</title>
      <link>` + link + `</link>
      <description><![CDATA[` + content + `]]></description>
      <category>` + escapeXML(r.Category.Label()) + `</category>
      <pubDate>` + r.CreatedAt.Format(time.RFC1123Z) + `</pubDate>
      <guid isPermaLink="true">` + link + `</guid>
    </item>
`)
	}
	b.WriteString(`  </channel>
</rss>`)

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// escapeXML 转义XML特殊字符
func escapeXML(s string) string {
	return html.EscapeString(s)
}
