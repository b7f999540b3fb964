package main

import (
	"fmt"
	"html/template"
	"net/url"
	"path/filepath"
	"time"

	"github.com/gin-contrib/multitemplate"

	"suarawarga/internal/models"
)

func loadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	// Helper to assemble files
	assemble := func(view string) []string {
		files := make([]string, 0, len(layouts)+1)
		files = append(files, layouts...)
		files = append(files, view)
		return files
	}

	r.AddFromFilesFuncs("index.html", funcMap, assemble(templatesDir+"/views/index.html")...)
	r.AddFromFilesFuncs("report.html", funcMap, assemble(templatesDir+"/views/report.html")...)
	r.AddFromFilesFuncs("error.html", funcMap, assemble(templatesDir+"/views/error.html")...)

	return r
}

var funcMap = template.FuncMap{
	"add": func(a, b int) int {
		return a + b
	},
	"timeAgo": timeAgo,
	"shortWallet": func(w string) string {
		if len(w) <= 10 {
			return w
		}
		return w[:4] + "..." + w[len(w)-4:]
	},
	// progress 验证进度百分比
	"progress": func(count int) int {
		if count >= models.VerificationThreshold {
			return 100
		}
		return count * 100 / models.VerificationThreshold
	},
	"categoryLabel": func(c models.Category) string {
		return c.Label()
	},
	"urlquery": func(s string) string {
		return url.QueryEscape(s)
	},
}

func timeAgo(t time.Time) string {
	seconds := int(time.Since(t).Seconds())

	if seconds < 60 {
		return "baru saja"
	} else if seconds < 3600 {
		return fmt.Sprintf("%d menit lalu", seconds/60)
	} else if seconds < 86400 {
		return fmt.Sprintf("%d jam lalu", seconds/3600)
	} else if seconds < 2592000 {
		return fmt.Sprintf("%d hari lalu", seconds/86400)
	} else if seconds < 31536000 {
		return fmt.Sprintf("%d bulan lalu", seconds/2592000)
	}
	return fmt.Sprintf("%d tahun lalu", seconds/31536000)
}
