package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"suarawarga/internal/handlers"
	"suarawarga/internal/middleware"
	"suarawarga/internal/services"
	"suarawarga/internal/store"
)

// Deps 路由需要的依赖
type Deps struct {
	Services *services.Services
	Store    store.Store
	Gatherer prometheus.Gatherer // nil 时不注册 /metrics
	SiteURL  string
	Pages    bool // 是否注册 HTML 页面（需要已加载模板）
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Handlers
	reportHandler := handlers.NewReportHandler(d.Services)
	communityHandler := handlers.NewCommunityHandler(d.Services)
	notificationHandler := handlers.NewNotificationHandler(d.Services)
	walletHandler := handlers.NewWalletHandler()
	imageHandler := handlers.NewImageHandler(d.Services)
	seoHandler := handlers.NewSEOHandler(d.Services, d.SiteURL)
	healthHandler := handlers.NewHealthHandler(d.Store)

	// 页面路由 (Pages)
	if d.Pages {
		pageHandler := handlers.NewPageHandler(d.Services)
		r.GET("/", pageHandler.Index)       // 社区首页
		r.GET("/r/:id", pageHandler.Report) // 报告详情页
	}
	r.GET("/img/:id", imageHandler.Show) // 报告图片
	r.GET("/robots.txt", seoHandler.RobotsTxt)
	r.GET("/sitemap.xml", seoHandler.SitemapXML)
	r.GET("/feed.xml", seoHandler.RSSFeed)

	// 运维路由 (Ops)
	r.GET("/healthz", healthHandler.Healthz)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// API 路由
	api := r.Group("/api")
	{
		api.GET("/reports", reportHandler.List)      // 报告列表，支持筛选
		api.GET("/reports/:id", reportHandler.Get)   // 单个报告
		api.POST("/reports", reportHandler.Create)   // 提交报告
		api.POST("/verify", reportHandler.Verify)    // 验证报告
		api.POST("/comments", reportHandler.Comment) // 发表评论

		api.GET("/activities", communityHandler.Activities)   // 最新动态
		api.GET("/leaderboard", communityHandler.Leaderboard) // 排行榜
		api.GET("/stats", communityHandler.Stats)             // 统计
		api.GET("/locations", communityHandler.Locations)     // 省/县列表
		api.GET("/categories", communityHandler.Categories)   // 分类

		api.GET("/notifications", notificationHandler.List) // 我的通知

		api.GET("/wallet", walletHandler.Current)                // 当前连接的钱包
		api.POST("/wallet/connect", walletHandler.Connect)       // 连接钱包
		api.POST("/wallet/disconnect", walletHandler.Disconnect) // 断开钱包
	}

	// 需要已连接钱包的路由
	me := api.Group("/me")
	me.Use(middleware.WalletRequired())
	{
		me.GET("/notifications", notificationHandler.List)
	}
}
