// internal/api/router.go
package api

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/yt2blog/internal/metrics"
	"github.com/Corphon/yt2blog/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// SetupRouter wires the routes. limiter may be nil to disable rate limiting.
func SetupRouter(handler *Handler, m *metrics.Metrics, limiter *RateLimiter, logger *utils.Logger) (*gin.Engine, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(logger))
	r.Use(Metrics(m))
	r.Use(corsMiddleware())
	r.SetHTMLTemplate(tmpl)

	limit := RateLimitByIP(limiter, handler.Response)
	formLimit := RateLimitForm(limiter)

	// ===============================
	// pages
	// ===============================
	r.GET("/", handler.IndexPage)
	r.POST("/generate", formLimit, handler.GenerateForm)
	r.POST("/publish", formLimit, handler.PublishForm)

	r.GET("/ws/progress/:request_id", handler.ProgressWebSocket)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// ===============================
	// JSON API
	// ===============================
	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)

		articles := api.Group("/articles")
		{
			articles.POST("", limit, handler.CreateArticle)
			articles.GET("/:id", handler.GetArticle)
			articles.POST("/:id/publish", limit, handler.PublishArticle)
		}

		api.GET("/progress/:request_id", handler.SubscribeProgress)
	}

	return r, nil
}
