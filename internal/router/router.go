package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"pulsepath-go/internal/handlers"
)

// chartAssets is where go-echarts pages load their scripts from.
const chartAssets = "https://go-echarts.github.io"

// Options configures the viewer routes.
type Options struct {
	ChartsDir        string
	RefreshPerMinute uint
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":       "Too many refresh requests. Try again later.",
		"retry_after": time.Until(info.ResetTime).Round(time.Second).String(),
	})
}

func Setup(log *zap.Logger, opts Options, report *handlers.ReportHandler, archive *handlers.ArchiveHandler) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'self'; script-src 'self' 'unsafe-inline' " + chartAssets + "; style-src 'self' 'unsafe-inline'",
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	limit := opts.RefreshPerMinute
	if limit == 0 {
		limit = 5
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/healthz", report.Health)
	router.GET("/report.txt", report.ReportText)
	if opts.ChartsDir != "" {
		router.Static("/charts", opts.ChartsDir)
	}

	api := router.Group("/api")
	{
		api.GET("/report", report.GetReport)
		api.POST("/report/refresh", limiter, report.Refresh)
		api.GET("/sessions", report.ListSessions)

		archiveRoutes := api.Group("/archive")
		{
			archiveRoutes.GET("", archive.Stats)
			archiveRoutes.GET("/:id/ratings", archive.Ratings)
		}
	}

	return router
}
