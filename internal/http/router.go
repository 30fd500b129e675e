// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"dulich/internal/http/handlers"
	"dulich/internal/http/middleware"
	"dulich/internal/modules/research"
)

type RouterDeps struct {
	Research    *research.Service
	Log         handlers.RecentLister
	Timeout     time.Duration
	CORSOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	corsConfig := cors.DefaultConfig()
	if len(deps.CORSOrigins) == 0 || (len(deps.CORSOrigins) == 1 && deps.CORSOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = deps.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	researchHandler := handlers.NewResearchHandler(deps.Research, deps.Log, deps.Timeout)
	api := r.Group("/api")
	{
		api.POST("/ollama/location-research", researchHandler.LocationResearch)
		api.POST("/ollama/image-analyze", researchHandler.OllamaImageAnalyze)
		api.POST("/gemini/image-analyze", researchHandler.GeminiImageAnalyze)
		api.GET("/research/recent", researchHandler.Recent)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
