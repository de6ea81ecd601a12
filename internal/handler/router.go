package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/medrag/internal/middleware"
)

type RouterDeps struct {
	Resources *ResourceHandler
	RateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	limited := api.Group("")
	limited.Use(middleware.RateLimit(deps.RateLimit))
	limited.POST("/resources", deps.Resources.Ingest)
	limited.POST("/resources/search", deps.Resources.Search)

	api.GET("/resources/:id", deps.Resources.Get)
}
