package browse

import (
	"github.com/labstack/echo/v4"
	"github.com/satchelfiles/satchel/pkg/listing"
	"github.com/satchelfiles/satchel/pkg/thumbnail"
)

func RegisterRoutes(e *echo.Echo, cache *listing.Cache, pipeline *thumbnail.Pipeline) {
	h := &handler{
		cache:    cache,
		pipeline: pipeline,
	}

	e.GET("/browse/list", h.list)
	e.POST("/browse/refresh", h.refresh)
	e.GET("/browse/thumbnail", h.thumbnail)
	e.POST("/browse/visible", h.visible)
	e.GET("/browse/stats", h.stats)
	e.POST("/browse/cleanup", h.cleanup)
	e.POST("/browse/clear", h.clear)
	e.POST("/browse/invalidate", h.invalidate)
}
