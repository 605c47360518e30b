package router

import (
	"github.com/gin-gonic/gin"

	"countryatlas/internal/handler"
)

func registerCountryRoutes(router *gin.Engine, countryHandler *handler.CountryHandler) {
	countries := router.Group("/countries")
	{
		countries.POST("/refresh", countryHandler.Refresh)
		countries.GET("", countryHandler.List)
		countries.GET("/image", countryHandler.Image)
		countries.GET("/:name", countryHandler.Get)
		countries.DELETE("/:name", countryHandler.Delete)
	}

	router.GET("/status", countryHandler.Status)
	router.GET("/status/live", countryHandler.LiveStatus)
}
