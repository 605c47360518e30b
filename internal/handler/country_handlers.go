package handler

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"countryatlas/internal/drivers"
	"countryatlas/internal/repository"
	"countryatlas/internal/service"
)

// Refresher triggers the refresh pipeline.
type Refresher interface {
	Refresh(ctx context.Context) (service.RefreshResult, error)
}

// LiveStatusHandler serves the websocket status stream.
type LiveStatusHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

type CountryHandler struct {
	countryService *service.CountryService
	refresher      Refresher
	liveStatus     LiveStatusHandler
	imagePath      string
}

func NewCountryHandler(countryService *service.CountryService, refresher Refresher, liveStatus LiveStatusHandler, imagePath string) *CountryHandler {
	return &CountryHandler{
		countryService: countryService,
		refresher:      refresher,
		liveStatus:     liveStatus,
		imagePath:      imagePath,
	}
}

// Refresh handles POST /countries/refresh.
func (h *CountryHandler) Refresh(c *gin.Context) {
	result, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		h.refreshError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CountryHandler) refreshError(c *gin.Context, err error) {
	var unavailable *drivers.UnavailableError
	var invalid *drivers.InvalidDataError

	switch {
	case errors.Is(err, service.ErrRefreshInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Refresh already in progress"})
	case errors.As(err, &unavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "External data source unavailable",
			"details": "Could not fetch data from " + unavailable.Source,
		})
	case errors.As(err, &invalid):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "External data source returned invalid data",
			"details": "Could not use data from " + invalid.Source,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// List handles GET /countries with optional region, currency and sort
// query parameters. Unknown sort values are rejected.
func (h *CountryHandler) List(c *gin.Context) {
	filter := repository.Filter{
		Region:   c.Query("region"),
		Currency: c.Query("currency"),
		Sort:     c.Query("sort"),
	}
	if !repository.ValidSort(filter.Sort) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": gin.H{"sort": "must be one of gdp_desc, gdp_asc, name"},
		})
		return
	}

	countries, err := h.countryService.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, countries)
}

// Get handles GET /countries/:name.
func (h *CountryHandler) Get(c *gin.Context) {
	country, err := h.countryService.GetByName(c.Request.Context(), c.Param("name"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, country)
}

// Delete handles DELETE /countries/:name. Deleting an absent name is a
// 404, including the second delete of the same name.
func (h *CountryHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	err := h.countryService.DeleteByName(c.Request.Context(), name)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Country not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Successfully deleted " + name,
	})
}

// Status handles GET /status.
func (h *CountryHandler) Status(c *gin.Context) {
	status, err := h.countryService.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Image handles GET /countries/image, serving the last rendered summary.
func (h *CountryHandler) Image(c *gin.Context) {
	if _, err := os.Stat(h.imagePath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Summary image not found. Run /countries/refresh to generate it.",
		})
		return
	}
	c.File(h.imagePath)
}

// LiveStatus handles GET /status/live, upgrading to a websocket that
// receives each refresh result as it completes.
func (h *CountryHandler) LiveStatus(c *gin.Context) {
	h.liveStatus.ServeHTTP(c.Writer, c.Request)
}
