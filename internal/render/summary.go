// Package render draws the post-refresh summary image.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/font/basicfont"

	"countryatlas/internal/model"
)

const (
	imageWidth  = 600
	imageHeight = 400
)

// Summary is the data drawn onto the artifact.
type Summary struct {
	TotalCountries int64
	RefreshedAt    time.Time
	TopByGDP       []model.Country
}

// Renderer writes the summary PNG to a fixed path, overwriting any
// previous artifact.
type Renderer struct {
	path   string
	logger *logrus.Logger
}

func NewRenderer(path string, logger *logrus.Logger) *Renderer {
	return &Renderer{path: path, logger: logger}
}

// Path returns where the artifact is written.
func (r *Renderer) Path() string { return r.path }

func (r *Renderer) Render(summary Summary) error {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetRGB(0, 0, 0)
	dc.DrawString("Country Data Summary", 20, 30)

	dc.SetRGB(0.4, 0.4, 0.4)
	dc.DrawString(fmt.Sprintf("Last Refresh: %s", summary.RefreshedAt.Format("2006-01-02 15:04:05 UTC")), 20, 60)

	dc.SetRGB(0, 0, 0)
	dc.DrawString(fmt.Sprintf("Total Cached Countries: %d", summary.TotalCountries), 20, 90)

	dc.SetRGB(0, 0, 0.8)
	dc.DrawString("Top 5 Countries by Estimated GDP:", 20, 130)

	dc.SetRGB(0, 0, 0)
	y := 160.0
	for i, country := range summary.TopByGDP {
		gdp := "N/A"
		if country.EstimatedGDP.Valid {
			gdp = "$" + country.EstimatedGDP.Decimal.StringFixed(2)
		}
		dc.DrawString(fmt.Sprintf("%d. %s (%s)", i+1, country.Name, gdp), 30, y)
		y += 30
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}
	if err := dc.SavePNG(r.path); err != nil {
		return fmt.Errorf("saving summary image: %w", err)
	}

	r.logger.WithField("path", r.path).Info("Summary image written")
	return nil
}
