package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"countryatlas/internal/model"
)

func TestRenderWritesArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "summary.png")
	renderer := NewRenderer(path, logrus.New())

	summary := Summary{
		TotalCountries: 2,
		RefreshedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TopByGDP: []model.Country{
			{Name: "Wakanda", EstimatedGDP: decimal.NullDecimal{Decimal: decimal.NewFromInt(750000), Valid: true}},
			{Name: "Narnia"},
		},
	}

	if err := renderer.Render(summary); err != nil {
		t.Fatalf("render: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected artifact at %s: %v", path, err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty artifact")
	}
}

func TestRenderOverwritesPreviousArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.png")
	renderer := NewRenderer(path, logrus.New())

	first := Summary{TotalCountries: 1, RefreshedAt: time.Now().UTC()}
	if err := renderer.Render(first); err != nil {
		t.Fatalf("first render: %v", err)
	}

	second := Summary{TotalCountries: 2, RefreshedAt: time.Now().UTC()}
	if err := renderer.Render(second); err != nil {
		t.Fatalf("second render: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected artifact after overwrite: %v", err)
	}
}
