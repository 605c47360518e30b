package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"countryatlas/internal/drivers"
	"countryatlas/internal/handler"
	"countryatlas/internal/model"
	"countryatlas/internal/repository"
	"countryatlas/internal/router"
	"countryatlas/internal/service"
)

type fakeRepo struct {
	records     []model.Country
	refreshedAt *time.Time
}

func (f *fakeRepo) UpsertAll(ctx context.Context, records []model.Country, refreshedAt time.Time) error {
	f.records = records
	f.refreshedAt = &refreshedAt
	return nil
}

func (f *fakeRepo) List(ctx context.Context, filter repository.Filter) ([]model.Country, error) {
	var out []model.Country
	for _, c := range f.records {
		if filter.Region != "" && (c.Region == nil || *c.Region != filter.Region) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeRepo) GetByName(ctx context.Context, name string) (model.Country, error) {
	for _, c := range f.records {
		if c.Name == name {
			return c, nil
		}
	}
	return model.Country{}, repository.ErrNotFound
}

func (f *fakeRepo) DeleteByName(ctx context.Context, name string) error {
	for i, c := range f.records {
		if c.Name == name {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRepo) TopByGDP(ctx context.Context, limit int) ([]model.Country, error) {
	return f.records, nil
}

func (f *fakeRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.records)), nil
}

func (f *fakeRepo) Status(ctx context.Context) (model.AppStatus, error) {
	return model.AppStatus{ID: 1, RefreshedAt: f.refreshedAt}, nil
}

type fakeRefresher struct {
	result service.RefreshResult
	err    error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (service.RefreshResult, error) {
	return f.result, f.err
}

type noopLiveStatus struct{}

func (noopLiveStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {}

func wakanda() model.Country {
	region := "Africa"
	code := "WKD"
	return model.Country{
		Name:         "Wakanda",
		Region:       &region,
		Population:   1000,
		CurrencyCode: &code,
		EstimatedGDP: decimal.NullDecimal{Decimal: decimal.NewFromInt(750000), Valid: true},
		RefreshedAt:  time.Now().UTC(),
	}
}

func newTestRouter(t *testing.T, repo *fakeRepo, refresher handler.Refresher, imagePath string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	countryHandler := handler.NewCountryHandler(service.NewCountryService(repo), refresher, noopLiveStatus{}, imagePath)
	return router.NewRouter(&router.Config{CountryHandler: countryHandler})
}

func doRequest(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestListCountries(t *testing.T) {
	repo := &fakeRepo{records: []model.Country{wakanda()}}
	r := newTestRouter(t, repo, &fakeRefresher{}, "")

	w := doRequest(r, http.MethodGet, "/countries?region=Africa")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var countries []model.Country
	if err := json.Unmarshal(w.Body.Bytes(), &countries); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(countries) != 1 || countries[0].Name != "Wakanda" {
		t.Errorf("unexpected response: %+v", countries)
	}
}

func TestListCountriesRejectsUnknownSort(t *testing.T) {
	r := newTestRouter(t, &fakeRepo{}, &fakeRefresher{}, "")

	w := doRequest(r, http.MethodGet, "/countries?sort=bogus")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["error"] != "Validation failed" {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestGetCountry(t *testing.T) {
	repo := &fakeRepo{records: []model.Country{wakanda()}}
	r := newTestRouter(t, repo, &fakeRefresher{}, "")

	w := doRequest(r, http.MethodGet, "/countries/Wakanda")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/countries/Narnia")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteCountryTwice(t *testing.T) {
	repo := &fakeRepo{records: []model.Country{wakanda()}}
	r := newTestRouter(t, repo, &fakeRefresher{}, "")

	w := doRequest(r, http.MethodDelete, "/countries/Wakanda")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on first delete, got %d", w.Code)
	}
	w = doRequest(r, http.MethodDelete, "/countries/Wakanda")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from status, got %d", w.Code)
	}
	var status model.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.TotalCountries != 0 {
		t.Errorf("expected count 0 after delete, got %d", status.TotalCountries)
	}
}

func TestRefreshEndpointSuccess(t *testing.T) {
	refresher := &fakeRefresher{result: service.RefreshResult{
		RefreshID:      "r-1",
		TotalCountries: 250,
		RefreshedAt:    time.Now().UTC(),
	}}
	r := newTestRouter(t, &fakeRepo{}, refresher, "")

	w := doRequest(r, http.MethodPost, "/countries/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var result service.RefreshResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if result.TotalCountries != 250 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestRefreshEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{
			name: "upstream unavailable",
			err:  &drivers.UnavailableError{Source: "RestCountries API", Err: errors.New("timeout")},
			code: http.StatusServiceUnavailable,
		},
		{
			name: "upstream invalid data",
			err:  &drivers.InvalidDataError{Source: "Exchange Rates API", Err: errors.New("bad payload")},
			code: http.StatusBadGateway,
		},
		{
			name: "refresh in progress",
			err:  service.ErrRefreshInProgress,
			code: http.StatusConflict,
		},
		{
			name: "persist failure",
			err:  service.ErrPersistFailed,
			code: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeRepo{}, &fakeRefresher{err: tc.err}, "")
			w := doRequest(r, http.MethodPost, "/countries/refresh")
			if w.Code != tc.code {
				t.Errorf("expected %d, got %d", tc.code, w.Code)
			}
		})
	}
}

func TestImageEndpoint(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "summary.png")
	r := newTestRouter(t, &fakeRepo{}, &fakeRefresher{}, missing)

	w := doRequest(r, http.MethodGet, "/countries/image")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first render, got %d", w.Code)
	}

	present := filepath.Join(t.TempDir(), "summary.png")
	if err := os.WriteFile(present, []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	r = newTestRouter(t, &fakeRepo{}, &fakeRefresher{}, present)

	w = doRequest(r, http.MethodGet, "/countries/image")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
