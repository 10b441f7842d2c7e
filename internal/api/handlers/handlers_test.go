package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"skywise/internal/advisory"
	"skywise/internal/core"
	"skywise/internal/types"
)

// --- Mock Service ---

type mockAdvisoryService struct {
	mu sync.Mutex

	advisory *advisory.Advisory
	err      error
	items    []advisory.BatchItem
	batchErr error

	gotCity   string
	gotCities []string
}

func (m *mockAdvisoryService) GetAdvisory(_ context.Context, city string) (*advisory.Advisory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotCity = city
	return m.advisory, m.err
}

func (m *mockAdvisoryService) GetBatchAdvisories(_ context.Context, cities []string) ([]advisory.BatchItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotCities = cities
	return m.items, m.batchErr
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleAdvisory() *advisory.Advisory {
	return &advisory.Advisory{
		ID:          uuid.MustParse("6f1c2b0e-8a51-4c1e-9a0b-3f7f2f0c9d11"),
		City:        "Cairo",
		Country:     "EG",
		ObservedAt:  time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2026, 7, 1, 12, 0, 1, 0, time.UTC),
		Facts: types.FactSet{
			types.FactTemp:          38.2,
			types.FactHumidity:      20.0,
			types.FactWindSpeed:     4.1,
			types.FactClouds:        0.0,
			types.FactMainCondition: "Clear",
		},
		Conclusions: advisory.Decorate([]types.Label{types.LabelExtremelyHot, types.LabelClearSkies}),
		Narrative:   "A scorcher in Cairo today.",
	}
}

func newRouter(register func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newValidator() *core.Validator {
	return core.NewValidator(discardLogger())
}
