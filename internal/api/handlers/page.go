package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"skywise/internal/advisory"
	"skywise/internal/core"
	"skywise/internal/types"
)

//go:embed templates/forecast.html
var templateFS embed.FS

var forecastTemplate = template.Must(template.ParseFS(templateFS, "templates/forecast.html"))

// rawFields are the observation facts shown in the raw data column.
var rawFields = []struct {
	name string
	fact string
	unit string
}{
	{"Temperature", types.FactTemp, "°C"},
	{"Humidity", types.FactHumidity, "%"},
	{"Wind Speed", types.FactWindSpeed, " m/s"},
	{"Cloudiness", types.FactClouds, "%"},
	{"Condition", types.FactMainCondition, ""},
}

// PageServiceInterface is what the forecast page needs from the advisory
// service.
type PageServiceInterface interface {
	GetAdvisory(ctx context.Context, city string) (*advisory.Advisory, error)
}

type rawValue struct {
	Name  string
	Value string
}

type pageData struct {
	City          string
	MaxCityLength int
	Advisory      *advisory.Advisory
	Raw           []rawValue
	Warning       string
	ErrorMessage  string
}

// PageHandler renders the HTML forecast page.
type PageHandler struct {
	service PageServiceInterface
	logger  *slog.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(svc PageServiceInterface, logger *slog.Logger) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts GET / and GET /forecast at the router root.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleIndex)
	r.Get("/forecast", h.HandleForecast)
}

// HandleIndex renders the empty search form.
func (h *PageHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageData{})
}

// HandleForecast renders the advisory for ?city=. A failed weather fetch
// renders the form with an error message; a failed narrative renders the
// analysis with the narrative error in place of the report.
func (h *PageHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	city := types.NormalizeCity(r.URL.Query().Get("city"))
	if city == "" {
		h.render(w, r, http.StatusBadRequest, pageData{Warning: "Please enter a city name."})
		return
	}

	adv, err := h.service.GetAdvisory(r.Context(), city)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "an unexpected error occurred"
		var appErr *types.AppError
		if errors.As(err, &appErr) {
			status = appErr.HTTPStatus()
			msg = appErr.Message
		}
		h.render(w, r, status, pageData{City: city, ErrorMessage: "Error fetching weather data: " + msg})
		return
	}

	raw := make([]rawValue, len(rawFields))
	for i, f := range rawFields {
		v := advisory.FormatFact(adv.Facts, f.fact)
		if v != "N/A" {
			v += f.unit
		}
		raw[i] = rawValue{Name: f.name, Value: v}
	}

	h.render(w, r, http.StatusOK, pageData{City: city, Advisory: adv, Raw: raw})
}

// render buffers the template output before writing status and headers.
func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.MaxCityLength = types.MaxCityNameLength

	var buf bytes.Buffer
	if err := forecastTemplate.Execute(&buf, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render forecast page", "error", err)
		core.Error(w, r, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to render page", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
