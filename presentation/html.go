package presentation

import (
	"embed"
	"html/template"
	"io"

	"weatherwise/models"
	"weatherwise/settings"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"themes":          func() []settings.Theme { return settings.Themes },
	"languages":       func() []settings.Language { return settings.Languages },
	"favoriteChoices": func() []string { return settings.FavoriteChoices },
	"unitSystems":     func() []models.UnitSystem { return []models.UnitSystem{models.Metric, models.Imperial} },
	"forecastColumns": func() []string { return ForecastColumns },
}).ParseFS(templateFS, "templates/dashboard.html"))

// RenderHTML writes the dashboard page
func RenderHTML(w io.Writer, v View) error {
	return dashboardTemplate.ExecuteTemplate(w, "dashboard.html", v)
}
