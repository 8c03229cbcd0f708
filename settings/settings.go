// Package settings holds the sidebar preferences of the dashboard.
//
// Only Units and Theme change what is rendered. Language, Favorites and
// Alerts are collected and shown back in the sidebar but nothing consumes
// them: there is no translation catalogue, no favourite lookup and no
// notification delivery.
package settings

import (
	"net/url"
	"slices"

	"weatherwise/models"
)

type Theme string

const (
	Light Theme = "Light"
	Dark  Theme = "Dark"
)

// Themes lists the selectable themes in display order
var Themes = []Theme{Light, Dark}

type Language string

const (
	English Language = "English"
	Spanish Language = "Spanish"
	French  Language = "French"
)

// Languages lists the selectable languages in display order
var Languages = []Language{English, Spanish, French}

// FavoriteChoices are the locations offered in the favourites multi-select
var FavoriteChoices = []string{"Karachi", "Mekkah", "Italy", "London", "Paris", "Chicago"}

// DarkStyle is the single global style override applied by the Dark theme
const DarkStyle = "body {color: white; background-color: #0E1117;}"

// FeedbackAck is shown after a feedback submission
const FeedbackAck = "Thank you for your feedback!"

// Alerts are the notification toggles
type Alerts struct {
	Rain     bool `json:"rain"`
	Snow     bool `json:"snow"`
	HighWind bool `json:"highWind"`
}

// Settings is the state of the sidebar for one session
type Settings struct {
	Theme     Theme             `json:"theme"`
	Language  Language          `json:"language"`
	Favorites []string          `json:"favorites"`
	Alerts    Alerts            `json:"alerts"`
	Units     models.UnitSystem `json:"units"`
}

// Default returns the settings of a new session
func Default(units models.UnitSystem) Settings {
	if !units.Valid() {
		units = models.Metric
	}
	return Settings{
		Theme:    Light,
		Language: English,
		Units:    units,
	}
}

// FromForm applies submitted form values on top of base. Unknown values keep
// the base value. Checkbox fields are only read when the form carries the
// hidden "settings" marker, since an unchecked box is simply absent.
func FromForm(values url.Values, base Settings) Settings {
	s := base
	s.Favorites = slices.Clone(base.Favorites)

	if v := Theme(values.Get("theme")); slices.Contains(Themes, v) {
		s.Theme = v
	}
	if v := Language(values.Get("language")); slices.Contains(Languages, v) {
		s.Language = v
	}
	if values.Has("units") {
		if u, err := models.ParseUnitSystem(values.Get("units")); err == nil {
			s.Units = u
		}
	}

	if values.Has("settings") {
		s.Favorites = s.Favorites[:0]
		for _, f := range values["favorites"] {
			if slices.Contains(FavoriteChoices, f) && !slices.Contains(s.Favorites, f) {
				s.Favorites = append(s.Favorites, f)
			}
		}
		s.Alerts = Alerts{
			Rain:     values.Has("rain_alert"),
			Snow:     values.Has("snow_alert"),
			HighWind: values.Has("high_wind_alert"),
		}
	}
	return s
}

// StyleOverride returns the CSS the theme adds to the page, if any
func (s Settings) StyleOverride() string {
	if s.Theme == Dark {
		return DarkStyle
	}
	return ""
}

// IsFavorite reports whether name is selected as a favourite
func (s Settings) IsFavorite(name string) bool {
	return slices.Contains(s.Favorites, name)
}

// SubmitFeedback accepts feedback text and returns the acknowledgement.
// The text is neither stored nor sent anywhere.
func SubmitFeedback(text string) string {
	return FeedbackAck
}
