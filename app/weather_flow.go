package app

import (
	"context"
	"fmt"
	"strings"

	"kisanrakshak/ai"
	"kisanrakshak/domain/weather"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/google/uuid"
)

// WeatherReport is a daily forecast with deterministic field alerts
type WeatherReport struct {
	Location weather.Location       `json:"location"`
	Days     []weather.DailySummary `json:"days"`
	Alerts   []weather.Alert        `json:"alerts"`
}

// WeatherAdviceResult pairs the forecast with the model's advice
type WeatherAdviceResult struct {
	Report *WeatherReport        `json:"report"`
	Advice *models.WeatherAdvice `json:"advice"`
}

// Weather fetches and aggregates the forecast for a location
func (s *FlowService) Weather(ctx context.Context, loc weather.Location) (*WeatherReport, error) {
	f, err := s.weather.Forecast(ctx, loc)
	if err != nil {
		return nil, err
	}
	days := weather.Summarize(f)
	return &WeatherReport{
		Location: f.Location,
		Days:     days,
		Alerts:   weather.Alerts(days),
	}, nil
}

// FarmingWeatherAdvice turns the forecast into field advice. Deterministic
// alerts are always included ahead of any the model adds.
func (s *FlowService) FarmingWeatherAdvice(ctx context.Context, userID uuid.UUID, req *models.WeatherAdviceRequest) (*WeatherAdviceResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	report, err := s.Weather(ctx, weather.Location{Name: req.City, Lat: req.Lat, Lon: req.Lon})
	if err != nil {
		return nil, err
	}
	if len(report.Days) == 0 {
		return nil, errors.ExternalServiceError("weather", fmt.Errorf("forecast has no data"))
	}

	advice, err := s.forecast.GetJSONResponseFromPrompt(ctx, ai.Call{
		UserID: userID,
		Prompt: ai.PromptWeatherAdvice,
		Replacements: map[string]string{
			"LOCATION": describeLocation(report.Location),
			"CROP":     orDash(req.Crop),
			"STAGE":    orDash(req.Stage),
			"FORECAST": describeDays(report.Days),
			"LANGUAGE": models.LanguageName(req.Language),
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "weather advice failed")
	}
	advice.Alerts = mergeAlerts(report.Alerts, advice.Alerts)

	return &WeatherAdviceResult{Report: report, Advice: advice}, nil
}

func mergeAlerts(fixed []weather.Alert, fromModel []string) []string {
	out := make([]string, 0, len(fixed)+len(fromModel))
	seen := make(map[string]struct{}, cap(out))
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	for _, a := range fixed {
		add(a.Date + ": " + a.Message)
	}
	for _, a := range fromModel {
		add(a)
	}
	return out
}

func describeLocation(loc weather.Location) string {
	name := loc.Name
	if loc.Country != "" {
		name += ", " + loc.Country
	}
	if loc.Lat != nil && loc.Lon != nil {
		name = strings.TrimSpace(fmt.Sprintf("%s (%.3f, %.3f)", name, *loc.Lat, *loc.Lon))
	}
	return orDash(name)
}

func describeDays(days []weather.DailySummary) string {
	lines := make([]string, len(days))
	for i, d := range days {
		lines[i] = fmt.Sprintf("%s: %s, %.0f-%.0f°C, humidity %.0f%%, rain %.1f mm, wind up to %.1f m/s",
			d.Date, d.Condition, d.MinTempC, d.MaxTempC, d.AvgHumidity, d.TotalRainMM, d.MaxWindMS)
	}
	return strings.Join(lines, "\n")
}
