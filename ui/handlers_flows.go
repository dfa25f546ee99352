package ui

import (
	"bytes"
	"net/http"
	"strings"

	"kisanrakshak/domain/mandi"
	"kisanrakshak/domain/weather"
	"kisanrakshak/internal/errors"
	"kisanrakshak/models"

	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (a *App) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	var req models.DiagnoseCropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	req.Language = withLanguage(req.Language, user)
	result, err := a.flows.DiagnoseCrop(r.Context(), user.ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func priceQuery(r *http.Request) (mandi.Query, error) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return mandi.Query{}, err
	}
	query := mandi.Query{
		Commodity: q.Get("commodity"),
		State:     q.Get("state"),
		District:  q.Get("district"),
		Market:    q.Get("market"),
		Limit:     limit,
	}.Normalize()
	if query.Commodity == "" {
		return mandi.Query{}, errors.InvalidInput("commodity is required")
	}
	return query, nil
}

func (a *App) handlePrices(w http.ResponseWriter, r *http.Request) {
	q, err := priceQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	report, err := a.flows.Prices(r.Context(), q)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *App) handleExportPrices(w http.ResponseWriter, r *http.Request) {
	q, err := priceQuery(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := a.flows.ExportPrices(r.Context(), q, &buf); err != nil {
		a.writeError(w, r, err)
		return
	}
	filename := strings.ToLower(strings.ReplaceAll(q.Commodity, " ", "_")) + "_prices.xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (a *App) handlePriceAdvice(w http.ResponseWriter, r *http.Request) {
	var req models.PriceAdviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	req.Language = withLanguage(req.Language, user)
	if req.State == "" {
		req.State = user.State
	}
	result, err := a.flows.PriceAdvice(r.Context(), user.ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleWeather(w http.ResponseWriter, r *http.Request) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if (lat == nil) != (lon == nil) {
		a.writeError(w, r, errors.InvalidInput("lat and lon must be given together"))
		return
	}
	if lat == nil && city == "" {
		a.writeError(w, r, errors.InvalidInput("city or lat/lon is required"))
		return
	}
	report, err := a.flows.Weather(r.Context(), weather.Location{Name: city, Lat: lat, Lon: lon})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *App) handleWeatherAdvice(w http.ResponseWriter, r *http.Request) {
	var req models.WeatherAdviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	req.Language = withLanguage(req.Language, user)
	result, err := a.flows.FarmingWeatherAdvice(r.Context(), user.ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListSchemes filters the static catalogue; no model call
func (a *App) handleListSchemes(w http.ResponseWriter, r *http.Request) {
	land, err := queryFloat(r, "land_hectares")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	req := &models.SchemeEligibilityRequest{
		Query:    r.URL.Query().Get("q"),
		State:    r.URL.Query().Get("state"),
		Category: r.URL.Query().Get("category"),
	}
	if land != nil {
		req.LandHectares = *land
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schemes": a.flows.MatchSchemes(req)})
}

func (a *App) handleGetScheme(w http.ResponseWriter, r *http.Request) {
	scheme, ok := a.flows.Schemes().Get(strings.ToLower(chi.URLParam(r, "id")))
	if !ok {
		a.writeError(w, r, errors.NotFound("scheme"))
		return
	}
	writeJSON(w, http.StatusOK, scheme)
}

func (a *App) handleSchemeEligibility(w http.ResponseWriter, r *http.Request) {
	var req models.SchemeEligibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	req.Language = withLanguage(req.Language, user)
	if req.State == "" {
		req.State = user.State
	}
	result, err := a.flows.CheckSchemeEligibility(r.Context(), user.ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handleLoanEligibility(w http.ResponseWriter, r *http.Request) {
	var req models.LoanEligibilityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	req.Language = withLanguage(req.Language, user)
	result, err := a.flows.LoanEligibility(r.Context(), user.ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) handlePremiumQuote(w http.ResponseWriter, r *http.Request) {
	sumInsured, err := queryFloat(r, "sum_insured")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if sumInsured == nil {
		a.writeError(w, r, errors.InvalidInput("sum_insured is required"))
		return
	}
	rate, err := queryFloat(r, "actuarial_rate")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var actuarial float64
	if rate != nil {
		actuarial = *rate
	}
	q := r.URL.Query()
	quote, err := a.flows.PremiumQuote(q.Get("season"), q.Get("crop_type"), *sumInsured, actuarial)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (a *App) handleInsuranceAdvice(w http.ResponseWriter, r *http.Request) {
	var req models.InsuranceAdviceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	user := currentUser(r)
	req.Language = withLanguage(req.Language, user)
	if req.State == "" {
		req.State = user.State
	}
	if req.District == "" {
		req.District = user.District
	}
	result, err := a.flows.InsuranceAdvice(r.Context(), user.ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTextToSpeech returns JSON by default and raw WAV when the client
// accepts audio/wav
func (a *App) handleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req models.TextToSpeechRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	out, err := a.flows.TextToSpeech(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "audio/wav") {
		w.Header().Set("Content-Type", "audio/wav")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.WAV)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
