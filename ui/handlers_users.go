package ui

import (
	"context"
	"net/http"
	"time"

	"kisanrakshak/internal/errors"
	"kisanrakshak/models"
)

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := a.health(ctx); err != nil {
			a.logger.Warn("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	registered, err := a.users.Register(r.Context(), &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registered)
}

func (a *App) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

// usageWindow reads ?days (default 30) into a time range ending now
func usageWindow(r *http.Request) (time.Time, time.Time, error) {
	days, err := queryInt(r, "days", 30)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if days < 1 || days > 366 {
		return time.Time{}, time.Time{}, errors.InvalidInput("days must be between 1 and 366")
	}
	end := time.Now().UTC()
	return end.AddDate(0, 0, -days), end, nil
}

// handleUsage summarizes the caller's LLM usage over the last ?days
func (a *App) handleUsage(w http.ResponseWriter, r *http.Request) {
	if a.usage == nil {
		a.writeError(w, r, errors.InternalError("usage tracking is not configured"))
		return
	}
	start, end, err := usageWindow(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	summary, err := a.usage.GetUserUsageSummary(r.Context(), currentUser(r).ID, start, end)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *App) handleUsageRecords(w http.ResponseWriter, r *http.Request) {
	if a.usage == nil {
		a.writeError(w, r, errors.InternalError("usage tracking is not configured"))
		return
	}
	start, end, err := usageWindow(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	records, err := a.usage.GetUserUsage(r.Context(), currentUser(r).ID, start, end)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}

// handleEvents streams the caller's notifications as Server-Sent Events
func (a *App) handleEvents(w http.ResponseWriter, r *http.Request) {
	if a.events == nil {
		a.writeError(w, r, errors.NotFound("event stream"))
		return
	}
	a.events.Stream(w, r, currentUser(r).ID)
}
