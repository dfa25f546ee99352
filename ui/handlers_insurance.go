package ui

import (
	"net/http"

	"kisanrakshak/models"
)

func (a *App) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePolicyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	policy, err := a.insurance.CreatePolicy(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, policy)
}

func (a *App) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies, err := a.insurance.ListPolicies(r.Context(), currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"policies": policies})
}

func (a *App) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	policy, err := a.insurance.GetPolicy(r.Context(), currentUser(r).ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (a *App) handleFileClaim(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req models.FileClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	claim, err := a.insurance.FileClaim(r.Context(), currentUser(r).ID, id, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, claim)
}

func (a *App) handleListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := a.insurance.ListClaims(r.Context(), currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claims": claims})
}

func (a *App) handleUpdateClaim(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req models.UpdateClaimStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	claim, err := a.insurance.UpdateClaimStatus(r.Context(), currentUser(r), id, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

// handleReviewClaims lists claims awaiting a reviewer, filtered by ?status
func (a *App) handleReviewClaims(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	status := models.ClaimStatus(r.URL.Query().Get("status"))
	claims, err := a.insurance.ClaimsForReview(r.Context(), currentUser(r), status, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"claims": claims})
}
