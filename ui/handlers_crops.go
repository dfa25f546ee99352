package ui

import (
	"net/http"

	"kisanrakshak/models"
)

func (a *App) handleRegisterCrop(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterCropRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	crop, err := a.crops.RegisterCrop(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, crop)
}

func (a *App) handleListCrops(w http.ResponseWriter, r *http.Request) {
	crops, err := a.crops.ListCrops(r.Context(), currentUser(r).ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"crops": crops})
}

func (a *App) handleGetCrop(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	detail, err := a.crops.GetCrop(r.Context(), currentUser(r).ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (a *App) handleAddSnap(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req models.AddSnapRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	snap, err := a.crops.AddSnap(r.Context(), currentUser(r).ID, id, &req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (a *App) handleListSnaps(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	snaps, err := a.crops.ListSnaps(r.Context(), currentUser(r).ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"snaps": snaps})
}
